package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportCacheSetGet(t *testing.T) {
	c := NewReportCache(time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("hash-1", []byte(`{"risk":"low"}`))
	data, ok := c.Get("hash-1")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"risk":"low"}`), data)
	assert.Equal(t, 1, c.Size())
}

func TestReportCacheExpiry(t *testing.T) {
	c := NewReportCache(20 * time.Millisecond)

	c.Set("hash-1", []byte("report"))
	time.Sleep(50 * time.Millisecond)

	_, ok := c.Get("hash-1")
	assert.False(t, ok)
}

func TestReportCacheDelete(t *testing.T) {
	c := NewReportCache(time.Minute)

	c.Set("hash-1", []byte("report"))
	c.Delete("hash-1")

	_, ok := c.Get("hash-1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestReportCacheOverwrite(t *testing.T) {
	c := NewReportCache(time.Minute)

	c.Set("hash-1", []byte("old"))
	c.Set("hash-1", []byte("new"))

	data, ok := c.Get("hash-1")
	require.True(t, ok)
	assert.Equal(t, []byte("new"), data)
	assert.Equal(t, 1, c.Size())
}
