package integrity

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigAppliesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detection.yaml")
	content := `
dumping:
  threshold: 0.55
  severe_ratio: 0.35
  moderate_ratio: 0.45
collusion:
  timing_window: 15m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 0.55, cfg.Dumping.Threshold)
	assert.Equal(t, 0.35, cfg.Dumping.SevereRatio)
	assert.Equal(t, Duration(15*time.Minute), cfg.Collusion.TimingWindow)
	// untouched fields keep their defaults
	assert.Equal(t, 0.05, cfg.Collusion.PriceTolerance)
	assert.Equal(t, 40, cfg.Collusion.ReportThreshold)
}

func TestLoadConfigRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detection.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dumping:\n  threshold: 1.5\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
