package integrity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniss699/bidguard/internal/types"
)

func TestDetectCollusionNearSimultaneousSimilarPrices(t *testing.T) {
	d := newTestDetector(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	bids := []types.Bid{
		testBid("b1", 1000, base),
		testBid("b2", 1010, base.Add(5*time.Minute)),
		testBid("b3", 1005, base.Add(8*time.Minute)),
	}

	summary := d.detectCollusion(bids)
	require.Len(t, summary.Groups, 1)

	group := summary.Groups[0]
	// timing (30) + similarity (25); the price sequence rises then falls,
	// so the decline pattern stays quiet
	assert.Equal(t, 55, group.EvidenceScore)
	assert.Equal(t, 55, summary.Confidence)
	assert.Contains(t, group.Patterns, "near-simultaneous bids")
	assert.Contains(t, group.Patterns, "suspiciously similar prices")
	assert.NotContains(t, group.Patterns, "coordinated price decline")
	assert.Equal(t, []string{"provider-b1", "provider-b2", "provider-b3"}, group.ProviderIDs)
	assert.Equal(t, []string{"mission-1"}, group.MissionIDs)
}

func TestDetectCollusionCoordinatedDecline(t *testing.T) {
	d := newTestDetector(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// spread over hours so timing stays quiet; steadily declining prices
	bids := []types.Bid{
		testBid("b1", 1000, base),
		testBid("b2", 990, base.Add(1*time.Hour)),
		testBid("b3", 980, base.Add(2*time.Hour)),
	}

	summary := d.detectCollusion(bids)
	require.Len(t, summary.Groups, 1)

	group := summary.Groups[0]
	// similarity (25) + decline (35)
	assert.Equal(t, 60, group.EvidenceScore)
	assert.Contains(t, group.Patterns, "coordinated price decline")
	assert.NotContains(t, group.Patterns, "near-simultaneous bids")
}

func TestDetectCollusionBelowEvidenceThreshold(t *testing.T) {
	d := newTestDetector(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// similar prices but spread out and rising: similarity alone is 25,
	// under the reporting threshold
	bids := []types.Bid{
		testBid("b1", 1000, base),
		testBid("b2", 1010, base.Add(1*time.Hour)),
		testBid("b3", 1020, base.Add(2*time.Hour)),
	}

	summary := d.detectCollusion(bids)
	assert.Empty(t, summary.Groups)
	assert.Equal(t, 0, summary.Confidence)
}

func TestDetectCollusionTooFewBids(t *testing.T) {
	d := newTestDetector(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	bids := []types.Bid{
		testBid("b1", 1000, base),
		testBid("b2", 1001, base.Add(time.Minute)),
	}

	summary := d.detectCollusion(bids)
	assert.Empty(t, summary.Groups)
}

func TestDetectCollusionDispersedPrices(t *testing.T) {
	d := newTestDetector(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	bids := []types.Bid{
		testBid("b1", 1000, base),
		testBid("b2", 2000, base.Add(time.Minute)),
		testBid("b3", 3000, base.Add(2*time.Minute)),
		testBid("b4", 4500, base.Add(3*time.Minute)),
	}

	summary := d.detectCollusion(bids)
	assert.Empty(t, summary.Groups)
}

func TestGroupByPriceFirstMatchWins(t *testing.T) {
	d := newTestDetector(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// b2 is within 5% of both b1 and b4, but the earlier seed claims it
	bids := []types.Bid{
		testBid("b1", 1000, base),
		testBid("b2", 1040, base),
		testBid("b3", 1020, base),
		testBid("b4", 1080, base),
	}

	groups := d.groupByPrice(bids)
	require.Len(t, groups, 1)
	require.Len(t, groups[0], 3)
	assert.Equal(t, "b1", groups[0][0].ID)
	assert.Equal(t, "b2", groups[0][1].ID)
	assert.Equal(t, "b3", groups[0][2].ID)
}

func TestGroupByPriceToleranceIsSeedRelative(t *testing.T) {
	d := newTestDetector(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// 1051 is 5.1% above the seed, just outside the tolerance
	bids := []types.Bid{
		testBid("b1", 1000, base),
		testBid("b2", 1050, base),
		testBid("b3", 1051, base),
	}

	groups := d.groupByPrice(bids)
	assert.Empty(t, groups) // the group of two is under the minimum size
}
