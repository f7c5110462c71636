package integrity

import (
	"math"
	"sort"
	"time"

	"github.com/aniss699/bidguard/internal/types"
)

// CollusionGroup is a set of providers whose bids show coordinated price or
// timing behaviour. EvidenceScore only accumulates from the fixed pattern
// triggers; a group is reported once it reaches the configured threshold.
type CollusionGroup struct {
	ProviderIDs   []string `json:"provider_ids"`
	MissionIDs    []string `json:"mission_ids"`
	EvidenceScore int      `json:"evidence_score"`
	Patterns      []string `json:"patterns"`
}

// CollusionSummary aggregates the collusion findings for one mission
type CollusionSummary struct {
	Groups []CollusionGroup `json:"groups"`
	// Confidence is the maximum evidence score among reported groups
	Confidence int `json:"confidence"`
}

// groupByPrice partitions bids greedily on price proximity: each ungrouped
// bid seeds a group and claims every later ungrouped bid within the
// relative tolerance of the seed. First match wins and a bid never appears
// twice. This is intentionally not an optimal clustering; the original
// behaviour (and its ordering bias) is preserved.
func (d *Detector) groupByPrice(bids []types.Bid) [][]types.Bid {
	var groups [][]types.Bid
	grouped := make([]bool, len(bids))

	for i := range bids {
		if grouped[i] {
			continue
		}
		seed := bids[i].Price.InexactFloat64()
		if seed == 0 {
			continue
		}
		group := []types.Bid{bids[i]}
		grouped[i] = true

		for j := i + 1; j < len(bids); j++ {
			if grouped[j] {
				continue
			}
			diff := math.Abs(bids[j].Price.InexactFloat64()-seed) / seed
			if diff <= d.cfg.Collusion.PriceTolerance {
				group = append(group, bids[j])
				grouped[j] = true
			}
		}

		if len(group) >= d.cfg.Collusion.MinGroupSize {
			groups = append(groups, group)
		}
	}

	return groups
}

// timingPattern checks for near-simultaneous submissions within a group:
// bids with at least one companion inside the timing window
func (d *Detector) timingPattern(group []types.Bid) bool {
	window := time.Duration(d.cfg.Collusion.TimingWindow)
	closeBids := 0

	for i, a := range group {
		for j, b := range group {
			if i == j {
				continue
			}
			delta := a.SubmittedAt.Sub(b.SubmittedAt)
			if delta < 0 {
				delta = -delta
			}
			if delta <= window {
				closeBids++
				break
			}
		}
	}

	return closeBids >= 2
}

// similarityPattern tests whether the group's prices are tighter than
// honest competition produces, using variance over squared mean
func (d *Detector) similarityPattern(group []types.Bid) bool {
	prices := make([]float64, len(group))
	sum := 0.0
	for i, b := range group {
		prices[i] = b.Price.InexactFloat64()
		sum += prices[i]
	}
	m := sum / float64(len(prices))
	if m == 0 {
		return false
	}

	v := 0.0
	for _, p := range prices {
		dev := p - m
		v += dev * dev
	}
	v /= float64(len(prices))

	return v/(m*m) < d.cfg.Collusion.SimilarityLimit
}

// declinePattern checks for a coordinated price decline: sorted by
// submission time, most successive deltas are negative
func (d *Detector) declinePattern(group []types.Bid) bool {
	ordered := append([]types.Bid(nil), group...)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].SubmittedAt.Before(ordered[j].SubmittedAt)
	})

	negatives := 0
	deltas := len(ordered) - 1
	if deltas == 0 {
		return false
	}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Price.LessThan(ordered[i-1].Price) {
			negatives++
		}
	}

	return float64(negatives)/float64(deltas) >= d.cfg.Collusion.DeclineFraction
}

// detectCollusion forms price groups and scores each against the pattern
// catalogue. Bids are assumed to be pre-filtered for validity.
func (d *Detector) detectCollusion(bids []types.Bid) CollusionSummary {
	summary := CollusionSummary{Groups: []CollusionGroup{}}

	for _, group := range d.groupByPrice(bids) {
		evidence := 0
		var patterns []string

		if d.timingPattern(group) {
			evidence += d.cfg.Collusion.TimingEvidence
			patterns = append(patterns, "near-simultaneous bids")
		}
		if d.similarityPattern(group) {
			evidence += d.cfg.Collusion.SimilarityEvidence
			patterns = append(patterns, "suspiciously similar prices")
		}
		if d.declinePattern(group) {
			evidence += d.cfg.Collusion.DeclineEvidence
			patterns = append(patterns, "coordinated price decline")
		}

		if evidence < d.cfg.Collusion.ReportThreshold {
			continue
		}

		summary.Groups = append(summary.Groups, CollusionGroup{
			ProviderIDs:   uniqueSorted(group, func(b types.Bid) string { return b.ProviderID }),
			MissionIDs:    uniqueSorted(group, func(b types.Bid) string { return b.MissionID }),
			EvidenceScore: evidence,
			Patterns:      patterns,
		})
		if evidence > summary.Confidence {
			summary.Confidence = evidence
		}
	}

	return summary
}

// uniqueSorted extracts a deterministic set of bid attributes
func uniqueSorted(bids []types.Bid, key func(types.Bid) string) []string {
	seen := make(map[string]struct{}, len(bids))
	var out []string
	for _, b := range bids {
		k := key(b)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
