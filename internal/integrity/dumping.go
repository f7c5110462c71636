package integrity

import (
	"fmt"

	"github.com/aniss699/bidguard/internal/types"
	"github.com/shopspring/decimal"
)

// Severity classifies how far below market a dumped price sits
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// severityRank orders severities for worst-case aggregation
func severityRank(s Severity) int {
	switch s {
	case SeveritySevere:
		return 3
	case SeverityModerate:
		return 2
	case SeverityMild:
		return 1
	default:
		return 0
	}
}

// DumpingCase flags one bid priced suspiciously below market.
// Severity is a function of PriceRatio alone.
type DumpingCase struct {
	BidID      string   `json:"bid_id"`
	PriceRatio float64  `json:"price_ratio"`
	Severity   Severity `json:"severity"`
	Reasons    []string `json:"reasons"`
}

// DumpingSummary aggregates the dumping findings for one mission
type DumpingSummary struct {
	Cases []DumpingCase `json:"cases"`
	// Severity is the worst severity present across Cases
	Severity Severity `json:"severity"`
	// ViabilityDoubtful lists bids under the hard ViabilityFloor, whatever
	// the configured threshold is
	ViabilityDoubtful []string `json:"viability_doubtful,omitempty"`
}

// classifySeverity maps a price ratio to a severity tier
func (d *Detector) classifySeverity(ratio float64) Severity {
	switch {
	case ratio < d.cfg.Dumping.SevereRatio:
		return SeveritySevere
	case ratio < d.cfg.Dumping.ModerateRatio:
		return SeverityModerate
	default:
		return SeverityMild
	}
}

// detectDumping classifies each bid's price against the market reference.
// Bids are assumed to be pre-filtered for validity.
func (d *Detector) detectDumping(bids []types.Bid, marketPrice decimal.Decimal) DumpingSummary {
	summary := DumpingSummary{Cases: []DumpingCase{}, Severity: SeverityNone}

	for _, bid := range bids {
		ratio := bid.Price.Div(marketPrice).InexactFloat64()

		if ratio < ViabilityFloor {
			summary.ViabilityDoubtful = append(summary.ViabilityDoubtful, bid.ID)
		}

		if ratio >= d.cfg.Dumping.Threshold {
			continue
		}

		c := DumpingCase{
			BidID:      bid.ID,
			PriceRatio: ratio,
			Severity:   d.classifySeverity(ratio),
		}
		c.Reasons = append(c.Reasons,
			fmt.Sprintf("price is %.0f%% of the market reference", ratio*100))
		if ratio < ViabilityFloor {
			c.Reasons = append(c.Reasons, "price too low to be viable")
		}

		if severityRank(c.Severity) > severityRank(summary.Severity) {
			summary.Severity = c.Severity
		}
		summary.Cases = append(summary.Cases, c)
	}

	return summary
}
