package integrity

import (
	"log/slog"

	"github.com/aniss699/bidguard/internal/types"
	"github.com/shopspring/decimal"
)

// RiskLevel is the overall market-abuse risk for a mission
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// SkippedBid records a bid excluded from analysis and why. One malformed
// bid never aborts analysis of the rest.
type SkippedBid struct {
	BidID  string `json:"bid_id"`
	Reason string `json:"reason"`
}

// IntegrityReport is the per-mission market abuse report. It is a pure
// function of the input snapshot: no timestamps, no randomness, stable
// ordering throughout, so identical snapshots serialize to identical bytes.
type IntegrityReport struct {
	Dumping     DumpingSummary   `json:"dumping"`
	Collusion   CollusionSummary `json:"collusion"`
	OverallRisk RiskLevel        `json:"overall_risk"`
	// Recommendations come from a fixed catalogue keyed by which detectors
	// fired, in catalogue order
	Recommendations []string     `json:"recommendations"`
	SkippedBids     []SkippedBid `json:"skipped_bids,omitempty"`
	// PartialReasons lists analysis stages that could not run
	PartialReasons []string `json:"partial_reasons,omitempty"`
}

// Detector runs the dumping and collusion detectors over a snapshot of a
// mission's bids. It is stateless and safe for concurrent use.
type Detector struct {
	cfg Config
}

// NewDetector builds a detector, falling back to defaults on an invalid
// configuration
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{cfg: cfg}, nil
}

// Risk escalation thresholds on collusion confidence
const (
	highRiskConfidence   = 70
	mediumRiskConfidence = 40
)

// Analyze produces the integrity report for one mission's bid set against
// an externally supplied market price reference
func (d *Detector) Analyze(bids []types.Bid, marketPrice decimal.Decimal) IntegrityReport {
	report := IntegrityReport{}

	valid := make([]types.Bid, 0, len(bids))
	for _, bid := range bids {
		if reason := validateBid(bid); reason != "" {
			slog.Warn("Skipping malformed bid", "bid_id", bid.ID, "reason", reason)
			report.SkippedBids = append(report.SkippedBids, SkippedBid{BidID: bid.ID, Reason: reason})
			continue
		}
		valid = append(valid, bid)
	}

	if marketPrice.IsPositive() {
		report.Dumping = d.detectDumping(valid, marketPrice)
	} else {
		report.Dumping = DumpingSummary{Cases: []DumpingCase{}, Severity: SeverityNone}
		report.PartialReasons = append(report.PartialReasons, "dumping: market price unavailable")
	}

	report.Collusion = d.detectCollusion(valid)
	report.OverallRisk = overallRisk(report.Dumping, report.Collusion)
	report.Recommendations = recommendations(report.Dumping, report.Collusion, report.OverallRisk)

	return report
}

// validateBid returns a skip reason for bids the detectors cannot use
func validateBid(bid types.Bid) string {
	if !bid.Price.IsPositive() {
		return "missing or non-positive price"
	}
	if bid.SubmittedAt.IsZero() {
		return "missing submission timestamp"
	}
	return ""
}

// overallRisk combines the two detector outcomes
func overallRisk(dumping DumpingSummary, collusion CollusionSummary) RiskLevel {
	switch {
	case dumping.Severity == SeveritySevere || collusion.Confidence > highRiskConfidence:
		return RiskHigh
	case dumping.Severity == SeverityModerate || collusion.Confidence > mediumRiskConfidence:
		return RiskMedium
	default:
		return RiskLow
	}
}

// recommendations assembles the fixed advice catalogue. Entries appear in
// catalogue order, never generated text.
func recommendations(dumping DumpingSummary, collusion CollusionSummary, risk RiskLevel) []string {
	recs := []string{}

	if len(dumping.Cases) > 0 {
		recs = append(recs, "require a cost justification from providers with below-market prices")
	}
	if dumping.Severity == SeveritySevere {
		recs = append(recs, "suspend the award pending a manual price review")
	}
	if len(dumping.ViabilityDoubtful) > 0 {
		recs = append(recs, "verify delivery viability before accepting flagged bids")
	}
	if len(collusion.Groups) > 0 {
		recs = append(recs, "investigate provider relationships within flagged groups")
	}
	if collusion.Confidence > highRiskConfidence {
		recs = append(recs, "escalate the mission to manual fraud review")
	}

	switch risk {
	case RiskMedium:
		recs = append(recs, "increase automated monitoring for this mission")
	case RiskLow:
		if len(recs) == 0 {
			recs = append(recs, "maintain normal monitoring")
		}
	}

	return recs
}
