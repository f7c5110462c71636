package scoring

import (
	"fmt"
	"math"

	"github.com/aniss699/bidguard/internal/types"
	"github.com/shopspring/decimal"
)

// BidScoreReport is the full scoring result for one bid
type BidScoreReport struct {
	BidID       string           `json:"bid_id"`
	FinalScore  int              `json:"final_score"` // 0-100
	Confidence  int              `json:"confidence"`  // 50-95
	Criteria    []CriterionScore `json:"criteria"`
	RiskFactors []string         `json:"risk_factors"`
}

// Engine scores bids against missions with a fixed, validated weight set.
// All methods are pure; an Engine is safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine builds a scoring engine, rejecting weight sets that do not sum
// to 1.0
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Weights.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// ScoreBid runs the six criterion scorers and aggregates them into a final
// score, confidence and risk factors
func (e *Engine) ScoreBid(bid types.Bid, mission types.Mission, provider types.Provider) BidScoreReport {
	criteria := []CriterionScore{
		e.scorePrice(bid, mission),
		e.scoreQuality(provider),
		e.scoreFit(mission, provider),
		e.scoreDelay(bid, mission, provider),
		e.scoreRisk(mission, provider),
		e.scoreCompletionProbability(bid, mission, provider),
	}

	weighted := 0.0
	subScores := make([]float64, len(criteria))
	for i, c := range criteria {
		weighted += c.Score * c.Weight
		subScores[i] = c.Score
	}

	return BidScoreReport{
		BidID:       bid.ID,
		FinalScore:  int(math.Round(clamp(weighted, 0, 100))),
		Confidence:  e.confidence(provider, subScores),
		Criteria:    criteria,
		RiskFactors: e.riskFactors(bid, mission, provider, criteria),
	}
}

// confidence reflects how much history backs the score and how much the
// sub-scores agree with each other
func (e *Engine) confidence(provider types.Provider, subScores []float64) int {
	conf := e.cfg.ConfidenceBase

	if provider.CompletedProjects >= 20 {
		conf += 15
	} else if provider.CompletedProjects < 5 {
		conf -= 10
	}

	if provider.Rating >= 4.5 {
		conf += 10
	} else if provider.Rating < 3.5 {
		conf -= 15
	}

	if variance(subScores) < e.cfg.SubScoreVarianceLimit {
		conf += 5
	}

	return int(clamp(conf, 50, 95))
}

// riskFactors surfaces anything a reviewer should see next to the score
func (e *Engine) riskFactors(bid types.Bid, mission types.Mission, provider types.Provider, criteria []CriterionScore) []string {
	factors := []string{}

	for _, c := range criteria {
		if c.Score < e.cfg.CriticalScoreThreshold {
			factors = append(factors, fmt.Sprintf("%s: critical score (%.0f%%)", criterionName(c.Criterion), c.Score))
		}
	}

	if mission.Budget.IsPositive() {
		flagPrice := mission.Budget.Mul(decimal.NewFromFloat(e.cfg.DumpingFlagRatio))
		if bid.Price.LessThan(flagPrice) {
			factors = append(factors, fmt.Sprintf("price below %.0f%% of budget, possible dumping", e.cfg.DumpingFlagRatio*100))
		}
	}

	if provider.CompletedProjects < e.cfg.InexperienceFloor {
		factors = append(factors, fmt.Sprintf("provider has fewer than %d completed projects", e.cfg.InexperienceFloor))
	}

	return factors
}

// criterionName renders a criterion for report text
func criterionName(c Criterion) string {
	switch c {
	case CriterionPrice:
		return "Price"
	case CriterionQuality:
		return "Quality"
	case CriterionFit:
		return "Fit"
	case CriterionDelay:
		return "Delay"
	case CriterionRisk:
		return "Risk"
	case CriterionCompletionProbability:
		return "CompletionProbability"
	default:
		return string(c)
	}
}
