package scoring

import (
	"fmt"
	"math"

	"github.com/aniss699/bidguard/internal/types"
)

// Weights holds the aggregation weight of each criterion. The six weights
// must sum to exactly 1.0; Validate enforces this as an invariant rather
// than a convention.
type Weights struct {
	Price                 float64 `yaml:"price"`
	Quality               float64 `yaml:"quality"`
	Fit                   float64 `yaml:"fit"`
	Delay                 float64 `yaml:"delay"`
	Risk                  float64 `yaml:"risk"`
	CompletionProbability float64 `yaml:"completion_probability"`
}

// DefaultWeights returns the production weight set
func DefaultWeights() Weights {
	return Weights{
		Price:                 0.25,
		Quality:               0.20,
		Fit:                   0.20,
		Delay:                 0.15,
		Risk:                  0.10,
		CompletionProbability: 0.10,
	}
}

// Validate checks that the weights sum to 1.0 within float tolerance
func (w Weights) Validate() error {
	sum := w.Price + w.Quality + w.Fit + w.Delay + w.Risk + w.CompletionProbability
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("criterion weights must sum to 1.0, got %v", sum)
	}
	return nil
}

// Config holds every tunable constant of the criterion scorers. Thresholds
// were carried over unchanged from the original calibration.
type Config struct {
	Weights Weights `yaml:"weights"`

	// Price tiers operate on the complexity-adjusted price/budget ratio
	DumpingRiskCeiling   float64 `yaml:"dumping_risk_ceiling"`   // at or below: dumping-risk tier
	AttractiveCeiling    float64 `yaml:"attractive_ceiling"`     // below: attractive tier
	OverBudgetDecayRate  float64 `yaml:"over_budget_decay_rate"` // points lost per unit of overrun
	OverBudgetFloorScore float64 `yaml:"over_budget_floor_score"`

	// Confidence adjustments
	ConfidenceBase        float64 `yaml:"confidence_base"`
	SubScoreVarianceLimit float64 `yaml:"sub_score_variance_limit"` // agreement bonus below this

	// Risk factor thresholds surfaced on the report
	CriticalScoreThreshold float64 `yaml:"critical_score_threshold"`
	DumpingFlagRatio       float64 `yaml:"dumping_flag_ratio"` // price below this fraction of budget
	InexperienceFloor      int     `yaml:"inexperience_floor"` // completed projects below this
}

// DefaultConfig returns the scorer configuration used in production
func DefaultConfig() Config {
	return Config{
		Weights:                DefaultWeights(),
		DumpingRiskCeiling:     0.4,
		AttractiveCeiling:      0.7,
		OverBudgetDecayRate:    40,
		OverBudgetFloorScore:   30,
		ConfidenceBase:         75,
		SubScoreVarianceLimit:  200,
		CriticalScoreThreshold: 50,
		DumpingFlagRatio:       0.5,
		InexperienceFloor:      3,
	}
}

// complexityMultiplier widens or tightens the acceptable price band
// depending on mission complexity
func complexityMultiplier(c types.Complexity) float64 {
	switch c {
	case types.ComplexityLow:
		return 0.8
	case types.ComplexityHigh:
		return 1.2
	default:
		return 1.0
	}
}

// expectedDays is the delivery window implied by mission urgency
func expectedDays(u types.Urgency) float64 {
	switch u {
	case types.UrgencyLow:
		return 30
	case types.UrgencyHigh:
		return 7
	default:
		return 14
	}
}
