package integrity

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ViabilityFloor is the hard price ratio floor below which a bid's
// viability is doubtful. It is deliberately not configurable: whatever
// threshold an operator tunes, a bid under 30% of market price gets flagged.
const ViabilityFloor = 0.3

// DumpingConfig tunes the price dumping detector
type DumpingConfig struct {
	// Threshold is the price/marketPrice ratio under which a bid is a
	// dumping case
	Threshold float64 `yaml:"threshold"`
	// SevereRatio and ModerateRatio split cases into severity tiers
	SevereRatio   float64 `yaml:"severe_ratio"`
	ModerateRatio float64 `yaml:"moderate_ratio"`
}

// Duration wraps time.Duration so YAML files can say "30m" or "90s"
type Duration time.Duration

// UnmarshalYAML parses a Go duration string
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// CollusionConfig tunes the collusion detector. The evidence weights and
// windows were carried over from the original calibration; whether they
// were measured or guessed is an open question, so they are tunable but
// the defaults stay put.
type CollusionConfig struct {
	PriceTolerance     float64  `yaml:"price_tolerance"`  // pairwise relative price difference for grouping
	MinGroupSize       int      `yaml:"min_group_size"`   // smaller groups are discarded
	TimingWindow       Duration `yaml:"timing_window"`    // near-simultaneous submission window
	TimingEvidence     int      `yaml:"timing_evidence"`  // evidence added by the timing pattern
	SimilarityLimit    float64  `yaml:"similarity_limit"` // variance/mean^2 below this is suspicious
	SimilarityEvidence int      `yaml:"similarity_evidence"`
	DeclineFraction    float64  `yaml:"decline_fraction"` // share of negative price deltas
	DeclineEvidence    int      `yaml:"decline_evidence"`
	ReportThreshold    int      `yaml:"report_threshold"` // groups below this evidence are dropped
}

// Config holds both detector configurations
type Config struct {
	Dumping   DumpingConfig   `yaml:"dumping"`
	Collusion CollusionConfig `yaml:"collusion"`
}

// DefaultConfig returns the production detection thresholds
func DefaultConfig() Config {
	return Config{
		Dumping: DumpingConfig{
			Threshold:     0.6,
			SevereRatio:   0.4,
			ModerateRatio: 0.5,
		},
		Collusion: CollusionConfig{
			PriceTolerance:     0.05,
			MinGroupSize:       3,
			TimingWindow:       Duration(30 * time.Minute),
			TimingEvidence:     30,
			SimilarityLimit:    0.02,
			SimilarityEvidence: 25,
			DeclineFraction:    0.7,
			DeclineEvidence:    35,
			ReportThreshold:    40,
		},
	}
}

// Validate rejects configurations that would make the detectors
// meaningless
func (c Config) Validate() error {
	if c.Dumping.Threshold <= 0 || c.Dumping.Threshold >= 1 {
		return fmt.Errorf("dumping threshold must be in (0,1), got %v", c.Dumping.Threshold)
	}
	if c.Dumping.SevereRatio >= c.Dumping.ModerateRatio || c.Dumping.ModerateRatio > c.Dumping.Threshold {
		return fmt.Errorf("dumping severity tiers must be ordered: severe < moderate <= threshold")
	}
	if c.Collusion.MinGroupSize < 2 {
		return fmt.Errorf("collusion min group size must be at least 2, got %d", c.Collusion.MinGroupSize)
	}
	if c.Collusion.PriceTolerance <= 0 {
		return fmt.Errorf("collusion price tolerance must be positive, got %v", c.Collusion.PriceTolerance)
	}
	return nil
}

// LoadConfig reads detector thresholds from a YAML file, applying them over
// the defaults so partial files are fine
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read detection config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse detection config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
