package scoring

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniss699/bidguard/internal/types"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	return e
}

func TestScorePrice(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name       string
		price      int64
		budget     int64
		complexity types.Complexity
		expected   float64
	}{
		{
			name:       "dumping risk at the tier boundary",
			price:      2000,
			budget:     5000,
			complexity: types.ComplexityMedium,
			expected:   25,
		},
		{
			name:       "attractive price",
			price:      3000,
			budget:     5000,
			complexity: types.ComplexityMedium,
			expected:   90,
		},
		{
			name:       "acceptable price near budget",
			price:      4500,
			budget:     5000,
			complexity: types.ComplexityMedium,
			expected:   80,
		},
		{
			name:       "fifty percent over budget",
			price:      7500,
			budget:     5000,
			complexity: types.ComplexityMedium,
			expected:   60, // 80 - 0.5*40
		},
		{
			name:       "far over budget hits the floor",
			price:      15000,
			budget:     5000,
			complexity: types.ComplexityMedium,
			expected:   30,
		},
		{
			name:       "high complexity widens the acceptable band",
			price:      4000,
			budget:     5000,
			complexity: types.ComplexityHigh,
			expected:   90, // adjusted 0.8/1.2 ≈ 0.67 lands in the attractive tier
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bid := types.Bid{ID: "b1", Price: decimal.NewFromInt(tt.price)}
			mission := types.Mission{ID: "m1", Budget: decimal.NewFromInt(tt.budget), Complexity: tt.complexity}

			cs := e.scorePrice(bid, mission)
			assert.Equal(t, tt.expected, cs.Score)
			assert.Equal(t, CriterionPrice, cs.Criterion)
		})
	}
}

func TestScorePriceHighComplexityStillDumping(t *testing.T) {
	// the complexity multiplier cannot lift a bid out of the dumping tier:
	// 0.4 / 1.2 is still at or below the ceiling
	e := newTestEngine(t)
	bid := types.Bid{ID: "b1", Price: decimal.NewFromInt(2000)}
	mission := types.Mission{ID: "m1", Budget: decimal.NewFromInt(5000), Complexity: types.ComplexityHigh}

	cs := e.scorePrice(bid, mission)
	assert.Equal(t, 25.0, cs.Score)
}

func TestScorePriceMissingBudget(t *testing.T) {
	e := newTestEngine(t)
	bid := types.Bid{ID: "b1", Price: decimal.NewFromInt(1000)}
	mission := types.Mission{ID: "m1"}

	cs := e.scorePrice(bid, mission)
	assert.Equal(t, 50.0, cs.Score)
	assert.NotEmpty(t, cs.Recommendation)
}

func TestScoreQuality(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name     string
		provider types.Provider
		expected float64
	}{
		{
			name: "top provider maxes out",
			provider: types.Provider{
				Rating: 5.0, CompletedProjects: 60, SuccessRate: 1.0,
			},
			expected: 100, // 40 + 30 + 30
		},
		{
			name: "mid provider",
			provider: types.Provider{
				Rating: 4.0, CompletedProjects: 10, SuccessRate: 0.9,
			},
			expected: 79, // 32 + 20 + 27
		},
		{
			name: "rookie",
			provider: types.Provider{
				Rating: 3.0, CompletedProjects: 1, SuccessRate: 0.5,
			},
			expected: 49, // 24 + 10 + 15
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := e.scoreQuality(tt.provider)
			assert.InDelta(t, tt.expected, cs.Score, 1e-9)
		})
	}
}

func TestScoreFit(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name     string
		required []string
		offered  []string
		expected float64
	}{
		{
			name:     "full match with extra skill",
			required: []string{"react", "node"},
			offered:  []string{"react", "node", "aws"},
			expected: 100, // (0.7 + 0.2 + 0.1) * 100
		},
		{
			name:     "half match no extras",
			required: []string{"react", "python"},
			offered:  []string{"react"},
			expected: 45, // (0.35 + 0 + 0.1) * 100
		},
		{
			name:     "substring matching is case-insensitive",
			required: []string{"Go"},
			offered:  []string{"golang"},
			expected: 80, // full match, no extras
		},
		{
			name:     "no overlap",
			required: []string{"rust"},
			offered:  []string{"php"},
			expected: 30, // baseline 0.1 + extra bonus 0.2
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mission := types.Mission{RequiredSkills: tt.required}
			provider := types.Provider{Skills: tt.offered}

			cs := e.scoreFit(mission, provider)
			assert.InDelta(t, tt.expected, cs.Score, 1e-9)
		})
	}
}

func TestScoreFitNoRequiredSkills(t *testing.T) {
	e := newTestEngine(t)
	cs := e.scoreFit(types.Mission{}, types.Provider{Skills: []string{"go"}})

	assert.Equal(t, float64(geoBaseline), cs.Score)
	assert.NotEmpty(t, cs.Recommendation)
}

func TestScoreDelay(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name         string
		timelineDays int
		urgency      types.Urgency
		responseHrs  float64
		expected     float64
	}{
		{name: "well ahead of schedule", timelineDays: 10, urgency: types.UrgencyMedium, responseHrs: 12, expected: 95},
		{name: "within schedule", timelineDays: 14, urgency: types.UrgencyMedium, responseHrs: 12, expected: 85},
		{name: "slightly over", timelineDays: 20, urgency: types.UrgencyMedium, responseHrs: 12, expected: 70},
		{name: "well over", timelineDays: 40, urgency: types.UrgencyMedium, responseHrs: 12, expected: 40},
		{name: "fast responder bonus clamps at 100", timelineDays: 10, urgency: types.UrgencyMedium, responseHrs: 1, expected: 100},
		{name: "slow responder penalty", timelineDays: 40, urgency: types.UrgencyMedium, responseHrs: 48, expected: 30},
		{name: "urgent mission tightens the window", timelineDays: 10, urgency: types.UrgencyHigh, responseHrs: 12, expected: 70},
		{name: "missing timeline falls back to baseline", timelineDays: 0, urgency: types.UrgencyMedium, responseHrs: 12, expected: 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bid := types.Bid{TimelineDays: tt.timelineDays}
			mission := types.Mission{Urgency: tt.urgency}
			provider := types.Provider{ResponseTimeHours: tt.responseHrs}

			cs := e.scoreDelay(bid, mission, provider)
			assert.Equal(t, tt.expected, cs.Score)
		})
	}
}

func TestScoreRisk(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name     string
		mission  types.Mission
		provider types.Provider
		expected float64
	}{
		{
			name:     "established provider clamps at 100",
			mission:  types.Mission{Complexity: types.ComplexityMedium},
			provider: types.Provider{CompletedProjects: 25, SuccessRate: 0.96},
			expected: 100, // 100 - (-10 - 15)
		},
		{
			name:     "rookie on high complexity",
			mission:  types.Mission{Complexity: types.ComplexityHigh},
			provider: types.Provider{CompletedProjects: 2, SuccessRate: 0.5},
			expected: 35, // 100 - (20 + 25 + 20)
		},
		{
			name:     "middling profile",
			mission:  types.Mission{Complexity: types.ComplexityMedium},
			provider: types.Provider{CompletedProjects: 10, SuccessRate: 0.85},
			expected: 100, // no adjustments fire
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := e.scoreRisk(tt.mission, tt.provider)
			assert.Equal(t, tt.expected, cs.Score)
		})
	}
}

func TestScoreCompletionProbability(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name     string
		bid      types.Bid
		mission  types.Mission
		provider types.Provider
		expected float64
	}{
		{
			name:     "experienced provider at budget",
			bid:      types.Bid{Price: decimal.NewFromInt(5000)},
			mission:  types.Mission{Budget: decimal.NewFromInt(5000), Complexity: types.ComplexityMedium},
			provider: types.Provider{SuccessRate: 1.0, CompletedProjects: 25},
			expected: 85, // 70 + 15
		},
		{
			name:     "lowball rookie on hard mission hits the floor",
			bid:      types.Bid{Price: decimal.NewFromInt(2500)},
			mission:  types.Mission{Budget: decimal.NewFromInt(5000), Complexity: types.ComplexityHigh},
			provider: types.Provider{SuccessRate: 0.5, CompletedProjects: 2},
			expected: 10, // 35 - 20 - 10 clamped up
		},
		{
			name:     "over budget penalty",
			bid:      types.Bid{Price: decimal.NewFromInt(6500)},
			mission:  types.Mission{Budget: decimal.NewFromInt(5000), Complexity: types.ComplexityMedium},
			provider: types.Provider{SuccessRate: 0.9, CompletedProjects: 10},
			expected: 53, // 63 - 10
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := e.scoreCompletionProbability(tt.bid, tt.mission, tt.provider)
			assert.InDelta(t, tt.expected, cs.Score, 1e-9)
		})
	}
}

func TestLowScoresCarryRecommendations(t *testing.T) {
	e := newTestEngine(t)

	bid := types.Bid{ID: "b1", Price: decimal.NewFromInt(1000), TimelineDays: 60}
	mission := types.Mission{
		ID:             "m1",
		Budget:         decimal.NewFromInt(5000),
		Complexity:     types.ComplexityHigh,
		Urgency:        types.UrgencyHigh,
		RequiredSkills: []string{"rust", "kubernetes", "terraform"},
	}
	provider := types.Provider{Rating: 2.5, CompletedProjects: 1, SuccessRate: 0.4, ResponseTimeHours: 48}

	report := e.ScoreBid(bid, mission, provider)
	for _, c := range report.Criteria {
		if c.Score < lowScoreThreshold {
			assert.NotEmptyf(t, c.Recommendation, "criterion %s scored %.0f without a recommendation", c.Criterion, c.Score)
		}
	}
}
