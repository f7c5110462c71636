package scoring

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniss699/bidguard/internal/types"
)

func TestNewEngineRejectsBadWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights.Price = 0.5 // sum is now 1.25

	_, err := NewEngine(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 1.0")
}

func TestDefaultWeightsAreValid(t *testing.T) {
	require.NoError(t, DefaultWeights().Validate())
}

func TestScoreBidDumpingScenario(t *testing.T) {
	e := newTestEngine(t)

	bid := types.Bid{
		ID:        "bid-1",
		MissionID: "mission-1",
		Price:     decimal.NewFromInt(2000),
	}
	mission := types.Mission{
		ID:         "mission-1",
		Budget:     decimal.NewFromInt(5000),
		Complexity: types.ComplexityMedium,
	}
	provider := types.Provider{Rating: 4.0, CompletedProjects: 10, SuccessRate: 0.9}

	report := e.ScoreBid(bid, mission, provider)

	var priceScore float64
	for _, c := range report.Criteria {
		if c.Criterion == CriterionPrice {
			priceScore = c.Score
		}
	}
	assert.Equal(t, 25.0, priceScore)

	found := false
	for _, f := range report.RiskFactors {
		if f == "price below 50% of budget, possible dumping" {
			found = true
		}
	}
	assert.True(t, found, "expected a dumping risk factor, got %v", report.RiskFactors)
}

func TestScoreBidAggregation(t *testing.T) {
	e := newTestEngine(t)

	// Seeded so failures reproduce
	rng := rand.New(rand.NewSource(42))

	complexities := []types.Complexity{types.ComplexityLow, types.ComplexityMedium, types.ComplexityHigh}
	urgencies := []types.Urgency{types.UrgencyLow, types.UrgencyMedium, types.UrgencyHigh}
	skills := []string{"go", "react", "python", "aws", "design", "seo"}

	for i := 0; i < 500; i++ {
		bid := types.Bid{
			ID:           fmt.Sprintf("bid-%d", i),
			Price:        decimal.NewFromFloat(100 + rng.Float64()*20000),
			TimelineDays: rng.Intn(60),
		}
		mission := types.Mission{
			ID:             fmt.Sprintf("mission-%d", i),
			Budget:         decimal.NewFromFloat(rng.Float64() * 10000), // may be zero
			Complexity:     complexities[rng.Intn(len(complexities))],
			Urgency:        urgencies[rng.Intn(len(urgencies))],
			RequiredSkills: skills[:rng.Intn(len(skills))],
		}
		provider := types.Provider{
			Rating:            rng.Float64() * 5,
			CompletedProjects: rng.Intn(100),
			SuccessRate:       rng.Float64(),
			ResponseTimeHours: rng.Float64() * 72,
			Skills:            skills[rng.Intn(len(skills)):],
		}

		report := e.ScoreBid(bid, mission, provider)

		assert.GreaterOrEqual(t, report.FinalScore, 0)
		assert.LessOrEqual(t, report.FinalScore, 100)
		assert.GreaterOrEqual(t, report.Confidence, 50)
		assert.LessOrEqual(t, report.Confidence, 95)
		require.Len(t, report.Criteria, 6)

		weighted := 0.0
		weightSum := 0.0
		for _, c := range report.Criteria {
			assert.GreaterOrEqual(t, c.Score, 0.0)
			assert.LessOrEqual(t, c.Score, 100.0)
			weighted += c.Score * c.Weight
			weightSum += c.Weight
		}
		assert.InDelta(t, 1.0, weightSum, 1e-9)
		assert.Equal(t, int(math.Round(weighted)), report.FinalScore)
	}
}

func TestConfidenceBounds(t *testing.T) {
	e := newTestEngine(t)

	best := types.Provider{Rating: 5.0, CompletedProjects: 50, SuccessRate: 1.0}
	// identical sub-scores also earn the agreement bonus; total would be
	// 105 without the cap
	assert.Equal(t, 95, e.confidence(best, []float64{80, 80, 80, 80, 80, 80}))

	worst := types.Provider{Rating: 2.0, CompletedProjects: 1, SuccessRate: 0.3}
	assert.Equal(t, 50, e.confidence(worst, []float64{10, 90, 10, 90, 10, 90}))
}

func TestRiskFactorsInexperience(t *testing.T) {
	e := newTestEngine(t)

	bid := types.Bid{ID: "b1", Price: decimal.NewFromInt(4000)}
	mission := types.Mission{ID: "m1", Budget: decimal.NewFromInt(5000), Complexity: types.ComplexityMedium}
	provider := types.Provider{Rating: 4.5, CompletedProjects: 1, SuccessRate: 0.9}

	report := e.ScoreBid(bid, mission, provider)
	assert.Contains(t, report.RiskFactors, "provider has fewer than 3 completed projects")
}

func TestScoreBidDeterministic(t *testing.T) {
	e := newTestEngine(t)

	bid := types.Bid{ID: "b1", Price: decimal.NewFromInt(3500), TimelineDays: 12}
	mission := types.Mission{
		ID: "m1", Budget: decimal.NewFromInt(5000),
		Complexity: types.ComplexityMedium, Urgency: types.UrgencyMedium,
		RequiredSkills: []string{"go", "react"},
	}
	provider := types.Provider{
		Rating: 4.2, CompletedProjects: 15, SuccessRate: 0.88,
		ResponseTimeHours: 3, Skills: []string{"go", "react", "aws"},
	}

	first := e.ScoreBid(bid, mission, provider)
	second := e.ScoreBid(bid, mission, provider)
	assert.Equal(t, first, second)
}
