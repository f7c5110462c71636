package scoring

import (
	"fmt"
	"strings"

	"github.com/aniss699/bidguard/internal/types"
)

// Criterion identifies one of the six scored dimensions
type Criterion string

const (
	CriterionPrice                 Criterion = "price"
	CriterionQuality               Criterion = "quality"
	CriterionFit                   Criterion = "fit"
	CriterionDelay                 Criterion = "delay"
	CriterionRisk                  Criterion = "risk"
	CriterionCompletionProbability Criterion = "completion_probability"
)

// CriterionScore is one criterion's contribution to a bid score
type CriterionScore struct {
	Criterion      Criterion `json:"criterion"`
	Score          float64   `json:"score"`  // 0-100
	Weight         float64   `json:"weight"` // 0-1
	Explanation    string    `json:"explanation"`
	Factors        []string  `json:"factors"`
	Recommendation string    `json:"recommendation,omitempty"`
}

const lowScoreThreshold = 60 // below this a criterion carries a recommendation

const geoBaseline = 10 // flat location component of the fit score, on the 100 scale

// scorePrice rates the bid price against the mission budget, adjusted for
// complexity. Moderate undercutting is rewarded while extreme undercutting
// and overruns are both penalized; that asymmetry is deliberate.
func (e *Engine) scorePrice(bid types.Bid, mission types.Mission) CriterionScore {
	cs := CriterionScore{Criterion: CriterionPrice, Weight: e.cfg.Weights.Price}

	if !mission.Budget.IsPositive() {
		// No denominator to score against; stay neutral instead of dividing
		cs.Score = 50
		cs.Explanation = "budget unavailable, price not comparable"
		cs.Factors = []string{"mission budget is zero or missing"}
		cs.Recommendation = "ask the client to set a budget before comparing prices"
		return cs
	}

	ratio := bid.Price.Div(mission.Budget).InexactFloat64()
	mult := complexityMultiplier(mission.Complexity)
	adjusted := ratio / mult

	cs.Factors = append(cs.Factors,
		fmt.Sprintf("price is %.0f%% of budget", ratio*100),
		fmt.Sprintf("complexity multiplier %.1f", mult),
	)

	switch {
	case adjusted <= e.cfg.DumpingRiskCeiling:
		cs.Score = 25
		cs.Explanation = "price far below budget, dumping risk"
		cs.Recommendation = "request a detailed cost breakdown before accepting"
	case adjusted < e.cfg.AttractiveCeiling:
		cs.Score = 90
		cs.Explanation = "attractive price"
	case adjusted <= 1.0:
		cs.Score = 80
		cs.Explanation = "acceptable price"
	default:
		cs.Score = clamp(80-(adjusted-1)*e.cfg.OverBudgetDecayRate, e.cfg.OverBudgetFloorScore, 100)
		cs.Explanation = "price exceeds budget"
		if cs.Score < lowScoreThreshold {
			cs.Recommendation = "negotiate the price down toward the budget"
		}
		cs.Factors = append(cs.Factors, fmt.Sprintf("over budget by %.0f%%", (adjusted-1)*100))
	}

	return cs
}

// experienceTier maps a completed-project count onto the 100-point scale.
// The steps are pre-weighted, so the quality score adds them directly.
func experienceTier(completed int) float64 {
	switch {
	case completed >= 50:
		return 30
	case completed >= 20:
		return 25
	case completed >= 5:
		return 20
	default:
		return 10
	}
}

// scoreQuality combines rating, track record and success rate
func (e *Engine) scoreQuality(provider types.Provider) CriterionScore {
	cs := CriterionScore{Criterion: CriterionQuality, Weight: e.cfg.Weights.Quality}

	ratingPart := 0.4 * (provider.Rating / 5 * 100)
	expPart := experienceTier(provider.CompletedProjects)
	successPart := 0.3 * (provider.SuccessRate * 100)

	cs.Score = clamp(ratingPart+expPart+successPart, 0, 100)
	cs.Factors = []string{
		fmt.Sprintf("rating %.1f/5", provider.Rating),
		fmt.Sprintf("%d completed projects", provider.CompletedProjects),
		fmt.Sprintf("success rate %.0f%%", provider.SuccessRate*100),
	}

	switch {
	case cs.Score >= 80:
		cs.Explanation = "strong track record"
	case cs.Score >= 60:
		cs.Explanation = "solid track record"
	default:
		cs.Explanation = "limited track record"
		cs.Recommendation = "check references and past deliveries"
	}

	return cs
}

// skillMatches reports whether a required skill and a provider skill match.
// Matching is a case-insensitive substring test in either direction.
func skillMatches(required, offered string) bool {
	r := strings.ToLower(required)
	o := strings.ToLower(offered)
	return strings.Contains(o, r) || strings.Contains(r, o)
}

// scoreFit measures how well the provider's skills cover the mission
func (e *Engine) scoreFit(mission types.Mission, provider types.Provider) CriterionScore {
	cs := CriterionScore{Criterion: CriterionFit, Weight: e.cfg.Weights.Fit}

	if len(mission.RequiredSkills) == 0 {
		// Nothing to match against; only the location baseline applies
		cs.Score = geoBaseline
		cs.Explanation = "no required skills listed"
		cs.Factors = []string{"mission lists no required skills"}
		cs.Recommendation = "ask the client to list required skills"
		return cs
	}

	matched := 0
	for _, req := range mission.RequiredSkills {
		for _, skill := range provider.Skills {
			if skillMatches(req, skill) {
				matched++
				break
			}
		}
	}

	extra := 0
	for _, skill := range provider.Skills {
		used := false
		for _, req := range mission.RequiredSkills {
			if skillMatches(req, skill) {
				used = true
				break
			}
		}
		if !used {
			extra++
		}
	}

	matchRatio := float64(matched) / float64(len(mission.RequiredSkills))
	extraBonus := 0.2 * float64(extra)
	if extraBonus > 0.2 {
		extraBonus = 0.2
	}

	cs.Score = clamp((0.7*matchRatio+extraBonus+0.1)*100, 0, 100)
	cs.Factors = []string{
		fmt.Sprintf("%d/%d required skills matched", matched, len(mission.RequiredSkills)),
		fmt.Sprintf("%d additional skills offered", extra),
	}

	switch {
	case matchRatio >= 0.8:
		cs.Explanation = "excellent skill coverage"
	case matchRatio >= 0.5:
		cs.Explanation = "partial skill coverage"
	default:
		cs.Explanation = "weak skill coverage"
	}
	if cs.Score < lowScoreThreshold && cs.Recommendation == "" {
		cs.Recommendation = "verify the provider can cover the missing skills"
	}

	return cs
}

// scoreDelay rates the proposed timeline against the urgency window
func (e *Engine) scoreDelay(bid types.Bid, mission types.Mission, provider types.Provider) CriterionScore {
	cs := CriterionScore{Criterion: CriterionDelay, Weight: e.cfg.Weights.Delay}

	expected := expectedDays(mission.Urgency)
	timeline := float64(bid.TimelineDays)

	if timeline <= 0 {
		// Missing timeline; fall back to the neutral baseline
		cs.Score = 70
		cs.Explanation = "no timeline provided"
		cs.Factors = []string{"bid carries no delivery timeline"}
		return cs
	}

	switch {
	case timeline <= 0.8*expected:
		cs.Score = 95
		cs.Explanation = "ahead of the expected schedule"
	case timeline <= expected:
		cs.Score = 85
		cs.Explanation = "within the expected schedule"
	case timeline <= 1.5*expected:
		cs.Score = 70
		cs.Explanation = "slightly over the expected schedule"
	default:
		cs.Score = 40
		cs.Explanation = "well over the expected schedule"
		cs.Recommendation = "confirm the client accepts the longer timeline"
	}

	cs.Factors = []string{
		fmt.Sprintf("%d days proposed vs %.0f expected", bid.TimelineDays, expected),
	}

	if provider.ResponseTimeHours <= 2 {
		cs.Score += 5
		cs.Factors = append(cs.Factors, "fast responder (under 2h)")
	} else if provider.ResponseTimeHours > 24 {
		cs.Score -= 10
		cs.Factors = append(cs.Factors, "slow responder (over 24h)")
	}

	cs.Score = clamp(cs.Score, 0, 100)
	return cs
}

// scoreRisk is inverted: a higher score means a safer bid
func (e *Engine) scoreRisk(mission types.Mission, provider types.Provider) CriterionScore {
	cs := CriterionScore{Criterion: CriterionRisk, Weight: e.cfg.Weights.Risk}

	riskLevel := 0.0

	if provider.CompletedProjects < 5 {
		riskLevel += 20
		cs.Factors = append(cs.Factors, "fewer than 5 completed projects")
	} else if provider.CompletedProjects >= 20 {
		riskLevel -= 10
		cs.Factors = append(cs.Factors, "established track record")
	}

	if provider.SuccessRate < 0.8 {
		riskLevel += 25
		cs.Factors = append(cs.Factors, "success rate below 80%")
	} else if provider.SuccessRate >= 0.95 {
		riskLevel -= 15
		cs.Factors = append(cs.Factors, "success rate above 95%")
	}

	if mission.Complexity == types.ComplexityHigh && provider.CompletedProjects < 10 {
		riskLevel += 20
		cs.Factors = append(cs.Factors, "high complexity with limited experience")
	}

	cs.Score = clamp(100-riskLevel, 0, 100)

	switch {
	case cs.Score >= 80:
		cs.Explanation = "low risk"
	case cs.Score >= 60:
		cs.Explanation = "moderate risk"
	default:
		cs.Explanation = "elevated risk"
		cs.Recommendation = "consider milestone-based payments"
	}

	return cs
}

// scoreCompletionProbability estimates how likely the bid is to be delivered
func (e *Engine) scoreCompletionProbability(bid types.Bid, mission types.Mission, provider types.Provider) CriterionScore {
	cs := CriterionScore{Criterion: CriterionCompletionProbability, Weight: e.cfg.Weights.CompletionProbability}

	score := provider.SuccessRate * 70
	cs.Factors = []string{fmt.Sprintf("success rate %.0f%%", provider.SuccessRate*100)}

	if mission.Budget.IsPositive() {
		ratio := bid.Price.Div(mission.Budget).InexactFloat64()
		if ratio < 0.6 {
			score -= 20
			cs.Factors = append(cs.Factors, "price may be too low to deliver")
		} else if ratio > 1.2 {
			score -= 10
			cs.Factors = append(cs.Factors, "price well over budget")
		}
	}

	if provider.CompletedProjects >= 20 {
		score += 15
		cs.Factors = append(cs.Factors, "experienced provider")
	}

	if mission.Complexity == types.ComplexityHigh {
		score -= 10
		cs.Factors = append(cs.Factors, "high mission complexity")
	}

	cs.Score = clamp(score, 10, 95)

	switch {
	case cs.Score >= 70:
		cs.Explanation = "likely to complete"
	case cs.Score >= 50:
		cs.Explanation = "uncertain completion"
	default:
		cs.Explanation = "completion at risk"
		cs.Recommendation = "split the mission into verifiable milestones"
	}

	return cs
}
