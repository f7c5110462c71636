package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Complexity describes how demanding a mission is
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Urgency describes how quickly a mission needs delivery
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Bid is one provider's offer on a mission. Bids are immutable once scored;
// a revised offer is a new Bid with its own id.
type Bid struct {
	ID           string          `json:"id"`
	ProviderID   string          `json:"provider_id"`
	MissionID    string          `json:"mission_id"`
	Price        decimal.Decimal `json:"price"`
	TimelineDays int             `json:"timeline_days"`
	SubmittedAt  time.Time       `json:"submitted_at"`
	Message      string          `json:"message"`
}

// Provider is the marketplace profile backing a bid
type Provider struct {
	ID                string   `json:"id"`
	Rating            float64  `json:"rating"` // 0-5
	CompletedProjects int      `json:"completed_projects"`
	SuccessRate       float64  `json:"success_rate"` // 0-1
	ResponseTimeHours float64  `json:"response_time_hours"`
	Skills            []string `json:"skills"`
	Location          string   `json:"location"`
}

// Mission is the project a bid competes on
type Mission struct {
	ID             string          `json:"id"`
	Budget         decimal.Decimal `json:"budget"`
	Complexity     Complexity      `json:"complexity"`
	Urgency        Urgency         `json:"urgency"`
	RequiredSkills []string        `json:"required_skills"`
	Category       string          `json:"category"`
}

// ScoreRequest is the request body for the /score endpoint
type ScoreRequest struct {
	Bid      Bid      `json:"bid" binding:"required"`
	Mission  Mission  `json:"mission" binding:"required"`
	Provider Provider `json:"provider" binding:"required"`
}

// IntegrityRequest is the request body for the /integrity endpoint.
// MarketPrice is optional; when absent the server resolves it from the
// market price reference for the mission category.
type IntegrityRequest struct {
	MissionID   string           `json:"mission_id" binding:"required"`
	Category    string           `json:"category"`
	Bids        []Bid            `json:"bids" binding:"required"`
	MarketPrice *decimal.Decimal `json:"market_price,omitempty"`
}
