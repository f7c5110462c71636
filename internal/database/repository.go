package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aniss699/bidguard/internal/types"
	"github.com/shopspring/decimal"
)

// Repository supplies immutable snapshots of marketplace records and stores
// published integrity reports. It is the engine-side implementation of the
// mission/bid store collaborator.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// UpsertMission stores or replaces a mission record
func (r *Repository) UpsertMission(m types.Mission) error {
	skills, err := json.Marshal(m.RequiredSkills)
	if err != nil {
		return fmt.Errorf("failed to encode required skills: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO missions (id, budget, complexity, urgency, required_skills, category, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			budget = excluded.budget,
			complexity = excluded.complexity,
			urgency = excluded.urgency,
			required_skills = excluded.required_skills,
			category = excluded.category
	`, m.ID, m.Budget.String(), string(m.Complexity), string(m.Urgency), string(skills), m.Category, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert mission: %w", err)
	}
	return nil
}

// GetMission loads one mission
func (r *Repository) GetMission(id string) (*types.Mission, error) {
	var m types.Mission
	var budget, skills string

	err := r.db.QueryRow(`
		SELECT id, budget, complexity, urgency, required_skills, category
		FROM missions WHERE id = ?
	`, id).Scan(&m.ID, &budget, (*string)(&m.Complexity), (*string)(&m.Urgency), &skills, &m.Category)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query mission: %w", err)
	}

	m.Budget, err = decimal.NewFromString(budget)
	if err != nil {
		return nil, fmt.Errorf("corrupt budget for mission %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(skills), &m.RequiredSkills); err != nil {
		return nil, fmt.Errorf("corrupt skills for mission %s: %w", id, err)
	}
	return &m, nil
}

// UpsertProvider stores or replaces a provider profile
func (r *Repository) UpsertProvider(p types.Provider) error {
	skills, err := json.Marshal(p.Skills)
	if err != nil {
		return fmt.Errorf("failed to encode skills: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO providers (id, rating, completed_projects, success_rate, response_time_hours, skills, location)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			rating = excluded.rating,
			completed_projects = excluded.completed_projects,
			success_rate = excluded.success_rate,
			response_time_hours = excluded.response_time_hours,
			skills = excluded.skills,
			location = excluded.location
	`, p.ID, p.Rating, p.CompletedProjects, p.SuccessRate, p.ResponseTimeHours, string(skills), p.Location)
	if err != nil {
		return fmt.Errorf("failed to upsert provider: %w", err)
	}
	return nil
}

// GetProvider loads one provider profile
func (r *Repository) GetProvider(id string) (*types.Provider, error) {
	var p types.Provider
	var skills string

	err := r.db.QueryRow(`
		SELECT id, rating, completed_projects, success_rate, response_time_hours, skills, location
		FROM providers WHERE id = ?
	`, id).Scan(&p.ID, &p.Rating, &p.CompletedProjects, &p.SuccessRate, &p.ResponseTimeHours, &skills, &p.Location)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query provider: %w", err)
	}

	if err := json.Unmarshal([]byte(skills), &p.Skills); err != nil {
		return nil, fmt.Errorf("corrupt skills for provider %s: %w", id, err)
	}
	return &p, nil
}

// InsertBid records a new bid. Bids are immutable; revisions get new ids.
func (r *Repository) InsertBid(b types.Bid) error {
	_, err := r.db.Exec(`
		INSERT INTO bids (id, mission_id, provider_id, price, timeline_days, submitted_at, message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.MissionID, b.ProviderID, b.Price.String(), b.TimelineDays, b.SubmittedAt, b.Message)
	if err != nil {
		return fmt.Errorf("failed to insert bid: %w", err)
	}
	return nil
}

// ReplaceBids swaps the mission's bid set atomically. Analysis triggers
// always carry the full snapshot, so the previous set is discarded.
func (r *Repository) ReplaceBids(missionID string, bids []types.Bid) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM bids WHERE mission_id = ?`, missionID); err != nil {
		return fmt.Errorf("failed to clear bids: %w", err)
	}
	for _, b := range bids {
		_, err := tx.Exec(`
			INSERT INTO bids (id, mission_id, provider_id, price, timeline_days, submitted_at, message)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, b.ID, missionID, b.ProviderID, b.Price.String(), b.TimelineDays, b.SubmittedAt, b.Message)
		if err != nil {
			return fmt.Errorf("failed to insert bid %s: %w", b.ID, err)
		}
	}
	return tx.Commit()
}

// BidsForMission returns the mission's bid set in submission order
func (r *Repository) BidsForMission(missionID string) ([]types.Bid, error) {
	rows, err := r.db.Query(`
		SELECT id, mission_id, provider_id, price, timeline_days, submitted_at, message
		FROM bids WHERE mission_id = ?
		ORDER BY submitted_at, id
	`, missionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bids: %w", err)
	}
	defer rows.Close()

	var bids []types.Bid
	for rows.Next() {
		var b types.Bid
		var price string
		if err := rows.Scan(&b.ID, &b.MissionID, &b.ProviderID, &price, &b.TimelineDays, &b.SubmittedAt, &b.Message); err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		b.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("corrupt price for bid %s: %w", b.ID, err)
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

// SaveReport publishes a mission's integrity report, replacing the previous
// one
func (r *Repository) SaveReport(missionID, snapshotHash string, report []byte) error {
	_, err := r.db.Exec(`
		INSERT INTO integrity_reports (mission_id, snapshot_hash, report, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(mission_id) DO UPDATE SET
			snapshot_hash = excluded.snapshot_hash,
			report = excluded.report,
			updated_at = excluded.updated_at
	`, missionID, snapshotHash, string(report), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// GetReport returns the last published report for a mission, or nil
func (r *Repository) GetReport(missionID string) ([]byte, string, error) {
	var report, hash string
	err := r.db.QueryRow(`
		SELECT report, snapshot_hash FROM integrity_reports WHERE mission_id = ?
	`, missionID).Scan(&report, &hash)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to query report: %w", err)
	}
	return []byte(report), hash, nil
}
