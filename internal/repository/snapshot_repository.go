package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shiftly/insights-server/internal/repository/models"
)

type SnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func lookbackStart(lookbackDays int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -lookbackDays)
}

// GetSnapshot reads all clients and venues plus every shift inside the
// lookback window.
func (r *SnapshotRepository) GetSnapshot(ctx context.Context, lookbackDays int) (models.Snapshot, error) {
	var snap models.Snapshot

	clients, err := r.getClients(ctx)
	if err != nil {
		return models.Snapshot{}, err
	}
	snap.Clients = clients

	venues, err := r.getVenues(ctx)
	if err != nil {
		return models.Snapshot{}, err
	}
	snap.Venues = venues

	shifts, err := r.getShifts(ctx, lookbackStart(lookbackDays))
	if err != nil {
		return models.Snapshot{}, err
	}
	snap.Shifts = shifts

	return snap, nil
}

func (r *SnapshotRepository) getClients(ctx context.Context) ([]models.Client, error) {
	const query = `
		SELECT id, name, tags, notes, value_score
		FROM clients
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		var c models.Client
		var tags sql.NullString
		var notes sql.NullString
		var valueScore sql.NullFloat64

		if err := rows.Scan(&c.ID, &c.Name, &tags, &notes, &valueScore); err != nil {
			return nil, fmt.Errorf("scan client row: %w", err)
		}

		// tags column holds a JSON array of strings
		if tags.Valid && tags.String != "" {
			if err := json.Unmarshal([]byte(tags.String), &c.Tags); err != nil {
				return nil, fmt.Errorf("decode tags for client %s: %w", c.ID, err)
			}
		}
		c.Notes = notes.String
		c.ValueScore = valueScore.Float64

		clients = append(clients, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return clients, nil
}

func (r *SnapshotRepository) getVenues(ctx context.Context) ([]models.Venue, error) {
	const query = `
		SELECT id, name
		FROM venues
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query venues: %w", err)
	}
	defer rows.Close()

	var venues []models.Venue
	for rows.Next() {
		var v models.Venue
		if err := rows.Scan(&v.ID, &v.Name); err != nil {
			return nil, fmt.Errorf("scan venue row: %w", err)
		}
		venues = append(venues, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate venues: %w", err)
	}
	return venues, nil
}

func (r *SnapshotRepository) getShifts(ctx context.Context, since time.Time) ([]models.ShiftRecord, error) {
	const query = `
		SELECT id, client_id, venue_id, earnings, occurred_at
		FROM shifts
		WHERE occurred_at >= ?
		ORDER BY occurred_at
	`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query shifts: %w", err)
	}
	defer rows.Close()

	var shifts []models.ShiftRecord
	for rows.Next() {
		var s models.ShiftRecord
		var clientID sql.NullString
		var venueID sql.NullString

		if err := rows.Scan(&s.ID, &clientID, &venueID, &s.Earnings, &s.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan shift row: %w", err)
		}
		s.ClientID = clientID.String
		s.VenueID = venueID.String

		shifts = append(shifts, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shifts: %w", err)
	}
	return shifts, nil
}

// GetPerformance computes shift count and best-performing day-of-week for
// one entity (client or venue) with SQL-computed aggregates. Best day is
// the weekday with the highest average earnings, 0=Sunday per strftime('%w').
func (r *SnapshotRepository) GetPerformance(ctx context.Context, entityID string, lookbackDays int) (models.PerformanceStats, error) {
	since := lookbackStart(lookbackDays)

	const countQuery = `
		SELECT COUNT(*)
		FROM shifts
		WHERE (client_id = ? OR venue_id = ?)
		  AND occurred_at >= ?
	`

	var stats models.PerformanceStats
	if err := r.db.QueryRowContext(ctx, countQuery, entityID, entityID, since).Scan(&stats.ShiftCount); err != nil {
		return models.PerformanceStats{}, fmt.Errorf("query GetPerformance count: %w", err)
	}

	const bestDayQuery = `
		SELECT CAST(strftime('%w', occurred_at) AS INTEGER) AS dow
		FROM shifts
		WHERE (client_id = ? OR venue_id = ?)
		  AND occurred_at >= ?
		GROUP BY dow
		ORDER BY AVG(earnings) DESC, dow ASC
		LIMIT 1
	`

	var dow int
	err := r.db.QueryRowContext(ctx, bestDayQuery, entityID, entityID, since).Scan(&dow)
	switch {
	case err == sql.ErrNoRows:
		// no shifts in window, best day stays nil
	case err != nil:
		return models.PerformanceStats{}, fmt.Errorf("query GetPerformance best day: %w", err)
	default:
		stats.BestDay = &dow
	}

	return stats, nil
}
