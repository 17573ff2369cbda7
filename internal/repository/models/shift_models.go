package models

import "time"

// Client is a tracked client as stored in the clients table.
type Client struct {
	ID         string
	Name       string
	Tags       []string
	Notes      string
	ValueScore float64
}

// Venue is a workplace as stored in the venues table.
type Venue struct {
	ID   string
	Name string
}

// ShiftRecord is a single worked shift. ClientID is empty when the shift
// was logged without a client, VenueID when the venue is unknown.
type ShiftRecord struct {
	ID         string
	ClientID   string
	VenueID    string
	Earnings   float64
	OccurredAt time.Time
}

// Snapshot is a point-in-time read of all records inside the lookback
// window. It is treated as immutable for the duration of one call.
type Snapshot struct {
	Clients []Client
	Venues  []Venue
	Shifts  []ShiftRecord
}

// PerformanceStats summarizes one entity's recent shift history.
// BestDay is 0=Sunday..6=Saturday, nil when the entity has no shifts.
type PerformanceStats struct {
	ShiftCount int
	BestDay    *int
}
