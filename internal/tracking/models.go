package tracking

import (
	"time"

	"backend-tourtrack/internal/routing"
	"backend-tourtrack/internal/stream"
)

// Session is one tracking run for a (user, job) pair. Exactly one
// session may be active per pair; older active sessions are cancelled
// when a new one starts.
type Session struct {
	ID              string             `json:"id"`
	UserID          string             `json:"user_id"`
	JobID           string             `json:"job_id"`
	Role            string             `json:"role"`
	Status          string             `json:"status"`
	StartedAt       time.Time          `json:"started_at"`
	EndedAt         *time.Time         `json:"ended_at,omitempty"`
	TotalDistanceKm float64            `json:"total_distance_km"`
	Points          []Point            `json:"points,omitempty"`
	Streets         []routing.Street   `json:"streets,omitempty"`
	Username        string             `json:"username,omitempty"`
	Job             *stream.JobSummary `json:"job,omitempty"`
}

// Point is immutable once appended. Insertion order, not the client
// timestamp, is the authoritative temporal order.
type Point struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

type UpdateResult struct {
	Skipped         bool
	TotalDistanceKm float64
}

type StopResult struct {
	TotalDistanceKm float64          `json:"total_distance_km"`
	Streets         []routing.Street `json:"streets"`
}

// ActiveEntry is the ephemeral last-known position of a tracked user.
// Overwritten on every accepted report, removed on stop or disconnect.
// JSON keys follow the live-monitoring contract.
type ActiveEntry struct {
	UserID    string             `json:"userId"`
	JobID     string             `json:"jobId"`
	Username  string             `json:"username"`
	Role      string             `json:"role"`
	Latitude  float64            `json:"latitude"`
	Longitude float64            `json:"longitude"`
	Job       *stream.JobSummary `json:"job,omitempty"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

type HistoryFilter struct {
	UserID    string
	Role      string
	JobID     string
	Status    string
	JobStatus string
	From      time.Time
	To        time.Time
}
