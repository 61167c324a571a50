package stream

import "time"

// Event envelope shared by the websocket surface and the redis relay.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type JobSummary struct {
	Destination string    `json:"destination"`
	Date        time.Time `json:"date"`
	Status      string    `json:"status,omitempty"`
}

// LocationEvent is emitted once per accepted position report.
type LocationEvent struct {
	UserID    string      `json:"userId"`
	Username  string      `json:"username"`
	Role      string      `json:"role"`
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
	Job       *JobSummary `json:"job"`
}

type RemovalEvent struct {
	UserID string `json:"userId"`
}

type JobAssignedEvent struct {
	DriverID string `json:"driverId"`
	GuideID  string `json:"guideId"`
}

// LocationUpdate is the inbound websocket counterpart of the tracking
// update call.
type LocationUpdate struct {
	UserID    string    `json:"userId"`
	JobID     string    `json:"jobId"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

type UserStopped struct {
	UserID string `json:"userId"`
}
