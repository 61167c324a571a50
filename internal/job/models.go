package job

import "time"

// TourJob assigns a driver and a guide to a destination on a date.
// Status values: "on schedule", "cancel", "completed".
type TourJob struct {
	ID          string    `json:"id"`
	JobDate     time.Time `json:"job_date"`
	AdminID     string    `json:"admin_id"`
	DriverID    string    `json:"driver_id"`
	GuideID     string    `json:"guide_id"`
	Destination string    `json:"destination"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	DriverName  string    `json:"driver_name,omitempty"`
	GuideName   string    `json:"guide_name,omitempty"`
}

type Filter struct {
	DriverID string
	GuideID  string
	Status   string
	From     time.Time
	To       time.Time
}
