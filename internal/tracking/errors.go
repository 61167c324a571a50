package tracking

import "errors"

var (
	ErrJobNotFound     = errors.New("job not found")
	ErrNoActiveSession = errors.New("active session not found")
	ErrSessionNotFound = errors.New("session not found")
)
