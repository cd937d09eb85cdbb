package attendance

import "errors"

// Attendance domain errors
var (
	// Check-in errors
	ErrAlreadyCheckedIn   = errors.New("you already have a pending check-out for today")
	ErrMissingPhoto       = errors.New("a captured or uploaded photo is required")
	ErrMissingLocation    = errors.New("a location fix is required")
	ErrNotCheckedIn       = errors.New("no active check-in record found")
	ErrSubmissionInFlight = errors.New("a submission is already in flight")

	// General errors
	ErrNoCurrentUser      = errors.New("no current user set")
	ErrRecordNotFound     = errors.New("attendance record not found")
)
