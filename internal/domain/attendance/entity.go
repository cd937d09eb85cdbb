package attendance

import (
	"strings"
	"time"
)

type Status string

const (
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Record is one attendance entry. ID is nil until the backend has
// persisted the record. Times are local wall-clock strings in
// "2006-01-02T15:04:05" form; Date is the local calendar day.
type Record struct {
	ID           *int64   `json:"id,omitempty"`
	UserID       int64    `json:"userId"`
	Date         string   `json:"date"`
	CheckInTime  string   `json:"checkInTime"`
	CheckOutTime *string  `json:"checkOutTime,omitempty"`
	Status       Status   `json:"status"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	CheckInPhoto *string  `json:"checkInPhoto,omitempty"`
	CheckOutPhoto *string `json:"checkOutPhoto,omitempty"`
}

// Open reports whether the record is an open session: checked in, not
// yet checked out.
func (r *Record) Open() bool {
	return r != nil && r.Status == StatusInProgress
}

// Clone returns a deep copy, so cached snapshots cannot be mutated
// through shared pointers.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	clone.ID = clonePtr(r.ID)
	clone.CheckOutTime = clonePtr(r.CheckOutTime)
	clone.Latitude = clonePtr(r.Latitude)
	clone.Longitude = clonePtr(r.Longitude)
	clone.CheckInPhoto = clonePtr(r.CheckInPhoto)
	clone.CheckOutPhoto = clonePtr(r.CheckOutPhoto)
	return &clone
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// State is one user's cached attendance status. LastRefresh is the time
// of the last authoritative sync with the backend; the zero value means
// the entry has never been synced.
type State struct {
	IsCheckedIn   bool
	CurrentRecord *Record
	LastRefresh   time.Time
}

// Consistent reports whether IsCheckedIn agrees with CurrentRecord.
func (s State) Consistent() bool {
	return s.IsCheckedIn == s.CurrentRecord.Open()
}

// DateFormat is the calendar-day layout used in Record.Date.
const DateFormat = "2006-01-02"

// TimeFormat is the local wall-clock layout used for check-in and
// check-out times, second precision, no zone.
const TimeFormat = "2006-01-02T15:04:05"

// Today returns the local calendar day for now.
func Today(now time.Time) string {
	return now.Format(DateFormat)
}

// PhotoIsDisplayable reports whether a photo reference can be rendered
// directly. Anything else is a storage object key that must be resolved
// to a temporary URL first.
func PhotoIsDisplayable(photo string) bool {
	return strings.HasPrefix(photo, "data:") || strings.HasPrefix(photo, "http")
}
