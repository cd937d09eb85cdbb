package attendance

import (
	"github.com/leaveapproval/attendance-client-go/internal/pkg/validator"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

// Photo is the still image attached to a check-in or check-out attempt:
// either bytes captured from the live camera frame or a user-selected
// file. The two sources are mutually exclusive per attempt.
type Photo struct {
	Data     []byte
	Filename string
	FromFile bool
}

// DataURL renders the photo as an inline payload for the JSON transport.
func (p Photo) DataURL() string {
	return encodeDataURL(p.Data)
}

// CheckInRequest carries everything a check-in submission needs. The
// transport is chosen by Photo.FromFile: multipart upload for selected
// files, inline payload for captured frames.
type CheckInRequest struct {
	UserID      int64
	Date        string
	CheckInTime string
	Latitude    float64
	Longitude   float64
	Photo       Photo
}

func (r *CheckInRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.UserID <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "userId",
			Message: "userId is required",
		})
	}

	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD form",
		})
	}

	if _, ok := validator.IsValidDateTime(r.CheckInTime); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "checkInTime",
			Message: "checkInTime is not a valid timestamp",
		})
	}

	if !validator.IsValidLatitude(r.Latitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if !validator.IsValidLongitude(r.Longitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	if len(r.Photo.Data) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "photo",
			Message: "check-in photo is required",
		})
	} else if r.Photo.FromFile && !validator.IsImageFilename(r.Photo.Filename) {
		errs = append(errs, validator.ValidationError{
			Field:   "photo",
			Message: "invalid file type: only jpg, jpeg, png allowed",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Record builds the inline-transport record the backend expects for
// POST /attendance/check-in.
func (r CheckInRequest) Record() Record {
	lat, lon := r.Latitude, r.Longitude
	photo := r.Photo.DataURL()
	return Record{
		UserID:       r.UserID,
		Date:         r.Date,
		CheckInTime:  r.CheckInTime,
		Status:       StatusInProgress,
		Latitude:     &lat,
		Longitude:    &lon,
		CheckInPhoto: &photo,
	}
}

// CheckOutRequest finalizes an open record. Location is captured at
// check-in only and never re-collected here.
type CheckOutRequest struct {
	RecordID     int64
	CheckOutTime string
	Photo        Photo
}

func (r *CheckOutRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.RecordID <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "record id is required",
		})
	}

	if _, ok := validator.IsValidDateTime(r.CheckOutTime); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "checkOutTime",
			Message: "checkOutTime is not a valid timestamp",
		})
	}

	if len(r.Photo.Data) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "photo",
			Message: "check-out photo is required",
		})
	} else if r.Photo.FromFile && !validator.IsImageFilename(r.Photo.Filename) {
		errs = append(errs, validator.ValidationError{
			Field:   "photo",
			Message: "invalid file type: only jpg, jpeg, png allowed",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Partial builds the inline-transport partial record for
// PUT /attendance/check-out/{id}.
func (r CheckOutRequest) Partial() Record {
	photo := r.Photo.DataURL()
	checkOut := r.CheckOutTime
	return Record{
		ID:            &r.RecordID,
		CheckOutTime:  &checkOut,
		Status:        StatusCompleted,
		CheckOutPhoto: &photo,
	}
}
