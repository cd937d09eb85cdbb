package attendance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leaveapproval/attendance-client-go/internal/domain/attendance"
	"github.com/leaveapproval/attendance-client-go/internal/service/attendancestate"
	"github.com/leaveapproval/attendance-client-go/internal/service/capture"
	"github.com/leaveapproval/attendance-client-go/internal/service/location"
)

// Phase is the workflow position for the current user-day.
type Phase string

const (
	PhaseAwaitingCheckIn  Phase = "awaiting-check-in"
	PhaseAwaitingCheckOut Phase = "awaiting-check-out"
)

// ErrStaleResponse marks a server response that arrived after the
// workflow had already moved on; its payload was discarded.
var ErrStaleResponse = errors.New("response superseded by newer state")

// Backend is the slice of the REST client the workflow needs.
type Backend interface {
	CheckIn(ctx context.Context, record attendance.Record) (attendance.Record, error)
	CheckInWithFile(ctx context.Context, req attendance.CheckInRequest) (attendance.Record, error)
	CheckOut(ctx context.Context, id int64, partial attendance.Record) (attendance.Record, error)
	CheckOutWithFile(ctx context.Context, req attendance.CheckOutRequest) (attendance.Record, error)
	ListByUser(ctx context.Context, userID int64) ([]attendance.Record, error)
}

// Service drives the check-in/check-out workflow: it composes the
// state cache, the capture pipeline, and the location pipeline,
// enforces every precondition before a submission leaves the process,
// and reconciles local state after each server response.
type Service struct {
	backend  Backend
	cache    *attendancestate.Service
	capture  *capture.Pipeline
	location *location.Pipeline
	logger   *slog.Logger
	now      func() time.Time

	mu         sync.Mutex
	userID     int64
	phase      Phase
	current    *attendance.Record
	history    []attendance.Record
	inFlight   map[Phase]bool
	generation uuid.UUID
}

func NewService(
	backend Backend,
	cache *attendancestate.Service,
	capturePipeline *capture.Pipeline,
	locationPipeline *location.Pipeline,
	logger *slog.Logger,
) *Service {
	return &Service{
		backend:    backend,
		cache:      cache,
		capture:    capturePipeline,
		location:   locationPipeline,
		logger:     logger,
		now:        time.Now,
		phase:      PhaseAwaitingCheckIn,
		inFlight:   make(map[Phase]bool),
		generation: uuid.New(),
	}
}

// WithClock overrides the time source. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Start performs startup reconciliation for the given user. A fresh
// cached entry showing an open session is adopted without a network
// call; anything else is re-derived from the backend, and the backend's
// answer always wins over a stale cache.
func (s *Service) Start(ctx context.Context, userID int64) error {
	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()

	s.cache.SetCurrentUser(userID)

	cached := s.cache.CurrentState()
	if cached.IsCheckedIn && cached.CurrentRecord != nil && !s.cache.ShouldRefresh() {
		s.mu.Lock()
		s.current = cached.CurrentRecord
		s.phase = PhaseAwaitingCheckOut
		s.generation = uuid.New()
		s.mu.Unlock()
		s.logger.Debug("adopted cached open session", "user_id", userID, "record_id", cached.CurrentRecord.ID)
		return nil
	}

	return s.Reconcile(ctx)
}

// Reconcile queries the backend for today's record and aligns phase and
// cache with the answer.
func (s *Service) Reconcile(ctx context.Context) error {
	s.mu.Lock()
	userID := s.userID
	gen := s.generation
	s.mu.Unlock()

	if userID == 0 {
		return attendance.ErrNoCurrentUser
	}

	records, err := s.backend.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to check attendance status: %w", err)
	}

	today := attendance.Today(s.now())
	var todayRecord *attendance.Record
	for i := range records {
		if records[i].Date == today {
			todayRecord = &records[i]
			break
		}
	}

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		s.logger.Debug("discarding stale reconciliation response", "user_id", userID)
		return ErrStaleResponse
	}
	s.history = records
	if todayRecord.Open() {
		s.current = todayRecord.Clone()
		s.phase = PhaseAwaitingCheckOut
	} else {
		s.current = nil
		s.phase = PhaseAwaitingCheckIn
	}
	open := s.current
	s.mu.Unlock()

	if open != nil {
		s.cache.UpdateState(true, open)
	} else {
		s.cache.UpdateState(false, nil)
	}
	s.cache.MarkRefreshed()

	s.logger.Debug("attendance status reconciled", "user_id", userID, "checked_in", open != nil)
	return nil
}

// Phase returns the current workflow phase.
func (s *Service) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// CurrentRecord returns the open record, or nil outside an open session.
func (s *Service) CurrentRecord() *attendance.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// History returns the last fetched record list, newest first.
func (s *Service) History() []attendance.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]attendance.Record, len(s.history))
	copy(out, s.history)
	return out
}

// CheckIn submits a check-in for today. Preconditions, checked before
// any network call: an active user, no open session for today, a
// captured-or-uploaded photo, a location fix, and no submission already
// in flight. File transport is used when the photo came from a file,
// inline payload otherwise.
func (s *Service) CheckIn(ctx context.Context) (attendance.Record, error) {
	s.mu.Lock()
	if s.userID == 0 {
		s.mu.Unlock()
		return attendance.Record{}, attendance.ErrNoCurrentUser
	}
	if s.current.Open() {
		s.mu.Unlock()
		return attendance.Record{}, attendance.ErrAlreadyCheckedIn
	}
	if s.inFlight[PhaseAwaitingCheckIn] {
		s.mu.Unlock()
		return attendance.Record{}, attendance.ErrSubmissionInFlight
	}

	photo, ok := s.capture.Photo(capture.ModeCheckIn)
	if !ok {
		s.mu.Unlock()
		return attendance.Record{}, attendance.ErrMissingPhoto
	}
	fix, ok := s.location.Current()
	if !ok {
		s.mu.Unlock()
		return attendance.Record{}, attendance.ErrMissingLocation
	}

	now := s.now()
	req := attendance.CheckInRequest{
		UserID:      s.userID,
		Date:        attendance.Today(now),
		CheckInTime: now.Format(attendance.TimeFormat),
		Latitude:    fix.Latitude,
		Longitude:   fix.Longitude,
		Photo:       photo,
	}
	if err := req.Validate(); err != nil {
		s.mu.Unlock()
		return attendance.Record{}, err
	}

	s.inFlight[PhaseAwaitingCheckIn] = true
	gen := s.generation
	s.mu.Unlock()

	var record attendance.Record
	var err error
	if photo.FromFile {
		record, err = s.backend.CheckInWithFile(ctx, req)
	} else {
		record, err = s.backend.CheckIn(ctx, req.Record())
	}

	s.mu.Lock()
	s.inFlight[PhaseAwaitingCheckIn] = false
	if err != nil {
		// Capture and location state stay put so the user can retry
		// without redoing those steps.
		s.mu.Unlock()
		return attendance.Record{}, fmt.Errorf("check-in failed: %w", err)
	}
	if s.generation != gen {
		s.mu.Unlock()
		s.logger.Debug("discarding stale check-in response", "record_id", record.ID)
		return attendance.Record{}, ErrStaleResponse
	}

	s.current = record.Clone()
	s.phase = PhaseAwaitingCheckOut
	s.generation = uuid.New()
	s.mu.Unlock()

	s.capture.ClearPhoto(capture.ModeCheckOut)
	s.cache.UpdateState(true, &record)

	// The single stream now serves the check-out surface.
	if err := s.capture.Refresh(ctx, capture.ModeCheckOut); err != nil {
		s.logger.Warn("failed to re-attach camera for check-out", "error", err)
	}
	s.refreshHistory(ctx)

	s.logger.Info("checked in", "user_id", record.UserID, "record_id", record.ID)
	return record, nil
}

// CheckOut finalizes the open record. Preconditions: an open session,
// a check-out photo, no submission in flight. Location is not
// re-collected; the fix belongs to the check-in only.
func (s *Service) CheckOut(ctx context.Context) (attendance.Record, error) {
	s.mu.Lock()
	if s.userID == 0 {
		s.mu.Unlock()
		return attendance.Record{}, attendance.ErrNoCurrentUser
	}
	if !s.current.Open() || s.current.ID == nil {
		s.mu.Unlock()
		return attendance.Record{}, attendance.ErrNotCheckedIn
	}
	if s.inFlight[PhaseAwaitingCheckOut] {
		s.mu.Unlock()
		return attendance.Record{}, attendance.ErrSubmissionInFlight
	}

	photo, ok := s.capture.Photo(capture.ModeCheckOut)
	if !ok {
		s.mu.Unlock()
		return attendance.Record{}, attendance.ErrMissingPhoto
	}

	req := attendance.CheckOutRequest{
		RecordID:     *s.current.ID,
		CheckOutTime: s.now().Format(attendance.TimeFormat),
		Photo:        photo,
	}
	if err := req.Validate(); err != nil {
		s.mu.Unlock()
		return attendance.Record{}, err
	}

	s.inFlight[PhaseAwaitingCheckOut] = true
	gen := s.generation
	s.mu.Unlock()

	var record attendance.Record
	var err error
	if photo.FromFile {
		record, err = s.backend.CheckOutWithFile(ctx, req)
	} else {
		record, err = s.backend.CheckOut(ctx, req.RecordID, req.Partial())
	}

	s.mu.Lock()
	s.inFlight[PhaseAwaitingCheckOut] = false
	if err != nil {
		s.mu.Unlock()
		return attendance.Record{}, fmt.Errorf("check-out failed: %w", err)
	}
	if s.generation != gen {
		s.mu.Unlock()
		s.logger.Debug("discarding stale check-out response", "record_id", record.ID)
		return attendance.Record{}, ErrStaleResponse
	}

	s.current = nil
	s.phase = PhaseAwaitingCheckIn
	s.generation = uuid.New()
	s.mu.Unlock()

	s.capture.ClearPhotos()
	s.location.Reset()
	s.cache.UpdateState(false, nil)
	s.refreshHistory(ctx)

	s.logger.Info("checked out", "user_id", record.UserID, "record_id", record.ID)
	return record, nil
}

// EnableLocation acquires a one-shot fix for the current check-in
// attempt.
func (s *Service) EnableLocation(ctx context.Context) (location.Fix, error) {
	return s.location.Acquire(ctx)
}

// StartCamera acquires the camera stream.
func (s *Service) StartCamera(ctx context.Context) error {
	return s.capture.Start(ctx)
}

// CapturePhoto renders a live frame into the phase's photo slot.
func (s *Service) CapturePhoto(ctx context.Context, mode capture.Mode) (attendance.Photo, error) {
	return s.capture.Capture(ctx, mode)
}

// UploadPhoto stores a user-selected image file in the phase's slot.
func (s *Service) UploadPhoto(mode capture.Mode, filename string, r io.Reader) (attendance.Photo, error) {
	return s.capture.AttachFile(mode, filename, r)
}

func (s *Service) refreshHistory(ctx context.Context) {
	s.mu.Lock()
	userID := s.userID
	s.mu.Unlock()

	records, err := s.backend.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to refresh attendance history", "error", err)
		return
	}
	s.mu.Lock()
	s.history = records
	s.mu.Unlock()
}

// Close releases the camera. Must run on every session end.
func (s *Service) Close() {
	s.capture.Stop()
}
