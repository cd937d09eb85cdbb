package attendancestate

import (
	"log/slog"
	"sync"
	"time"

	"github.com/leaveapproval/attendance-client-go/internal/domain/attendance"
)

// StaleAfter is the staleness window: once a cached entry is older than
// this, the backend must be consulted before the entry is trusted.
const StaleAfter = 5 * time.Minute

// Service is the process-wide, per-user cache of "current open
// attendance session". It is the single source of truth for whether the
// UI should offer check-in or check-out. Entries live for the lifetime
// of the process and are never persisted.
//
// Writers racing on the same user resolve last-writer-wins; only one UI
// surface per session drives attendance mutations, so that is enough.
type Service struct {
	logger *slog.Logger
	now    func() time.Time

	mu            sync.Mutex
	states        map[int64]attendance.State
	currentUserID int64
	current       attendance.State
	nextSubID     int
	subscribers   map[int]func(attendance.State)
	refreshSubs   map[int]func()
}

func NewService(logger *slog.Logger) *Service {
	return &Service{
		logger:      logger,
		now:         time.Now,
		states:      make(map[int64]attendance.State),
		subscribers: make(map[int]func(attendance.State)),
		refreshSubs: make(map[int]func()),
	}
}

// WithClock overrides the time source. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Subscribe registers a callback invoked synchronously with a snapshot
// on every state change. The returned function unsubscribes.
func (s *Service) Subscribe(fn func(attendance.State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// OnRefresh registers a callback for the refresh side-channel. The
// signal carries no payload; it only asks subscribers to re-derive
// truth from the backend.
func (s *Service) OnRefresh(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.refreshSubs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.refreshSubs, id)
		s.mu.Unlock()
	}
}

// SetCurrentUser switches the active cache slot, loading the user's
// existing entry or an empty default, and broadcasts it.
func (s *Service) SetCurrentUser(userID int64) {
	s.mu.Lock()
	s.currentUserID = userID
	state, ok := s.states[userID]
	if !ok {
		state = attendance.State{}
	}
	s.current = state
	snapshot := s.snapshotLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	s.logger.Debug("attendance state slot switched", "user_id", userID, "checked_in", snapshot.IsCheckedIn)
	for _, fn := range subs {
		fn(snapshot)
	}
}

// UpdateState overwrites the active user's slot and broadcasts the new
// snapshot synchronously. Without an active user it logs and does
// nothing. IsCheckedIn is normalized against the record so the cache
// invariant holds no matter what the caller passed.
func (s *Service) UpdateState(isCheckedIn bool, record *attendance.Record) {
	s.mu.Lock()
	if s.currentUserID == 0 {
		s.mu.Unlock()
		s.logger.Warn("no current user set, cannot update attendance state")
		return
	}

	open := record.Open()
	normalized := isCheckedIn && open
	stored := record.Clone()
	if open && !normalized {
		// A checked-out write cannot carry an open session.
		stored = nil
	}
	if isCheckedIn != open {
		s.logger.Warn("inconsistent attendance state write normalized",
			"user_id", s.currentUserID, "is_checked_in", isCheckedIn, "has_open_record", open)
	}

	s.current = attendance.State{
		IsCheckedIn:   normalized,
		CurrentRecord: stored,
		LastRefresh:   s.now(),
	}
	s.states[s.currentUserID] = s.current
	snapshot := s.snapshotLocked()
	subs := s.subscribersLocked()
	userID := s.currentUserID
	s.mu.Unlock()

	s.logger.Debug("attendance state updated", "user_id", userID, "checked_in", snapshot.IsCheckedIn)
	for _, fn := range subs {
		fn(snapshot)
	}
}

// CurrentState returns a read-only snapshot of the active slot.
func (s *Service) CurrentState() attendance.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// UserState returns a snapshot of any user's slot, empty default when
// the user has no entry.
func (s *Service) UserState(userID int64) attendance.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[userID]
	if !ok {
		return attendance.State{}
	}
	state.CurrentRecord = state.CurrentRecord.Clone()
	return state
}

// ShouldRefresh reports whether the caller must re-derive truth from
// the backend: no active user, no cached entry, or the entry is older
// than the staleness window.
func (s *Service) ShouldRefresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentUserID == 0 {
		return true
	}
	state, ok := s.states[s.currentUserID]
	if !ok {
		return true
	}
	return s.now().Sub(state.LastRefresh) > StaleAfter
}

// MarkRefreshed bumps the active entry's sync time without touching its
// content. Called after a backend query confirmed the cached value.
func (s *Service) MarkRefreshed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentUserID == 0 {
		return
	}
	s.current.LastRefresh = s.now()
	s.states[s.currentUserID] = s.current
}

// TriggerRefresh fires the refresh side-channel.
func (s *Service) TriggerRefresh() {
	s.mu.Lock()
	subs := make([]func(), 0, len(s.refreshSubs))
	for _, fn := range s.refreshSubs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	s.logger.Debug("attendance refresh triggered")
	for _, fn := range subs {
		fn()
	}
}

// ClearUserState drops a user's cached entry entirely.
func (s *Service) ClearUserState(userID int64) {
	s.mu.Lock()
	delete(s.states, userID)
	if s.currentUserID == userID {
		s.current = attendance.State{}
	}
	s.mu.Unlock()
}

// Logout clears the active user pointer and broadcasts the empty
// default. Other users' cached slots survive.
func (s *Service) Logout() {
	s.mu.Lock()
	s.currentUserID = 0
	s.current = attendance.State{}
	snapshot := s.current
	subs := s.subscribersLocked()
	s.mu.Unlock()

	s.logger.Debug("attendance state cleared on logout")
	for _, fn := range subs {
		fn(snapshot)
	}
}

func (s *Service) snapshotLocked() attendance.State {
	snapshot := s.current
	snapshot.CurrentRecord = snapshot.CurrentRecord.Clone()
	return snapshot
}

func (s *Service) subscribersLocked() []func(attendance.State) {
	subs := make([]func(attendance.State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	return subs
}
