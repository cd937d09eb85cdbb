package attendancestate

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaveapproval/attendance-client-go/internal/domain/attendance"
)

func newTestService(now *time.Time) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(logger).WithClock(func() time.Time { return *now })
}

func openRecord(id int64) *attendance.Record {
	return &attendance.Record{
		ID:          &id,
		UserID:      1,
		Date:        "2026-08-29",
		CheckInTime: "2026-08-29T09:00:00",
		Status:      attendance.StatusInProgress,
	}
}

func completedRecord(id int64) *attendance.Record {
	rec := openRecord(id)
	out := "2026-08-29T17:00:00"
	rec.CheckOutTime = &out
	rec.Status = attendance.StatusCompleted
	return rec
}

func TestUpdateState_StoresSnapshotForCurrentUser(t *testing.T) {
	now := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	svc := newTestService(&now)

	svc.SetCurrentUser(1)
	svc.UpdateState(true, openRecord(7))

	state := svc.CurrentState()
	require.NotNil(t, state.CurrentRecord)
	assert.True(t, state.IsCheckedIn)
	assert.Equal(t, int64(7), *state.CurrentRecord.ID)
	assert.Equal(t, now, state.LastRefresh)
	assert.True(t, state.Consistent())
}

func TestUpdateState_NoCurrentUserIsIgnored(t *testing.T) {
	now := time.Now()
	svc := newTestService(&now)

	svc.UpdateState(true, openRecord(1))

	assert.False(t, svc.CurrentState().IsCheckedIn)
	assert.Nil(t, svc.CurrentState().CurrentRecord)
}

// Whatever combination a caller writes, the stored entry must satisfy
// isCheckedIn == (record exists and is open).
func TestUpdateState_NormalizesInconsistentWrites(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name        string
		isCheckedIn bool
		record      *attendance.Record
		want        bool
		wantRecord  bool
	}{
		{"checked in with open record", true, openRecord(1), true, true},
		{"checked in with no record", true, nil, false, false},
		{"checked in with completed record", true, completedRecord(1), false, true},
		{"checked out with open record", false, openRecord(1), false, false},
		{"checked out with no record", false, nil, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(&now)
			svc.SetCurrentUser(1)
			svc.UpdateState(tc.isCheckedIn, tc.record)

			state := svc.CurrentState()
			assert.Equal(t, tc.want, state.IsCheckedIn)
			assert.Equal(t, tc.wantRecord, state.CurrentRecord != nil)
			assert.True(t, state.Consistent())
		})
	}
}

// A write claiming "not checked in" alongside an open record must not
// leave the open record behind in the slot, or the next startup would
// adopt a session the caller just said is over.
func TestUpdateState_CheckedOutWriteDropsOpenRecord(t *testing.T) {
	now := time.Now()
	svc := newTestService(&now)
	svc.SetCurrentUser(1)

	svc.UpdateState(false, openRecord(6))

	state := svc.CurrentState()
	assert.False(t, state.IsCheckedIn)
	assert.Nil(t, state.CurrentRecord)
	assert.True(t, state.Consistent())
	assert.Nil(t, svc.UserState(1).CurrentRecord)
}

func TestUpdateState_SnapshotIsIsolatedFromCallerMutation(t *testing.T) {
	now := time.Now()
	svc := newTestService(&now)
	svc.SetCurrentUser(1)

	rec := openRecord(3)
	svc.UpdateState(true, rec)
	rec.Status = attendance.StatusCompleted

	assert.Equal(t, attendance.StatusInProgress, svc.CurrentState().CurrentRecord.Status)
}

func TestShouldRefresh_StalenessWindow(t *testing.T) {
	now := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	svc := newTestService(&now)

	// No active user: always refresh.
	assert.True(t, svc.ShouldRefresh())

	svc.SetCurrentUser(1)
	// Active user but never synced.
	assert.True(t, svc.ShouldRefresh())

	svc.UpdateState(false, nil)
	assert.False(t, svc.ShouldRefresh())

	// Exactly at the window boundary the entry is still trusted.
	now = now.Add(StaleAfter)
	assert.False(t, svc.ShouldRefresh())

	now = now.Add(time.Second)
	assert.True(t, svc.ShouldRefresh())
}

func TestMarkRefreshed_BumpsTimestampOnly(t *testing.T) {
	now := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	svc := newTestService(&now)
	svc.SetCurrentUser(1)
	svc.UpdateState(true, openRecord(5))

	now = now.Add(StaleAfter + time.Minute)
	require.True(t, svc.ShouldRefresh())

	svc.MarkRefreshed()

	state := svc.CurrentState()
	assert.False(t, svc.ShouldRefresh())
	assert.Equal(t, now, state.LastRefresh)
	require.NotNil(t, state.CurrentRecord)
	assert.Equal(t, int64(5), *state.CurrentRecord.ID)
	assert.True(t, state.IsCheckedIn)
}

func TestSubscribe_BroadcastsSnapshots(t *testing.T) {
	now := time.Now()
	svc := newTestService(&now)
	svc.SetCurrentUser(1)

	var got []attendance.State
	unsubscribe := svc.Subscribe(func(s attendance.State) { got = append(got, s) })

	svc.UpdateState(true, openRecord(1))
	require.Len(t, got, 1)
	assert.True(t, got[0].IsCheckedIn)

	unsubscribe()
	svc.UpdateState(false, nil)
	assert.Len(t, got, 1)
}

func TestTriggerRefresh_FiresSideChannel(t *testing.T) {
	now := time.Now()
	svc := newTestService(&now)

	fired := 0
	unsubscribe := svc.OnRefresh(func() { fired++ })

	svc.TriggerRefresh()
	assert.Equal(t, 1, fired)

	unsubscribe()
	svc.TriggerRefresh()
	assert.Equal(t, 1, fired)
}

func TestSetCurrentUser_LoadsExistingSlot(t *testing.T) {
	now := time.Now()
	svc := newTestService(&now)

	svc.SetCurrentUser(1)
	svc.UpdateState(true, openRecord(9))

	svc.SetCurrentUser(2)
	assert.False(t, svc.CurrentState().IsCheckedIn)

	svc.SetCurrentUser(1)
	state := svc.CurrentState()
	assert.True(t, state.IsCheckedIn)
	assert.Equal(t, int64(9), *state.CurrentRecord.ID)
}

func TestLogout_KeepsOtherSlots(t *testing.T) {
	now := time.Now()
	svc := newTestService(&now)

	svc.SetCurrentUser(1)
	svc.UpdateState(true, openRecord(4))

	var last attendance.State
	svc.Subscribe(func(s attendance.State) { last = s })

	svc.Logout()

	assert.False(t, last.IsCheckedIn)
	assert.Nil(t, last.CurrentRecord)
	assert.False(t, svc.CurrentState().IsCheckedIn)

	// The slot survives for the next sign-in of the same user.
	kept := svc.UserState(1)
	assert.True(t, kept.IsCheckedIn)
	assert.Equal(t, int64(4), *kept.CurrentRecord.ID)
}

func TestClearUserState_DropsSlot(t *testing.T) {
	now := time.Now()
	svc := newTestService(&now)

	svc.SetCurrentUser(1)
	svc.UpdateState(true, openRecord(2))

	svc.ClearUserState(1)

	assert.False(t, svc.CurrentState().IsCheckedIn)
	assert.Nil(t, svc.UserState(1).CurrentRecord)
	assert.True(t, svc.ShouldRefresh())
}
