package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	require.True(t, CanTransition(StatusPending, StatusConfirmed))
	require.True(t, CanTransition(StatusPending, StatusDenied))
	require.True(t, CanTransition(StatusPending, StatusCanceled))
	require.True(t, CanTransition(StatusConfirmed, StatusPending)) // widening edit
	require.True(t, CanTransition(StatusConfirmed, StatusDenied))
	require.True(t, CanTransition(StatusDenied, StatusPending)) // reopen

	require.False(t, CanTransition(StatusCanceled, StatusPending))
	require.False(t, CanTransition(StatusCanceled, StatusCanceled))
	require.False(t, CanTransition(StatusDenied, StatusConfirmed))
	require.False(t, CanTransition(StatusPending, StatusPending))
}

func TestTransition_ErrorKeepsStatus(t *testing.T) {
	b := &Booking{Status: StatusCanceled}
	err := b.Transition(StatusPending, "reopen")
	var se *StateTransitionError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StatusCanceled, b.Status)
}

func TestGuardMutable(t *testing.T) {
	today := Date(2026, time.September, 1)

	past := &Booking{Status: StatusPending, EndDate: Date(2026, time.August, 31)}
	require.Error(t, past.GuardMutable(today, "edit"))

	endsToday := &Booking{Status: StatusPending, EndDate: today}
	require.NoError(t, endsToday.GuardMutable(today, "edit"))

	canceled := &Booking{Status: StatusCanceled, EndDate: Date(2026, time.October, 1)}
	require.Error(t, canceled.GuardMutable(today, "edit"))
}
