package booking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newPendingBooking() *Booking {
	id := uuid.New()
	b := &Booking{
		ID:        id,
		StartDate: Date(2026, time.August, 10),
		EndDate:   Date(2026, time.August, 14),
		TotalDays: 5,
		Status:    StatusPending,
		Round:     1,
	}
	for _, p := range Parties() {
		b.Approvals = append(b.Approvals, Approval{ID: uuid.New(), BookingID: id, Party: p, Decision: DecisionNoResponse})
	}
	return b
}

func TestRecordDecision_AllApprovedConfirms(t *testing.T) {
	b := newPendingBooking()
	now := time.Now()

	res, err := b.RecordDecision(PartyIngeborg, DecisionApproved, "", now)
	require.NoError(t, err)
	require.True(t, res.Applied)
	require.Equal(t, OutcomePending, res.Outcome)

	res, err = b.RecordDecision(PartyCornelia, DecisionApproved, "", now)
	require.NoError(t, err)
	require.True(t, res.Applied)
	require.Equal(t, OutcomePending, res.Outcome)

	res, err = b.RecordDecision(PartyAngelika, DecisionApproved, "", now)
	require.NoError(t, err)
	require.True(t, res.Applied)
	require.Equal(t, OutcomeConfirmed, res.Outcome)
}

func TestRecordDecision_RepeatIsNoOp(t *testing.T) {
	b := newPendingBooking()
	now := time.Now()

	res, err := b.RecordDecision(PartyIngeborg, DecisionApproved, "", now)
	require.NoError(t, err)
	require.True(t, res.Applied)
	first := *b.ApprovalFor(PartyIngeborg).DecidedAt

	// Same slot again, even with the opposite decision: nothing moves.
	res, err = b.RecordDecision(PartyIngeborg, DecisionDenied, "changed my mind", now.Add(time.Hour))
	require.NoError(t, err)
	require.False(t, res.Applied)
	require.Equal(t, OutcomePending, res.Outcome)
	require.Equal(t, DecisionApproved, b.ApprovalFor(PartyIngeborg).Decision)
	require.Equal(t, first, *b.ApprovalFor(PartyIngeborg).DecidedAt)
}

func TestRecordDecision_DenialDominates(t *testing.T) {
	b := newPendingBooking()
	now := time.Now()

	_, err := b.RecordDecision(PartyIngeborg, DecisionDenied, "too crowded that week", now)
	require.NoError(t, err)
	require.Equal(t, OutcomeDenied, b.Outcome())

	// A later approve from another party is a no-op on a denied round.
	res, err := b.RecordDecision(PartyCornelia, DecisionApproved, "", now)
	require.NoError(t, err)
	require.False(t, res.Applied)
	require.Equal(t, OutcomeDenied, res.Outcome)
	require.Equal(t, DecisionNoResponse, b.ApprovalFor(PartyCornelia).Decision)
}

func TestRecordDecision_DenyNeedsComment(t *testing.T) {
	b := newPendingBooking()
	_, err := b.RecordDecision(PartyIngeborg, DecisionDenied, "   ", time.Now())
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "comment", ve.Field)
}

func TestRecordDecision_RejectsBadInput(t *testing.T) {
	b := newPendingBooking()
	_, err := b.RecordDecision(PartyIngeborg, DecisionNoResponse, "", time.Now())
	require.Error(t, err)
	_, err = b.RecordDecision(Party("Nobody"), DecisionApproved, "", time.Now())
	require.Error(t, err)
}

func TestVeto_OverridesApprovedSlot(t *testing.T) {
	b := newPendingBooking()
	now := time.Now()
	for _, p := range Parties() {
		_, err := b.RecordDecision(p, DecisionApproved, "", now)
		require.NoError(t, err)
	}
	require.Equal(t, OutcomeConfirmed, b.Outcome())

	res, err := b.Veto(PartyCornelia, "Wasserschaden", now.Add(time.Hour))
	require.NoError(t, err)
	require.True(t, res.Applied)
	require.Equal(t, OutcomeDenied, res.Outcome)
	require.Equal(t, DecisionDenied, b.ApprovalFor(PartyCornelia).Decision)

	// a second veto has nothing left to do
	res, err = b.Veto(PartyIngeborg, "auch nicht", now.Add(2*time.Hour))
	require.NoError(t, err)
	require.False(t, res.Applied)
	require.Equal(t, OutcomeDenied, res.Outcome)
}

func TestVeto_NeedsComment(t *testing.T) {
	b := newPendingBooking()
	_, err := b.Veto(PartyAngelika, "  ", time.Now())
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestResetApprovals_StartsNewRound(t *testing.T) {
	b := newPendingBooking()
	now := time.Now()
	_, err := b.RecordDecision(PartyIngeborg, DecisionApproved, "", now)
	require.NoError(t, err)
	_, err = b.RecordDecision(PartyCornelia, DecisionDenied, "no", now)
	require.NoError(t, err)

	b.ResetApprovals()
	require.Equal(t, 2, b.Round)
	for _, p := range Parties() {
		slot := b.ApprovalFor(p)
		require.Equal(t, DecisionNoResponse, slot.Decision)
		require.Empty(t, slot.Comment)
		require.Nil(t, slot.DecidedAt)
	}
	require.Equal(t, OutcomePending, b.Outcome())
}

func TestSelfApprove(t *testing.T) {
	b := newPendingBooking()
	require.True(t, b.SelfApprove(PartyAngelika, time.Now()))
	require.Equal(t, DecisionApproved, b.ApprovalFor(PartyAngelika).Decision)
	// already set
	require.False(t, b.SelfApprove(PartyAngelika, time.Now()))
	// not an approver party
	require.False(t, b.SelfApprove(Party("Nobody"), time.Now()))
}

func TestTouch_NeverRewindsActivity(t *testing.T) {
	b := newPendingBooking()
	later := time.Now()
	b.Touch(later)
	b.Touch(later.Add(-time.Hour))
	require.Equal(t, later, b.LastActivityAt)
	require.Equal(t, later.Add(-time.Hour), b.UpdatedAt)
}
