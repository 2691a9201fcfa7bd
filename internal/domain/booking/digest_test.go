package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func digestBooking(created, start, end time.Time, status Status, ingeborg Decision) Booking {
	b := Booking{
		StartDate: start,
		EndDate:   end,
		Status:    status,
		CreatedAt: created,
	}
	b.Approvals = []Approval{
		{Party: PartyIngeborg, Decision: ingeborg},
		{Party: PartyCornelia, Decision: DecisionNoResponse},
		{Party: PartyAngelika, Decision: DecisionNoResponse},
	}
	return b
}

func TestDigestItems(t *testing.T) {
	today := Date(2026, time.May, 10)
	start := Date(2026, time.June, 1)
	end := Date(2026, time.June, 5)

	fiveDaysOld := digestBooking(Date(2026, time.May, 5), start, end, StatusPending, DecisionNoResponse)
	fourDaysOld := digestBooking(Date(2026, time.May, 6), start, end, StatusPending, DecisionNoResponse)
	alreadyDecided := digestBooking(Date(2026, time.May, 1), start, end, StatusPending, DecisionApproved)
	confirmed := digestBooking(Date(2026, time.May, 1), start, end, StatusConfirmed, DecisionNoResponse)
	elapsed := digestBooking(Date(2026, time.April, 1), Date(2026, time.May, 1), Date(2026, time.May, 9), StatusPending, DecisionNoResponse)

	all := []Booking{fourDaysOld, alreadyDecided, confirmed, elapsed, fiveDaysOld}

	got := DigestItems(all, PartyIngeborg, today, 5)
	require.Len(t, got, 1)
	require.Equal(t, fiveDaysOld.CreatedAt, got[0].CreatedAt)

	// the party with nothing decided yet sees both aged items
	got = DigestItems(all, PartyCornelia, today, 5)
	require.Len(t, got, 2)
}

func TestDigestItems_SortedBySoonestStart(t *testing.T) {
	today := Date(2026, time.May, 10)
	later := digestBooking(Date(2026, time.May, 1), Date(2026, time.July, 1), Date(2026, time.July, 3), StatusPending, DecisionNoResponse)
	sooner := digestBooking(Date(2026, time.May, 1), Date(2026, time.June, 1), Date(2026, time.June, 3), StatusPending, DecisionNoResponse)

	got := DigestItems([]Booking{later, sooner}, PartyIngeborg, today, 5)
	require.Len(t, got, 2)
	require.True(t, got[0].StartDate.Before(got[1].StartDate))
}

func TestDigestItems_EmptyMeansNoDigest(t *testing.T) {
	got := DigestItems(nil, PartyIngeborg, Date(2026, time.May, 10), 5)
	require.Empty(t, got)
}
