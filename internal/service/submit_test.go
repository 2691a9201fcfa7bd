package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kschlt/btznstn-sub003/internal/domain/booking"
	"github.com/kschlt/btznstn-sub003/internal/notify"
)

func TestSubmit_CreatesPendingWithThreeSlots(t *testing.T) {
	f := newFixture(t)
	b := f.submit(t, booking.Date(2026, time.April, 10), booking.Date(2026, time.April, 14))

	require.Equal(t, booking.StatusPending, b.Status)
	require.Equal(t, 1, b.Round)
	require.Equal(t, 5, b.TotalDays)
	require.Len(t, b.Approvals, 3)
	for _, p := range booking.Parties() {
		require.Equal(t, booking.DecisionNoResponse, b.ApprovalFor(p).Decision)
	}

	events, err := f.coord.Timeline(context.Background(), b.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, booking.EventCreated, events[0].Type)
	require.Equal(t, "Helga", events[0].Actor)

	require.Equal(t, []notify.Kind{notify.KindSubmitted}, f.disp.kinds())
}

func TestSubmit_ValidationFailures(t *testing.T) {
	f := newFixture(t)
	base := SubmitInput{
		FirstName:   "Helga",
		Email:       "helga@example.com",
		Start:       booking.Date(2026, time.April, 10),
		End:         booking.Date(2026, time.April, 12),
		PartySize:   4,
		Affiliation: booking.PartyCornelia,
	}

	cases := []struct {
		name   string
		mutate func(*SubmitInput)
	}{
		{"bad email", func(in *SubmitInput) { in.Email = "not-an-address" }},
		{"bad name", func(in *SubmitInput) { in.FirstName = "Helga99" }},
		{"link in description", func(in *SubmitInput) { in.Description = "https://spam.example" }},
		{"party too large", func(in *SubmitInput) { in.PartySize = 11 }},
		{"unknown affiliation", func(in *SubmitInput) { in.Affiliation = "Hildegard" }},
		{"end before start", func(in *SubmitInput) { in.End = booking.Date(2026, time.April, 9) }},
		{"in the past", func(in *SubmitInput) {
			in.Start = booking.Date(2026, time.January, 1)
			in.End = booking.Date(2026, time.January, 3)
		}},
		{"beyond horizon", func(in *SubmitInput) {
			in.Start = booking.Date(2027, time.December, 1)
			in.End = booking.Date(2027, time.December, 3)
		}},
		{"long stay unconfirmed", func(in *SubmitInput) { in.End = booking.Date(2026, time.April, 17) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := base
			tc.mutate(&in)
			_, err := f.coord.Submit(context.Background(), in)
			var ve *booking.ValidationError
			require.ErrorAs(t, err, &ve)
		})
	}
}

func TestSubmit_OverlapConflicts(t *testing.T) {
	f := newFixture(t)
	first := f.submit(t, booking.Date(2026, time.May, 10), booking.Date(2026, time.May, 15))

	_, err := f.coord.Submit(context.Background(), SubmitInput{
		FirstName:   "Karin",
		Email:       "karin@example.com",
		Start:       booking.Date(2026, time.May, 15), // shares the edge day
		End:         booking.Date(2026, time.May, 18),
		PartySize:   2,
		Affiliation: booking.PartyIngeborg,
	})
	var ce *booking.ConflictError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "Helga", ce.Requester)
	require.Equal(t, booking.StatusPending, ce.Status)
	require.Equal(t, first.ID.String(), ce.BookingID)

	// adjacent span is free
	_, err = f.coord.Submit(context.Background(), SubmitInput{
		FirstName:   "Karin",
		Email:       "karin@example.com",
		Start:       booking.Date(2026, time.May, 16),
		End:         booking.Date(2026, time.May, 18),
		PartySize:   2,
		Affiliation: booking.PartyIngeborg,
	})
	require.NoError(t, err)
}

func TestSubmit_CanceledSpanDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	b := f.submit(t, booking.Date(2026, time.May, 10), booking.Date(2026, time.May, 15))
	_, err := f.coord.Cancel(context.Background(), b.ID, requester(b), "")
	require.NoError(t, err)

	again := f.submit(t, booking.Date(2026, time.May, 10), booking.Date(2026, time.May, 15))
	require.NotEqual(t, b.ID, again.ID)
}

func TestSubmit_ApproverSelfApproves(t *testing.T) {
	f := newFixture(t)
	b, err := f.coord.Submit(context.Background(), SubmitInput{
		FirstName:   "Cornelia",
		Email:       "CORNELIA@example.com", // case-insensitive match
		Start:       booking.Date(2026, time.June, 1),
		End:         booking.Date(2026, time.June, 4),
		PartySize:   2,
		Affiliation: booking.PartyCornelia,
	})
	require.NoError(t, err)
	require.Equal(t, booking.DecisionApproved, b.ApprovalFor(booking.PartyCornelia).Decision)
	require.Equal(t, booking.StatusPending, b.Status)

	events, err := f.coord.Timeline(context.Background(), b.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, booking.EventCreated, events[0].Type)
	require.Equal(t, booking.EventSelfApproved, events[1].Type)
}

func TestSubmit_ConcurrentSameSpanClaimsOnce(t *testing.T) {
	f := newFixture(t)
	start := booking.Date(2026, time.July, 1)
	end := booking.Date(2026, time.July, 5)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.coord.Submit(context.Background(), SubmitInput{
				FirstName:   "Helga",
				Email:       "helga@example.com",
				Start:       start,
				End:         end,
				PartySize:   2,
				Affiliation: booking.PartyAngelika,
			})
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		var ce *booking.ConflictError
		require.ErrorAs(t, err, &ce)
	}
	require.Equal(t, 1, won)

	overlapping, err := f.coord.Calendar(context.Background(), 2026, time.July)
	require.NoError(t, err)
	require.Len(t, overlapping, 1)
}

func TestSubmit_NoOverlapAmongCommitted(t *testing.T) {
	f := newFixture(t)

	// Hammer one month with overlapping spans from many goroutines; the
	// survivors must be pairwise disjoint.
	var wg sync.WaitGroup
	for day := 1; day <= 25; day++ {
		wg.Add(1)
		go func(day int) {
			defer wg.Done()
			_, _ = f.coord.Submit(context.Background(), SubmitInput{
				FirstName:   "Helga",
				Email:       "helga@example.com",
				Start:       booking.Date(2026, time.August, day),
				End:         booking.Date(2026, time.August, day+3),
				PartySize:   2,
				Affiliation: booking.PartyIngeborg,
			})
		}(day)
	}
	wg.Wait()

	items, err := f.coord.Calendar(context.Background(), 2026, time.August)
	require.NoError(t, err)
	require.NotEmpty(t, items)
	for i := range items {
		for j := i + 1; j < len(items); j++ {
			require.False(t, items[i].Range().Overlaps(items[j].Range()),
				"%s and %s overlap", items[i].ID, items[j].ID)
		}
	}
}

func TestSubmit_IntentsGoToNotifyingApprovers(t *testing.T) {
	f := newFixture(t)
	f.submit(t, booking.Date(2026, time.April, 10), booking.Date(2026, time.April, 12))

	require.Len(t, f.disp.intents, 1)
	in := f.disp.intents[0]
	require.Equal(t, notify.KindSubmitted, in.Kind)
	require.ElementsMatch(t, []string{ingeborgMail, corneliaMail, angelikaMail}, in.Recipients)
}
