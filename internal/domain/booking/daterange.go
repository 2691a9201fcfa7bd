package booking

import "time"

// DateRange is an inclusive span of civil dates. Both bounds are
// midnight-UTC date values; Jan 1–Jan 1 is a one-day stay.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Date builds a normalized civil date value.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ToDate truncates t to its civil date in t's own location, normalized to
// midnight UTC so date values compare with Equal/Before/After.
func ToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// TotalDays counts the days covered, end inclusive: Jan 1–Jan 5 is 5.
func (r DateRange) TotalDays() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

func (r DateRange) Valid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && !r.End.Before(r.Start)
}

// Overlaps reports whether two inclusive ranges share any date.
func (r DateRange) Overlaps(o DateRange) bool {
	return !r.Start.After(o.End) && !o.Start.After(r.End)
}

func (r DateRange) Contains(day time.Time) bool {
	return !day.Before(r.Start) && !day.After(r.End)
}

// EditImpact classifies what a span change means for existing approvals.
type EditImpact int

const (
	// EditUnchanged covers edits that leave the span bounds as they were
	// (including pure field edits).
	EditUnchanged EditImpact = iota
	// EditNarrowing shrinks the span strictly within the old bounds;
	// approvals survive.
	EditNarrowing
	// EditWidening extends the span beyond either old bound (including a
	// move); approvals must be reset and conflicts re-checked.
	EditWidening
)

func (i EditImpact) String() string {
	switch i {
	case EditNarrowing:
		return "narrowing"
	case EditWidening:
		return "widening"
	default:
		return "unchanged"
	}
}

// ClassifyEdit compares the old and new span. The test is pure range
// comparison: it does not look at current approval state.
func ClassifyEdit(old, updated DateRange) EditImpact {
	if updated.Start.Before(old.Start) || updated.End.After(old.End) {
		return EditWidening
	}
	if updated.Start.Equal(old.Start) && updated.End.Equal(old.End) {
		return EditUnchanged
	}
	return EditNarrowing
}

// DaysSince counts whole calendar days from an earlier date to today,
// day zero being the date itself.
func DaysSince(date, today time.Time) int {
	return int(ToDate(today).Sub(ToDate(date)).Hours() / 24)
}
