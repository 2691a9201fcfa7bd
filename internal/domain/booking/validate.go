package booking

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Rules are the tunable business limits, threaded in from configuration.
type Rules struct {
	MaxPartySize        int
	FutureHorizonMonths int
	LongStayDays        int
	DigestAfterDays     int
}

func DefaultRules() Rules {
	return Rules{
		MaxPartySize:        10,
		FutureHorizonMonths: 18,
		LongStayDays:        7,
		DigestAfterDays:     5,
	}
}

const (
	maxFirstNameLen   = 40
	maxDescriptionLen = 500
)

// Letters incl. diacritics, space, hyphen, apostrophe. No newlines, no
// emoji, no digits.
var firstNamePattern = regexp.MustCompile(`^[A-Za-zÀ-ÿ '\-]+$`)

var linkMarkers = []string{"http://", "https://", "www.", "mailto:"}

// ValidateFirstName trims and checks the requester name. Returns the
// cleaned value.
func ValidateFirstName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > maxFirstNameLen || !firstNamePattern.MatchString(name) {
		return "", invalid("requester_first_name",
			"letters, spaces, hyphens and apostrophes only, at most 40 characters")
	}
	return name, nil
}

// ValidateDescription rejects over-long text and anything that smells like
// a link.
func ValidateDescription(desc string) error {
	if len([]rune(desc)) > maxDescriptionLen {
		return invalid("description", "at most 500 characters")
	}
	lower := strings.ToLower(desc)
	for _, m := range linkMarkers {
		if strings.Contains(lower, m) {
			return invalid("description", "links are not allowed")
		}
	}
	return nil
}

func (r Rules) ValidatePartySize(n int) error {
	if n < 1 || n > r.MaxPartySize {
		return invalid("party_size", fmt.Sprintf("must be between 1 and %d", r.MaxPartySize))
	}
	return nil
}

// ValidateRange checks span shape against today: end after start, not in
// the past, start within the future horizon. longStayConfirmed must be set
// for spans longer than the long-stay limit.
func (r Rules) ValidateRange(rng DateRange, today time.Time, longStayConfirmed bool) error {
	if !rng.Valid() {
		return invalid("end_date", "end must not be before start")
	}
	if rng.End.Before(today) {
		return invalid("end_date", "booking lies in the past")
	}
	if rng.Start.After(today.AddDate(0, r.FutureHorizonMonths, 0)) {
		return invalid("start_date",
			fmt.Sprintf("bookings may be at most %d months ahead", r.FutureHorizonMonths))
	}
	if rng.TotalDays() > r.LongStayDays && !longStayConfirmed {
		return invalid("long_stay_confirmed", "please confirm the long stay")
	}
	return nil
}
