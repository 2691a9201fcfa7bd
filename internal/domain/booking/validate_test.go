package booking

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidateFirstName(t *testing.T) {
	name, err := ValidateFirstName("  Anna-Lena ")
	require.NoError(t, err)
	require.Equal(t, "Anna-Lena", name)

	_, err = ValidateFirstName("Jürgen")
	require.NoError(t, err)
	_, err = ValidateFirstName("O'Brien")
	require.NoError(t, err)

	for _, bad := range []string{"", "   ", "Max2", "a\nb", strings.Repeat("x", 41), "🙂"} {
		_, err := ValidateFirstName(bad)
		require.Error(t, err, "name %q", bad)
	}
}

func TestValidateDescription(t *testing.T) {
	require.NoError(t, ValidateDescription(""))
	require.NoError(t, ValidateDescription("Sommerferien mit den Kindern"))
	require.NoError(t, ValidateDescription(strings.Repeat("ü", 500)))

	require.Error(t, ValidateDescription(strings.Repeat("a", 501)))
	require.Error(t, ValidateDescription("see HTTPS://example.com"))
	require.Error(t, ValidateDescription("visit www.example.com"))
	require.Error(t, ValidateDescription("mailto:spam@example.com"))
}

func TestValidatePartySize(t *testing.T) {
	r := DefaultRules()
	require.NoError(t, r.ValidatePartySize(1))
	require.NoError(t, r.ValidatePartySize(10))
	require.Error(t, r.ValidatePartySize(0))
	require.Error(t, r.ValidatePartySize(11))
}

func TestValidateRange(t *testing.T) {
	r := DefaultRules()
	today := Date(2026, time.March, 1)

	ok := DateRange{Start: Date(2026, time.April, 1), End: Date(2026, time.April, 5)}
	require.NoError(t, r.ValidateRange(ok, today, false))

	// a span still running today is editable even though it started
	require.NoError(t, r.ValidateRange(DateRange{Start: Date(2026, time.February, 27), End: today}, today, false))

	require.Error(t, r.ValidateRange(DateRange{Start: ok.End, End: ok.Start}, today, false),
		"end before start")
	require.Error(t, r.ValidateRange(DateRange{Start: Date(2026, time.January, 1), End: Date(2026, time.January, 5)}, today, false),
		"fully past")
	require.Error(t, r.ValidateRange(DateRange{Start: Date(2027, time.October, 1), End: Date(2027, time.October, 3)}, today, false),
		"beyond 18-month horizon")

	long := DateRange{Start: Date(2026, time.April, 1), End: Date(2026, time.April, 8)} // 8 days
	require.Error(t, r.ValidateRange(long, today, false))
	require.NoError(t, r.ValidateRange(long, today, true))

	exactlySeven := DateRange{Start: Date(2026, time.April, 1), End: Date(2026, time.April, 7)}
	require.NoError(t, r.ValidateRange(exactlySeven, today, false))
}
