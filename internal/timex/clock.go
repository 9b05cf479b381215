package timex

import "time"

// Clock is the time source used for stamping. Tests replace it with a
// deterministic implementation.
type Clock interface {
	Now() time.Time
}

// SystemClock returns wall-clock time in UTC truncated to microseconds,
// the precision Postgres keeps for timestamptz columns.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// FormatInstant renders an instant in the text form used on the wire and in storage.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseInstant is the inverse of FormatInstant. It accepts any RFC 3339 value.
func ParseInstant(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
