package chain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Timestamp is a UTC instant with millisecond precision.
type Timestamp uint64

func TimestampFromTime(t time.Time) Timestamp {
	return Timestamp(t.UTC().UnixMilli())
}

// ParseTimestamp accepts a loosely formatted RFC3339 instant: "T" or a space between
// date and time, optional fractional seconds and an optional trailing "Z". No offsets;
// the value is always UTC.
func ParseTimestamp(raw string) (Timestamp, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimSuffix(strings.TrimSuffix(clean, "Z"), "z")
	if len(clean) < len("2006-01-02T15:04:05") {
		return 0, fmt.Errorf("timestamp %q is too short", raw)
	}
	switch clean[10] {
	case 'T', 't', ' ':
		clean = clean[:10] + "T" + clean[11:]
	default:
		return 0, fmt.Errorf("timestamp %q must separate date and time with 'T' or a space", raw)
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", clean, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q: %w", raw, err)
	}
	if t.Before(time.Unix(0, 0)) {
		return 0, fmt.Errorf("timestamp %q is before the unix epoch", raw)
	}
	return TimestampFromTime(t), nil
}

func (t Timestamp) Time() time.Time {
	return time.UnixMilli(int64(t)).UTC()
}

func (t Timestamp) Add(d TimeDiff) Timestamp {
	return t + Timestamp(d)
}

func (t Timestamp) String() string {
	return t.Time().Format("2006-01-02T15:04:05.000Z")
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TimeDiff is a span in milliseconds.
type TimeDiff uint64

var durationUnits = map[string]time.Duration{
	"nsec": time.Nanosecond, "ns": time.Nanosecond,
	"usec": time.Microsecond, "us": time.Microsecond, "µs": time.Microsecond,
	"msec": time.Millisecond, "ms": time.Millisecond, "millis": time.Millisecond,
	"seconds": time.Second, "second": time.Second, "secs": time.Second, "sec": time.Second, "s": time.Second,
	"minutes": time.Minute, "minute": time.Minute, "mins": time.Minute, "min": time.Minute, "m": time.Minute,
	"hours": time.Hour, "hour": time.Hour, "hrs": time.Hour, "hr": time.Hour, "h": time.Hour,
	"days": 24 * time.Hour, "day": 24 * time.Hour, "d": 24 * time.Hour,
	"weeks": 7 * 24 * time.Hour, "week": 7 * 24 * time.Hour, "w": 7 * 24 * time.Hour,
	"months": 2_630_016 * time.Second, "month": 2_630_016 * time.Second, "M": 2_630_016 * time.Second,
	"years": 31_557_600 * time.Second, "year": 31_557_600 * time.Second, "y": 31_557_600 * time.Second,
}

// ParseTimeDiff parses human durations such as "1hr 12min", "30min 50sec" or "1day".
// Every number needs a unit.
func ParseTimeDiff(raw string) (TimeDiff, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	var total time.Duration
	for len(s) > 0 {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		if s == "" {
			break
		}
		i := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == 0 {
			return 0, fmt.Errorf("invalid duration %q: expected number at %q", raw, s)
		}
		n, err := strconv.ParseUint(s[:i], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
		}
		s = strings.TrimLeftFunc(s[i:], unicode.IsSpace)
		j := 0
		for j < len(s) && !unicode.IsSpace(rune(s[j])) && (s[j] < '0' || s[j] > '9') {
			j++
		}
		unitName := s[:j]
		if unitName == "" {
			return 0, fmt.Errorf("invalid duration %q: time unit needed after %d", raw, n)
		}
		unit, ok := durationUnits[unitName]
		if !ok {
			return 0, fmt.Errorf("invalid duration %q: unknown time unit %q", raw, unitName)
		}
		if n > uint64(math.MaxInt64/int64(unit)) {
			return 0, fmt.Errorf("invalid duration %q: value overflows", raw)
		}
		part := time.Duration(n) * unit
		if total > math.MaxInt64-part {
			return 0, fmt.Errorf("invalid duration %q: value overflows", raw)
		}
		total += part
		s = s[j:]
	}
	return TimeDiff(total / time.Millisecond), nil
}

func (d TimeDiff) Duration() time.Duration {
	return time.Duration(d) * time.Millisecond
}

// String renders the span in the same human form ParseTimeDiff accepts, e.g. "1h 12m".
func (d TimeDiff) String() string {
	if d == 0 {
		return "0s"
	}
	ms := uint64(d)
	parts := make([]string, 0, 5)
	days := ms / 86_400_000
	ms %= 86_400_000
	if days == 1 {
		parts = append(parts, "1day")
	} else if days > 1 {
		parts = append(parts, fmt.Sprintf("%ddays", days))
	}
	for _, u := range []struct {
		size uint64
		name string
	}{{3_600_000, "h"}, {60_000, "m"}, {1_000, "s"}, {1, "ms"}} {
		if n := ms / u.size; n > 0 {
			parts = append(parts, fmt.Sprintf("%d%s", n, u.name))
			ms %= u.size
		}
	}
	return strings.Join(parts, " ")
}

func (d TimeDiff) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *TimeDiff) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTimeDiff(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
