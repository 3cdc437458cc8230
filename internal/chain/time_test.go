package chain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseTimeDiffHumanForms(t *testing.T) {
	cases := map[string]time.Duration{
		"1hr 12min":   72 * time.Minute,
		"30min 50sec": 30*time.Minute + 50*time.Second,
		"1day":        24 * time.Hour,
		"2h":          2 * time.Hour,
		"1h30m":       90 * time.Minute,
		"500ms":       500 * time.Millisecond,
		" 1week ":     7 * 24 * time.Hour,
		"1 hour":      time.Hour,
	}
	for raw, want := range cases {
		got, err := ParseTimeDiff(raw)
		if err != nil {
			t.Fatalf("ParseTimeDiff(%q) failed: %v", raw, err)
		}
		if got.Duration() != want {
			t.Fatalf("ParseTimeDiff(%q) = %s, want %s", raw, got.Duration(), want)
		}
	}
}

func TestParseTimeDiffRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "10", "abc", "5 parsecs", "1h -2m", "99999999999999999999s"} {
		if _, err := ParseTimeDiff(raw); err == nil {
			t.Fatalf("expected ParseTimeDiff(%q) to fail", raw)
		}
	}
}

func TestTimeDiffStringRoundTrips(t *testing.T) {
	for _, raw := range []string{"1day", "1h 12m", "30m 50s", "2days 3h", "1s 5ms"} {
		d, err := ParseTimeDiff(raw)
		if err != nil {
			t.Fatalf("ParseTimeDiff(%q) failed: %v", raw, err)
		}
		if d.String() != raw {
			t.Fatalf("expected %q to render as itself, got %q", raw, d.String())
		}
	}
}

func TestParseTimestampWeakRFC3339(t *testing.T) {
	want := time.Date(2018, 2, 16, 0, 31, 37, 0, time.UTC)
	for _, raw := range []string{
		"2018-02-16T00:31:37Z",
		"2018-02-16T00:31:37",
		"2018-02-16 00:31:37",
		"2018-02-16T00:31:37.000Z",
	} {
		ts, err := ParseTimestamp(raw)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q) failed: %v", raw, err)
		}
		if !ts.Time().Equal(want) {
			t.Fatalf("ParseTimestamp(%q) = %s, want %s", raw, ts.Time(), want)
		}
	}

	ts, err := ParseTimestamp("2018-02-16T00:31:37.123456Z")
	if err != nil {
		t.Fatalf("ParseTimestamp with fraction failed: %v", err)
	}
	if ts.String() != "2018-02-16T00:31:37.123Z" {
		t.Fatalf("expected millisecond truncation, got %s", ts.String())
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "yesterday", "2018-02-16", "2018-02-16X00:31:37", "2018-13-16T00:31:37Z"} {
		if _, err := ParseTimestamp(raw); err == nil {
			t.Fatalf("expected ParseTimestamp(%q) to fail", raw)
		}
	}
}

func TestTimestampJSON(t *testing.T) {
	ts, err := ParseTimestamp("2018-02-16T00:31:37Z")
	if err != nil {
		t.Fatalf("ParseTimestamp failed: %v", err)
	}
	buf, err := json.Marshal(ts)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(buf) != `"2018-02-16T00:31:37.000Z"` {
		t.Fatalf("unexpected json: %s", buf)
	}
	var back Timestamp
	if err := json.Unmarshal(buf, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != ts {
		t.Fatalf("expected %d, got %d", ts, back)
	}
}
