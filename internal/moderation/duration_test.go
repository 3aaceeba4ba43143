package moderation

import (
	"errors"
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"30s":     30 * time.Second,
		"5m":      5 * time.Minute,
		"1d2h30m": 26*time.Hour + 30*time.Minute,
		"2mo":     60 * 24 * time.Hour,
		"1y":      365 * 24 * time.Hour,
		"1w 1d":   8 * 24 * time.Hour,
		"1MO5M":   30*24*time.Hour + 5*time.Minute,
	}
	for input, want := range cases {
		got, err := ParseDuration(input)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", input, err)
		}
		if got != want {
			t.Fatalf("%q: expected %s, got %s", input, want, got)
		}
	}
}

func TestParseDurationRejects(t *testing.T) {
	for _, input := range []string{"", "0m", "abc", "5x", "h5", "5m garbage"} {
		if _, err := ParseDuration(input); !errors.Is(err, ErrInvalidDuration) {
			t.Fatalf("%q: expected ErrInvalidDuration, got %v", input, err)
		}
	}
}

func TestParseDurationSaturatesHugeValues(t *testing.T) {
	for _, input := range []string{"300y", "585y", "99999999999999999999d", "292y300y"} {
		got, err := ParseDuration(input)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", input, err)
		}
		if got <= 0 {
			t.Fatalf("%q: expected a positive duration, got %s", input, got)
		}
		if Clamp(got) != MaxTimeout {
			t.Fatalf("%q: expected clamp to 28 days, got %s", input, Clamp(got))
		}
	}
}

func TestClamp(t *testing.T) {
	if Clamp(365*24*time.Hour) != MaxTimeout {
		t.Fatalf("expected clamp to 28 days")
	}
	if Clamp(time.Hour) != time.Hour {
		t.Fatalf("expected short durations untouched")
	}
}

func TestShorten(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	until := now.Add(2 * time.Hour)

	remaining, active := Shorten(until, now, 30*time.Minute)
	if !active || remaining != 90*time.Minute {
		t.Fatalf("expected 90m active, got %s %v", remaining, active)
	}
	if _, active := Shorten(until, now, 2*time.Hour); active {
		t.Fatalf("expected exact remainder to clear the timeout")
	}
}

func TestFormatRemaining(t *testing.T) {
	d := 26*time.Hour + 3*time.Minute + 4*time.Second
	if got := FormatRemaining("ja", d); got != "1日 2時間 3分 4秒" {
		t.Fatalf("unexpected ja format %q", got)
	}
	if got := FormatRemaining("en", d); got != "1d 2h 3m 4s" {
		t.Fatalf("unexpected en format %q", got)
	}
}
