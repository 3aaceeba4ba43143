package moderation

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MaxTimeout is the longest communication timeout the platform accepts.
const MaxTimeout = 28 * 24 * time.Hour

var ErrInvalidDuration = errors.New("invalid duration")

const maxDuration = time.Duration(math.MaxInt64)

var units = map[string]time.Duration{
	"y":  365 * 24 * time.Hour,
	"mo": 30 * 24 * time.Hour,
	"w":  7 * 24 * time.Hour,
	"d":  24 * time.Hour,
	"h":  time.Hour,
	"m":  time.Minute,
	"s":  time.Second,
}

// "mo" must be tried before "m".
var durationToken = regexp.MustCompile(`(\d+)(mo|[ywdhms])`)

// ParseDuration reads compact durations such as "1d2h30m" or "2mo". Every
// character must belong to a token and the total must be positive.
func ParseDuration(input string) (time.Duration, error) {
	value := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(input), " ", ""))
	if value == "" {
		return 0, ErrInvalidDuration
	}

	matches := durationToken.FindAllStringSubmatchIndex(value, -1)
	var total time.Duration
	consumed := 0
	for _, m := range matches {
		if m[0] != consumed {
			return 0, fmt.Errorf("%w: unexpected %q", ErrInvalidDuration, value[consumed:m[0]])
		}
		n, err := strconv.ParseInt(value[m[2]:m[3]], 10, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("%w: %v", ErrInvalidDuration, err)
		}
		total = addSaturating(total, n, units[value[m[4]:m[5]]])
		consumed = m[1]
	}
	if consumed != len(value) {
		return 0, fmt.Errorf("%w: unexpected %q", ErrInvalidDuration, value[consumed:])
	}
	if total <= 0 {
		return 0, ErrInvalidDuration
	}
	return total, nil
}

// addSaturating returns total + n*unit, pinned at the largest Duration
// instead of wrapping.
func addSaturating(total time.Duration, n int64, unit time.Duration) time.Duration {
	if n > int64(maxDuration/unit) {
		return maxDuration
	}
	step := time.Duration(n) * unit
	if total > maxDuration-step {
		return maxDuration
	}
	return total + step
}

// Clamp caps d at MaxTimeout.
func Clamp(d time.Duration) time.Duration {
	if d > MaxTimeout {
		return MaxTimeout
	}
	return d
}

// Shorten subtracts by from the remaining timeout. A non-positive result
// means the timeout should be cleared.
func Shorten(until, now time.Time, by time.Duration) (time.Duration, bool) {
	remaining := until.Sub(now) - by
	if remaining <= 0 {
		return 0, false
	}
	return remaining, true
}

// FormatRemaining renders d as days, hours, minutes and seconds.
func FormatRemaining(lang string, d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if lang == "en" {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%d日 %d時間 %d分 %d秒", days, hours, minutes, seconds)
}
