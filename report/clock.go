package report

import (
	"fmt"
	"strconv"
	"strings"
)

// ClockMinutes parses a HH:MM clock into minutes since midnight
func ClockMinutes(clock string) (int, error) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock %q", clock)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid clock %q", clock)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock %q", clock)
	}
	return h*60 + m, nil
}

// FormatMinutes renders a minute total as "7h 05m"
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}

// Overlaps reports whether two clock intervals overlap. Unparsable
// bounds never overlap.
func Overlaps(aStart, aEnd, bStart, bEnd string) bool {
	as, err := ClockMinutes(aStart)
	if err != nil {
		return false
	}
	ae, err := ClockMinutes(aEnd)
	if err != nil {
		return false
	}
	bs, err := ClockMinutes(bStart)
	if err != nil {
		return false
	}
	be, err := ClockMinutes(bEnd)
	if err != nil {
		return false
	}
	return max(as, bs) < min(ae, be)
}

// Conflicts returns the intervals among entries that overlap
// [start, end), skipping the entry with excludeID
func Conflicts(entries []Entry, start, end string, excludeID string) [][2]string {
	conflicts := [][2]string{}
	for _, e := range entries {
		if excludeID != "" && e.ID == excludeID {
			continue
		}
		if e.Start == "" || e.End == "" {
			continue
		}
		if Overlaps(start, end, e.Start, e.End) {
			conflicts = append(conflicts, [2]string{e.Start, e.End})
		}
	}
	return conflicts
}

// DailyMinutes sums the duration of all complete entries
func DailyMinutes(entries []Entry) int {
	total := 0
	for _, e := range entries {
		if e.Start == "" || e.End == "" {
			continue
		}
		start, err := ClockMinutes(e.Start)
		if err != nil {
			continue
		}
		end, err := ClockMinutes(e.End)
		if err != nil {
			continue
		}
		total += end - start
	}
	return total
}
