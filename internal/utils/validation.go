package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/entoto-dev/site-attendance/backend/internal/domain"
)

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// DateRange lists every calendar date from start to end inclusive.
func DateRange(start, end string) ([]string, error) {
	from, err := ParseDate(start)
	if err != nil {
		return nil, err
	}
	to, err := ParseDate(end)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, errors.New("start date must not be after end date")
	}

	dates := make([]string, 0, int(to.Sub(from).Hours()/24)+1)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(domain.DateLayout))
	}
	return dates, nil
}

// ResolveDateRange fills in a missing end with today and a missing start with
// the defaultDays-long window ending at end, then bounds the span by maxDays.
// Only the calendar date of today counts, in whatever zone it carries.
func ResolveDateRange(start, end string, today time.Time, defaultDays, maxDays int) (string, string, error) {
	to := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if end != "" {
		t, err := ParseDate(end)
		if err != nil {
			return "", "", err
		}
		to = t
	}

	from := to.AddDate(0, 0, -(defaultDays - 1))
	if start != "" {
		t, err := ParseDate(start)
		if err != nil {
			return "", "", err
		}
		from = t
	}

	if to.Before(from) {
		return "", "", errors.New("start date must not be after end date")
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > maxDays {
		return "", "", fmt.Errorf("date range spans %d days, at most %d allowed", days, maxDays)
	}

	return from.Format(domain.DateLayout), to.Format(domain.DateLayout), nil
}

// NormalizeAttendance prepares one category's entries for storage: overtime must
// not be negative, an absent member carries no overtime, and a member listed
// twice keeps the last entry.
func NormalizeAttendance(c domain.Category, entries []domain.AttendanceEntry) ([]domain.AttendanceEntry, error) {
	index := make(map[string]int, len(entries))
	normalized := make([]domain.AttendanceEntry, 0, len(entries))

	for i, e := range entries {
		if e.OvertimeHours < 0 {
			return nil, fmt.Errorf("%s entry %d: overtime hours must not be negative", c, i+1)
		}
		e.Category = c
		if !e.Present {
			e.OvertimeHours = 0
		}

		key := e.MemberID.String()
		if at, ok := index[key]; ok {
			normalized[at] = e
			continue
		}
		index[key] = len(normalized)
		normalized = append(normalized, e)
	}

	return normalized, nil
}
