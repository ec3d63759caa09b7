package roster

import (
	"errors"
	"fmt"
	"time"

	"github.com/entoto-dev/site-attendance/backend/internal/domain"
	"github.com/teambition/rrule-go"
)

var ErrTooManyOccurrences = errors.New("recurrence yields too many dates")

// RepeatDates expands an RFC 5545 RRULE starting at from and returns the
// occurrence dates after from, at most max of them. Rules without COUNT or
// UNTIL are cut off one year after from.
func RepeatDates(from string, rule string, max int) ([]string, error) {
	start, err := time.Parse(domain.DateLayout, from)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", from, err)
	}

	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("invalid rrule: %w", err)
	}
	r.DTStart(start)

	if r.OrigOptions.Count == 0 && r.OrigOptions.Until.IsZero() {
		r.Until(start.AddDate(1, 0, 0))
	}

	dates := make([]string, 0)
	next := r.Iterator()
	for {
		occurrence, ok := next()
		if !ok {
			break
		}
		date := occurrence.Format(domain.DateLayout)
		if date == from {
			continue
		}
		if len(dates) == max {
			return nil, fmt.Errorf("%w: more than %d", ErrTooManyOccurrences, max)
		}
		dates = append(dates, date)
	}

	return dates, nil
}

// Copy returns the roster r moved to another date.
func Copy(r *domain.Roster, date string) *domain.Roster {
	c := domain.NewRoster(r.SiteID, date)
	for _, cat := range domain.Categories {
		c.SetIDs(cat, append(c.IDs(cat), r.IDs(cat)...))
	}
	return c
}
