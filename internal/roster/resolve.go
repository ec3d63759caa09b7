// Package roster decides which members a site expects on a given date.
//
// A roster is configured for the whole site and date at once: as soon as any
// assignment exists in any category, only assigned members are expected, and a
// category without assignments expects nobody. With no assignment at all every
// active member of the site is expected and the roster is marked as a default.
package roster

import (
	"github.com/entoto-dev/site-attendance/backend/internal/domain"
	"github.com/google/uuid"
)

// Resolve builds the roster for (siteID, date) from the assignments stored for
// that date and the site's currently active members.
func Resolve(siteID uuid.UUID, date string, assignments []domain.RosterAssignment, activeMembers []*domain.Member) *domain.Roster {
	r := domain.NewRoster(siteID, date)

	explicit := false
	for _, a := range assignments {
		if a.SiteID == siteID && a.Date == date {
			explicit = true
			break
		}
	}

	if explicit {
		seen := make(map[uuid.UUID]bool)
		for _, a := range assignments {
			if a.SiteID != siteID || a.Date != date || seen[a.MemberID] {
				continue
			}
			seen[a.MemberID] = true
			r.SetIDs(a.Category, append(r.IDs(a.Category), a.MemberID))
		}
		return r
	}

	r.UsedDefault = true
	for _, m := range activeMembers {
		if !m.IsActive || m.SiteID != siteID {
			continue
		}
		r.SetIDs(m.Category, append(r.IDs(m.Category), m.ID))
	}
	return r
}
