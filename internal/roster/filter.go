package roster

import (
	"github.com/entoto-dev/site-attendance/backend/internal/domain"
	"github.com/google/uuid"
)

// Ownership indexes the members a site owns by id.
type Ownership map[uuid.UUID]*domain.Member

func NewOwnership(siteID uuid.UUID, members []*domain.Member) Ownership {
	o := make(Ownership, len(members))
	for _, m := range members {
		if m.SiteID == siteID {
			o[m.ID] = m
		}
	}
	return o
}

// Owns reports whether the member belongs to the site in the given category.
// Inactive members are still owned.
func (o Ownership) Owns(id uuid.UUID, c domain.Category) bool {
	m, ok := o[id]
	return ok && m.Category == c
}

// FilterOwned returns a copy of r keeping only ids the site owns in the matching
// category. Unknown ids are dropped without error, duplicates are collapsed.
func FilterOwned(r *domain.Roster, owned Ownership) *domain.Roster {
	filtered := domain.NewRoster(r.SiteID, r.Date)
	for _, c := range domain.Categories {
		seen := make(map[uuid.UUID]bool)
		ids := make([]uuid.UUID, 0, len(r.IDs(c)))
		for _, id := range r.IDs(c) {
			if seen[id] || !owned.Owns(id, c) {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
		filtered.SetIDs(c, ids)
	}
	return filtered
}

// FilterEntries drops attendance entries for members the site does not own.
func FilterEntries(entries []domain.AttendanceEntry, c domain.Category, owned Ownership) []domain.AttendanceEntry {
	kept := make([]domain.AttendanceEntry, 0, len(entries))
	for _, e := range entries {
		if owned.Owns(e.MemberID, c) {
			kept = append(kept, e)
		}
	}
	return kept
}
