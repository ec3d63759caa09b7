package domain

import "github.com/google/uuid"

// DateLayout is the calendar date format used on the wire and in roster keys.
const DateLayout = "2006-01-02"

type RosterAssignment struct {
	SiteID   uuid.UUID `json:"siteId"`
	MemberID uuid.UUID `json:"memberId"`
	Category Category  `json:"category"`
	Date     string    `json:"date"`
}

// Roster is the set of members expected at a site on a date. UsedDefault is true
// when no assignment exists for the date and every active member was returned.
type Roster struct {
	SiteID      uuid.UUID   `json:"siteId"`
	Date        string      `json:"date"`
	StaffIDs    []uuid.UUID `json:"staffIds"`
	DLIDs       []uuid.UUID `json:"dlIds"`
	SkilledIDs  []uuid.UUID `json:"skilledIds"`
	UsedDefault bool        `json:"usedDefault"`
}

func NewRoster(siteID uuid.UUID, date string) *Roster {
	return &Roster{
		SiteID:     siteID,
		Date:       date,
		StaffIDs:   []uuid.UUID{},
		DLIDs:      []uuid.UUID{},
		SkilledIDs: []uuid.UUID{},
	}
}

func (r *Roster) IDs(c Category) []uuid.UUID {
	switch c {
	case CategoryStaff:
		return r.StaffIDs
	case CategoryDL:
		return r.DLIDs
	case CategorySkilled:
		return r.SkilledIDs
	}
	return nil
}

func (r *Roster) SetIDs(c Category, ids []uuid.UUID) {
	if ids == nil {
		ids = []uuid.UUID{}
	}
	switch c {
	case CategoryStaff:
		r.StaffIDs = ids
	case CategoryDL:
		r.DLIDs = ids
	case CategorySkilled:
		r.SkilledIDs = ids
	}
}

func (r *Roster) Empty() bool {
	return len(r.StaffIDs) == 0 && len(r.DLIDs) == 0 && len(r.SkilledIDs) == 0
}

// Assignments flattens the roster into one row per member.
func (r *Roster) Assignments() []RosterAssignment {
	assignments := make([]RosterAssignment, 0, len(r.StaffIDs)+len(r.DLIDs)+len(r.SkilledIDs))
	for _, c := range Categories {
		for _, id := range r.IDs(c) {
			assignments = append(assignments, RosterAssignment{
				SiteID:   r.SiteID,
				MemberID: id,
				Category: c,
				Date:     r.Date,
			})
		}
	}
	return assignments
}
