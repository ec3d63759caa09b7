package roster

import (
	"testing"

	"github.com/entoto-dev/site-attendance/backend/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestFilterOwned(t *testing.T) {
	site := uuid.New()
	staff := member(site, domain.CategoryStaff, true)
	inactiveDL := member(site, domain.CategoryDL, false)
	foreign := member(uuid.New(), domain.CategoryStaff, true)
	owned := NewOwnership(site, []*domain.Member{staff, inactiveDL, foreign})

	in := domain.NewRoster(site, "2024-03-01")
	in.StaffIDs = []uuid.UUID{staff.ID, foreign.ID, uuid.New(), staff.ID}
	in.DLIDs = []uuid.UUID{inactiveDL.ID}
	// Right member, wrong category.
	in.SkilledIDs = []uuid.UUID{staff.ID}

	out := FilterOwned(in, owned)

	assert.Equal(t, []uuid.UUID{staff.ID}, out.StaffIDs)
	assert.Equal(t, []uuid.UUID{inactiveDL.ID}, out.DLIDs)
	assert.Empty(t, out.SkilledIDs)
	assert.Equal(t, site, out.SiteID)
	assert.Equal(t, "2024-03-01", out.Date)
	// Input untouched.
	assert.Len(t, in.StaffIDs, 4)
}

func TestFilterEntries(t *testing.T) {
	site := uuid.New()
	dl := member(site, domain.CategoryDL, true)
	owned := NewOwnership(site, []*domain.Member{dl})

	entries := []domain.AttendanceEntry{
		{MemberID: dl.ID, Category: domain.CategoryDL, Present: true},
		{MemberID: uuid.New(), Category: domain.CategoryDL, Present: true},
	}

	kept := FilterEntries(entries, domain.CategoryDL, owned)

	assert.Len(t, kept, 1)
	assert.Equal(t, dl.ID, kept[0].MemberID)
	assert.Empty(t, FilterEntries(entries, domain.CategoryStaff, owned))
}
