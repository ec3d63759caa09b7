package roster

import (
	"testing"

	"github.com/entoto-dev/site-attendance/backend/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func member(siteID uuid.UUID, c domain.Category, active bool) *domain.Member {
	return &domain.Member{ID: uuid.New(), Name: "m", Category: c, SiteID: siteID, IsActive: active}
}

func TestResolve_NoAssignmentsDefaultsToActiveMembers(t *testing.T) {
	site := uuid.New()
	a := member(site, domain.CategoryStaff, true)
	b := member(site, domain.CategoryStaff, true)
	c := member(site, domain.CategoryStaff, true)
	inactive := member(site, domain.CategoryStaff, false)
	dl := member(site, domain.CategoryDL, true)
	skilled := member(site, domain.CategorySkilled, true)

	r := Resolve(site, "2024-03-01", nil, []*domain.Member{a, b, c, inactive, dl, skilled})

	assert.True(t, r.UsedDefault)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID, c.ID}, r.StaffIDs)
	assert.Equal(t, []uuid.UUID{dl.ID}, r.DLIDs)
	assert.Equal(t, []uuid.UUID{skilled.ID}, r.SkilledIDs)
}

func TestResolve_AnyAssignmentMakesWholeRosterExplicit(t *testing.T) {
	site := uuid.New()
	a := member(site, domain.CategoryStaff, true)
	b := member(site, domain.CategoryStaff, true)
	dl := member(site, domain.CategoryDL, true)
	skilled := member(site, domain.CategorySkilled, true)

	assignments := []domain.RosterAssignment{
		{SiteID: site, MemberID: a.ID, Category: domain.CategoryStaff, Date: "2024-03-01"},
		{SiteID: site, MemberID: b.ID, Category: domain.CategoryStaff, Date: "2024-03-01"},
	}

	r := Resolve(site, "2024-03-01", assignments, []*domain.Member{a, b, dl, skilled})

	assert.False(t, r.UsedDefault)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, r.StaffIDs)
	// No DL or skilled assignment: nobody expected, not every active member.
	assert.Empty(t, r.DLIDs)
	assert.NotNil(t, r.DLIDs)
	assert.Empty(t, r.SkilledIDs)
}

func TestResolve_ExplicitRosterKeepsInactiveMembers(t *testing.T) {
	site := uuid.New()
	inactive := member(site, domain.CategorySkilled, false)

	assignments := []domain.RosterAssignment{
		{SiteID: site, MemberID: inactive.ID, Category: domain.CategorySkilled, Date: "2024-03-02"},
	}

	r := Resolve(site, "2024-03-02", assignments, nil)

	assert.False(t, r.UsedDefault)
	assert.Equal(t, []uuid.UUID{inactive.ID}, r.SkilledIDs)
}

func TestResolve_IgnoresRowsForOtherSitesAndDates(t *testing.T) {
	site := uuid.New()
	other := uuid.New()
	a := member(site, domain.CategoryStaff, true)

	assignments := []domain.RosterAssignment{
		{SiteID: other, MemberID: uuid.New(), Category: domain.CategoryStaff, Date: "2024-03-01"},
		{SiteID: site, MemberID: uuid.New(), Category: domain.CategoryStaff, Date: "2024-03-02"},
	}

	r := Resolve(site, "2024-03-01", assignments, []*domain.Member{a})

	assert.True(t, r.UsedDefault)
	assert.Equal(t, []uuid.UUID{a.ID}, r.StaffIDs)
}

func TestResolve_DuplicateAssignmentsCollapse(t *testing.T) {
	site := uuid.New()
	id := uuid.New()
	row := domain.RosterAssignment{SiteID: site, MemberID: id, Category: domain.CategoryDL, Date: "2024-03-01"}

	r := Resolve(site, "2024-03-01", []domain.RosterAssignment{row, row}, nil)

	require.Len(t, r.DLIDs, 1)
	assert.Equal(t, id, r.DLIDs[0])
}

func TestResolve_Scenario(t *testing.T) {
	site := uuid.New()
	a := member(site, domain.CategoryStaff, true)
	b := member(site, domain.CategoryStaff, true)
	c := member(site, domain.CategoryStaff, true)
	members := []*domain.Member{a, b, c}

	before := Resolve(site, "2024-03-01", nil, members)
	assert.True(t, before.UsedDefault)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID, c.ID}, before.StaffIDs)

	saved := domain.NewRoster(site, "2024-03-01")
	saved.StaffIDs = []uuid.UUID{a.ID, b.ID}
	saved = FilterOwned(saved, NewOwnership(site, members))

	after := Resolve(site, "2024-03-01", saved.Assignments(), members)
	assert.False(t, after.UsedDefault)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, after.StaffIDs)
}
