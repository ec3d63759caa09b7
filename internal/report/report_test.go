package report

import (
	"bytes"
	"testing"

	"github.com/entoto-dev/site-attendance/backend/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func exportFixture() (*domain.ExportData, *domain.Member, *domain.Member) {
	site := &domain.Site{ID: uuid.New(), Name: "River  Side"}
	bob := &domain.Member{ID: uuid.New(), Name: "Bob", Category: domain.CategoryStaff, SiteID: site.ID}
	amy := &domain.Member{ID: uuid.New(), Name: "Amy", Category: domain.CategoryStaff, SiteID: site.ID}
	dl := &domain.Member{ID: uuid.New(), Name: "Dan", Category: domain.CategoryDL, SiteID: site.ID}

	entry := func(m *domain.Member, date string, present bool) domain.DatedAttendanceEntry {
		return domain.DatedAttendanceEntry{
			AttendanceEntry: domain.AttendanceEntry{MemberID: m.ID, Category: m.Category, Present: present},
			SiteID:          site.ID,
			Date:            date,
		}
	}

	data := &domain.ExportData{
		Site:      site,
		Category:  domain.CategoryStaff,
		StartDate: "2024-03-01",
		EndDate:   "2024-03-03",
		Members:   []*domain.Member{bob, amy, dl},
		Assignments: []domain.RosterAssignment{
			{SiteID: site.ID, MemberID: bob.ID, Category: domain.CategoryStaff, Date: "2024-03-02"},
			{SiteID: site.ID, MemberID: amy.ID, Category: domain.CategoryStaff, Date: "2024-03-01"},
		},
		Entries: []domain.DatedAttendanceEntry{
			entry(amy, "2024-03-01", true),
			entry(bob, "2024-03-01", false),
			entry(dl, "2024-03-03", true),
		},
	}
	return data, amy, bob
}

func TestBuildGrid(t *testing.T) {
	data, amy, bob := exportFixture()

	grid, err := BuildGrid(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-03-01", "2024-03-02", "2024-03-03"}, grid.Dates)
	require.Len(t, grid.Rows, 2, "members of other categories are left out")

	assert.Equal(t, amy.ID, grid.Rows[0].Member.ID)
	assert.Equal(t, []string{CellPresent, "", ""}, grid.Rows[0].Cells)

	assert.Equal(t, bob.ID, grid.Rows[1].Member.ID)
	assert.Equal(t, []string{CellAbsent, CellAbsent, ""}, grid.Rows[1].Cells, "rostered but unmarked reads Absent")
}

func TestBuildGrid_InvalidRange(t *testing.T) {
	data, _, _ := exportFixture()
	data.StartDate, data.EndDate = data.EndDate, data.StartDate

	_, err := BuildGrid(data)
	assert.Error(t, err)
}

func TestFilename(t *testing.T) {
	data, _, _ := exportFixture()
	assert.Equal(t, "River_Side_staff_attendance_2024-03-01_to_2024-03-03.xlsx", Filename(data, FormatXLSX))
	assert.Equal(t, "River_Side_staff_attendance_2024-03-01_to_2024-03-03.csv", Filename(data, FormatCSV))
}

func TestWriteCSV(t *testing.T) {
	data, _, _ := exportFixture()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, data))

	want := "Name,2024-03-01,2024-03-02,2024-03-03\n" +
		"Amy,Present,,\n" +
		"Bob,Absent,Absent,\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteXLSX(t *testing.T) {
	data, _, _ := exportFixture()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, data, FormatXLSX))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "STAFF Attendance", f.GetSheetName(0))

	rows, err := f.GetRows("STAFF Attendance")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Name", "2024-03-01", "2024-03-02", "2024-03-03"}, rows[0])
	assert.Equal(t, []string{"Amy", "Present"}, rows[1][:2])
	assert.Equal(t, []string{"Bob", "Absent", "Absent"}, rows[2][:3])
}
