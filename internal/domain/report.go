package domain

import "github.com/google/uuid"

// ExportData is everything a spreadsheet export for one site and category needs,
// read from a single snapshot.
type ExportData struct {
	Site        *Site
	Category    Category
	StartDate   string
	EndDate     string
	Members     []*Member
	Assignments []RosterAssignment
	Entries     []DatedAttendanceEntry
}

type CategorySummary struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Total   int `json:"total"`
}

type DailySummary struct {
	SiteID   uuid.UUID                    `json:"siteId"`
	SiteName string                       `json:"siteName"`
	Date     string                       `json:"date"`
	Recorded bool                         `json:"recorded"`
	Counts   map[Category]CategorySummary `json:"counts"`
}

type MemberAttendance struct {
	Member  *Member                `json:"member"`
	Entries []DatedAttendanceEntry `json:"entries"`
}

// DashboardData is the raw material of the daily summaries for a date range.
type DashboardData struct {
	Sites       []*Site
	Records     []*AttendanceRecord
	Assignments []RosterAssignment
}
