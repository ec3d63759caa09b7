package domain

import (
	"time"

	"github.com/google/uuid"
)

type AttendanceEntry struct {
	MemberID      uuid.UUID `json:"memberId"`
	Category      Category  `json:"category"`
	Present       bool      `json:"present"`
	OvertimeHours float64   `json:"overtimeHours"`
}

type AttendanceRecord struct {
	ID        uuid.UUID         `json:"id"`
	SiteID    uuid.UUID         `json:"siteId"`
	Date      string            `json:"date"`
	Entries   []AttendanceEntry `json:"entries"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// AttendanceSubmission carries one daily submission. A category with no entries
// is left untouched when the submission is recorded.
type AttendanceSubmission struct {
	SiteID  uuid.UUID
	Date    string
	Entries map[Category][]AttendanceEntry
}

// DatedAttendanceEntry is an entry joined with the date of its record.
type DatedAttendanceEntry struct {
	AttendanceEntry
	SiteID uuid.UUID `json:"siteId"`
	Date   string    `json:"date"`
}
