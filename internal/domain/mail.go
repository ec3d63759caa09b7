package domain

import "github.com/google/uuid"

const ExportMailType = "attendance_export"

// MailMessage is the payload published on the export mail queue.
type MailMessage struct {
	Type string         `json:"type"`
	To   string         `json:"to"`
	Data ExportMailData `json:"data"`
}

type ExportMailData struct {
	SiteID    uuid.UUID `json:"siteId"`
	Category  Category  `json:"category"`
	StartDate string    `json:"startDate"`
	EndDate   string    `json:"endDate"`
	Format    string    `json:"format"`
}
