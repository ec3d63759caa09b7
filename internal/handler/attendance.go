package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/entoto-dev/site-attendance/backend/internal/domain"
	"github.com/entoto-dev/site-attendance/backend/internal/utils"
	"github.com/google/uuid"
)

// attendanceItem is one member's line in a submission. The member id arrives
// under the category's own key (staffId, dlId, skilledId) or as memberId.
type attendanceItem struct {
	MemberID      string  `json:"memberId" validate:"omitempty,uuid"`
	StaffID       string  `json:"staffId" validate:"omitempty,uuid"`
	DLID          string  `json:"dlId" validate:"omitempty,uuid"`
	SkilledID     string  `json:"skilledId" validate:"omitempty,uuid"`
	Present       *bool   `json:"present" validate:"required"`
	OvertimeHours float64 `json:"overtimeHours" validate:"gte=0,lte=24"`
}

func (it attendanceItem) id(c domain.Category) string {
	var id string
	switch c {
	case domain.CategoryStaff:
		id = it.StaffID
	case domain.CategoryDL:
		id = it.DLID
	case domain.CategorySkilled:
		id = it.SkilledID
	}
	if id == "" {
		id = it.MemberID
	}
	return id
}

func toEntries(c domain.Category, items []attendanceItem) ([]domain.AttendanceEntry, error) {
	entries := make([]domain.AttendanceEntry, 0, len(items))
	for i, it := range items {
		id := it.id(c)
		if id == "" {
			return nil, fmt.Errorf("%sAttendance entry %d is missing its member id", c, i+1)
		}
		entries = append(entries, domain.AttendanceEntry{
			MemberID:      uuid.MustParse(id),
			Category:      c,
			Present:       *it.Present,
			OvertimeHours: it.OvertimeHours,
		})
	}
	return utils.NormalizeAttendance(c, entries)
}

// RecordAttendance upserts the day's record. A category sent with entries
// replaces what was stored for it; a category left out or sent empty is kept.
func (h *Handler) RecordAttendance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SiteID            string           `json:"siteId" validate:"required,uuid"`
		Date              string           `json:"date" validate:"required,datetime=2006-01-02"`
		StaffAttendance   []attendanceItem `json:"staffAttendance" validate:"dive"`
		DLAttendance      []attendanceItem `json:"dlAttendance" validate:"dive"`
		SkilledAttendance []attendanceItem `json:"skilledAttendance" validate:"dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	submission := &domain.AttendanceSubmission{
		SiteID:  uuid.MustParse(req.SiteID),
		Date:    req.Date,
		Entries: make(map[domain.Category][]domain.AttendanceEntry, len(domain.Categories)),
	}
	byCategory := map[domain.Category][]attendanceItem{
		domain.CategoryStaff:   req.StaffAttendance,
		domain.CategoryDL:      req.DLAttendance,
		domain.CategorySkilled: req.SkilledAttendance,
	}
	for _, c := range domain.Categories {
		entries, err := toEntries(c, byCategory[c])
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		submission.Entries[c] = entries
	}

	record, err := h.repository.RecordAttendance(r.Context(), submission)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "site not found")
		default:
			h.storageFailure(w, r, err, "failed to record attendance")
		}
		return
	}

	h.successResponse(w, r, "attendance recorded", record)
}

func (h *Handler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	siteID, date, err := h.readSiteDate(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	record, err := h.repository.GetAttendanceRecord(r.Context(), siteID, date)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "no attendance recorded for this site and date")
		default:
			h.storageFailure(w, r, err, "failed to fetch attendance")
		}
		return
	}

	h.successResponse(w, r, "ok", record)
}
