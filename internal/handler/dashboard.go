package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/entoto-dev/site-attendance/backend/internal/report"
	"github.com/entoto-dev/site-attendance/backend/internal/repository"
	"github.com/entoto-dev/site-attendance/backend/internal/utils"
	"github.com/google/uuid"
)

type rangeQuery struct {
	SiteID    string `json:"siteId" validate:"omitempty,uuid"`
	StartDate string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
}

// readRange validates the optional siteId, startDate and endDate parameters
// and fills in the default window.
func (h *Handler) readRange(r *http.Request) (uuid.NullUUID, string, string, error) {
	q := rangeQuery{
		SiteID:    r.URL.Query().Get("siteId"),
		StartDate: r.URL.Query().Get("startDate"),
		EndDate:   r.URL.Query().Get("endDate"),
	}
	if err := h.validate.Struct(q); err != nil {
		return uuid.NullUUID{}, "", "", err
	}

	start, end, err := utils.ResolveDateRange(q.StartDate, q.EndDate, h.now(), h.config.Export.DefaultDays, h.config.Export.MaxDays)
	if err != nil {
		return uuid.NullUUID{}, "", "", err
	}

	var siteID uuid.NullUUID
	if q.SiteID != "" {
		siteID = uuid.NullUUID{UUID: uuid.MustParse(q.SiteID), Valid: true}
	}
	return siteID, start, end, nil
}

// GetDashboard summarizes each site and day of the range per category.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	siteID, start, end, err := h.readRange(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	data, err := h.repository.GetDashboardData(r.Context(), siteID, start, end)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "site not found")
		default:
			h.storageFailure(w, r, err, "failed to fetch dashboard")
		}
		return
	}

	h.successResponse(w, r, "ok", map[string]any{
		"startDate": start,
		"endDate":   end,
		"days":      report.Summarize(data),
	})
}

func (h *Handler) GetDashboardMembers(w http.ResponseWriter, r *http.Request) {
	siteID, start, end, err := h.readRange(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	filter := repository.MemberFilter{SiteID: siteID, IncludeInactive: includeInactive(r)}
	category, role := r.URL.Query().Get("category"), r.URL.Query().Get("role")
	if category != "" || role != "" {
		c, err := pickCategory(category, role)
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		filter.Category = c
	}

	members, err := h.repository.GetMemberAttendance(r.Context(), filter, start, end)
	if err != nil {
		h.storageFailure(w, r, err, "failed to fetch member attendance")
		return
	}

	h.successResponse(w, r, "ok", members)
}
