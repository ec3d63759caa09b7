package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/entoto-dev/site-attendance/backend/internal/domain"
	"github.com/entoto-dev/site-attendance/backend/internal/roster"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type siteDateQuery struct {
	SiteID string `json:"siteId" validate:"required,uuid"`
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
}

func (h *Handler) readSiteDate(r *http.Request) (uuid.UUID, string, error) {
	q := siteDateQuery{
		SiteID: r.URL.Query().Get("siteId"),
		Date:   r.URL.Query().Get("date"),
	}
	if err := h.validate.Struct(q); err != nil {
		return uuid.Nil, "", err
	}
	return uuid.MustParse(q.SiteID), q.Date, nil
}

func parseIDs(ids []string) []uuid.UUID {
	parsed := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		parsed = append(parsed, uuid.MustParse(id))
	}
	return parsed
}

// GetRoster answers with the roster in effect. With nothing assigned for the
// date every active member is returned and usedDefault is set.
func (h *Handler) GetRoster(w http.ResponseWriter, r *http.Request) {
	siteID, date, err := h.readSiteDate(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	rs, err := h.repository.ResolveRoster(r.Context(), siteID, date)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "site not found")
		default:
			h.storageFailure(w, r, err, "failed to fetch roster")
		}
		return
	}

	h.successResponse(w, r, "ok", rs)
}

// SaveRoster replaces the roster of a site and date. Ids the site does not own
// are dropped and the roster actually stored is returned.
func (h *Handler) SaveRoster(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SiteID     string   `json:"siteId" validate:"required,uuid"`
		Date       string   `json:"date" validate:"required,datetime=2006-01-02"`
		StaffIDs   []string `json:"staffIds" validate:"dive,uuid"`
		DLIDs      []string `json:"dlIds" validate:"dive,uuid"`
		SkilledIDs []string `json:"skilledIds" validate:"dive,uuid"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	rs := domain.NewRoster(uuid.MustParse(req.SiteID), req.Date)
	rs.SetIDs(domain.CategoryStaff, parseIDs(req.StaffIDs))
	rs.SetIDs(domain.CategoryDL, parseIDs(req.DLIDs))
	rs.SetIDs(domain.CategorySkilled, parseIDs(req.SkilledIDs))

	saved, err := h.repository.SaveRoster(r.Context(), rs)
	if err != nil {
		h.rosterSaveFailure(w, r, err)
		return
	}

	h.successResponse(w, r, "roster saved", saved)
}

// RepeatRoster copies the explicit roster of one date to every later date an
// RRULE produces, all in one transaction.
func (h *Handler) RepeatRoster(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SiteID string `json:"siteId" validate:"required,uuid"`
		Date   string `json:"date" validate:"required,datetime=2006-01-02"`
		Rule   string `json:"rule" validate:"required,max=500"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	dates, err := roster.RepeatDates(req.Date, req.Rule, h.config.Roster.MaxRepeat)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	if len(dates) == 0 {
		h.badRequest(w, r, errors.New("rule yields no date after the source date"))
		return
	}

	siteID := uuid.MustParse(req.SiteID)
	source, err := h.repository.ResolveRoster(r.Context(), siteID, req.Date)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "site not found")
		default:
			h.storageFailure(w, r, err, "failed to fetch roster")
		}
		return
	}
	if source.UsedDefault {
		h.badRequest(w, r, fmt.Errorf("no roster saved for %s", req.Date))
		return
	}

	copies := make([]*domain.Roster, 0, len(dates))
	for _, d := range dates {
		copies = append(copies, roster.Copy(source, d))
	}

	saved, err := h.repository.SaveRosters(r.Context(), siteID, copies)
	if err != nil {
		h.rosterSaveFailure(w, r, err)
		return
	}

	h.successResponse(w, r, "roster repeated", saved)
}

func (h *Handler) rosterSaveFailure(w http.ResponseWriter, r *http.Request, err error) {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, sql.ErrNoRows):
		h.notFound(w, r, "site not found")
	case errors.As(err, &pgErr) && pgErr.ConstraintName == "roster_assignments_member_site_fkey":
		// a member changed site between the ownership check and the insert
		h.conflict(w, r, "roster changed concurrently, please retry")
	default:
		h.storageFailure(w, r, err, "failed to save roster")
	}
}
