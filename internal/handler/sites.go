package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/entoto-dev/site-attendance/backend/internal/domain"
	"github.com/entoto-dev/site-attendance/backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// includeInactive reads the includeInactive query flag; anything unparsable is false.
func includeInactive(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("includeInactive"))
	return v
}

func (h *Handler) GetAllSites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.repository.GetAllSites(r.Context())
	if err != nil {
		h.storageFailure(w, r, err, "failed to list sites")
		return
	}

	h.successResponse(w, r, "ok", sites)
}

func (h *Handler) CreateSite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name" validate:"required,max=200"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	site := &domain.Site{Name: req.Name}
	if err := h.repository.CreateSite(r.Context(), site); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "sites_name_key":
			h.conflict(w, r, "site name already exists")
		default:
			h.storageFailure(w, r, err, "failed to create site")
		}
		return
	}

	h.createdResponse(w, r, "site created", site)
}

func (h *Handler) GetSite(w http.ResponseWriter, r *http.Request) {
	site := siteFromContext(r)

	members, err := h.repository.GetMembers(r.Context(), repository.MemberFilter{
		SiteID:          uuid.NullUUID{UUID: site.ID, Valid: true},
		IncludeInactive: includeInactive(r),
	})
	if err != nil {
		h.storageFailure(w, r, err, "failed to load site")
		return
	}
	site.Members = members

	h.successResponse(w, r, "ok", site)
}

func (h *Handler) UpdateSite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name" validate:"required,max=200"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	site := siteFromContext(r)
	site.Name = req.Name

	if err := h.repository.UpdateSite(r.Context(), site); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "sites_name_key":
			h.conflict(w, r, "site name already exists")
		case errors.Is(err, sql.ErrNoRows):
			h.conflict(w, r, "site was modified concurrently, please retry")
		default:
			h.storageFailure(w, r, err, "failed to update site")
		}
		return
	}

	h.successResponse(w, r, "site updated", site)
}

// DeleteSite removes the site with all its members, roster assignments and
// attendance.
func (h *Handler) DeleteSite(w http.ResponseWriter, r *http.Request) {
	site := siteFromContext(r)

	if err := h.repository.DeleteSite(r.Context(), site.ID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "site not found")
		default:
			h.storageFailure(w, r, err, "failed to delete site")
		}
		return
	}

	h.successResponse(w, r, "site deleted", nil)
}

func (h *Handler) GetSiteMembers(w http.ResponseWriter, r *http.Request) {
	site := siteFromContext(r)

	filter := repository.MemberFilter{
		SiteID:          uuid.NullUUID{UUID: site.ID, Valid: true},
		IncludeInactive: includeInactive(r),
	}
	if c := r.URL.Query().Get("category"); c != "" {
		category, err := domain.ParseCategory(c)
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		filter.Category = category
	}

	members, err := h.repository.GetMembers(r.Context(), filter)
	if err != nil {
		h.storageFailure(w, r, err, "failed to list members")
		return
	}

	h.successResponse(w, r, "ok", members)
}
