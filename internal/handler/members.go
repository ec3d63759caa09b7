package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/entoto-dev/site-attendance/backend/internal/domain"
	"github.com/entoto-dev/site-attendance/backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// pickCategory accepts the category under either of its two wire names.
func pickCategory(category, role string) (domain.Category, error) {
	if category == "" {
		category = role
	}
	if category == "" {
		return "", errors.New("category is required")
	}
	return domain.ParseCategory(category)
}

func (h *Handler) GetMembers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := repository.MemberFilter{IncludeInactive: includeInactive(r)}

	if s := query.Get("siteId"); s != "" {
		siteID, err := uuid.Parse(s)
		if err != nil {
			h.badRequest(w, r, errors.New("invalid siteId"))
			return
		}
		filter.SiteID = uuid.NullUUID{UUID: siteID, Valid: true}
	}
	if c := query.Get("category"); c != "" {
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

// CreateMembers adds one or more members in a single transaction.
func (h *Handler) CreateMembers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Members []struct {
			Name     string `json:"name" validate:"required,max=200"`
			Category string `json:"category" validate:"omitempty,oneof=staff dl skilled"`
			Role     string `json:"role" validate:"omitempty,oneof=staff dl skilled"`
			SiteID   string `json:"siteId" validate:"required,uuid"`
			IsActive *bool  `json:"isActive"`
		} `json:"members" validate:"required,min=1,max=500,dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	for i := range req.Members {
		req.Members[i].Name = strings.TrimSpace(req.Members[i].Name)
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	members := make([]*domain.Member, 0, len(req.Members))
	for _, m := range req.Members {
		category, err := pickCategory(m.Category, m.Role)
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		active := true
		if m.IsActive != nil {
			active = *m.IsActive
		}
		members = append(members, &domain.Member{
			Name:     m.Name,
			Category: category,
			SiteID:   uuid.MustParse(m.SiteID),
			IsActive: active,
		})
	}

	if err := h.repository.CreateMembers(r.Context(), members); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "members_site_id_fkey":
			h.notFound(w, r, "site not found")
		default:
			h.storageFailure(w, r, err, "failed to create members")
		}
		return
	}

	h.createdResponse(w, r, "members created", members)
}

func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "ok", memberFromContext(r))
}

// UpdateMember renames, (de)activates or moves a member to another site.
func (h *Handler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     *string `json:"name" validate:"omitempty,min=1,max=200"`
		IsActive *bool   `json:"isActive"`
		SiteID   *string `json:"siteId" validate:"omitempty,uuid"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	member := memberFromContext(r)

	if req.Name != nil {
		member.Name = *req.Name
	}
	if req.IsActive != nil {
		member.IsActive = *req.IsActive
	}
	if req.SiteID != nil {
		member.SiteID = uuid.MustParse(*req.SiteID)
	}

	if err := h.repository.UpdateMember(r.Context(), member); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "members_site_id_fkey":
			h.notFound(w, r, "site not found")
		case errors.Is(err, sql.ErrNoRows):
			h.conflict(w, r, "member was modified concurrently, please retry")
		default:
			h.storageFailure(w, r, err, "failed to update member")
		}
		return
	}

	h.successResponse(w, r, "member updated", member)
}

// DeleteMember needs the member's category as a discriminator, passed as the
// category (or role) query parameter.
func (h *Handler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	category, err := pickCategory(query.Get("category"), query.Get("role"))
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	member := memberFromContext(r)

	if err := h.repository.DeleteMember(r.Context(), member.ID, category); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "member not found")
		default:
			h.storageFailure(w, r, err, "failed to delete member")
		}
		return
	}

	h.successResponse(w, r, "member deleted", nil)
}
