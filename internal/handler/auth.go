package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/entoto-dev/site-attendance/backend/internal/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (h *Handler) setSessionCookie(w http.ResponseWriter, value string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     h.config.Session.CookieName,
		Value:    value,
		Expires:  expires,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		cookie.MaxAge = -1
	}
	if h.config.Environment == "production" {
		cookie.Secure = true
	}

	http.SetCookie(w, cookie)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	admin, err := h.repository.GetAdminByUsername(r.Context(), req.Username)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, http.StatusUnauthorized, "invalid username or password")
		default:
			h.storageFailure(w, r, err, "failed to log in")
		}
		return
	}

	ok, err := auth.CheckPassword(admin.PasswordHash, req.Password)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if !ok {
		h.errorResponse(w, r, http.StatusUnauthorized, "invalid username or password")
		return
	}

	token, expiresAt, err := h.sessions.Issue(admin)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.setSessionCookie(w, token, expiresAt)
	h.successResponse(w, r, "logged in", admin)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := h.sessionToken(r); token != "" {
		if err := h.sessions.Revoke(r.Context(), token); err != nil {
			h.internalServerError(w, r, err)
			return
		}
	}

	h.setSessionCookie(w, "", time.Unix(0, 0))
	h.successResponse(w, r, "logged out", nil)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	token := r.Context().Value(SessionTokenCtx).(string)

	claims, err := h.sessions.Parse(r.Context(), token)
	if err != nil {
		h.unauthorized(w, r)
		return
	}

	adminID, err := uuid.Parse(claims.Subject)
	if err != nil {
		h.unauthorized(w, r)
		return
	}

	admin, err := h.repository.GetAdminByID(r.Context(), adminID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.unauthorized(w, r)
		default:
			h.storageFailure(w, r, err, "failed to load admin")
		}
		return
	}

	h.successResponse(w, r, "ok", admin)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.repository.Ping(r.Context()); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		h.errorResponse(w, r, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	h.successResponse(w, r, "ok", nil)
}
