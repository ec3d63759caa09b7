package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/entoto-dev/site-attendance/backend/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		h.log.Info("request handled",
			zap.Int("status", rw.StatusCode),
			zap.String("ip", r.RemoteAddr),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				h.log.Error("panic recovered", zap.Any("panic", err), zap.ByteString("stack", debug.Stack()))
				h.internalServerError(w, r, fmt.Errorf("panic: %v", err))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// sessionToken reads the session cookie, falling back to a bearer token.
func (h *Handler) sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(h.config.Session.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// requireAdmin rejects the request before any data access unless it carries a
// valid admin session.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.sessionToken(r)
		if token == "" || !h.verifier.VerifyAdmin(r.Context(), token) {
			h.unauthorized(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), SessionTokenCtx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) site(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siteID, err := uuid.Parse(chi.URLParam(r, "siteID"))
		if err != nil {
			h.badRequest(w, r, errors.New("invalid site id"))
			return
		}

		site, err := h.repository.GetSiteByID(r.Context(), siteID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.notFound(w, r, "site not found")
			default:
				h.storageFailure(w, r, err, "failed to load site")
			}
			return
		}

		ctx := context.WithValue(r.Context(), SiteCtx, site)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) member(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		memberID, err := uuid.Parse(chi.URLParam(r, "memberID"))
		if err != nil {
			h.badRequest(w, r, errors.New("invalid member id"))
			return
		}

		member, err := h.repository.GetMemberByID(r.Context(), memberID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.notFound(w, r, "member not found")
			default:
				h.storageFailure(w, r, err, "failed to load member")
			}
			return
		}

		ctx := context.WithValue(r.Context(), MemberCtx, member)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func siteFromContext(r *http.Request) *domain.Site {
	return r.Context().Value(SiteCtx).(*domain.Site)
}

func memberFromContext(r *http.Request) *domain.Member {
	return r.Context().Value(MemberCtx).(*domain.Member)
}
