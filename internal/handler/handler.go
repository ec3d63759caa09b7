package handler

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/entoto-dev/site-attendance/backend/internal/auth"
	"github.com/entoto-dev/site-attendance/backend/internal/config"
	"github.com/entoto-dev/site-attendance/backend/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AdminVerifier decides whether a session token belongs to an admin.
type AdminVerifier interface {
	VerifyAdmin(ctx context.Context, token string) bool
}

// MailPublisher is the part of *amqp.Channel the handler needs.
type MailPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Handler struct {
	validate      *validator.Validate
	config        *config.Config
	repository    *repository.Repository
	translator    ut.Translator
	sessions      *auth.Sessions
	verifier      AdminVerifier
	mailPublisher MailPublisher
	log           *zap.Logger
	now           func() time.Time

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, sessions *auth.Sessions, mailPublisher MailPublisher, logger *zap.Logger) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	// report json field names in validation messages
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:      validate,
		config:        cfg,
		repository:    repo,
		translator:    trans,
		sessions:      sessions,
		verifier:      sessions,
		mailPublisher: mailPublisher,
		log:           logger,
		now:           time.Now,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.requestLogger)
	h.Mux.Use(h.recoverer)

	h.Mux.Get("/healthz", h.Health)

	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.With(h.requireAdmin).Get("/me", h.GetMe)
	})

	// everything below needs an admin session
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.requireAdmin)

		r.Route("/sites", func(r chi.Router) {
			r.Get("/", h.GetAllSites)
			r.Post("/", h.CreateSite)
			r.Route("/{siteID}", func(r chi.Router) {
				r.Use(h.site)
				r.Get("/", h.GetSite)
				r.Patch("/", h.UpdateSite)
				r.Delete("/", h.DeleteSite)
				r.Get("/members", h.GetSiteMembers)
			})
		})

		r.Route("/members", func(r chi.Router) {
			r.Get("/", h.GetMembers)
			r.Post("/", h.CreateMembers)
			r.Route("/{memberID}", func(r chi.Router) {
				r.Use(h.member)
				r.Get("/", h.GetMember)
				r.Patch("/", h.UpdateMember)
				r.Delete("/", h.DeleteMember)
			})
		})

		r.Route("/roster", func(r chi.Router) {
			r.Get("/", h.GetRoster)
			r.Post("/", h.SaveRoster)
			r.Post("/repeat", h.RepeatRoster)
		})

		r.Route("/attendance", func(r chi.Router) {
			r.Get("/", h.GetAttendance)
			r.Post("/", h.RecordAttendance)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/", h.GetDashboard)
			r.Get("/members", h.GetDashboardMembers)
		})

		r.Route("/exports", func(r chi.Router) {
			r.Get("/", h.Export)
			r.Post("/email", h.EmailExport)
		})
	})
}
