// Package mailer turns queued export requests into mails with the export
// attached.
package mailer

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"

	"github.com/entoto-dev/site-attendance/backend/internal/domain"
	"github.com/entoto-dev/site-attendance/backend/internal/report"
	"github.com/google/uuid"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

var exportTemplate = template.Must(template.ParseFS(templatesFS, "templates/export_email.html"))

// Outcome tells the consumer what to do with the delivery.
type Outcome int

const (
	Ack Outcome = iota
	// Drop rejects a message that can never succeed.
	Drop
	// Retry puts the message back on the queue.
	Retry
)

type ExportSource interface {
	GetExportData(ctx context.Context, siteID uuid.UUID, c domain.Category, start, end string) (*domain.ExportData, error)
}

type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type Worker struct {
	from   string
	source ExportSource
	sender Sender
	log    *zap.Logger
}

func NewWorker(from string, source ExportSource, sender Sender, logger *zap.Logger) *Worker {
	return &Worker{
		from:   from,
		source: source,
		sender: sender,
		log:    logger,
	}
}

// Handle processes one queued message.
func (w *Worker) Handle(ctx context.Context, body []byte) Outcome {
	var msg domain.MailMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		w.log.Error("failed to decode mail message", zap.Error(err))
		return Drop
	}

	if msg.Type != domain.ExportMailType {
		w.log.Error("unsupported mail type", zap.String("type", msg.Type))
		return Drop
	}

	req := msg.Data
	data, err := w.source.GetExportData(ctx, req.SiteID, req.Category, req.StartDate, req.EndDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// site deleted after the request was queued
			w.log.Warn("export site no longer exists", zap.String("site", req.SiteID.String()))
			return Drop
		}
		w.log.Error("failed to read export data", zap.Error(err))
		return Retry
	}

	m, err := BuildExportMail(w.from, msg.To, data, req.Format)
	if err != nil {
		w.log.Error("failed to build export mail", zap.Error(err))
		return Drop
	}

	if err := w.sender.DialAndSendWithContext(ctx, m); err != nil {
		w.log.Error("failed to send export mail", zap.Error(err))
		return Retry
	}

	w.log.Info("export mail sent",
		zap.String("to", msg.To),
		zap.String("site", data.Site.Name),
		zap.String("category", string(data.Category)),
	)
	return Ack
}

// BuildExportMail renders the export and attaches it to a mail for to.
func BuildExportMail(from, to string, data *domain.ExportData, format string) (*mail.Msg, error) {
	if format != report.FormatCSV {
		format = report.FormatXLSX
	}

	grid, err := report.BuildGrid(data)
	if err != nil {
		return nil, err
	}

	var attachment bytes.Buffer
	if err := report.Write(&attachment, data, format); err != nil {
		return nil, fmt.Errorf("failed to render export: %w", err)
	}

	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := m.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	m.Subject(fmt.Sprintf("%s %s attendance %s to %s", data.Site.Name, data.Category.Label(), data.StartDate, data.EndDate))

	if err := m.SetBodyHTMLTemplate(exportTemplate, map[string]any{
		"Site":      data.Site.Name,
		"Category":  data.Category.Label(),
		"StartDate": data.StartDate,
		"EndDate":   data.EndDate,
		"Members":   len(grid.Rows),
		"Days":      len(grid.Dates),
	}); err != nil {
		return nil, err
	}

	if err := m.AttachReader(report.Filename(data, format), &attachment,
		mail.WithFileContentType(mail.ContentType(report.ContentType(format)))); err != nil {
		return nil, err
	}

	return m, nil
}
