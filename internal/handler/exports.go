package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/entoto-dev/site-attendance/backend/internal/domain"
	"github.com/entoto-dev/site-attendance/backend/internal/report"
	"github.com/entoto-dev/site-attendance/backend/internal/utils"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type exportRequest struct {
	siteID   uuid.UUID
	category domain.Category
	start    string
	end      string
	format   string
}

// readExport validates an export request. The category may be sent as
// category or role; the format defaults to xlsx.
func (h *Handler) readExport(siteID, category, role, start, end, format string) (*exportRequest, error) {
	q := struct {
		SiteID    string `json:"siteId" validate:"required,uuid"`
		StartDate string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
		EndDate   string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
		Format    string `json:"format" validate:"omitempty,oneof=xlsx csv"`
	}{siteID, start, end, format}
	if err := h.validate.Struct(q); err != nil {
		return nil, err
	}

	c, err := pickCategory(category, role)
	if err != nil {
		return nil, err
	}

	from, to, err := utils.ResolveDateRange(q.StartDate, q.EndDate, h.now(), h.config.Export.DefaultDays, h.config.Export.MaxDays)
	if err != nil {
		return nil, err
	}

	if q.Format == "" {
		q.Format = report.FormatXLSX
	}

	return &exportRequest{
		siteID:   uuid.MustParse(q.SiteID),
		category: c,
		start:    from,
		end:      to,
		format:   q.Format,
	}, nil
}

// Export streams the attendance sheet of one site and category as a download.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req, err := h.readExport(query.Get("siteId"), query.Get("category"), query.Get("role"),
		query.Get("startDate"), query.Get("endDate"), query.Get("format"))
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	data, err := h.repository.GetExportData(r.Context(), req.siteID, req.category, req.start, req.end)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "site not found")
		default:
			h.storageFailure(w, r, err, "failed to export attendance")
		}
		return
	}

	// build in memory so a failure can still be answered with JSON
	var buf bytes.Buffer
	if err := report.Write(&buf, data, req.format); err != nil {
		h.storageFailure(w, r, err, "failed to export attendance")
		return
	}

	w.Header().Set("Content-Type", report.ContentType(req.format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(data, req.format)))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.log.Warn("failed to write export", zap.Error(err))
	}
}

// EmailExport queues an export to be built and mailed by the mail worker.
func (h *Handler) EmailExport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		To        string `json:"to" validate:"required,email"`
		SiteID    string `json:"siteId"`
		Category  string `json:"category"`
		Role      string `json:"role"`
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
		Format    string `json:"format"`
	}

	if err := h.readJSON(r, &body); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(body); err != nil {
		h.badRequest(w, r, err)
		return
	}
	req, err := h.readExport(body.SiteID, body.Category, body.Role, body.StartDate, body.EndDate, body.Format)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	if _, err := h.repository.GetSiteByID(r.Context(), req.siteID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "site not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	mailData, err := json.Marshal(domain.MailMessage{
		Type: domain.ExportMailType,
		To:   body.To,
		Data: domain.ExportMailData{
			SiteID:    req.siteID,
			Category:  req.category,
			StartDate: req.start,
			EndDate:   req.end,
			Format:    req.format,
		},
	})
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := h.mailPublisher.PublishWithContext(
		ctx,
		"",
		h.config.RabbitMQ.Queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         mailData,
		},
	); err != nil {
		h.storageFailure(w, r, err, "failed to queue export mail")
		return
	}

	h.writeJSON(w, r, http.StatusAccepted, Response{
		Success: true,
		Message: "export will be mailed to " + body.To,
		Data:    nil,
	})
}
