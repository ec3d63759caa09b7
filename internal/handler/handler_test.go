package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/entoto-dev/site-attendance/backend/internal/auth"
	"github.com/entoto-dev/site-attendance/backend/internal/config"
	"github.com/entoto-dev/site-attendance/backend/internal/domain"
	"github.com/entoto-dev/site-attendance/backend/internal/repository"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubVerifier bool

func (s stubVerifier) VerifyAdmin(context.Context, string) bool {
	return bool(s)
}

type fakePublisher struct {
	keys     []string
	messages []amqp.Publishing
	err      error
}

func (p *fakePublisher) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, key)
	p.messages = append(p.messages, msg)
	return nil
}

type memoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (m *memoryRevocations) Revoke(_ context.Context, tokenID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[tokenID] = true
	return nil
}

func (m *memoryRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revoked[tokenID], nil
}

type testEnv struct {
	handler   *Handler
	mock      sqlmock.Sqlmock
	publisher *fakePublisher
}

func newTestEnv(t *testing.T, admin bool) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	cfg := &config.Config{}
	cfg.Database.QueryTimeout = 5
	cfg.Database.TransactionTimeout = 5
	cfg.Session.CookieName = "admin_session"
	cfg.Export.DefaultDays = 30
	cfg.Export.MaxDays = 366
	cfg.Roster.MaxRepeat = 10
	cfg.RabbitMQ.Queue = "export_mail_queue"
	cfg.RabbitMQ.PublishTimeout = 5

	sessions := auth.NewSessions("test-secret", time.Hour, &memoryRevocations{revoked: map[string]bool{}})
	publisher := &fakePublisher{}

	h, err := NewHandler(cfg, repository.NewRepository(cfg, db), sessions, publisher, zap.NewNop())
	require.NoError(t, err)
	h.verifier = stubVerifier(admin)
	h.now = func() time.Time {
		return time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	}
	h.RegisterRoutes()

	return &testEnv{handler: h, mock: mock, publisher: publisher}
}

func (e *testEnv) do(method, target string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer session-token")
	rec := httptest.NewRecorder()
	e.handler.Mux.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func siteRow(name string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"name", "created_at", "version"}).AddRow(name, time.Now(), int32(1))
}

func memberRows(members ...*domain.Member) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "name", "category", "site_id", "is_active", "created_at", "version"})
	for _, m := range members {
		rows.AddRow(m.ID.String(), m.Name, string(m.Category), m.SiteID.String(), m.IsActive, time.Now(), int32(1))
	}
	return rows
}

func TestAdminRoutesRejectMissingSession(t *testing.T) {
	siteID := uuid.NewString()

	tests := []struct {
		method string
		target string
		body   any
	}{
		{http.MethodGet, "/sites", nil},
		{http.MethodPost, "/sites", map[string]string{"name": "Riverside"}},
		{http.MethodDelete, "/sites/" + siteID, nil},
		{http.MethodPost, "/members", map[string]any{"members": []any{}}},
		{http.MethodGet, "/roster?siteId=" + siteID + "&date=2024-03-01", nil},
		{http.MethodPost, "/roster", map[string]any{"siteId": siteID, "date": "2024-03-01"}},
		{http.MethodPost, "/attendance", map[string]any{"siteId": siteID, "date": "2024-03-01"}},
		{http.MethodGet, "/exports?siteId=" + siteID + "&category=staff", nil},
		{http.MethodGet, "/dashboard", nil},
		{http.MethodGet, "/auth/me", nil},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			env := newTestEnv(t, false)

			rec := env.do(tt.method, tt.target, tt.body)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.False(t, decodeResponse(t, rec).Success)
			// nothing was read or written
			require.NoError(t, env.mock.ExpectationsWereMet())
		})
	}
}

func TestRequireAdmin_NoTokenAtAll(t *testing.T) {
	env := newTestEnv(t, true)

	req := httptest.NewRequest(http.MethodGet, "/sites", nil)
	rec := httptest.NewRecorder()
	env.handler.Mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, env.mock.ExpectationsWereMet())
}
