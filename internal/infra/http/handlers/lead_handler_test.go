package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/lead-capture/internal/entity"
	"github.com/xavierca1/lead-capture/internal/infra/database"
	"github.com/xavierca1/lead-capture/internal/infra/mail"
	"github.com/xavierca1/lead-capture/internal/infra/queue"
	"github.com/xavierca1/lead-capture/internal/usecase"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []entity.Notification
}

func (d *recordingDispatcher) Dispatch(n entity.Notification) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
	return true
}

type testServer struct {
	handler http.Handler
	store   *database.LeadStore
}

func newTestServer(t *testing.T, notifier usecase.NotificationDispatcher) *testServer {
	t.Helper()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "leads.db")

	db, dialect, err := database.NewDBConnection("", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := database.NewLeadStore(database.NewLeadRepository(db, dialect), database.NewCSVLog(filepath.Join(dir, "leads.csv")), dbPath)
	require.NoError(t, store.Initialize(context.Background()))

	uc := usecase.NewCaptureLeadUseCase(store, notifier, nil, false)
	health := NewHealthHandler(db, store, dir, []string{"*"}, "test", "pool", true)

	return &testServer{
		handler: NewRouter(NewLeadHandler(uc), health, []string{"*"}),
		store:   store,
	}
}

func (s *testServer) post(t *testing.T, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if raw, ok := body.(string); ok {
		reader = bytes.NewReader([]byte(raw))
	} else {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(http.MethodPost, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

// ============ CONTACT ============

func TestContactSuccess(t *testing.T) {
	notifier := &recordingDispatcher{}
	srv := newTestServer(t, notifier)

	name, email := gofakeit.Name(), gofakeit.Email()
	w, resp := srv.post(t, "/api/contact", map[string]any{"name": name, "email": email, "message": "Preciso de uma proposta"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, true, resp["email_queued"])

	id := int64(resp["id"].(float64))
	assert.Positive(t, id)

	createdAt, err := time.Parse(entity.TimeLayout, resp["created_at"].(string))
	require.NoError(t, err)

	lead, err := srv.store.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, entity.TopicContact, lead.Topic)
	assert.Equal(t, name, lead.Name)
	assert.Equal(t, email, lead.Email)
	assert.True(t, createdAt.Equal(lead.CreatedAt))

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, email, notifier.sent[0].ReplyTo)
	assert.Equal(t, id, notifier.sent[0].LeadID)
}

func TestContactMissingName(t *testing.T) {
	srv := newTestServer(t, &recordingDispatcher{})

	w, resp := srv.post(t, "/api/contact", map[string]any{"email": "a@b.com", "message": "hi"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, resp["ok"])
	assert.Equal(t, "Invalid input", resp["error"])
	assert.Equal(t, "name", resp["field"])
}

func TestContactEmailFormat(t *testing.T) {
	srv := newTestServer(t, &recordingDispatcher{})

	w, resp := srv.post(t, "/api/contact", map[string]any{"name": "Ana", "email": "not-an-email", "message": "hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, resp["ok"])

	w, resp = srv.post(t, "/api/contact", map[string]any{"name": "Ana", "email": "a@b.co", "message": "hi"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["ok"])
}

func TestContactNameLength(t *testing.T) {
	srv := newTestServer(t, &recordingDispatcher{})

	w, resp := srv.post(t, "/api/contact", map[string]any{"name": strings.Repeat("a", 121), "email": "a@b.co", "message": "hi"})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "Input too long", resp["error"])

	w, _ = srv.post(t, "/api/contact", map[string]any{"name": strings.Repeat("a", 120), "email": "a@b.co", "message": "hi"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestContactMalformedJSON(t *testing.T) {
	srv := newTestServer(t, &recordingDispatcher{})

	w, resp := srv.post(t, "/api/contact", "{invalid json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, resp["ok"])
}

func TestContactBodyTooLarge(t *testing.T) {
	srv := newTestServer(t, &recordingDispatcher{})

	big := `{"name":"Ana","email":"a@b.co","message":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	w, resp := srv.post(t, "/api/contact", big)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, false, resp["ok"])
}

func TestConcurrentContactsGetDistinctIDs(t *testing.T) {
	srv := newTestServer(t, &recordingDispatcher{})

	const n = 10
	ids := make([]float64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, _ := json.Marshal(map[string]any{"name": gofakeit.Name(), "email": gofakeit.Email(), "message": "oi"})
			req := httptest.NewRequest(http.MethodPost, "/api/contact", bytes.NewReader(b))
			w := httptest.NewRecorder()
			srv.handler.ServeHTTP(w, req)

			var resp map[string]any
			if json.Unmarshal(w.Body.Bytes(), &resp) == nil {
				ids[i], _ = resp["id"].(float64)
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[float64]bool)
	for _, id := range ids {
		assert.Positive(t, id)
		assert.False(t, seen[id], "duplicate id %v", id)
		seen[id] = true
	}
}

// TestContactRelayWithoutCredential - sem senha o lead é salvo e email_queued=false
func TestContactRelayWithoutCredential(t *testing.T) {
	sender := mail.NewEmailSender("smtp.example.com", 465, "leads@example.com", "", "", time.Second)
	pool := queue.NewNotificationPool(sender, 1, 4)
	t.Cleanup(pool.Close)

	srv := newTestServer(t, pool)

	w, resp := srv.post(t, "/api/contact", map[string]any{"name": "Ana", "email": "a@b.co", "message": "hi"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, false, resp["email_queued"])
}

// ============ OPEN ACCESS ============

func TestOpenAccessRoutes(t *testing.T) {
	notifier := &recordingDispatcher{}
	srv := newTestServer(t, notifier)

	for _, path := range []string{"/api/openaccess", "/api/oa-inquiry"} {
		w, resp := srv.post(t, path, map[string]any{
			"name":            "Acme / John",
			"email":           "john@acme.io",
			"phone":           "+91 98765 43210",
			"sanctioned_load": 1000,
			"monthly_kwh":     "350000",
			"callback":        true,
			"eb_bill":         map[string]any{"filename": "bill.pdf", "content_type": "application/pdf", "b64": "JVBERi0xLjQ="},
		})

		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, true, resp["ok"])

		lead, err := srv.store.FindByID(context.Background(), int64(resp["id"].(float64)))
		require.NoError(t, err)
		assert.Equal(t, entity.TopicOpenAccess, lead.Topic)
		assert.Equal(t, "1000", lead.SanctionedLoad)
		assert.Contains(t, lead.Message, "Callback: Yes")
	}

	require.Len(t, notifier.sent, 2)
	assert.Len(t, notifier.sent[0].Attachments, 1)
}

func TestOpenAccessMissingFigures(t *testing.T) {
	srv := newTestServer(t, &recordingDispatcher{})

	w, resp := srv.post(t, "/api/openaccess", map[string]any{"name": "John", "email": "john@acme.io", "monthly_kwh": "10"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "sanctioned_load", resp["field"])
}

// ============ ROUTER ============

func TestUnknownAPIRouteIsJSON404(t *testing.T) {
	srv := newTestServer(t, &recordingDispatcher{})

	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	w := httptest.NewRecorder()
	srv.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"Not found"}`, w.Body.String())
}

func TestWrongMethodIsJSON(t *testing.T) {
	srv := newTestServer(t, &recordingDispatcher{})

	req := httptest.NewRequest(http.MethodGet, "/api/contact", nil)
	w := httptest.NewRecorder()
	srv.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &recordingDispatcher{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	srv.handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "test", resp.Version)
	assert.True(t, resp.DBExists)
	assert.True(t, resp.CSVExists)
	assert.Equal(t, []string{"*"}, resp.AllowedOrigins)
	assert.Equal(t, "pool", resp.Notifier.Mode)
}
