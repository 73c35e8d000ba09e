package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"cinepwa/proj/internal/clients/tmdb"
	"cinepwa/proj/internal/config"
	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/lib/logger"
	"cinepwa/proj/internal/services"
	"cinepwa/proj/internal/storage/memory"

	"github.com/stretchr/testify/require"
)

type fakeContent struct{}

func (fakeContent) GetDetails(_ context.Context, id int, mediaType models.MediaType) (*models.ContentDetails, error) {
	if id >= 900000 {
		return nil, tmdb.ErrNotFound
	}
	details := &models.ContentDetails{ContentItem: models.ContentItem{ID: id, MediaType: mediaType}}
	if mediaType == models.MediaTV {
		details.Name = fmt.Sprintf("Show %d", id)
		details.NumberOfSeasons = 2
		details.NumberOfEpisodes = 10
	} else {
		details.Title = fmt.Sprintf("Movie %d", id)
	}
	return details, nil
}

func (fakeContent) Search(_ context.Context, query string) ([]models.ContentItem, error) {
	return []models.ContentItem{{ID: 603, Title: query, MediaType: models.MediaMovie}}, nil
}

func (fakeContent) Trending(context.Context, string) ([]models.ContentItem, error) {
	return []models.ContentItem{{ID: 1399, Name: "Trending", MediaType: models.MediaTV}}, nil
}

func (fakeContent) Discover(_ context.Context, f tmdb.DiscoverFilters) ([]models.ContentItem, error) {
	return []models.ContentItem{{ID: f.Year, Title: f.SortBy, MediaType: f.MediaType}}, nil
}

func (fakeContent) SearchPerson(_ context.Context, name string) (int, error) {
	if name == "nobody" {
		return 0, tmdb.ErrNotFound
	}
	return 6193, nil
}

type sentMail struct {
	recipient string
	data      any
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) Send(_ context.Context, recipient, _ string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{recipient, data})
	return nil
}

type inlineExecutor struct{}

func (inlineExecutor) Add(_ string, fn func(ctx context.Context) error) error {
	return fn(context.Background())
}

type testApp struct {
	*Application
	store   *memory.Models
	mailer  *fakeMailer
	handler http.Handler
}

func NewTestApplication(t *testing.T) *testApp {
	t.Helper()
	cfg := &config.Config{
		AppSecret: "test-secret",
		BaseURL:   "http://localhost:5173",
		Auth: config.Auth{
			SessionTTL:   time.Hour,
			MagicLinkTTL: time.Hour,
			VerifyPath:   "/auth/verify",
		},
		SeriesCache: config.SeriesCache{TTL: time.Hour},
	}
	log := logger.Discard()
	store := memory.New()
	mailer := &fakeMailer{}
	svcs := services.New(log, cfg, services.MemoryStorage(store), fakeContent{}, mailer, inlineExecutor{})
	app := NewApplication(cfg, log, svcs, fakeContent{})
	return &testApp{Application: app, store: store, mailer: mailer, handler: app.routes()}
}

type testResponse struct {
	Success bool                       `json:"success"`
	Message string                     `json:"message"`
	Data    map[string]json.RawMessage `json:"data"`
}

func (ta *testApp) do(t *testing.T, method, path, token string, body any) (int, testResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			encoded, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(encoded)
		}
		reader = bytes.NewBufferString(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ta.handler.ServeHTTP(rec, req)
	var resp testResponse
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return rec.Code, resp
}

func field[T any](t *testing.T, resp testResponse, key string) T {
	t.Helper()
	var v T
	raw, ok := resp.Data[key]
	require.True(t, ok, "missing %q in response data", key)
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

// signIn returns an anonymous session.
func (ta *testApp) signIn(t *testing.T) models.Session {
	t.Helper()
	status, resp := ta.do(t, http.MethodPost, "/api/v1/auth/anonymous", "", nil)
	require.Equal(t, http.StatusCreated, status)
	return field[models.Session](t, resp, "session")
}
