package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hovorka-app/hovorka/pkg/core/types"
	"github.com/hovorka-app/hovorka/pkg/gateway/config"
	"github.com/hovorka-app/hovorka/pkg/gateway/upstream"
	"github.com/hovorka-app/hovorka/pkg/store"
)

type stubScenarios struct{}

func (stubScenarios) Scenario(ctx context.Context, id string) (*store.Scenario, error) {
	return &store.Scenario{ID: id, Name: "Klientka", SystemPrompt: "Si klientka."}, nil
}

type stubArchive struct{}

func (stubArchive) AppendHistory(ctx context.Context, userID, scenarioID, markdown string) error {
	return nil
}
func (stubArchive) FindProgress(ctx context.Context, userID, scenarioID string) (*store.Progress, error) {
	return nil, nil
}
func (stubArchive) CompleteProgress(ctx context.Context, progressID, markdown string, completedAt time.Time) error {
	return nil
}

type stubCompletion struct{}

func (stubCompletion) Complete(ctx context.Context, systemPrompt string, turns []types.Turn) (string, error) {
	return "Dobrý deň.", nil
}

type stubNegotiator struct{}

func (stubNegotiator) CreateSession(ctx context.Context, p upstream.SessionParams) ([]byte, error) {
	return []byte(`{"id":"sess_1"}`), nil
}
func (stubNegotiator) RelaySDP(ctx context.Context, model, authorization string, offer []byte) ([]byte, error) {
	return []byte("v=0\r\n"), nil
}

func testServer() *Server {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return New(config.Config{
		MaxBodyBytes:          1 << 20,
		RealtimeModel:         "gpt-4o-realtime-preview",
		TranscriptionModel:    "gpt-4o-mini-transcribe",
		TranscriptionLanguage: "sk",
	}, logger, Deps{
		Scenarios:   stubScenarios{},
		Archive:     stubArchive{},
		Completions: stubCompletion{},
		Upstream:    stubNegotiator{},
	})
}

func TestServer_UnknownRoute_ReturnsJSON404(t *testing.T) {
	s := testServer()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	s.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%q", ct)
	}
	if !strings.Contains(rr.Body.String(), `"type":"not_found_error"`) {
		t.Fatalf("unexpected body: %q", rr.Body.String())
	}
}

func TestServer_Routes_Reachable(t *testing.T) {
	s := testServer()

	cases := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/healthz", ""},
		{http.MethodGet, "/metrics", ""},
		{http.MethodPost, "/realtime-session", `{"scenario_id":"42"}`},
		{http.MethodPost, "/chat", `{"scenario_id":"42","user_id":"u1","messages":[]}`},
		{http.MethodPost, "/save-realtime-transcript", `{"scenario_id":"42","user_id":"u1","messages":[]}`},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		s.Handler().ServeHTTP(rr, req)
		if rr.Code == http.StatusNotFound {
			t.Fatalf("path %s unexpectedly returned 404", tc.path)
		}
	}
}

func TestServer_ConnectRoute_Reachable(t *testing.T) {
	s := testServer()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/realtime-connect?model=gpt-4o-realtime-preview", strings.NewReader("v=0\r\n"))
	req.Header.Set("Authorization", "Bearer ek_abc")
	s.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/sdp" {
		t.Fatalf("content-type=%q", ct)
	}
}

func TestServer_RequestIDHeaderSet(t *testing.T) {
	s := testServer()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	s.Handler().ServeHTTP(rr, req)

	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID header")
	}
}

func TestServer_WaitDetachedSaves_NoPending(t *testing.T) {
	s := testServer()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if !s.WaitDetachedSaves(ctx) {
		t.Fatalf("expected immediate drain with no pending saves")
	}
}
