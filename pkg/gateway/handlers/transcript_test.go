package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hovorka-app/hovorka/pkg/store"
)

type fakeArchive struct {
	mu    sync.Mutex
	calls []string

	findResult *store.Progress
	appendErr  error

	gotUser, gotScenario, gotMarkdown string
	completedAt                       time.Time
}

func (f *fakeArchive) AppendHistory(ctx context.Context, userID, scenarioID, markdown string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "append")
	f.gotUser, f.gotScenario, f.gotMarkdown = userID, scenarioID, markdown
	return f.appendErr
}

func (f *fakeArchive) FindProgress(ctx context.Context, userID, scenarioID string) (*store.Progress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "find")
	return f.findResult, nil
}

func (f *fakeArchive) CompleteProgress(ctx context.Context, progressID, markdown string, completedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "complete")
	f.completedAt = completedAt
	return nil
}

func (f *fakeArchive) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

const saveBody = `{
	"scenario_id": "42",
	"user_id": "u1",
	"messages": [
		{"role": "user", "content": "Dobrý deň."},
		{"role": "assistant", "content": "Dobrý deň, nech sa páči."}
	]
}`

func TestSaveHandler_PersistsTranscript(t *testing.T) {
	scenarios := &fakeScenarios{scenario: &store.Scenario{ID: "42", Name: "Pani Kováčová"}}
	archive := &fakeArchive{findResult: &store.Progress{ID: "p1"}}
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	h := SaveHandler{
		Config:    testConfig(),
		Scenarios: scenarios,
		Archive:   archive,
		Now:       func() time.Time { return now },
	}
	req := httptest.NewRequest(http.MethodPost, "/save-realtime-transcript", strings.NewReader(saveBody))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var ack struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil || !ack.OK {
		t.Fatalf("ack=%s err=%v", rec.Body.String(), err)
	}

	want := []string{"append", "find", "complete"}
	got := archive.snapshot()
	if len(got) != len(want) {
		t.Fatalf("calls=%v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("calls=%v, want %v", got, want)
		}
	}
	if archive.gotUser != "u1" || archive.gotScenario != "42" {
		t.Fatalf("user=%q scenario=%q", archive.gotUser, archive.gotScenario)
	}
	if !strings.Contains(archive.gotMarkdown, "Študent:  \nDobrý deň.") {
		t.Fatalf("markdown=%q", archive.gotMarkdown)
	}
	if !strings.Contains(archive.gotMarkdown, "Pani Kováčová:  \nDobrý deň, nech sa páči.") {
		t.Fatalf("markdown=%q", archive.gotMarkdown)
	}
	if !archive.completedAt.Equal(now) {
		t.Fatalf("completed_at=%v", archive.completedAt)
	}
}

func TestSaveHandler_TooShortConversationIsAcknowledged(t *testing.T) {
	scenarios := &fakeScenarios{}
	archive := &fakeArchive{}
	h := SaveHandler{Config: testConfig(), Scenarios: scenarios, Archive: archive}

	body := `{"scenario_id":"42","user_id":"u1","messages":[{"role":"user","content":"Haló?"}]}`
	req := httptest.NewRequest(http.MethodPost, "/save-realtime-transcript", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if scenarios.calls != 0 {
		t.Fatalf("scenario lookup for a conversation too short to save")
	}
	if len(archive.snapshot()) != 0 {
		t.Fatalf("store touched: %v", archive.snapshot())
	}
}

func TestSaveHandler_MissingUserID(t *testing.T) {
	h := SaveHandler{Config: testConfig(), Scenarios: &fakeScenarios{}, Archive: &fakeArchive{}}

	body := `{"scenario_id":"42","messages":[]}`
	req := httptest.NewRequest(http.MethodPost, "/save-realtime-transcript", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestSaveHandler_AppendFailure(t *testing.T) {
	scenarios := &fakeScenarios{scenario: &store.Scenario{ID: "42", Name: "Klientka"}}
	archive := &fakeArchive{appendErr: errors.New("store unavailable")}
	h := SaveHandler{Config: testConfig(), Scenarios: scenarios, Archive: archive}

	req := httptest.NewRequest(http.MethodPost, "/save-realtime-transcript", strings.NewReader(saveBody))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rec.Code)
	}
	env := decodeEnvelope(t, rec.Body.Bytes())
	if strings.Contains(env.Error.Message, "store unavailable") {
		t.Fatalf("internal detail leaked: %q", env.Error.Message)
	}
}
