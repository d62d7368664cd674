package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hovorka-app/hovorka/pkg/completion"
	"github.com/hovorka-app/hovorka/pkg/core"
	"github.com/hovorka-app/hovorka/pkg/core/transcript"
	"github.com/hovorka-app/hovorka/pkg/core/types"
	"github.com/hovorka-app/hovorka/pkg/gateway/config"
	"github.com/hovorka-app/hovorka/pkg/gateway/metrics"
	"github.com/hovorka-app/hovorka/pkg/gateway/mw"
	"github.com/hovorka-app/hovorka/pkg/store"
)

// ChatHandler serves the text-mode conversation path. When the model's reply
// carries the feedback marker the finished conversation is persisted in the
// background; the reply is never delayed or failed by persistence.
type ChatHandler struct {
	Config      config.Config
	Scenarios   store.Scenarios
	Archive     store.Archive
	Completions completion.Client
	Logger      *slog.Logger
	Metrics     *metrics.Metrics

	// SaveWG tracks detached saves so shutdown can drain them.
	SaveWG *sync.WaitGroup

	// Now is swappable for tests; nil means time.Now.
	Now func() time.Time
}

func (h ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reqID, _ := mw.RequestIDFrom(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.Config.MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeErrorJSON(w, reqID, core.NewInvalidRequestError("failed to read request body"), http.StatusBadRequest)
		return
	}

	req, err := types.UnmarshalChatRequestStrict(body)
	if err != nil {
		writeErr(w, reqID, err)
		return
	}

	scenario, err := h.Scenarios.Scenario(r.Context(), req.ScenarioID)
	if err != nil {
		writeErr(w, reqID, err)
		return
	}

	reply, err := h.Completions.Complete(r.Context(), scenario.SystemPrompt, req.Messages)
	if err != nil {
		h.Metrics.RecordUpstreamError("completion")
		writeErr(w, reqID, err)
		return
	}

	if transcript.HasMarker(reply) {
		h.saveDetached(r.Context(), reqID, req, scenario, reply)
	}

	writeJSON(w, http.StatusOK, types.ChatResponse{Reply: reply})
}

// saveDetached persists the finished conversation without blocking the reply.
// The save outlives the request context but is tracked by SaveWG so shutdown
// can wait for it.
func (h ChatHandler) saveDetached(ctx context.Context, reqID string, req *types.ChatRequest, scenario *store.Scenario, reply string) {
	turns := make([]types.Turn, 0, len(req.Messages)+1)
	turns = append(turns, req.Messages...)
	turns = append(turns, types.Turn{Role: types.RoleAssistant, Content: reply})
	markdown := transcript.Build(turns, scenario.Name)

	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}

	detached := context.WithoutCancel(ctx)
	if h.SaveWG != nil {
		h.SaveWG.Add(1)
	}
	go func() {
		if h.SaveWG != nil {
			defer h.SaveWG.Done()
		}
		err := store.SaveTranscript(detached, h.Archive, req.UserID, scenario.ID, markdown, now)
		h.Metrics.RecordTranscriptSave(err)
		if err != nil && h.Logger != nil {
			h.Logger.Error("save chat transcript",
				"request_id", reqID,
				"scenario_id", req.ScenarioID,
				"error", err,
			)
		}
	}()
}
