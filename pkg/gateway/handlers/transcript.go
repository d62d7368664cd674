package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hovorka-app/hovorka/pkg/core"
	"github.com/hovorka-app/hovorka/pkg/core/transcript"
	"github.com/hovorka-app/hovorka/pkg/core/types"
	"github.com/hovorka-app/hovorka/pkg/gateway/config"
	"github.com/hovorka-app/hovorka/pkg/gateway/metrics"
	"github.com/hovorka-app/hovorka/pkg/gateway/mw"
	"github.com/hovorka-app/hovorka/pkg/store"
)

// SaveHandler persists a finished voice-session conversation: history record
// first, then the progress update when a record exists.
type SaveHandler struct {
	Config    config.Config
	Scenarios store.Scenarios
	Archive   store.Archive
	Logger    *slog.Logger
	Metrics   *metrics.Metrics

	// Now is swappable for tests; nil means time.Now.
	Now func() time.Time
}

func (h SaveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	req, err := types.UnmarshalSaveTranscriptRequestStrict(body)
	if err != nil {
		writeErr(w, reqID, err)
		return
	}

	// A session that never got past the opening exchange is acknowledged
	// without touching the store.
	if len(req.Messages) < 2 {
		writeJSON(w, http.StatusOK, types.AckResponse{OK: true})
		return
	}

	scenario, err := h.Scenarios.Scenario(r.Context(), req.ScenarioID)
	if err != nil {
		writeErr(w, reqID, err)
		return
	}

	markdown := transcript.Build(req.Messages, scenario.Name)

	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	err = store.SaveTranscript(r.Context(), h.Archive, req.UserID, scenario.ID, markdown, now)
	h.Metrics.RecordTranscriptSave(err)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("save transcript",
				"request_id", reqID,
				"scenario_id", req.ScenarioID,
				"error", err,
			)
		}
		writeErr(w, reqID, err)
		return
	}

	writeJSON(w, http.StatusOK, types.AckResponse{OK: true})
}
