package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hovorka-app/hovorka/pkg/core"
	"github.com/hovorka-app/hovorka/pkg/core/types"
	"github.com/hovorka-app/hovorka/pkg/gateway/config"
	"github.com/hovorka-app/hovorka/pkg/gateway/metrics"
	"github.com/hovorka-app/hovorka/pkg/gateway/mw"
	"github.com/hovorka-app/hovorka/pkg/gateway/upstream"
	"github.com/hovorka-app/hovorka/pkg/store"
)

// RealtimeNegotiator is the upstream surface the realtime handlers need.
type RealtimeNegotiator interface {
	CreateSession(ctx context.Context, p upstream.SessionParams) ([]byte, error)
	RelaySDP(ctx context.Context, model, authorization string, offer []byte) ([]byte, error)
}

// SessionHandler mints ephemeral realtime sessions. It looks up the scenario,
// builds the session parameters server-side and returns the upstream
// descriptor verbatim so the client receives the ephemeral credential exactly
// as issued.
type SessionHandler struct {
	Config    config.Config
	Scenarios store.Scenarios
	Upstream  RealtimeNegotiator
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

func (h SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	req, err := types.UnmarshalSessionRequestStrict(body)
	if err != nil {
		writeErr(w, reqID, err)
		return
	}

	scenario, err := h.Scenarios.Scenario(r.Context(), req.ScenarioID)
	if err != nil {
		writeErr(w, reqID, err)
		return
	}

	descriptor, err := h.Upstream.CreateSession(r.Context(), upstream.SessionParams{
		Model:                 h.Config.RealtimeModel,
		Voice:                 scenario.Voice,
		Instructions:          scenario.SystemPrompt,
		TranscriptionModel:    h.Config.TranscriptionModel,
		TranscriptionLanguage: h.Config.TranscriptionLanguage,
	})
	if err != nil {
		h.Metrics.RecordUpstreamError("realtime_sessions")
		writeErr(w, reqID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(descriptor)
}

// ConnectHandler relays an SDP offer to the upstream realtime endpoint. The
// client supplies its own ephemeral credential; the gateway never substitutes
// its long-lived key here.
type ConnectHandler struct {
	Config   config.Config
	Upstream RealtimeNegotiator
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

func (h ConnectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reqID, _ := mw.RequestIDFrom(r.Context())

	// Both preconditions fail before any upstream traffic.
	model := strings.TrimSpace(r.URL.Query().Get("model"))
	if model == "" {
		writeErrText(w, reqID, core.NewInvalidRequestErrorWithParam("missing model query parameter", "model"))
		return
	}
	authorization := strings.TrimSpace(r.Header.Get("Authorization"))
	if authorization == "" {
		writeErrText(w, reqID, core.NewInvalidRequestErrorWithParam("missing Authorization header", "Authorization"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.Config.MaxBodyBytes)
	offer, err := io.ReadAll(r.Body)
	if err != nil {
		writeErrText(w, reqID, core.NewInvalidRequestError("failed to read request body"))
		return
	}

	answer, err := h.Upstream.RelaySDP(r.Context(), model, authorization, offer)
	if err != nil {
		h.Metrics.RecordUpstreamError("realtime_connect")
		writeErrText(w, reqID, err)
		return
	}

	w.Header().Set("Content-Type", "application/sdp")
	_, _ = w.Write(answer)
}
