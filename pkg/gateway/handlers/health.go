package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/hovorka-app/hovorka/pkg/gateway/config"
)

type HealthHandler struct{}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

type ReadyHandler struct {
	Config config.Config
}

func (h ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type readyResp struct {
		OK                 bool     `json:"ok"`
		StoreBackend       string   `json:"store_backend"`
		CompletionProvider string   `json:"completion_provider"`
		Issues             []string `json:"issues,omitempty"`
	}

	issues := h.Config.Issues()
	ok := len(issues) == 0
	status := http.StatusOK
	if !ok {
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(readyResp{
		OK:                 ok,
		StoreBackend:       string(h.Config.StoreBackend),
		CompletionProvider: string(h.Config.CompletionProvider),
		Issues:             issues,
	})
}
