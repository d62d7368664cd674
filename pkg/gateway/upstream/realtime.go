// Package upstream holds the HTTP client for the upstream voice API. The
// realtime endpoints have no SDK surface for the SDP exchange, so requests are
// issued directly over net/http.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/hovorka-app/hovorka/pkg/core"
)

// DefaultVoice is used when a scenario does not pin a voice.
const DefaultVoice = "alloy"

// Realtime negotiates realtime audio sessions with the upstream voice API:
// it mints ephemeral session descriptors and relays SDP offers.
type Realtime struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// SessionParams parameterize an ephemeral session request.
type SessionParams struct {
	Model        string
	Voice        string
	Instructions string

	// Input transcription feeds downstream scoring and logging; it does not
	// shape response content.
	TranscriptionModel    string
	TranscriptionLanguage string
}

type sessionRequest struct {
	Model                   string        `json:"model"`
	Voice                   string        `json:"voice"`
	Instructions            string        `json:"instructions"`
	TurnDetection           turnDetection `json:"turn_detection"`
	InputAudioTranscription transcription `json:"input_audio_transcription"`
}

type turnDetection struct {
	Type string `json:"type"`
}

type transcription struct {
	Model    string `json:"model"`
	Language string `json:"language"`
}

// CreateSession requests an ephemeral realtime session and returns the raw
// upstream descriptor, ephemeral client credential included, unmodified.
func (c *Realtime) CreateSession(ctx context.Context, p SessionParams) ([]byte, error) {
	voice := p.Voice
	if voice == "" {
		voice = DefaultVoice
	}

	body, err := json.Marshal(sessionRequest{
		Model:         p.Model,
		Voice:         voice,
		Instructions:  p.Instructions,
		TurnDetection: turnDetection{Type: "server_vad"},
		InputAudioTranscription: transcription{
			Model:    p.TranscriptionModel,
			Language: p.TranscriptionLanguage,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/realtime/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	return c.roundTrip(req, "create realtime session")
}

// RelaySDP forwards a client SDP offer using the caller-supplied credential
// and returns the SDP answer byte-for-byte. The payload is never parsed;
// misinterpreting SDP syntax would break the WebRTC negotiation.
func (c *Realtime) RelaySDP(ctx context.Context, model, authorization string, offer []byte) ([]byte, error) {
	endpoint := c.BaseURL + "/v1/realtime?model=" + url.QueryEscape(model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(offer))
	if err != nil {
		return nil, fmt.Errorf("build relay request: %w", err)
	}
	req.Header.Set("Authorization", authorization)
	req.Header.Set("Content-Type", "application/sdp")

	return c.roundTrip(req, "realtime connect")
}

func (c *Realtime) roundTrip(req *http.Request, op string) ([]byte, error) {
	resp, err := c.client().Do(req)
	if err != nil {
		return nil, core.NewUpstreamError(fmt.Sprintf("%s: %v", op, err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.NewUpstreamError(fmt.Sprintf("%s: read response: %v", op, err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, core.NewUpstreamError(string(body))
	}
	return body, nil
}

func (c *Realtime) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}
