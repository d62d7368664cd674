// Package directus implements the scenario and transcript stores on top of a
// Directus instance's items API.
package directus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hovorka-app/hovorka/pkg/core"
	"github.com/hovorka-app/hovorka/pkg/store"
)

const (
	scenariosCollection   = "scenarios"
	transcriptsCollection = "scenario_transcripts"
	progressCollection    = "user_scenario_progress"
)

// Client talks to Directus with a static service token.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// flexID tolerates Directus collections keyed by either numeric or uuid
// primary keys.
type flexID string

func (id *flexID) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = flexID(n.String())
	return nil
}

type scenarioPayload struct {
	ID           flexID `json:"id"`
	Name         string `json:"name"`
	SystemPrompt string `json:"system_prompt"`
	Voice        string `json:"voice"`
}

// Scenario implements store.Scenarios.
func (c *Client) Scenario(ctx context.Context, id string) (*store.Scenario, error) {
	path := "/items/" + scenariosCollection + "/" + url.PathEscape(id) + "?fields=id,name,system_prompt,voice"

	var out struct {
		Data scenarioPayload `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &store.Scenario{
		ID:           string(out.Data.ID),
		Name:         out.Data.Name,
		SystemPrompt: out.Data.SystemPrompt,
		Voice:        out.Data.Voice,
	}, nil
}

// AppendHistory implements store.Archive; every call creates a new record.
func (c *Client) AppendHistory(ctx context.Context, userID, scenarioID, markdown string) error {
	body := map[string]string{
		"user":                   userID,
		"scenario":               scenarioID,
		"transcript_konverzacie": markdown,
	}
	return c.do(ctx, http.MethodPost, "/items/"+transcriptsCollection, body, nil)
}

// FindProgress implements store.Archive, returning the first match if any.
func (c *Client) FindProgress(ctx context.Context, userID, scenarioID string) (*store.Progress, error) {
	q := url.Values{}
	q.Set("filter[user][_eq]", userID)
	q.Set("filter[scenario][_eq]", scenarioID)
	q.Set("limit", "1")

	var out struct {
		Data []struct {
			ID flexID `json:"id"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/items/"+progressCollection+"?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, nil
	}
	return &store.Progress{ID: string(out.Data[0].ID)}, nil
}

// CompleteProgress implements store.Archive as a partial update.
func (c *Client) CompleteProgress(ctx context.Context, progressID, markdown string, completedAt time.Time) error {
	body := map[string]string{
		"transcript":   markdown,
		"status":       "DONE",
		"completed_at": completedAt.UTC().Format(time.RFC3339),
	}
	return c.do(ctx, http.MethodPatch, "/items/"+progressCollection+"/"+url.PathEscape(progressID), body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode directus request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build directus request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client().Do(req)
	if err != nil {
		return core.NewUpstreamError(fmt.Sprintf("directus: %v", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden {
		// Directus answers 403 for unknown items under a scoped token.
		return core.NewNotFoundError("record not found")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(resp.Body)
		return core.NewUpstreamError("directus: " + strings.TrimSpace(string(text)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return core.NewUpstreamError(fmt.Sprintf("directus: decode response: %v", err))
	}
	return nil
}

func (c *Client) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}
