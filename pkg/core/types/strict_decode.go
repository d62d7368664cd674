package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// StrictDecodeError reports a request body that failed strict validation.
type StrictDecodeError struct {
	Param   string
	Message string
}

func (e *StrictDecodeError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s", e.Param, e.Message)
	}
	return e.Message
}

func strictErr(param, message string) error {
	return &StrictDecodeError{Param: param, Message: message}
}

func decodeStrict(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return strictErr("", "invalid request body: "+err.Error())
	}
	return nil
}

// UnmarshalSessionRequestStrict decodes a realtime session request.
// scenario_id is required.
func UnmarshalSessionRequestStrict(data []byte) (*SessionRequest, error) {
	var req SessionRequest
	if err := decodeStrict(data, &req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.ScenarioID) == "" {
		return nil, strictErr("scenario_id", "scenario_id is required")
	}
	return &req, nil
}

// UnmarshalChatRequestStrict decodes a chat request. scenario_id, user_id and
// the messages array are all required; an empty messages array is allowed.
func UnmarshalChatRequestStrict(data []byte) (*ChatRequest, error) {
	var raw struct {
		ScenarioID string          `json:"scenario_id"`
		UserID     string          `json:"user_id"`
		Messages   json.RawMessage `json:"messages"`
	}
	if err := decodeStrict(data, &raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw.ScenarioID) == "" {
		return nil, strictErr("scenario_id", "scenario_id is required")
	}
	if strings.TrimSpace(raw.UserID) == "" {
		return nil, strictErr("user_id", "user_id is required")
	}
	turns, err := decodeTurns(raw.Messages)
	if err != nil {
		return nil, err
	}
	return &ChatRequest{ScenarioID: raw.ScenarioID, UserID: raw.UserID, Messages: turns}, nil
}

// UnmarshalSaveTranscriptRequestStrict decodes a transcript save request with
// the same required fields as a chat request.
func UnmarshalSaveTranscriptRequestStrict(data []byte) (*SaveTranscriptRequest, error) {
	req, err := UnmarshalChatRequestStrict(data)
	if err != nil {
		return nil, err
	}
	return &SaveTranscriptRequest{ScenarioID: req.ScenarioID, UserID: req.UserID, Messages: req.Messages}, nil
}

func decodeTurns(raw json.RawMessage) ([]Turn, error) {
	if len(raw) == 0 {
		return nil, strictErr("messages", "messages is required")
	}
	var turns []Turn
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil, strictErr("messages", "messages must be an array of {role, content}")
	}
	if turns == nil {
		return nil, strictErr("messages", "messages must be an array of {role, content}")
	}
	for i, t := range turns {
		switch t.Role {
		case RoleUser, RoleAssistant, RoleSystem:
		default:
			return nil, strictErr(fmt.Sprintf("messages[%d].role", i), "role must be one of user|assistant|system")
		}
	}
	return turns, nil
}
