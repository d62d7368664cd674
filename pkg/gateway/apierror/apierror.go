package apierror

import (
	"context"
	"errors"
	"net/http"

	"github.com/hovorka-app/hovorka/pkg/core"
	"github.com/hovorka-app/hovorka/pkg/core/types"
)

// Envelope is the JSON error body returned by every endpoint except the SDP
// relay, which answers in plain text.
type Envelope struct {
	Error *core.Error `json:"error"`
}

// FromError maps an error to its canonical form and HTTP status. Validation
// failures map to 400, missing scenarios to 404, upstream failures to 502 and
// everything unexpected to 500 without leaking details.
func FromError(err error, requestID string) (*core.Error, int) {
	if err == nil {
		return nil, http.StatusOK
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &core.Error{
			Type:      core.ErrUpstream,
			Message:   "request timeout",
			RequestID: requestID,
		}, http.StatusGatewayTimeout
	}

	// Already canonical.
	var coreErr *core.Error
	if errors.As(err, &coreErr) && coreErr != nil {
		out := *coreErr
		out.RequestID = requestID
		return &out, statusFromType(coreErr.Type)
	}

	// Strict decode errors from request bodies.
	var decodeErr *types.StrictDecodeError
	if errors.As(err, &decodeErr) && decodeErr != nil {
		return &core.Error{
			Type:      core.ErrInvalidRequest,
			Message:   decodeErr.Message,
			Param:     decodeErr.Param,
			RequestID: requestID,
		}, http.StatusBadRequest
	}

	return &core.Error{
		Type:      core.ErrAPI,
		Message:   "internal error",
		RequestID: requestID,
	}, http.StatusInternalServerError
}

func statusFromType(t core.ErrorType) int {
	switch t {
	case core.ErrInvalidRequest:
		return http.StatusBadRequest
	case core.ErrNotFound:
		return http.StatusNotFound
	case core.ErrUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
