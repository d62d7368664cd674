package apierror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/hovorka-app/hovorka/pkg/core"
	"github.com/hovorka-app/hovorka/pkg/core/types"
)

func TestFromError_Nil(t *testing.T) {
	coreErr, status := FromError(nil, "req_1")
	if coreErr != nil || status != http.StatusOK {
		t.Fatalf("got %v / %d", coreErr, status)
	}
}

func TestFromError_StatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{core.NewInvalidRequestError("bad"), http.StatusBadRequest},
		{core.NewNotFoundError("scenario not found"), http.StatusNotFound},
		{core.NewUpstreamError("upstream said no"), http.StatusBadGateway},
		{core.NewAPIError("boom"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
	}
	for _, tc := range cases {
		coreErr, status := FromError(tc.err, "req_1")
		if status != tc.status {
			t.Fatalf("err=%v: status=%d, want %d", tc.err, status, tc.status)
		}
		if coreErr.RequestID != "req_1" {
			t.Fatalf("err=%v: request id not attached", tc.err)
		}
	}
}

func TestFromError_WrappedCoreError(t *testing.T) {
	wrapped := fmt.Errorf("load scenario: %w", core.NewNotFoundError("scenario not found"))
	coreErr, status := FromError(wrapped, "req_2")
	if status != http.StatusNotFound || coreErr.Type != core.ErrNotFound {
		t.Fatalf("got %v / %d", coreErr, status)
	}
}

func TestFromError_StrictDecode(t *testing.T) {
	coreErr, status := FromError(&types.StrictDecodeError{Param: "user_id", Message: "user_id is required"}, "req_3")
	if status != http.StatusBadRequest {
		t.Fatalf("status=%d", status)
	}
	if coreErr.Type != core.ErrInvalidRequest || coreErr.Param != "user_id" {
		t.Fatalf("coreErr=%+v", coreErr)
	}
}

func TestFromError_UnknownDoesNotLeak(t *testing.T) {
	coreErr, _ := FromError(errors.New("pgx: password authentication failed"), "req_4")
	if coreErr.Message != "internal error" {
		t.Fatalf("leaked internal detail: %q", coreErr.Message)
	}
}
