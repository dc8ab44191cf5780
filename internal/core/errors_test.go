package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCodeHTTPStatus(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrNotFound, 404},
		{ErrInvalidInput, 400},
		{ErrInvalidState, 409},
		{ErrForbidden, 403},
		{ErrUnauthorized, 401},
		{ErrInternal, 500},
		{ErrorCode("WARDEN_SOMETHING_ELSE"), 500},
	}
	for _, c := range cases {
		if got := c.code.HTTPStatus(); got != c.want {
			t.Errorf("%s: expected %d, got %d", c.code, c.want, got)
		}
	}
}

func TestAppErrorMessage(t *testing.T) {
	err := NewAppError(ErrNotFound, "workspace not found")
	if err.Error() != "WARDEN_NOT_FOUND: workspace not found" {
		t.Errorf("unexpected error string: %s", err.Error())
	}
}

func TestAsAppErrorUnwraps(t *testing.T) {
	inner := Errorf(ErrInvalidState, "operation already in progress for workspace %s", "ws-1")
	wrapped := fmt.Errorf("stop workspace: %w", inner)

	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AppError in chain")
	}
	if appErr.Code != ErrInvalidState {
		t.Errorf("expected WARDEN_INVALID_STATE, got %s", appErr.Code)
	}

	if _, ok := AsAppError(errors.New("plain")); ok {
		t.Error("plain error should not unwrap to AppError")
	}
}
