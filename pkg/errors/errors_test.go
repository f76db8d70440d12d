package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestExitCodeClassifiesWrappedErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"user", NewUserError("no group", nil), ExitUserError},
		{"wrapped user", fmt.Errorf("resolve: %w", NewUserError("no group", nil)), ExitUserError},
		{"validation", NewValidationError("bad", "field", 1), ExitUserError},
		{"api 403", NewAPIError("forbidden", 403, nil), ExitUserError},
		{"api 500", NewAPIError("boom", 500, nil), ExitUnexpectedError},
		{"unexpected", NewUnexpectedError("disk", stderrors.New("full")), ExitUnexpectedError},
		{"plain", stderrors.New("plain"), ExitUnexpectedError},
		{"unexpected wrapping 4xx", NewUnexpectedError("payload", NewAPIError("bad request", 400, nil)), ExitUnexpectedError},
	}

	for _, tc := range cases {
		if got := ExitCode(tc.err); got != tc.want {
			t.Fatalf("%s: expected exit code %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestBotErrorUnwrapsCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := NewCacheError("set failed", "set", "rotation:log:g", cause)
	if !stderrors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable via errors.Is")
	}
	if err.Error() != "set failed: disk full" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}
