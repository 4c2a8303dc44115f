package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"forbidden", Forbidden("no access"), KindForbidden},
		{"not found", NotFound("missing"), KindNotFound},
		{"conflict", Conflict("duplicate"), KindConflict},
		{"bad request", BadRequest("invalid"), KindBadRequest},
		{"unauthorized", Unauthorized("no token"), KindUnauthorized},
		{"wrapped", fmt.Errorf("outer: %w", Conflict("duplicate slug")), KindConflict},
		{"plain error", errors.New("boom"), KindInternal},
		{"internal with cause", Internal("db down", errors.New("conn refused")), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Fatalf("KindOf() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMessageOfHidesInternals(t *testing.T) {
	err := Internal("query failed", errors.New("relation does not exist"))
	if got := MessageOf(err); got != "internal server error" {
		t.Fatalf("internal message leaked: %q", got)
	}
	if got := MessageOf(Forbidden("only owners can do this")); got != "only owners can do this" {
		t.Fatalf("operational message lost: %q", got)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Internal("wrapper", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to reach the cause")
	}
}
