package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelChecks(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		check   func(error) bool
		matches bool
	}{
		{"not found direct", ErrNotFound, IsNotFound, true},
		{"not found wrapped", fmt.Errorf("fetching transcript: %w", ErrNotFound), IsNotFound, true},
		{"not found mismatch", ErrUnauthorized, IsNotFound, false},
		{"unauthorized wrapped", fmt.Errorf("api: %w", ErrUnauthorized), IsUnauthorized, true},
		{"session closed wrapped", fmt.Errorf("activate: %w", ErrSessionClosed), IsSessionClosed, true},
		{"reconnect exhausted", fmt.Errorf("stream: %w", ErrReconnectExhausted), IsReconnectExhausted, true},
		{"nil error", nil, IsNotFound, false},
		{"unrelated error", errors.New("boom"), IsReconnectExhausted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.check(tt.err); got != tt.matches {
				t.Errorf("check(%v) = %v, want %v", tt.err, got, tt.matches)
			}
		})
	}
}
