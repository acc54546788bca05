package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewValidationError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("send: %w", NewValidationError("vendor %d: %s", 4, "No vendors selected"))

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError in chain, got %v", err)
	}
	if verr.Message != "vendor 4: No vendors selected" {
		t.Fatalf("unexpected message %q", verr.Message)
	}
}
