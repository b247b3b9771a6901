package security_test

import (
	"encoding/hex"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/security"
)

func TestNewOpaqueTokenLengthAndUniqueness(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		tok, err := security.NewOpaqueToken(security.DefaultTokenBytes)
		if err != nil {
			t.Fatalf("NewOpaqueToken returned error: %v", err)
		}
		if len(tok) != 64 {
			t.Fatalf("expected 64 hex chars, got %d", len(tok))
		}
		if _, err := hex.DecodeString(tok); err != nil {
			t.Fatalf("token is not hex: %v", err)
		}
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token %s", tok)
		}
		seen[tok] = struct{}{}
	}
}

func TestNewOpaqueTokenEnforcesMinimum(t *testing.T) {
	tok, err := security.NewOpaqueToken(4)
	if err != nil {
		t.Fatalf("NewOpaqueToken returned error: %v", err)
	}
	if len(tok) != 2*security.DefaultTokenBytes {
		t.Fatalf("expected minimum length token, got %d chars", len(tok))
	}
}
