package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

// mockAuthn is a test authenticator with configurable behavior.
type mockAuthn struct {
	result AuthResult
	calls  int
}

func (m *mockAuthn) Authenticate(_ context.Context, _ *http.Request) AuthResult {
	m.calls++
	return m.result
}

func TestAuthChain_FirstYesStops(t *testing.T) {
	second := &mockAuthn{result: AuthResult{Decision: No, Err: ErrForbidden}}
	chain := &AuthChain{
		Authenticators: []Authenticator{
			&mockAuthn{result: AuthResult{Decision: Yes, Identity: &Identity{AccountID: "acct-1", Method: "token"}}},
			second,
		},
	}

	r, _ := http.NewRequest("GET", "/get-all-notes", nil)
	result := chain.Authenticate(context.Background(), r)

	if result.Decision != Yes {
		t.Errorf("Decision = %d, want Yes", result.Decision)
	}
	if result.Identity.AccountID != "acct-1" {
		t.Errorf("AccountID = %q, want %q", result.Identity.AccountID, "acct-1")
	}
	if second.calls != 0 {
		t.Errorf("second authenticator called %d times, want 0", second.calls)
	}
}

func TestAuthChain_FirstNoStops(t *testing.T) {
	chain := &AuthChain{
		Authenticators: []Authenticator{
			&mockAuthn{result: AuthResult{Decision: No, Err: ErrForbidden}},
			&mockAuthn{result: AuthResult{Decision: Yes, Identity: &Identity{AccountID: "acct-2"}}},
		},
	}

	r, _ := http.NewRequest("GET", "/get-all-notes", nil)
	result := chain.Authenticate(context.Background(), r)

	if result.Decision != No {
		t.Errorf("Decision = %d, want No", result.Decision)
	}
	if !errors.Is(result.Err, ErrForbidden) {
		t.Errorf("Err = %v, want ErrForbidden", result.Err)
	}
}

func TestAuthChain_AllAbstain_Rejects(t *testing.T) {
	chain := &AuthChain{
		Authenticators: []Authenticator{
			&mockAuthn{result: AuthResult{Decision: Abstain}},
			&mockAuthn{result: AuthResult{Decision: Abstain}},
		},
	}

	r, _ := http.NewRequest("GET", "/get-all-notes", nil)
	result := chain.Authenticate(context.Background(), r)

	if result.Decision != No {
		t.Errorf("Decision = %d, want No", result.Decision)
	}
	if !errors.Is(result.Err, ErrUnauthenticated) {
		t.Errorf("Err = %v, want ErrUnauthenticated", result.Err)
	}
}

func TestAuthChain_Empty_Rejects(t *testing.T) {
	chain := &AuthChain{}

	r, _ := http.NewRequest("GET", "/", nil)
	result := chain.Authenticate(context.Background(), r)

	if result.Decision != No {
		t.Errorf("Decision = %d, want No (empty chain)", result.Decision)
	}
}

func TestAuthChain_AbstainThenYes(t *testing.T) {
	chain := &AuthChain{
		Authenticators: []Authenticator{
			&mockAuthn{result: AuthResult{Decision: Abstain}},
			&mockAuthn{result: AuthResult{Decision: Yes, Identity: &Identity{AccountID: "key-owner", Method: "apikey"}}},
		},
	}

	r, _ := http.NewRequest("GET", "/", nil)
	result := chain.Authenticate(context.Background(), r)

	if result.Decision != Yes {
		t.Errorf("Decision = %d, want Yes", result.Decision)
	}
	if result.Identity.Method != "apikey" {
		t.Errorf("Method = %q, want %q", result.Identity.Method, "apikey")
	}
}

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()

	if IdentityFromContext(ctx) != nil {
		t.Error("expected nil identity from empty context")
	}
	if AccountIDFromContext(ctx) != "" {
		t.Error("expected empty account id from empty context")
	}

	ctx = SetIdentity(ctx, &Identity{AccountID: "acct-1"})
	got := IdentityFromContext(ctx)
	if got == nil || got.AccountID != "acct-1" {
		t.Errorf("got %v, want acct-1", got)
	}
	if AccountIDFromContext(ctx) != "acct-1" {
		t.Errorf("AccountIDFromContext = %q, want acct-1", AccountIDFromContext(ctx))
	}
}
