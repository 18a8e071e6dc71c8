package apikey

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/rhuss/quill/pkg/auth"
)

func newTestAuth() *Authenticator {
	return New([]RawKeyEntry{
		{Key: "qk-test-key-1", AccountID: "acct-alice"},
		{Key: "qk-test-key-2", AccountID: "acct-bob"},
	})
}

func TestValidKey(t *testing.T) {
	a := newTestAuth()
	r, _ := http.NewRequest("GET", "/get-all-notes", nil)
	r.Header.Set(HeaderName, "qk-test-key-1")

	result := a.Authenticate(context.Background(), r)

	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes", result.Decision)
	}
	if result.Identity.AccountID != "acct-alice" {
		t.Errorf("AccountID = %q, want %q", result.Identity.AccountID, "acct-alice")
	}
	if result.Identity.Method != "apikey" {
		t.Errorf("Method = %q, want %q", result.Identity.Method, "apikey")
	}
}

func TestSecondKey(t *testing.T) {
	a := newTestAuth()
	r, _ := http.NewRequest("GET", "/", nil)
	r.Header.Set(HeaderName, "qk-test-key-2")

	result := a.Authenticate(context.Background(), r)

	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes", result.Decision)
	}
	if result.Identity.AccountID != "acct-bob" {
		t.Errorf("AccountID = %q, want %q", result.Identity.AccountID, "acct-bob")
	}
}

func TestInvalidKey(t *testing.T) {
	a := newTestAuth()
	r, _ := http.NewRequest("GET", "/", nil)
	r.Header.Set(HeaderName, "qk-wrong-key")

	result := a.Authenticate(context.Background(), r)

	if result.Decision != auth.No {
		t.Fatalf("Decision = %d, want No", result.Decision)
	}
	if !errors.Is(result.Err, auth.ErrForbidden) {
		t.Errorf("Err = %v, want ErrForbidden", result.Err)
	}
}

func TestNoHeader(t *testing.T) {
	a := newTestAuth()
	r, _ := http.NewRequest("GET", "/", nil)

	result := a.Authenticate(context.Background(), r)

	if result.Decision != auth.Abstain {
		t.Fatalf("Decision = %d, want Abstain", result.Decision)
	}
}

func TestBearerHeaderIgnored(t *testing.T) {
	a := newTestAuth()
	r, _ := http.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer qk-test-key-1")

	result := a.Authenticate(context.Background(), r)

	if result.Decision != auth.Abstain {
		t.Fatalf("Decision = %d, want Abstain (bearer tokens belong to the token authenticator)", result.Decision)
	}
}
