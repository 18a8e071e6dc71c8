package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func yesChain(accountID string) *AuthChain {
	return &AuthChain{
		Authenticators: []Authenticator{
			&mockAuthn{result: AuthResult{Decision: Yes, Identity: &Identity{AccountID: accountID, Method: "token"}}},
		},
	}
}

func TestMiddleware_BypassEndpoint(t *testing.T) {
	mw := Middleware(&AuthChain{}, nil, []string{"/healthz"})
	handler := mw(okHandler())

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("bypass endpoint: status = %d, want 200", rec.Code)
	}
}

func TestMiddleware_DefaultBypass(t *testing.T) {
	mw := Middleware(&AuthChain{}, nil, DefaultBypassEndpoints)
	handler := mw(okHandler())

	for _, path := range []string{"/", "/create-account", "/login"} {
		req := httptest.NewRequest("POST", path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, rec.Code)
		}
	}
}

func TestMiddleware_NoCredential_401(t *testing.T) {
	chain := &AuthChain{
		Authenticators: []Authenticator{&mockAuthn{result: AuthResult{Decision: Abstain}}},
	}
	mw := Middleware(chain, nil, DefaultBypassEndpoints)
	handler := mw(okHandler())

	req := httptest.NewRequest("GET", "/get-all-notes", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no auth: status = %d, want 401", rec.Code)
	}
	if got := rec.Header().Get("WWW-Authenticate"); got == "" {
		t.Error("expected WWW-Authenticate header")
	}

	var body struct {
		Error   bool   `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if !body.Error {
		t.Error("expected error: true in body")
	}
}

func TestMiddleware_InvalidCredential_403(t *testing.T) {
	chain := &AuthChain{
		Authenticators: []Authenticator{&mockAuthn{result: AuthResult{Decision: No, Err: ErrForbidden}}},
	}
	mw := Middleware(chain, nil, DefaultBypassEndpoints)
	handler := mw(okHandler())

	req := httptest.NewRequest("GET", "/get-all-notes", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("invalid token: status = %d, want 403", rec.Code)
	}
}

func TestMiddleware_ValidAuth_InjectsIdentity(t *testing.T) {
	mw := Middleware(yesChain("acct-1"), nil, DefaultBypassEndpoints)

	var gotAccount string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccount = AccountIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/get-user", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("valid auth: status = %d, want 200", rec.Code)
	}
	if gotAccount != "acct-1" {
		t.Errorf("account = %q, want %q", gotAccount, "acct-1")
	}
}

func TestMiddleware_EmptyAccountID_500(t *testing.T) {
	mw := Middleware(yesChain(""), nil, DefaultBypassEndpoints)
	handler := mw(okHandler())

	req := httptest.NewRequest("GET", "/get-user", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("empty account: status = %d, want 500", rec.Code)
	}
}

func TestMiddleware_RateLimit_Exceeded(t *testing.T) {
	limiter := NewInProcessLimiter(2)
	mw := Middleware(yesChain("acct-1"), limiter, DefaultBypassEndpoints)
	handler := mw(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/get-all-notes", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest("GET", "/get-all-notes", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("rate limited request: status = %d, want 429", rec.Code)
	}
}

func TestMiddleware_NoLimiter_AllAllowed(t *testing.T) {
	mw := Middleware(yesChain("acct-1"), nil, DefaultBypassEndpoints)
	handler := mw(okHandler())

	for i := 0; i < 100; i++ {
		req := httptest.NewRequest("GET", "/get-all-notes", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want 200", i+1, rec.Code)
			break
		}
	}
}

var _ Authenticator = (*mockAuthn)(nil)
