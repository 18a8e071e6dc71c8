// Package integration provides integration tests for the quill API.
//
// Tests run against a real quill HTTP handler backed by a SQLite database
// in a temporary directory, started in-process using net/http/httptest.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/rhuss/quill/pkg/auth"
	"github.com/rhuss/quill/pkg/auth/jwt"
	"github.com/rhuss/quill/pkg/auth/password"
	"github.com/rhuss/quill/pkg/notes"
	"github.com/rhuss/quill/pkg/storage/sqlite"
	transporthttp "github.com/rhuss/quill/pkg/transport/http"
)

// testEnv holds the shared server for all integration tests.
var testEnv *TestEnvironment

// TestEnvironment holds the quill server and its backing store.
type TestEnvironment struct {
	Server *httptest.Server
	Store  *sqlite.Store
	dir    string
}

// TestMain starts the quill server before running tests.
func TestMain(m *testing.M) {
	env, err := setupTestEnvironment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "setting up test environment: %v\n", err)
		os.Exit(1)
	}
	testEnv = env
	code := m.Run()
	testEnv.Teardown()
	os.Exit(code)
}

// setupTestEnvironment opens a SQLite store in a temporary directory and
// serves the full handler stack from it.
func setupTestEnvironment() (*TestEnvironment, error) {
	dir, err := os.MkdirTemp("", "quill-integration-*")
	if err != nil {
		return nil, err
	}

	store, err := sqlite.New(context.Background(), sqlite.Config{
		Path:           filepath.Join(dir, "quill.db"),
		MigrateOnStart: true,
	})
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("opening store: %w", err)
	}

	tokens, err := jwt.New(jwt.Config{Secret: []byte("integration-secret-0123456789abcdef")})
	if err != nil {
		return nil, err
	}
	hasher, err := password.NewHasher(bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	svc, err := notes.NewService(store, tokens, hasher, notes.Config{})
	if err != nil {
		return nil, err
	}

	handler := transporthttp.NewHandler(transporthttp.HandlerConfig{
		Service:     svc,
		Auth:        &auth.AuthChain{Authenticators: []auth.Authenticator{tokens}},
		MaxBodySize: 1 << 20,
		MetricsPath: "/metrics",
	})

	return &TestEnvironment{
		Server: httptest.NewServer(handler),
		Store:  store,
		dir:    dir,
	}, nil
}

// Teardown stops the server and removes the database.
func (env *TestEnvironment) Teardown() {
	if env.Server != nil {
		env.Server.Close()
	}
	if env.Store != nil {
		env.Store.Close()
	}
	os.RemoveAll(env.dir)
}

// BaseURL returns the base URL of the quill server.
func (env *TestEnvironment) BaseURL() string {
	return env.Server.URL
}

// doJSON sends a request with an optional JSON body and bearer token.
func doJSON(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, testEnv.BaseURL()+path, reader)
	if err != nil {
		t.Fatalf("creating %s request: %v", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}
	return string(body)
}

func decodeJSON(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("decoding JSON: %v", err)
	}
}

// registerAccount creates an account with a unique email and returns its token.
func registerAccount(t *testing.T, email string) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, "/create-account", "", map[string]string{
		"fullName": "Integration User",
		"email":    email,
		"password": "integration-pass",
	})
	var out struct {
		Error       bool   `json:"error"`
		AccessToken string `json:"accessToken"`
		Message     string `json:"message"`
	}
	decodeJSON(t, resp, &out)
	if out.Error || out.AccessToken == "" {
		t.Fatalf("registering %s: %+v", email, out)
	}
	return out.AccessToken
}
