// Package apikey provides a service-key authenticator for scripts and
// integrations that act on behalf of a fixed account. Keys are sent in the
// X-API-Key header, hashed with SHA-256 at load time, and compared in
// constant time.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/rhuss/quill/pkg/auth"
)

// HeaderName is the request header carrying the service key.
const HeaderName = "X-API-Key"

// KeyEntry maps a key hash to the account it acts for.
type KeyEntry struct {
	KeyHash   [32]byte
	AccountID string
}

// Authenticator validates service keys against a static key store.
type Authenticator struct {
	keys []KeyEntry
}

// Ensure Authenticator implements auth.Authenticator at compile time.
var _ auth.Authenticator = (*Authenticator)(nil)

// RawKeyEntry is the configuration format for service keys.
type RawKeyEntry struct {
	Key       string
	AccountID string
}

// New creates a service-key authenticator from raw keys.
// Keys are hashed immediately; plaintext keys are not stored.
func New(entries []RawKeyEntry) *Authenticator {
	a := &Authenticator{}
	for _, e := range entries {
		a.keys = append(a.keys, KeyEntry{
			KeyHash:   sha256.Sum256([]byte(e.Key)),
			AccountID: e.AccountID,
		})
	}
	return a
}

// Authenticate validates the X-API-Key header.
// Returns Abstain if the header is absent, No if the key is unknown,
// and Yes with the mapped account otherwise.
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	key := strings.TrimSpace(r.Header.Get(HeaderName))
	if key == "" {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	keyHash := sha256.Sum256([]byte(key))

	matched := -1
	for i, entry := range a.keys {
		// Compare against every entry so timing does not reveal the position.
		if subtle.ConstantTimeCompare(keyHash[:], entry.KeyHash[:]) == 1 && matched < 0 {
			matched = i
		}
	}

	if matched < 0 {
		return auth.AuthResult{
			Decision: auth.No,
			Err:      fmt.Errorf("%w: unknown service key", auth.ErrForbidden),
		}
	}

	return auth.AuthResult{
		Decision: auth.Yes,
		Identity: &auth.Identity{
			AccountID: a.keys[matched].AccountID,
			Method:    "apikey",
		},
	}
}
