// Package auth gates access to the protected note routes.
//
// Authentication uses a chain-of-responsibility pattern with three-outcome
// voting: each authenticator returns Yes (identity found), No (credentials
// present but invalid), or Abstain (no credentials it can handle). When all
// authenticators abstain the request is treated as unauthenticated.
//
// The two rejection outcomes stay distinguishable all the way to the
// client: an absent credential is answered with 401, an invalid or expired
// one with 403.
//
// Auth is implemented as HTTP middleware, keeping it decoupled from the
// note service. On success the middleware stores a typed [Identity] in the
// request context; handlers derive the caller's account id from it and
// never from request input.
package auth
