// Package api defines the wire types for the quill notes service.
//
// It provides the account and note documents, the request bodies accepted
// by each route, the JSON envelopes returned to clients, structured error
// types, and request validation. The package performs no I/O.
//
// Core types:
//   - [Account]: a registered user; the password hash is never serialized
//   - [Note]: a note owned by exactly one account (UserID)
//   - [EditNoteRequest]: partial update with optional fields, so that an
//     omitted field is distinguishable from one explicitly set to false,
//     "" or []
//   - [APIError]: structured error with type, param, and message
//
// JSON field names follow the original client contract (_id, fullName,
// isPinned, userId, createdOn, accessToken).
package api
