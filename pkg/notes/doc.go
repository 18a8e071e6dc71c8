// Package notes implements the account and note operations of the quill
// service on top of a storage.Store.
//
// Every note operation takes the caller's account id from the verified
// identity, never from request input, and passes it to the store together
// with the note id. A note owned by someone else is reported as not found.
// Request validation runs before the store is touched. Unexpected store
// failures are logged and surface as a generic server error.
//
// Operations return *api.APIError values for every expected failure, so
// transports can map them to status codes with errors.As.
package notes
