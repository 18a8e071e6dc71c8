package api

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidationConfig holds configurable limits for request validation.
type ValidationConfig struct {
	MaxTitleLength int
	MaxContentSize int
	MaxTags        int
}

// DefaultValidationConfig returns a ValidationConfig with sensible defaults.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MaxTitleLength: 1024,
		MaxContentSize: 1 << 20, // 1MB
		MaxTags:        100,
	}
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address so
// that lookups and the uniqueness check agree.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateCreateAccount checks the required registration fields in the
// order the client form presents them.
func ValidateCreateAccount(req *CreateAccountRequest) *APIError {
	if req.FullName == "" {
		return NewInvalidRequestError("fullName", "Full Name is required")
	}
	if NormalizeEmail(req.Email) == "" {
		return NewInvalidRequestError("email", "Email is required")
	}
	if req.Password == "" {
		return NewInvalidRequestError("password", "Password is required")
	}
	return nil
}

// ValidateLogin checks that both credentials are present.
func ValidateLogin(req *LoginRequest) *APIError {
	if NormalizeEmail(req.Email) == "" {
		return NewInvalidRequestError("email", "Email is required")
	}
	if req.Password == "" {
		return NewInvalidRequestError("password", "Password is required")
	}
	return nil
}

// ValidateAddNote checks the required note fields and size limits.
func ValidateAddNote(req *AddNoteRequest, cfg ValidationConfig) *APIError {
	if req.Title == "" {
		return NewInvalidRequestError("title", "Title is required")
	}
	if req.Content == "" {
		return NewInvalidRequestError("content", "Content is required")
	}
	return validateLimits(&req.Title, &req.Content, req.Tags, cfg)
}

// ValidateEditNote rejects edits that carry no content change, and edits
// that would blank a required field.
func ValidateEditNote(req *EditNoteRequest, cfg ValidationConfig) *APIError {
	if !req.HasChanges() {
		return NewInvalidRequestError("", "No Changes Provided")
	}
	if req.Title != nil && *req.Title == "" {
		return NewInvalidRequestError("title", "Title cannot be empty")
	}
	if req.Content != nil && *req.Content == "" {
		return NewInvalidRequestError("content", "Content cannot be empty")
	}
	var tags []string
	if req.Tags != nil {
		tags = *req.Tags
	}
	return validateLimits(req.Title, req.Content, tags, cfg)
}

// ValidatePinNote requires an explicit isPinned value.
func ValidatePinNote(req *PinNoteRequest) *APIError {
	if req.IsPinned == nil {
		return NewInvalidRequestError("isPinned", "isPinned is required")
	}
	return nil
}

// ValidateSearchQuery requires a non-empty query string.
func ValidateSearchQuery(query string) *APIError {
	if query == "" {
		return NewInvalidRequestError("query", "Search query is required")
	}
	return nil
}

func validateLimits(title, content *string, tags []string, cfg ValidationConfig) *APIError {
	if title != nil && cfg.MaxTitleLength > 0 && utf8.RuneCountInString(*title) > cfg.MaxTitleLength {
		return NewInvalidRequestError("title",
			fmt.Sprintf("Title exceeds maximum of %d characters", cfg.MaxTitleLength))
	}
	if content != nil && cfg.MaxContentSize > 0 && len(*content) > cfg.MaxContentSize {
		return NewInvalidRequestError("content",
			fmt.Sprintf("Content exceeds maximum size of %d bytes", cfg.MaxContentSize))
	}
	if cfg.MaxTags > 0 && len(tags) > cfg.MaxTags {
		return NewInvalidRequestError("tags",
			fmt.Sprintf("Tags exceed maximum of %d", cfg.MaxTags))
	}
	for i, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return NewInvalidRequestError(fmt.Sprintf("tags[%d]", i), "Tags must not be empty")
		}
	}
	return nil
}
