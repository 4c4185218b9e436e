package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrEmptyReply is returned when the provider answers without any choice.
var ErrEmptyReply = errors.New("ai returned no choices")
