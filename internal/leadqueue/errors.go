package leadqueue

import "errors"

var (
	// ErrWebhookURLRequired is returned when a dispatch is requested without an endpoint
	ErrWebhookURLRequired = errors.New("webhook URL is required")

	// ErrStoreUnavailable is returned when the backing store cannot be read
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrConversationNotFound is returned when a conversation id matches no record
	ErrConversationNotFound = errors.New("conversation not found")
)
