package handlers

import (
	"github.com/rs/zerolog"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Conversation *ConversationHandler
	Reveal       *RevealHandler
}

// NewProvider constructs the handler provider with domain services.
func NewProvider(conversations ConversationService, reveals RevealSource, log zerolog.Logger) *Provider {
	return &Provider{
		Conversation: NewConversationHandler(conversations, log),
		Reveal:       NewRevealHandler(reveals, log),
	}
}
