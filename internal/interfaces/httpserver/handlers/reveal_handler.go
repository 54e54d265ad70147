package handlers

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RevealSource is what the handler needs from the reveal scheduler.
type RevealSource interface {
	// Watch yields each published prefix for the turn and closes when the
	// reveal completes or is cancelled. Settled turns yield the full text
	// once. The release func unsubscribes.
	Watch(turnID string) (<-chan string, func())
}

// RevealHandler streams reveal prefixes over server-sent events.
type RevealHandler struct {
	source RevealSource
	log    zerolog.Logger
}

// NewRevealHandler constructs the handler.
func NewRevealHandler(source RevealSource, log zerolog.Logger) *RevealHandler {
	return &RevealHandler{
		source: source,
		log:    log.With().Str("handler", "reveal").Logger(),
	}
}

// Stream handles GET /v1/conversations/:conversation_id/turns/:turn_id/reveal
//
// Each event carries the full prefix earned so far, not a delta, so a
// client that drops frames still converges on the complete text.
func (h *RevealHandler) Stream(c *gin.Context) {
	turnID := c.Param("turn_id")

	frames, release := h.source.Watch(turnID)
	defer release()

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case prefix, open := <-frames:
			if !open {
				c.SSEvent("done", "")
				return false
			}
			c.SSEvent("prefix", prefix)
			return true
		}
	})
}
