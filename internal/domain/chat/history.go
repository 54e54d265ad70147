package chat

import (
	"github.com/mattxslv/phoenix/internal/domain/generation"
	"github.com/mattxslv/phoenix/internal/utils/functional"
)

// BuildContext produces the ordered context sequence for a generation
// request from a conversation's stored turns.
//
// With no editing turn, the full history is the context. With an editing
// turn set, only turns strictly before the edited point are context: editing
// rewrites history from that point forward, so turns after it cannot inform
// the regenerated reply and are slated for deletion once the edit commits.
//
// An editingTurnID that matches no stored turn behaves like no edit at all.
func BuildContext(turns []*Turn, editingTurnID string) []*Turn {
	if editingTurnID == "" {
		return turns
	}

	edited, ok := functional.Find(turns, func(t *Turn) bool {
		return t.ID == editingTurnID
	})
	if !ok {
		return turns
	}

	return functional.Filter(turns, func(t *Turn) bool {
		return t.CreatedAt.Before(edited.CreatedAt)
	})
}

// ContextExchanges maps ordered turns into the prompt/response pairs the
// generation gateway consumes.
func ContextExchanges(turns []*Turn) []generation.Exchange {
	return functional.Map(turns, func(t *Turn) generation.Exchange {
		return t.Exchange()
	})
}
