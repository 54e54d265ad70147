package chat

import (
	"time"

	"github.com/mattxslv/phoenix/internal/domain/docstore"
	"github.com/mattxslv/phoenix/internal/domain/generation"
)

// Conversation is a logical chat thread. The title is derived once at
// creation from the first prompt and never recomputed.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Turn is one prompt/response exchange. CreatedAt is strictly increasing
// within a conversation and is the only ordering key; ids carry no order.
//
// A Turn is created when a prompt is successfully answered, mutated only by
// an edit of that exact turn (full field rewrite), and destroyed only as a
// side effect of editing an earlier turn or deleting the conversation.
type Turn struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Title          string    `json:"title"`
	UserPrompt     string    `json:"user_prompt"`
	AIResponse     string    `json:"ai_response"`
	CreatedAt      time.Time `json:"created_at"`
}

// Exchange maps the turn into generation context.
func (t *Turn) Exchange() generation.Exchange {
	return generation.Exchange{UserPrompt: t.UserPrompt, AIResponse: t.AIResponse}
}

func (t *Turn) fields() map[string]any {
	return map[string]any{
		"title":        t.Title,
		"user_prompt":  t.UserPrompt,
		"ai_response":  t.AIResponse,
		"conversation": t.ConversationID,
	}
}

func turnFromDocument(doc *docstore.Document) *Turn {
	return &Turn{
		ID:             doc.ID,
		ConversationID: stringField(doc.Fields, "conversation"),
		Title:          stringField(doc.Fields, "title"),
		UserPrompt:     stringField(doc.Fields, "user_prompt"),
		AIResponse:     stringField(doc.Fields, "ai_response"),
		CreatedAt:      doc.CreatedAt,
	}
}

func (c *Conversation) fields() map[string]any {
	return map[string]any{
		"title":   c.Title,
		"user_id": c.UserID,
	}
}

func conversationFromDocument(doc *docstore.Document) *Conversation {
	return &Conversation{
		ID:        doc.ID,
		Title:     stringField(doc.Fields, "title"),
		UserID:    stringField(doc.Fields, "user_id"),
		CreatedAt: doc.CreatedAt,
	}
}

func stringField(fields map[string]any, key string) string {
	if value, ok := fields[key].(string); ok {
		return value
	}
	return ""
}
