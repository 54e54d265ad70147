package docstore

import (
	"context"
	"time"
)

// Collection names owned by the conversation core.
const (
	CollectionConversations = "conversations"
	CollectionChats         = "chats"
)

// Document is the unit of persistence: an id inside a collection plus an
// untyped field set. CreatedAt is assigned by the caller and is the only
// ordering key the core relies on.
type Document struct {
	ID         string
	Collection string
	Fields     map[string]any
	CreatedAt  time.Time
}

// Filter matches documents whose field equals a value. Equality is the only
// supported predicate.
type Filter struct {
	Field  string
	Equals any
}

// Query bundles the narrow query surface the core needs: equality filters
// and an optional ascending-CreatedAt sort.
type Query struct {
	Filters          []Filter
	OrderByCreatedAt bool
}

// Store is the persistence collaborator. The core treats it purely as an
// async key/value document interface; drivers decide how collections map to
// tables, remote APIs, or memory.
//
// Deleting a conversation document does not delete its chat documents here;
// cascade-versus-orphan is the driver's concern.
type Store interface {
	CreateDocument(ctx context.Context, collection, id string, fields map[string]any, createdAt time.Time) (*Document, error)
	UpdateDocument(ctx context.Context, collection, id string, fields map[string]any) (*Document, error)
	DeleteDocument(ctx context.Context, collection, id string) error
	GetDocument(ctx context.Context, collection, id string) (*Document, error)
	ListDocuments(ctx context.Context, collection string, query Query) ([]*Document, error)
}
