package docstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mattxslv/phoenix/internal/domain/docstore"
	"github.com/mattxslv/phoenix/internal/utils/platformerrors"
)

// MemoryStore keeps documents in process. It backs tests and local runs
// without a database; semantics mirror the Postgres driver, including
// cascade deletion of a conversation's chats.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]*docstore.Document
}

var _ docstore.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory document store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]*docstore.Document),
	}
}

// CreateDocument implements docstore.Store.
func (s *MemoryStore) CreateDocument(ctx context.Context, collection, id string, fields map[string]any, createdAt time.Time) (*docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll := s.collections[collection]
	if coll == nil {
		coll = make(map[string]*docstore.Document)
		s.collections[collection] = coll
	}
	if _, exists := coll[id]; exists {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeConflict,
			"document already exists", nil, "7f2a91c4-3b5e-4d16-8a09-c1d2e3f4a5b6")
	}

	doc := &docstore.Document{
		ID:         id,
		Collection: collection,
		Fields:     cloneFields(fields),
		CreatedAt:  createdAt,
	}
	coll[id] = doc
	return cloneDocument(doc), nil
}

// UpdateDocument implements docstore.Store. The updated fields replace the
// stored field set wholesale; CreatedAt is preserved.
func (s *MemoryStore) UpdateDocument(ctx context.Context, collection, id string, fields map[string]any) (*docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, notFound(ctx, collection, id)
	}
	doc.Fields = cloneFields(fields)
	return cloneDocument(doc), nil
}

// DeleteDocument implements docstore.Store. Deleting a conversation cascades
// to its chats, matching the Postgres driver.
func (s *MemoryStore) DeleteDocument(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll := s.collections[collection]
	if _, ok := coll[id]; !ok {
		return notFound(ctx, collection, id)
	}
	delete(coll, id)

	if collection == docstore.CollectionConversations {
		for chatID, chat := range s.collections[docstore.CollectionChats] {
			if chat.Fields["conversation"] == id {
				delete(s.collections[docstore.CollectionChats], chatID)
			}
		}
	}
	return nil
}

// GetDocument implements docstore.Store.
func (s *MemoryStore) GetDocument(ctx context.Context, collection, id string) (*docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, notFound(ctx, collection, id)
	}
	return cloneDocument(doc), nil
}

// ListDocuments implements docstore.Store.
func (s *MemoryStore) ListDocuments(ctx context.Context, collection string, query docstore.Query) ([]*docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*docstore.Document, 0)
	for _, doc := range s.collections[collection] {
		if matches(doc, query.Filters) {
			result = append(result, cloneDocument(doc))
		}
	}

	if query.OrderByCreatedAt {
		sort.Slice(result, func(i, j int) bool {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		})
	}
	return result, nil
}

func matches(doc *docstore.Document, filters []docstore.Filter) bool {
	for _, f := range filters {
		if doc.Fields[f.Field] != f.Equals {
			return false
		}
	}
	return true
}

func cloneFields(fields map[string]any) map[string]any {
	clone := make(map[string]any, len(fields))
	for k, v := range fields {
		clone[k] = v
	}
	return clone
}

func cloneDocument(doc *docstore.Document) *docstore.Document {
	return &docstore.Document{
		ID:         doc.ID,
		Collection: doc.Collection,
		Fields:     cloneFields(doc.Fields),
		CreatedAt:  doc.CreatedAt,
	}
}

func notFound(ctx context.Context, collection, id string) *platformerrors.PlatformError {
	return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
		"document not found", nil, "b4c5d6e7-f8a9-4b0c-9d1e-2f3a4b5c6d7e",
		map[string]any{"collection": collection, "document_id": id})
}
