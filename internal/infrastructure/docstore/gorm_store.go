package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mattxslv/phoenix/internal/domain/docstore"
	"github.com/mattxslv/phoenix/internal/utils/platformerrors"
)

// DocumentEntity is the single-table persistence shape for all collections:
// one row per document, field set as JSONB.
type DocumentEntity struct {
	ID         uint           `gorm:"primaryKey"`
	Collection string         `gorm:"size:64;uniqueIndex:idx_collection_doc,priority:1"`
	DocID      string         `gorm:"size:64;uniqueIndex:idx_collection_doc,priority:2"`
	Fields     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time      `gorm:"index"`
}

// TableName keeps the table name stable regardless of naming strategy.
func (DocumentEntity) TableName() string {
	return "document"
}

// GormStore persists documents in a PostgreSQL JSONB table.
type GormStore struct {
	db *gorm.DB
}

var _ docstore.Store = (*GormStore)(nil)

// NewGormStore builds a Postgres-backed document store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// AutoMigrate applies the document table schema.
func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(&DocumentEntity{})
}

// CreateDocument implements docstore.Store.
func (s *GormStore) CreateDocument(ctx context.Context, collection, id string, fields map[string]any, createdAt time.Time) (*docstore.Document, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeInternal,
			"failed to encode document fields", err, "1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5e")
	}

	entity := &DocumentEntity{
		Collection: collection,
		DocID:      id,
		Fields:     raw,
		CreatedAt:  createdAt,
	}
	if err := s.db.WithContext(ctx).Create(entity).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to create document", err, "2b3c4d5e-6f7a-4b8c-9d0e-1f2a3b4c5d6f")
	}
	return entity.toDomain()
}

// UpdateDocument implements docstore.Store.
func (s *GormStore) UpdateDocument(ctx context.Context, collection, id string, fields map[string]any) (*docstore.Document, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeInternal,
			"failed to encode document fields", err, "3c4d5e6f-7a8b-4c9d-0e1f-2a3b4c5d6e7f")
	}

	tx := s.db.WithContext(ctx).
		Model(&DocumentEntity{}).
		Where("collection = ? AND doc_id = ?", collection, id).
		Update("fields", datatypes.JSON(raw))
	if tx.Error != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to update document", tx.Error, "4d5e6f7a-8b9c-4d0e-1f2a-3b4c5d6e7f8a")
	}
	if tx.RowsAffected == 0 {
		return nil, s.notFound(ctx, collection, id)
	}
	return s.GetDocument(ctx, collection, id)
}

// DeleteDocument implements docstore.Store. Deleting a conversation document
// cascades to the chats that reference it; the core never has to clean up
// orphaned turns itself.
func (s *GormStore) DeleteDocument(ctx context.Context, collection, id string) error {
	tx := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		Delete(&DocumentEntity{})
	if tx.Error != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to delete document", tx.Error, "5e6f7a8b-9c0d-4e1f-2a3b-4c5d6e7f8a9b")
	}
	if tx.RowsAffected == 0 {
		return s.notFound(ctx, collection, id)
	}

	if collection == docstore.CollectionConversations {
		err := s.db.WithContext(ctx).
			Where("collection = ?", docstore.CollectionChats).
			Where(datatypes.JSONQuery("fields").Equals(id, "conversation")).
			Delete(&DocumentEntity{}).Error
		if err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
				"failed to cascade chat documents", err, "6f7a8b9c-0d1e-4f2a-3b4c-5d6e7f8a9b0c")
		}
	}
	return nil
}

// GetDocument implements docstore.Store.
func (s *GormStore) GetDocument(ctx context.Context, collection, id string) (*docstore.Document, error) {
	var entity DocumentEntity
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, s.notFound(ctx, collection, id)
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to fetch document", err, "7a8b9c0d-1e2f-4a3b-4c5d-6e7f8a9b0c1d")
	}
	return entity.toDomain()
}

// ListDocuments implements docstore.Store.
func (s *GormStore) ListDocuments(ctx context.Context, collection string, query docstore.Query) ([]*docstore.Document, error) {
	tx := s.db.WithContext(ctx).Where("collection = ?", collection)
	for _, f := range query.Filters {
		tx = tx.Where(datatypes.JSONQuery("fields").Equals(f.Equals, f.Field))
	}
	if query.OrderByCreatedAt {
		tx = tx.Order("created_at ASC")
	}

	var entities []DocumentEntity
	if err := tx.Find(&entities).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to list documents", err, "8b9c0d1e-2f3a-4b4c-5d6e-7f8a9b0c1d2e")
	}

	result := make([]*docstore.Document, 0, len(entities))
	for i := range entities {
		doc, err := entities[i].toDomain()
		if err != nil {
			return nil, err
		}
		result = append(result, doc)
	}
	return result, nil
}

func (s *GormStore) notFound(ctx context.Context, collection, id string) *platformerrors.PlatformError {
	return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
		"document not found", nil, "9c0d1e2f-3a4b-4c5d-6e7f-8a9b0c1d2e3f",
		map[string]any{"collection": collection, "document_id": id})
}

func (e *DocumentEntity) toDomain() (*docstore.Document, error) {
	fields := make(map[string]any)
	if len(e.Fields) > 0 {
		if err := json.Unmarshal(e.Fields, &fields); err != nil {
			return nil, platformerrors.NewError(context.Background(), platformerrors.LayerRepository, platformerrors.ErrorTypeInternal,
				"failed to decode document fields", err, "0d1e2f3a-4b5c-4d6e-7f8a-9b0c1d2e3f4a")
		}
	}
	return &docstore.Document{
		ID:         e.DocID,
		Collection: e.Collection,
		Fields:     fields,
		CreatedAt:  e.CreatedAt,
	}, nil
}
