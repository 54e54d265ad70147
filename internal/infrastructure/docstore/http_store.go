package docstore

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mattxslv/phoenix/internal/domain/docstore"
	"github.com/mattxslv/phoenix/internal/utils/platformerrors"
)

// HTTPStore talks to a remote document API (Appwrite-style databases
// service) over REST. It is the driver for deployments where persistence
// lives behind its own service.
type HTTPStore struct {
	client *resty.Client
}

var _ docstore.Store = (*HTTPStore)(nil)

// NewHTTPStore creates a Resty-backed document store client.
func NewHTTPStore(baseURL, apiKey string) *HTTPStore {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)
	if apiKey != "" {
		client.SetHeader("X-API-Key", apiKey)
	}
	return &HTTPStore{client: client}
}

type documentPayload struct {
	ID        string         `json:"id"`
	Fields    map[string]any `json:"fields"`
	CreatedAt time.Time      `json:"created_at"`
}

type listPayload struct {
	Documents []documentPayload `json:"documents"`
}

// CreateDocument implements docstore.Store.
func (s *HTTPStore) CreateDocument(ctx context.Context, collection, id string, fields map[string]any, createdAt time.Time) (*docstore.Document, error) {
	var result documentPayload
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(documentPayload{ID: id, Fields: fields, CreatedAt: createdAt}).
		SetResult(&result).
		Post(fmt.Sprintf("/v1/collections/%s/documents", collection))
	if err := s.checkResponse(ctx, resp, err, collection, id); err != nil {
		return nil, err
	}
	return payloadToDomain(collection, result), nil
}

// UpdateDocument implements docstore.Store.
func (s *HTTPStore) UpdateDocument(ctx context.Context, collection, id string, fields map[string]any) (*docstore.Document, error) {
	var result documentPayload
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"fields": fields}).
		SetResult(&result).
		Patch(fmt.Sprintf("/v1/collections/%s/documents/%s", collection, id))
	if err := s.checkResponse(ctx, resp, err, collection, id); err != nil {
		return nil, err
	}
	return payloadToDomain(collection, result), nil
}

// DeleteDocument implements docstore.Store.
func (s *HTTPStore) DeleteDocument(ctx context.Context, collection, id string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/v1/collections/%s/documents/%s", collection, id))
	return s.checkResponse(ctx, resp, err, collection, id)
}

// GetDocument implements docstore.Store.
func (s *HTTPStore) GetDocument(ctx context.Context, collection, id string) (*docstore.Document, error) {
	var result documentPayload
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get(fmt.Sprintf("/v1/collections/%s/documents/%s", collection, id))
	if err := s.checkResponse(ctx, resp, err, collection, id); err != nil {
		return nil, err
	}
	return payloadToDomain(collection, result), nil
}

// ListDocuments implements docstore.Store. Filters are passed as repeated
// "filter=field:value" query parameters; the remote side supports equality
// only, matching the Store contract.
func (s *HTTPStore) ListDocuments(ctx context.Context, collection string, query docstore.Query) ([]*docstore.Document, error) {
	req := s.client.R().SetContext(ctx)
	for _, f := range query.Filters {
		req.SetQueryParamsFromValues(map[string][]string{
			"filter": {fmt.Sprintf("%s:%v", f.Field, f.Equals)},
		})
	}
	if query.OrderByCreatedAt {
		req.SetQueryParam("order", "created_at")
	}

	var result listPayload
	resp, err := req.
		SetResult(&result).
		Get(fmt.Sprintf("/v1/collections/%s/documents", collection))
	if err := s.checkResponse(ctx, resp, err, collection, ""); err != nil {
		return nil, err
	}

	docs := make([]*docstore.Document, 0, len(result.Documents))
	for _, payload := range result.Documents {
		docs = append(docs, payloadToDomain(collection, payload))
	}
	return docs, nil
}

func (s *HTTPStore) checkResponse(ctx context.Context, resp *resty.Response, err error, collection, id string) error {
	if err != nil {
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeExternal,
			"document store request failed", err, "1e2f3a4b-5c6d-4e7f-8a9b-0c1d2e3f4a5b",
			map[string]any{"collection": collection, "document_id": id})
	}
	if resp.StatusCode() == http.StatusNotFound {
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
			"document not found", nil, "2f3a4b5c-6d7e-4f8a-9b0c-1d2e3f4a5b6c",
			map[string]any{"collection": collection, "document_id": id})
	}
	if resp.IsError() {
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeExternal,
			fmt.Sprintf("document store error: %s", resp.Status()), nil, "3a4b5c6d-7e8f-4a9b-0c1d-2e3f4a5b6c7d",
			map[string]any{"collection": collection, "document_id": id, "body": resp.String()})
	}
	return nil
}

func payloadToDomain(collection string, payload documentPayload) *docstore.Document {
	return &docstore.Document{
		ID:         payload.ID,
		Collection: collection,
		Fields:     payload.Fields,
		CreatedAt:  payload.CreatedAt,
	}
}
