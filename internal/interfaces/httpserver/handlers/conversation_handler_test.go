package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mattxslv/phoenix/internal/domain/chat"
	"github.com/mattxslv/phoenix/internal/interfaces/httpserver/handlers"
	"github.com/mattxslv/phoenix/internal/utils/platformerrors"
)

// MockConversationService is a mock implementation of
// handlers.ConversationService for testing.
type MockConversationService struct {
	StartConversationFunc  func(ctx context.Context, userID, prompt string) (*chat.Conversation, *chat.Turn, error)
	SubmitPromptFunc       func(ctx context.Context, conversationID, prompt, editingTurnID string) (*chat.Turn, error)
	BeginEditFunc          func(ctx context.Context, conversationID, turnID string) error
	CancelEditFunc         func(conversationID string)
	TurnsFunc              func(ctx context.Context, conversationID string) ([]*chat.Turn, error)
	GetConversationFunc    func(ctx context.Context, conversationID string) (*chat.Conversation, error)
	ListConversationsFunc  func(ctx context.Context, userID string) ([]*chat.Conversation, error)
	DeleteConversationFunc func(ctx context.Context, conversationID string) error
}

func (m *MockConversationService) StartConversation(ctx context.Context, userID, prompt string) (*chat.Conversation, *chat.Turn, error) {
	if m.StartConversationFunc != nil {
		return m.StartConversationFunc(ctx, userID, prompt)
	}
	return nil, nil, nil
}

func (m *MockConversationService) SubmitPrompt(ctx context.Context, conversationID, prompt, editingTurnID string) (*chat.Turn, error) {
	if m.SubmitPromptFunc != nil {
		return m.SubmitPromptFunc(ctx, conversationID, prompt, editingTurnID)
	}
	return nil, nil
}

func (m *MockConversationService) BeginEdit(ctx context.Context, conversationID, turnID string) error {
	if m.BeginEditFunc != nil {
		return m.BeginEditFunc(ctx, conversationID, turnID)
	}
	return nil
}

func (m *MockConversationService) CancelEdit(conversationID string) {
	if m.CancelEditFunc != nil {
		m.CancelEditFunc(conversationID)
	}
}

func (m *MockConversationService) Turns(ctx context.Context, conversationID string) ([]*chat.Turn, error) {
	if m.TurnsFunc != nil {
		return m.TurnsFunc(ctx, conversationID)
	}
	return nil, nil
}

func (m *MockConversationService) GetConversation(ctx context.Context, conversationID string) (*chat.Conversation, error) {
	if m.GetConversationFunc != nil {
		return m.GetConversationFunc(ctx, conversationID)
	}
	return nil, nil
}

func (m *MockConversationService) ListConversations(ctx context.Context, userID string) ([]*chat.Conversation, error) {
	if m.ListConversationsFunc != nil {
		return m.ListConversationsFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockConversationService) DeleteConversation(ctx context.Context, conversationID string) error {
	if m.DeleteConversationFunc != nil {
		return m.DeleteConversationFunc(ctx, conversationID)
	}
	return nil
}

func setupConversationTestRouter(handler *handlers.ConversationHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	v1 := r.Group("/v1")
	{
		v1.POST("/conversations", handler.Create)
		v1.GET("/conversations", handler.List)
		v1.GET("/conversations/:conversation_id", handler.Get)
		v1.DELETE("/conversations/:conversation_id", handler.Delete)
		v1.POST("/conversations/:conversation_id/prompts", handler.Submit)
		v1.POST("/conversations/:conversation_id/edits", handler.BeginEdit)
		v1.DELETE("/conversations/:conversation_id/edits", handler.CancelEdit)
	}
	return r
}

func TestConversationHandler_Create(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mockService := &MockConversationService{
		StartConversationFunc: func(ctx context.Context, userID, prompt string) (*chat.Conversation, *chat.Turn, error) {
			conv := &chat.Conversation{ID: "conv-123", Title: "Greetings", UserID: userID, CreatedAt: now}
			turn := &chat.Turn{ID: "turn-1", ConversationID: "conv-123", UserPrompt: prompt, AIResponse: "Hi!", CreatedAt: now}
			return conv, turn, nil
		},
	}

	handler := handlers.NewConversationHandler(mockService, zerolog.Nop())
	router := setupConversationTestRouter(handler)

	body, _ := json.Marshal(map[string]string{"user_id": "user-1", "user_prompt": "Hello"})
	req, _ := http.NewRequest("POST", "/v1/conversations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	conv := response["conversation"].(map[string]interface{})
	if conv["id"] != "conv-123" {
		t.Errorf("Expected conversation id 'conv-123', got %v", conv["id"])
	}
	turns := response["turns"].([]interface{})
	if len(turns) != 1 {
		t.Fatalf("Expected 1 turn, got %d", len(turns))
	}
}

func TestConversationHandler_CreateValidation(t *testing.T) {
	handler := handlers.NewConversationHandler(&MockConversationService{}, zerolog.Nop())
	router := setupConversationTestRouter(handler)

	tests := []struct {
		name string
		body string
	}{
		{"missing prompt", `{"user_id":"user-1"}`},
		{"wrong prompt key", `{"user_id":"user-1","prompt":"Hello"}`},
		{"missing user id", `{"user_prompt":"Hello"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("POST", "/v1/conversations", bytes.NewReader([]byte(tt.body)))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestConversationHandler_SubmitConflict(t *testing.T) {
	mockService := &MockConversationService{
		SubmitPromptFunc: func(ctx context.Context, conversationID, prompt, editingTurnID string) (*chat.Turn, error) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict,
				"a submission is already in flight", nil, "11111111-1111-4111-8111-111111111111")
		},
	}

	handler := handlers.NewConversationHandler(mockService, zerolog.Nop())
	router := setupConversationTestRouter(handler)

	body, _ := json.Marshal(map[string]string{"user_prompt": "again"})
	req, _ := http.NewRequest("POST", "/v1/conversations/conv-123/prompts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["code"] != "11111111-1111-4111-8111-111111111111" {
		t.Errorf("Expected platform error code in body, got %v", response["code"])
	}
}

func TestConversationHandler_SubmitEdit(t *testing.T) {
	var gotEditing string
	mockService := &MockConversationService{
		SubmitPromptFunc: func(ctx context.Context, conversationID, prompt, editingTurnID string) (*chat.Turn, error) {
			gotEditing = editingTurnID
			return &chat.Turn{ID: editingTurnID, ConversationID: conversationID, UserPrompt: prompt}, nil
		},
	}

	handler := handlers.NewConversationHandler(mockService, zerolog.Nop())
	router := setupConversationTestRouter(handler)

	body, _ := json.Marshal(map[string]string{"user_prompt": "rewritten", "editing_id": "turn-7"})
	req, _ := http.NewRequest("POST", "/v1/conversations/conv-123/prompts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", w.Code)
	}
	if gotEditing != "turn-7" {
		t.Errorf("Expected editing_id 'turn-7' forwarded, got %q", gotEditing)
	}
}

func TestConversationHandler_GetNotFound(t *testing.T) {
	mockService := &MockConversationService{
		GetConversationFunc: func(ctx context.Context, conversationID string) (*chat.Conversation, error) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
				"conversation not found", nil, "22222222-2222-4222-8222-222222222222")
		},
	}

	handler := handlers.NewConversationHandler(mockService, zerolog.Nop())
	router := setupConversationTestRouter(handler)

	req, _ := http.NewRequest("GET", "/v1/conversations/conv-missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestConversationHandler_ListRequiresUserID(t *testing.T) {
	handler := handlers.NewConversationHandler(&MockConversationService{}, zerolog.Nop())
	router := setupConversationTestRouter(handler)

	req, _ := http.NewRequest("GET", "/v1/conversations", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without user_id, got %d", w.Code)
	}
}

func TestConversationHandler_Delete(t *testing.T) {
	var deleted string
	mockService := &MockConversationService{
		DeleteConversationFunc: func(ctx context.Context, conversationID string) error {
			deleted = conversationID
			return nil
		},
	}

	handler := handlers.NewConversationHandler(mockService, zerolog.Nop())
	router := setupConversationTestRouter(handler)

	req, _ := http.NewRequest("DELETE", "/v1/conversations/conv-123", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if deleted != "conv-123" {
		t.Errorf("Expected conv-123 deleted, got %q", deleted)
	}
}

func TestConversationHandler_BeginEdit(t *testing.T) {
	mockService := &MockConversationService{
		BeginEditFunc: func(ctx context.Context, conversationID, turnID string) error {
			return nil
		},
	}

	handler := handlers.NewConversationHandler(mockService, zerolog.Nop())
	router := setupConversationTestRouter(handler)

	body, _ := json.Marshal(map[string]string{"turn_id": "turn-3"})
	req, _ := http.NewRequest("POST", "/v1/conversations/conv-123/edits", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["editing_id"] != "turn-3" {
		t.Errorf("Expected editing_id 'turn-3', got %v", response["editing_id"])
	}
}
