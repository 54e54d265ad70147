package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mattxslv/phoenix/internal/domain/chat"
	"github.com/mattxslv/phoenix/internal/interfaces/httpserver/requests"
	"github.com/mattxslv/phoenix/internal/interfaces/httpserver/responses"
	"github.com/mattxslv/phoenix/internal/utils/platformerrors"
)

// ConversationService is what the handler needs from the submission
// controller.
type ConversationService interface {
	StartConversation(ctx context.Context, userID, prompt string) (*chat.Conversation, *chat.Turn, error)
	SubmitPrompt(ctx context.Context, conversationID, prompt, editingTurnID string) (*chat.Turn, error)
	BeginEdit(ctx context.Context, conversationID, turnID string) error
	CancelEdit(conversationID string)
	Turns(ctx context.Context, conversationID string) ([]*chat.Turn, error)
	GetConversation(ctx context.Context, conversationID string) (*chat.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]*chat.Conversation, error)
	DeleteConversation(ctx context.Context, conversationID string) error
}

// ConversationHandler exposes HTTP entrypoints for conversations and turns.
type ConversationHandler struct {
	service ConversationService
	log     zerolog.Logger
}

// NewConversationHandler constructs the handler.
func NewConversationHandler(service ConversationService, log zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: service,
		log:     log.With().Str("handler", "conversation").Logger(),
	}
}

// Create handles POST /v1/conversations
func (h *ConversationHandler) Create(c *gin.Context) {
	var req requests.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body", "1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f")
		return
	}

	conv, turn, err := h.service.StartConversation(c.Request.Context(), req.UserID, req.UserPrompt)
	if err != nil {
		responses.HandleError(c, err, "failed to start conversation")
		return
	}

	c.JSON(http.StatusCreated, responses.ConversationDetailPayload{
		Conversation: responses.FromConversation(conv),
		Turns:        responses.FromTurns([]*chat.Turn{turn}),
	})
}

// List handles GET /v1/conversations?user_id=...
func (h *ConversationHandler) List(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "user_id is required", "2d3e4f5a-6b7c-4d8e-9f0a-1b2c3d4e5f6a")
		return
	}

	convs, err := h.service.ListConversations(c.Request.Context(), userID)
	if err != nil {
		responses.HandleError(c, err, "failed to list conversations")
		return
	}

	payloads := make([]responses.ConversationPayload, 0, len(convs))
	for _, conv := range convs {
		payloads = append(payloads, responses.FromConversation(conv))
	}
	c.JSON(http.StatusOK, responses.ConversationListResponse{Data: payloads})
}

// Get handles GET /v1/conversations/:conversation_id
func (h *ConversationHandler) Get(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	conv, err := h.service.GetConversation(c.Request.Context(), conversationID)
	if err != nil {
		responses.HandleError(c, err, "failed to get conversation")
		return
	}
	turns, err := h.service.Turns(c.Request.Context(), conversationID)
	if err != nil {
		responses.HandleError(c, err, "failed to load turns")
		return
	}

	c.JSON(http.StatusOK, responses.ConversationDetailPayload{
		Conversation: responses.FromConversation(conv),
		Turns:        responses.FromTurns(turns),
	})
}

// Delete handles DELETE /v1/conversations/:conversation_id
func (h *ConversationHandler) Delete(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	if err := h.service.DeleteConversation(c.Request.Context(), conversationID); err != nil {
		responses.HandleError(c, err, "failed to delete conversation")
		return
	}
	c.Status(http.StatusNoContent)
}

// Submit handles POST /v1/conversations/:conversation_id/prompts
func (h *ConversationHandler) Submit(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	var req requests.SubmitPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body", "3e4f5a6b-7c8d-4e9f-0a1b-2c3d4e5f6a7b")
		return
	}

	turn, err := h.service.SubmitPrompt(c.Request.Context(), conversationID, req.UserPrompt, req.EditingID)
	if err != nil {
		responses.HandleError(c, err, "failed to submit prompt")
		return
	}
	c.JSON(http.StatusCreated, responses.FromTurn(turn))
}

// BeginEdit handles POST /v1/conversations/:conversation_id/edits
func (h *ConversationHandler) BeginEdit(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	var req requests.BeginEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body", "4f5a6b7c-8d9e-4f0a-1b2c-3d4e5f6a7b8c")
		return
	}

	if err := h.service.BeginEdit(c.Request.Context(), conversationID, req.TurnID); err != nil {
		responses.HandleError(c, err, "failed to begin edit")
		return
	}
	c.JSON(http.StatusOK, gin.H{"editing_id": req.TurnID})
}

// CancelEdit handles DELETE /v1/conversations/:conversation_id/edits
func (h *ConversationHandler) CancelEdit(c *gin.Context) {
	h.service.CancelEdit(c.Param("conversation_id"))
	c.Status(http.StatusNoContent)
}
