package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mattxslv/phoenix/internal/domain/chat"
	"github.com/mattxslv/phoenix/internal/utils/platformerrors"
)

// ErrorResponse represents an error response with platform error details
type ErrorResponse struct {
	Code          string `json:"code"` // UUID from PlatformError
	Error         string `json:"error"`
	Message       string `json:"message,omitempty"`
	ErrorInstance error  `json:"-"`
	RequestID     string `json:"request_id,omitempty"`
}

// HandleError handles domain errors and returns appropriate HTTP responses
func HandleError(reqCtx *gin.Context, err error, message string) {
	var domainErr *platformerrors.PlatformError
	if errors.As(err, &domainErr) {
		statusCode := platformerrors.ErrorTypeToHTTPStatus(domainErr.GetErrorType())

		reqCtx.AbortWithStatusJSON(statusCode, ErrorResponse{
			Code:          domainErr.GetUUID(),
			Error:         message,
			Message:       message,
			ErrorInstance: domainErr,
			RequestID:     domainErr.GetRequestID(),
		})
		return
	}
	// Non-platform errors
	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Error:         message,
		Message:       message,
		ErrorInstance: err,
	})
}

// HandleNewError creates a new typed error at the route layer and handles it
func HandleNewError(reqCtx *gin.Context, errorType platformerrors.ErrorType, message string, uuid string) {
	ctx := reqCtx.Request.Context()
	err := platformerrors.NewError(ctx, platformerrors.LayerRoute, errorType, message, nil, uuid)

	reqCtx.AbortWithStatusJSON(platformerrors.ErrorTypeToHTTPStatus(err.GetErrorType()), ErrorResponse{
		Code:          err.GetUUID(),
		Error:         message,
		Message:       message,
		ErrorInstance: err,
		RequestID:     err.GetRequestID(),
	})
}

// ConversationPayload is returned to clients.
type ConversationPayload struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	UserID    string `json:"user_id"`
	CreatedAt int64  `json:"created_at"`
}

// TurnPayload is one prompt/response turn as returned to clients.
type TurnPayload struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	Title          string `json:"title"`
	UserPrompt     string `json:"user_prompt"`
	AIResponse     string `json:"ai_response"`
	CreatedAt      int64  `json:"created_at"`
}

// ConversationDetailPayload pairs a conversation with its turns.
type ConversationDetailPayload struct {
	Conversation ConversationPayload `json:"conversation"`
	Turns        []TurnPayload       `json:"turns"`
}

// ConversationListResponse wraps the sidebar listing.
type ConversationListResponse struct {
	Data []ConversationPayload `json:"data"`
}

// FromConversation maps the domain conversation to its DTO.
func FromConversation(c *chat.Conversation) ConversationPayload {
	return ConversationPayload{
		ID:        c.ID,
		Title:     c.Title,
		UserID:    c.UserID,
		CreatedAt: c.CreatedAt.UnixMicro(),
	}
}

// FromTurn maps the domain turn to its DTO.
func FromTurn(t *chat.Turn) TurnPayload {
	return TurnPayload{
		ID:             t.ID,
		ConversationID: t.ConversationID,
		Title:          t.Title,
		UserPrompt:     t.UserPrompt,
		AIResponse:     t.AIResponse,
		CreatedAt:      t.CreatedAt.UnixMicro(),
	}
}

// FromTurns maps a turn slice.
func FromTurns(turns []*chat.Turn) []TurnPayload {
	payloads := make([]TurnPayload, 0, len(turns))
	for _, t := range turns {
		payloads = append(payloads, FromTurn(t))
	}
	return payloads
}
