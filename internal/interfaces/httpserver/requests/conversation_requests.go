package requests

// CreateConversationRequest opens a conversation from its first prompt.
type CreateConversationRequest struct {
	UserID     string `json:"user_id" binding:"required"`
	UserPrompt string `json:"user_prompt" binding:"required"`
}

// SubmitPromptRequest submits a prompt against an existing conversation.
// EditingID, when set, commits an edit of that turn instead of appending.
type SubmitPromptRequest struct {
	UserPrompt string `json:"user_prompt" binding:"required"`
	EditingID  string `json:"editing_id,omitempty"`
}

// BeginEditRequest opens an edit on a turn.
type BeginEditRequest struct {
	TurnID string `json:"turn_id" binding:"required"`
}
