package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/mattxslv/phoenix/internal/interfaces/httpserver/handlers"
)

func registerConversationRoutes(router gin.IRoutes, conversation *handlers.ConversationHandler, reveal *handlers.RevealHandler) {
	router.POST("/conversations", conversation.Create)
	router.GET("/conversations", conversation.List)
	router.GET("/conversations/:conversation_id", conversation.Get)
	router.DELETE("/conversations/:conversation_id", conversation.Delete)

	router.POST("/conversations/:conversation_id/prompts", conversation.Submit)
	router.POST("/conversations/:conversation_id/edits", conversation.BeginEdit)
	router.DELETE("/conversations/:conversation_id/edits", conversation.CancelEdit)

	router.GET("/conversations/:conversation_id/turns/:turn_id/reveal", reveal.Stream)
}
