package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	assistantdomain "github.com/courtsidehq/courtside/internal/assistant/domain"
)

func (s *Server) CreateConversation(c *gin.Context) {
	var req assistantdomain.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.assistantSvc.CreateConversation(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListConversations(c *gin.Context) {
	var req assistantdomain.ListConversationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.assistantSvc.ListConversations(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetConversationByID(c *gin.Context) {
	resp, err := s.assistantSvc.GetConversation(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteConversation(c *gin.Context) {
	if err := s.assistantSvc.DeleteConversation(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ChatWithAssistant(c *gin.Context) {
	var req assistantdomain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ConversationID = strings.TrimSpace(c.Param("id"))

	resp, err := s.assistantSvc.Chat(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
