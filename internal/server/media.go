package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	mediadomain "github.com/courtsidehq/courtside/internal/media/domain"
)

func (s *Server) PresignMediaUpload(c *gin.Context) {
	var req mediadomain.PresignUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.mediaSvc.PresignUpload(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PresignMediaDownload(c *gin.Context) {
	key := strings.TrimSpace(c.Query("key"))
	if key == "" {
		AbortWithError(c, newValidationError("key", "required", "key is required"))
		return
	}

	resp, err := s.mediaSvc.PresignDownload(c.Request.Context(), key)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SearchMedia(c *gin.Context) {
	var req mediadomain.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.mediaSvc.Search(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteMedia(c *gin.Context) {
	key := strings.TrimSpace(c.Query("key"))
	if key == "" {
		AbortWithError(c, newValidationError("key", "required", "key is required"))
		return
	}

	if err := s.mediaSvc.Delete(c.Request.Context(), key); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
