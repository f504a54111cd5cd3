package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type GenerateTemplateRequest struct {
	Goal    string         `json:"goal" binding:"required"`
	Details map[string]any `json:"details"`
}

func (s *Server) GenerateTemplate(c *gin.Context) {
	var req GenerateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "goal is required")
		return
	}
	out, err := s.Generator.Generate(c.Request.Context(), req.Goal, req.Details)
	if err != nil {
		s.Logger.Warn("template generation failed", "error", err, "request_id", GetRequestID(c))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}
