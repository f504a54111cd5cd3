package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/modelhub/internal/core/model"
	"github.com/agenthands/modelhub/internal/export"
)

const exportLimit = 10000

func logLimit(c *gin.Context) (int, bool) {
	v := c.Query("limit")
	if v == "" {
		return model.DefaultLogLimit, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func (s *Server) writeLogs(c *gin.Context, clientID string) {
	limit, ok := logLimit(c)
	if !ok {
		badRequest(c, "invalid limit")
		return
	}
	logs, err := s.Store.ListLogs(c.Request.Context(), clientID, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (s *Server) writeStats(c *gin.Context, clientID string) {
	stats, err := s.Store.LogStats(c.Request.Context(), clientID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func requireClientID(c *gin.Context) (string, bool) {
	id := c.Query("clientId")
	if id == "" {
		badRequest(c, "clientId is required")
		return "", false
	}
	return id, true
}

func (s *Server) AdminLogs(c *gin.Context) {
	if id, ok := requireClientID(c); ok {
		s.writeLogs(c, id)
	}
}

func (s *Server) AdminLogStats(c *gin.Context) {
	if id, ok := requireClientID(c); ok {
		s.writeStats(c, id)
	}
}

func (s *Server) ClientLogs(c *gin.Context) {
	s.writeLogs(c, CurrentClient(c).ID)
}

func (s *Server) ClientLogStats(c *gin.Context) {
	s.writeStats(c, CurrentClient(c).ID)
}

// ExportLogs downloads a client's most recent logs as an XLSX workbook.
func (s *Server) ExportLogs(c *gin.Context) {
	clientID, ok := requireClientID(c)
	if !ok {
		return
	}
	logs, err := s.Store.ListLogs(c.Request.Context(), clientID, exportLimit)
	if err != nil {
		s.fail(c, err)
		return
	}
	data, err := export.LogsXLSX(logs)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="extraction-logs-%s.xlsx"`, clientID))
	c.Data(http.StatusOK, export.ContentType, data)
}
