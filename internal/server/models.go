package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/modelhub/internal/core/extraction"
	"github.com/agenthands/modelhub/internal/core/model"
	"github.com/agenthands/modelhub/internal/store"
)

type CreateModelTypeRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ClientID    string `json:"clientId" binding:"omitempty,uuid"`
}

type CreateModelRequest struct {
	Name        string         `json:"name" binding:"required"`
	Description string         `json:"description"`
	Prompt      string         `json:"prompt"`
	ModelTypeID string         `json:"modelTypeId" binding:"required,uuid"`
	ClientID    string         `json:"clientId" binding:"required,uuid"`
	Data        map[string]any `json:"data"`
	Status      string         `json:"status" binding:"omitempty,oneof=active inactive"`
}

type ModelPage struct {
	Data  []model.Model `json:"data"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type ClientModelPage struct {
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
	Items  []model.Model `json:"items"`
}

type ExtractRequest struct {
	Transcripcion json.RawMessage `json:"transcripcion"`
	ConfigGlobal  map[string]any  `json:"config_global"`
}

func (s *Server) CreateModelType(c *gin.Context) {
	var req CreateModelTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid model type: "+err.Error())
		return
	}
	mt := &model.ModelType{Name: req.Name, Description: req.Description}
	if req.ClientID != "" {
		mt.ClientID = &req.ClientID
	}
	if err := s.Store.CreateModelType(c.Request.Context(), mt); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, mt)
}

func (s *Server) ListModelTypes(c *gin.Context) {
	var q model.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid pagination")
		return
	}
	types, total, err := s.Store.ListModelTypes(c.Request.Context(), q)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse[model.ModelType]{Data: types, Total: total})
}

func (s *Server) CreateModel(c *gin.Context) {
	var req CreateModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid model: "+err.Error())
		return
	}
	prompt := req.Prompt
	if prompt == "" {
		// older admin clients keep the prompt inside data
		prompt, _ = req.Data["prompt"].(string)
	}

	m := &model.Model{
		Name:        req.Name,
		Description: req.Description,
		Prompt:      prompt,
		Status:      model.ModelStatus(req.Status),
		Data:        req.Data,
		ClientID:    req.ClientID,
		ModelTypeID: req.ModelTypeID,
	}
	if err := s.Store.CreateModel(c.Request.Context(), m); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (s *Server) ListModels(c *gin.Context) {
	var q model.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid pagination")
		return
	}
	q = q.Normalize()
	models, total, err := s.Store.ListModels(c.Request.Context(), q)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ModelPage{Data: models, Total: total, Page: q.Page, Limit: q.Limit})
}

func (s *Server) GetModel(c *gin.Context) {
	m, err := s.Store.FindModelByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// parseClientModelQuery reads modelTypeId, search, limit, offset and
// sort=field:DIR.
func parseClientModelQuery(c *gin.Context, clientID string) (model.ClientModelQuery, bool) {
	q := model.ClientModelQuery{
		ClientID:    clientID,
		ModelTypeID: c.Query("modelTypeId"),
		Search:      c.Query("search"),
		Limit:       model.DefaultPageSize,
		SortField:   "createdAt",
		SortDesc:    true,
	}

	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return q, false
		}
		q.Limit = min(n, model.MaxPageSize)
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return q, false
		}
		q.Offset = n
	}
	if v := c.Query("sort"); v != "" {
		field, dir, _ := strings.Cut(v, ":")
		if _, ok := store.SortColumn(field); !ok {
			return q, false
		}
		q.SortField = field
		q.SortDesc = !strings.EqualFold(dir, "ASC")
	}
	return q, true
}

func (s *Server) ListClientModels(c *gin.Context) {
	client := CurrentClient(c)
	q, ok := parseClientModelQuery(c, client.ID)
	if !ok {
		badRequest(c, "invalid query: limit, offset or sort")
		return
	}
	items, total, err := s.Store.ListClientModels(c.Request.Context(), q)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ClientModelPage{Total: total, Limit: q.Limit, Offset: q.Offset, Items: items})
}

func (s *Server) GetClientModel(c *gin.Context) {
	m, err := s.Store.FindClientModel(c.Request.Context(), CurrentClient(c).ID, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// Extract runs the client's active models over a transcript. The request
// context is detached so a disconnecting caller does not abort the model
// calls or the log write.
func (s *Server) Extract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body: "+err.Error())
		return
	}
	if raw := strings.TrimSpace(string(req.Transcripcion)); raw == "" || raw == "null" {
		badRequest(c, "transcripcion is required")
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	result, err := s.Extractor.Extract(ctx, extraction.Request{
		ClientID:     CurrentClient(c).ID,
		Transcript:   req.Transcripcion,
		GlobalConfig: req.ConfigGlobal,
		AudioSource:  c.Query("audio_source"),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
