package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/modelhub/internal/auth"
	"github.com/agenthands/modelhub/internal/core/model"
)

type CreateClientRequest struct {
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
	ImageURL      string `json:"imageUrl"`
	BasicUsername string `json:"basicUsername" binding:"required,min=4"`
	BasicPassword string `json:"basicPassword" binding:"required,min=8"`
}

type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

func (s *Server) CreateClient(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid client: "+err.Error())
		return
	}

	hash, err := auth.HashPassword(req.BasicPassword)
	if err != nil {
		s.fail(c, err)
		return
	}
	client := &model.Client{
		Name:              req.Name,
		Description:       req.Description,
		ImageURL:          req.ImageURL,
		IsActive:          true,
		BasicUsername:     req.BasicUsername,
		BasicPasswordHash: hash,
	}
	if err := s.Store.CreateClient(c.Request.Context(), client); err != nil {
		s.fail(c, err)
		return
	}
	s.Logger.Info("client created", "client_id", client.ID, "admin_id", GetAdminID(c))
	c.JSON(http.StatusCreated, client)
}

func (s *Server) ListClients(c *gin.Context) {
	var q model.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid pagination")
		return
	}
	clients, total, err := s.Store.ListClients(c.Request.Context(), q)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse[model.Client]{Data: clients, Total: total})
}

func (s *Server) GetClient(c *gin.Context) {
	client, err := s.Store.FindClientByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

// ResetClientBasic rotates the client's Basic password and returns the new
// one. It is shown only once.
func (s *Server) ResetClientBasic(c *gin.Context) {
	ctx := c.Request.Context()
	client, err := s.Store.FindClientByID(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	password := auth.NewBasicPassword()
	hash, err := auth.HashPassword(password)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.Store.UpdateClientPassword(ctx, client.ID, hash); err != nil {
		s.fail(c, err)
		return
	}
	s.Logger.Info("client basic password rotated", "client_id", client.ID, "admin_id", GetAdminID(c))
	c.JSON(http.StatusOK, gin.H{"username": client.BasicUsername, "password": password})
}
