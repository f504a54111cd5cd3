package server

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agenthands/modelhub/internal/auth"
	"github.com/agenthands/modelhub/internal/core/model"
	"github.com/agenthands/modelhub/internal/logger"
	"github.com/agenthands/modelhub/internal/store"
)

const (
	ctxRequestID = "request_id"
	ctxAdminID   = "admin_id"
	ctxClient    = "client"
)

// RequestID propagates X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		c.Set(ctxRequestID, requestID)
		withValue(c, logger.RequestIDKey, requestID)
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}

func withValue(c *gin.Context, key logger.ContextKey, value string) {
	c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), key, value))
}

// Recovery turns panics into a 500 with the request id.
func Recovery(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				requestID := GetRequestID(c)
				log.Error("panic recovered",
					"error", err,
					"request_id", requestID,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":      "internal server error",
					"request_id": requestID,
				})
			}
		}()
		c.Next()
	}
}

// RequestLogger writes one access log line per request.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"status", status,
			"method", c.Request.Method,
			"path", path,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"request_id", GetRequestID(c),
		}
		if client := CurrentClient(c); client != nil {
			attrs = append(attrs, "client_id", client.ID)
		}

		switch {
		case status >= 500:
			log.Error("request completed", attrs...)
		case status >= 400:
			log.Warn("request completed", attrs...)
		default:
			log.Info("request completed", attrs...)
		}
	}
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

// JWTAuth accepts admin access tokens as "Authorization: Bearer <token>".
func JWTAuth(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			unauthorized(c, "authorization header required")
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			unauthorized(c, "invalid authorization header format")
			return
		}

		claims, err := issuer.ParseAccess(token)
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}
		c.Set(ctxAdminID, claims.Subject)
		withValue(c, logger.AdminIDKey, claims.Subject)
		c.Next()
	}
}

func GetAdminID(c *gin.Context) string {
	return c.GetString(ctxAdminID)
}

// BasicAuth authenticates an active client with its Basic credentials.
func BasicAuth(clients store.ClientRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="modelhub"`)
			unauthorized(c, "basic credentials required")
			return
		}

		client, err := clients.FindClientByBasicUsername(c.Request.Context(), username)
		if err != nil || !client.IsActive || !auth.CheckPassword(client.BasicPasswordHash, password) {
			c.Header("WWW-Authenticate", `Basic realm="modelhub"`)
			unauthorized(c, "invalid credentials")
			return
		}
		c.Set(ctxClient, client)
		withValue(c, logger.ClientIDKey, client.ID)
		c.Next()
	}
}

// CurrentClient returns the client set by BasicAuth, or nil.
func CurrentClient(c *gin.Context) *model.Client {
	if v, ok := c.Get(ctxClient); ok {
		if client, ok := v.(*model.Client); ok {
			return client
		}
	}
	return nil
}
