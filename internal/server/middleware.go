package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hostelhq/mega-events/internal/authz"
)

const (
	headerRequestID     = "X-Request-ID"
	headerActorRole     = "X-Actor-Role"
	headerActorSubRole  = "X-Actor-Sub-Role"
	headerActorMaxValue = "X-Max-Approval-Amount"

	ctxKeyRequestID = "request_id"
)

// requestIDMiddleware assigns each request a uuid, reusing one forwarded
// by the gateway
func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(ctxKeyRequestID, requestID)
		c.Writer.Header().Set(headerRequestID, requestID)
		c.Next()
	}
}

// loggingMiddleware logs every HTTP request
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("request_id", c.GetString(ctxKeyRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// actorFromRequest builds the authorization context from the headers the
// upstream gateway resolves against the policy store. A blank ceiling
// header means the actor carries no approval limit.
func actorFromRequest(c *gin.Context) (authz.Actor, error) {
	actor := authz.Actor{
		Role:    c.GetHeader(headerActorRole),
		SubRole: c.GetHeader(headerActorSubRole),
	}
	if actor.Role == "" {
		return actor, fmt.Errorf("missing %s header", headerActorRole)
	}

	if raw := c.GetHeader(headerActorMaxValue); raw != "" {
		ceiling, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return actor, fmt.Errorf("invalid %s header: %q", headerActorMaxValue, raw)
		}
		actor.MaxApprovalAmount = &ceiling
	}
	return actor, nil
}

func abortBadActor(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   err.Error(),
	})
}
