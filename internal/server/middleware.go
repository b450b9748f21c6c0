package server

import (
	"errors"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spigell/career-coach/internal/auth"
	"github.com/spigell/career-coach/internal/entitlements"
	"github.com/spigell/career-coach/internal/logger"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-Id"

	requestIDKey = "requestId"
	identityKey  = "identity"
	failureKey   = "failureBody"

	msgUnauthorized = "Unauthorized"
	msgUpgrade      = "Upgrade your subscription to use this feature"
)

// RequestID attaches a request id to the context and the response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// RequestIDFromContext fetches the id stored by RequestID.
func RequestIDFromContext(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// IdentityFromContext fetches the caller stored by Authenticate.
func IdentityFromContext(c *gin.Context) (auth.Identity, bool) {
	val, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := val.(auth.Identity)
	return id, ok
}

// requestLogger returns log enriched with the request id and caller.
func requestLogger(c *gin.Context, log *zap.Logger) *zap.Logger {
	identity, _ := IdentityFromContext(c)
	return logger.WithFields(log, logger.RequestFields(RequestIDFromContext(c), identity.Email, "")...)
}

// Logging emits a structured log per request.
func Logging(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		identity, _ := IdentityFromContext(c)
		fields := append(logger.RequestFields(RequestIDFromContext(c), identity.Email, ""),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
		if identity.UserID != "" {
			fields = append(fields, zap.String("user_id", identity.UserID))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			log.Error("request complete", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("request complete", fields...)
		default:
			log.Info("request complete", fields...)
		}
	}
}

// Recovery turns a panic into a 500. Handlers may register the body to send
// with setFailure.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				requestLogger(c, log).Error("panic",
					zap.Any("error", rec),
					zap.String("stack", string(debug.Stack())),
					zap.String("path", c.Request.URL.Path),
				)
				body, ok := c.Get(failureKey)
				if !ok {
					body = gin.H{"error": "Internal server error"}
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, body)
			}
		}()
		c.Next()
	}
}

func setFailure(c *gin.Context, body gin.H) {
	c.Set(failureKey, body)
}

// CORS sets CORS headers for allowed origins and answers preflight requests.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	origins := make(map[string]struct{})
	wildcard := false
	for _, o := range allowedOrigins {
		trimmed := strings.TrimSpace(o)
		if trimmed == "*" {
			wildcard = true
		}
		if trimmed != "" {
			origins[trimmed] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := origins[origin]; ok || wildcard {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Vary", "Origin")
				h.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-Id")
				h.Set("Access-Control-Expose-Headers", "X-Request-Id")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// BodyLimit caps request bodies at limit bytes.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// Authenticate requires a valid bearer token. A nil verifier lets every
// request through.
func Authenticate(verifier TokenVerifier, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			c.Next()
			return
		}

		token, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgUnauthorized})
			return
		}

		identity, err := verifier.Verify(token)
		if err != nil {
			requestLogger(c, log).Debug("rejecting token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgUnauthorized})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireEntitlement rejects callers whose subscription does not include the
// AI tools. A nil store lets every request through.
func RequireEntitlement(store entitlements.Store, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.Next()
			return
		}

		identity, ok := IdentityFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgUnauthorized})
			return
		}

		err := entitlements.Check(c.Request.Context(), store, identity.UserID)
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, entitlements.ErrNotEntitled):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msgUpgrade})
		default:
			requestLogger(c, log).Error("checking subscription", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to check subscription"})
		}
	}
}
