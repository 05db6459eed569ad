package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"stagedoor/internal/auth"
	"stagedoor/internal/cache"
	"stagedoor/internal/logger"
	"stagedoor/internal/metrics"

	"github.com/gin-gonic/gin"
)

// CORS middleware for browser clients.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}

		c.Next()
	}
}

// RequestID tags every request with an id carried through the logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = logger.NewRequestID()
		}
		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// Logger middleware for structured request logging.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		logFields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", c.Writer.Status(),
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if p := auth.PrincipalFromContext(c.Request.Context()); p != nil {
			logFields = append(logFields, "actor", p.UID, "role", p.Role)
		}

		if c.Writer.Status() >= 400 {
			if len(c.Errors) > 0 {
				logFields = append(logFields, "error", c.Errors.String())
			}
			slog.Error("Request completed with error", logFields...)
		} else {
			slog.Debug("Request completed", logFields...)
		}
	}
}

// Recovery middleware logs panics and answers with a 500.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		slog.Error("PANIC recovered",
			"panic", recovered,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"client_ip", c.ClientIP(),
		)

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
	})
}

// Metrics records request counts and latency per route.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
		if c.Writer.Status() == http.StatusForbidden {
			m.ForbiddenTotal.Inc()
		}
	}
}

// Auth authenticates a bearer token, refuses revoked sessions and puts
// the freshly resolved principal on the request context. A deactivated
// account gets its session revoked right here.
func Auth(tokens *auth.TokenIssuer, sessions *cache.Client, resolver *auth.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		ctx := c.Request.Context()

		revoked, err := sessions.SessionRevoked(ctx, claims.ID)
		if err != nil {
			slog.Warn("Revocation check failed", "jti", claims.ID, "error", err)
		}
		if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session revoked"})
			return
		}

		principal, err := resolver.Resolve(ctx, claims.Subject, claims.Email)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve account"})
			return
		}
		if principal == nil {
			// Account deactivated: end the session for good.
			if claims.ExpiresAt != nil {
				if err := sessions.RevokeSession(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
					slog.Warn("Failed to revoke session of deactivated account", "jti", claims.ID, "error", err)
				}
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account deactivated"})
			return
		}

		ctx = auth.ContextWithPrincipal(ctx, principal)
		ctx = logger.ContextWithActor(ctx, principal.UID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// TokenClaims re-parses the request token. Used by logout, which needs
// the jti and expiry after Auth already validated the token.
func TokenClaims(c *gin.Context, tokens *auth.TokenIssuer) (*auth.Claims, error) {
	header := c.GetHeader("Authorization")
	tokenString, _ := strings.CutPrefix(header, "Bearer ")
	return tokens.Parse(tokenString)
}
