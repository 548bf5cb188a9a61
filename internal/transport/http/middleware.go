package httptransport

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chopchop-server-go/internal/domain/session"
	"chopchop-server-go/internal/platform/logging"
)

// EmailKey is the gin context key the auth middleware sets for downstream
// handlers.
const EmailKey = "email"

// AuthMiddleware validates the session token on every request and stores the
// owning email in the gin context.
func AuthMiddleware(sessions *session.Manager, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			RespondError(c, http.StatusUnauthorized, "missing session token", nil)
			c.Abort()
			return
		}

		email, ok, err := sessions.Validate(c.Request.Context(), token)
		if err != nil {
			logger.ErrorTag("AUTH", "session lookup failed: %v", err)
			RespondError(c, http.StatusInternalServerError, "session lookup failed", nil)
			c.Abort()
			return
		}
		if !ok {
			RespondError(c, http.StatusUnauthorized, "invalid or expired session", nil)
			c.Abort()
			return
		}

		c.Set(EmailKey, email)
		c.Next()
	}
}

// SessionEmail returns the authenticated email set by AuthMiddleware.
func SessionEmail(c *gin.Context) string {
	return c.GetString(EmailKey)
}

func bearerToken(c *gin.Context) string {
	if token := c.GetHeader("Token"); token != "" {
		return token
	}
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(auth[len("Bearer "):])
	}
	return strings.TrimSpace(auth)
}
