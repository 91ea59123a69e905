package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/userhub/internal/logger"
	"github.com/dtroode/userhub/internal/model"
)

// Authenticator resolves the acting principal from a bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.Principal, error)
}

// Authenticate validates bearer tokens and stores the principal in the request context.
type Authenticate struct {
	authenticator  Authenticator
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(authenticator Authenticator, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{authenticator: authenticator, contextManager: contextManager, logger: logger}
}

// Handle rejects requests without a valid access token.
func (m *Authenticate) Handle(c *gin.Context) {
	tokenString := bearerToken(c.GetHeader("Authorization"))
	if tokenString == "" {
		abort(c, http.StatusUnauthorized, "unauthorized", "missing authorization token")
		return
	}

	principal, err := m.authenticator.Authenticate(c.Request.Context(), tokenString)
	if err != nil {
		m.logger.Debug("Authenticate middleware: token rejected", "path", c.FullPath(), "error", err.Error())
		abort(c, http.StatusUnauthorized, "unauthorized", "invalid authorization token")
		return
	}

	c.Request = c.Request.WithContext(m.contextManager.SetPrincipalToContext(c.Request.Context(), principal))
	c.Next()
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
