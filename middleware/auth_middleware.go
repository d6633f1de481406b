package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"
	"voice-campaign-api/application/ports/outbound"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ContextUserIDKey = "userID"
	ContextScopesKey = "scopes"
)

// publicPaths skip token checks. The provider cannot present a bearer token
// on status callbacks; those are covered by the signature middleware.
var publicPaths = map[string]bool{
	"/health":       true,
	"/calls/status": true,
}

type CustomClaims struct {
	jwt.RegisteredClaims
	Scopes string `json:"scope,omitempty"`
}

type AuthHandler interface {
	AuthMiddleware() gin.HandlerFunc
}

type authHandler struct {
	keyfunc jwt.Keyfunc
}

func NewAuthHandler(jwksURL string, logger outbound.LoggerPort) (AuthHandler, error) {
	options := keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			logger.Error(err, "There was an error with the jwt.Keyfunc")
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}

	jwks, err := keyfunc.Get(jwksURL, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS from %s: %w", jwksURL, err)
	}

	return &authHandler{keyfunc: jwks.Keyfunc}, nil
}

func newAuthHandlerWithKeyfunc(kf jwt.Keyfunc) AuthHandler {
	return &authHandler{keyfunc: kf}
}

func (h *authHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if publicPaths[c.Request.URL.Path] {
			c.Next()
			return
		}
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			return
		}

		tokenString = strings.TrimPrefix(tokenString, "Bearer ")

		var claims CustomClaims
		token, err := jwt.ParseWithClaims(tokenString, &claims, h.keyfunc)
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextUserIDKey, claims.Subject)
		c.Set(ContextScopesKey, strings.Fields(claims.Scopes))

		c.Next()
	}
}
