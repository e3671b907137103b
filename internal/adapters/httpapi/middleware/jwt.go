package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

const (
	// TokenCookie is the cookie the login endpoint sets.
	TokenCookie = "token"

	principalKey = "userID"
)

// TokenParser turns a signed token into the id of the user it was issued for.
type TokenParser interface {
	ParseToken(token string) (uuid.UUID, error)
}

// JWTAuthMiddleware accepts the token from the cookie or from an Authorization bearer header
// and stores the authenticated user id in the gin context.
func JWTAuthMiddleware(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		// The cookie wins, but a stale one must not shadow a valid bearer header.
		for _, token := range tokensFrom(c) {
			userID, err := parser.ParseToken(token)
			if err == nil && userID != uuid.Nil {
				c.Set(principalKey, userID)
				c.Next()
				return
			}
		}
		abortUnauthenticated(c)
	}
}

// PrincipalFrom returns the user id stored by JWTAuthMiddleware.
func PrincipalFrom(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func tokensFrom(c *gin.Context) []string {
	var tokens []string
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie != "" {
		tokens = append(tokens, cookie)
	}
	header := c.GetHeader("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		if token = strings.TrimSpace(token); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   "authorization",
		"message": "user not authenticated",
	})
}
