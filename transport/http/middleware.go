package http

import (
	"crypto/ecdsa"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultAudience is the audience claim the marketplace auth service
// stamps on tokens intended for this relay.
const DefaultAudience = "marketplace:access"

// AuthMiddleware creates middleware that validates the marketplace's
// bearer tokens and places the caller's identity in the context. The
// marketplace auth service mints the tokens; this relay only verifies.
// Tokens minted for other services carry a different audience and are
// rejected.
func AuthMiddleware(publicKey *ecdsa.PublicKey, audience string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")

		// Check if the Authorization header is present and in correct format
		if len(auth) < 8 || auth[:7] != "Bearer " {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}

		token, err := jwt.Parse(auth[7:], func(token *jwt.Token) (interface{}, error) {
			// Validate the signing method
			if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return publicKey, nil
		}, jwt.WithAudience(audience))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		subject, err := token.Claims.GetSubject()
		if err != nil || subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token subject"})
			return
		}

		// Set the caller identity in the context
		c.Set("identity", subject)

		c.Next()
	}
}
