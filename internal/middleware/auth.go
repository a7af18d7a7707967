package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jengzang/route-planner-go/pkg/response"
)

// RoleAdmin is the role claim required for maintenance endpoints
const RoleAdmin = "admin"

// Claims are the JWT claims accepted by the API
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ParseToken validates an HS256 token signed with secret
func ParseToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// RequireRole middleware rejects requests without a valid bearer token
// carrying role. The token subject is stored under "user".
func RequireRole(secret, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			response.Unauthorized(c, "Missing bearer token")
			return
		}

		claims, err := ParseToken(tokenString, secret)
		if err != nil {
			response.Unauthorized(c, "Invalid token")
			return
		}
		if claims.Role != role {
			response.Forbidden(c, "Insufficient permissions")
			return
		}

		c.Set("user", claims.Subject)
		c.Next()
	}
}
