package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"canaccesible/models"
	"canaccesible/pkg/config"
	tokenstore "canaccesible/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ContextUserIDKey = "current_user_id"
	ContextRoleKey   = "current_user_role"
	ContextJTIKey    = "current_jti"
)

// ParseToken validates a bearer token string and returns the subject user id,
// the role claim, and the jti. The role claim exists for the client's
// rendering decisions; authorization always re-checks it against this
// server-verified copy, never a client-side decode.
func ParseToken(tokenStr string) (userID string, role string, jti string, err error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		// only accept HMAC signing
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return []byte(config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return "", "", "", jwt.ErrTokenUnverifiable
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", "", jwt.ErrTokenInvalidClaims
	}

	jti, _ = claims["jti"].(string)
	if tokenstore.IsRevoked(jti) {
		return "", "", "", jwt.ErrTokenExpired
	}

	if sub, ok := claims["sub"].(string); ok {
		userID = sub
	} else if subf, ok := claims["sub"].(float64); ok {
		// jwt lib may parse numeric as float64
		userID = strconv.Itoa(int(subf))
	}
	if userID == "" {
		return "", "", "", jwt.ErrTokenInvalidSubject
	}

	role, _ = claims["role"].(string)
	if role == "" {
		role = models.RoleUser
	}
	return userID, role, jti, nil
}

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "missing authorization header"})
			return
		}
		parts := strings.Fields(auth)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid authorization header"})
			return
		}

		userID, role, jti, err := ParseToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid token"})
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Set(ContextRoleKey, role)
		c.Set(ContextJTIKey, jti)
		c.Next()
	}
}

// AdminOnly must run after AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(ContextRoleKey)
		if role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"msg": "admin only"})
			return
		}
		c.Next()
	}
}
