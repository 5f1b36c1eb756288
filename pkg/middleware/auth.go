package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/richxcame/engraving-commerce/pkg/common"
)

const (
	userIDKey   = "user_id"
	userRoleKey = "user_role"
)

// Claims are the JWT claims issued by the storefront auth service.
// Subject carries the customer (or admin user) id.
type Claims struct {
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// AuthMiddleware requires a valid HS256 bearer token
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseBearer(c.GetHeader("Authorization"), secret)
		if err != nil {
			common.ErrorResponse(c, http.StatusUnauthorized, err.Error())
			c.Abort()
			return
		}

		c.Set(userIDKey, claims.Subject)
		c.Set(userRoleKey, claims.Role)
		c.Next()
	}
}

// RequireRole rejects authenticated callers whose role is not in roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetUserRole(c)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		common.ErrorResponse(c, http.StatusForbidden, "insufficient permissions")
		c.Abort()
	}
}

func parseBearer(header, secret string) (*Claims, error) {
	if header == "" {
		return nil, errors.New("authorization header required")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return nil, errors.New("invalid authorization header format")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// GetUserID returns the authenticated subject
func GetUserID(c *gin.Context) (string, bool) {
	id := c.GetString(userIDKey)
	return id, id != ""
}

// GetUserRole returns the authenticated role
func GetUserRole(c *gin.Context) string {
	return c.GetString(userRoleKey)
}

// ResolveCustomerID returns the customer a store request acts for. An empty
// requested id means the caller; a different id is only allowed for adminRole.
func ResolveCustomerID(c *gin.Context, requested, adminRole string) (string, *common.AppError) {
	userID, ok := GetUserID(c)
	if !ok {
		return "", common.NewUnauthorizedError("unauthorized")
	}
	if requested == "" || requested == userID {
		return userID, nil
	}
	if adminRole != "" && GetUserRole(c) == adminRole {
		return requested, nil
	}
	return "", common.NewForbiddenError("cannot act on behalf of another customer")
}
