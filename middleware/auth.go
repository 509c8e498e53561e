package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/models"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/utils"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
)

// Context keys set by AuthMiddleware.
const (
	ContextUser    = "user"
	ContextUserID  = "userID"
	ContextIsAdmin = "isAdmin"

	// SessionUserKey is the session value holding the signed-in user id.
	SessionUserKey = "user_id"
)

// UserFinder loads the user behind a token or session.
type UserFinder interface {
	FindUser(ctx context.Context, userID uint) (*models.User, error)
}

// AuthMiddleware accepts either a bearer JWT or a session cookie carrying the
// user id, and rejects blocked users.
func AuthMiddleware(secret string, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.LogDebug("AuthMiddleware called")

		userID, err := userIDFromRequest(c, secret)
		if err != nil {
			utils.LogError("Authentication failed: %v", err)
			utils.Unauthorized(c, "Please login for access")
			c.Abort()
			return
		}

		user, err := users.FindUser(c.Request.Context(), userID)
		if err != nil {
			utils.LogError("User not found: %v", err)
			utils.Unauthorized(c, "User not found")
			c.Abort()
			return
		}

		if user.IsBlocked {
			utils.LogError("Blocked user attempted access: %d", userID)
			utils.Forbidden(c, "Account is blocked")
			c.Abort()
			return
		}

		c.Set(ContextUser, *user)
		c.Set(ContextUserID, user.ID)
		c.Set(ContextIsAdmin, user.IsAdmin)
		utils.LogDebug("User %d authenticated successfully", userID)
		c.Next()
	}
}

func userIDFromRequest(c *gin.Context, secret string) (uint, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return 0, fmt.Errorf("invalid bearer token format")
		}
		return userIDFromToken(tokenString, secret)
	}

	session := sessions.Default(c)
	switch v := session.Get(SessionUserKey).(type) {
	case uint:
		return v, nil
	case int:
		if v > 0 {
			return uint(v), nil
		}
	case int64:
		if v > 0 {
			return uint(v), nil
		}
	}
	return 0, fmt.Errorf("no bearer token or session")
}

func userIDFromToken(tokenString, secret string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return 0, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return 0, fmt.Errorf("token validation failed")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("invalid token claims")
	}
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return 0, fmt.Errorf("user id not found in token claims")
	}
	return uint(id), nil
}

// IssueToken signs a token for userID valid for ttl.
func IssueToken(secret string, userID uint, isAdmin bool, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  userID,
		"is_admin": isAdmin,
		"exp":      time.Now().Add(ttl).Unix(),
		"iat":      time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// AdminMiddleware must run after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.LogDebug("AdminMiddleware called")

		user, exists := c.Get(ContextUser)
		if !exists {
			utils.LogError("User not found in context")
			utils.Unauthorized(c, "User not found in context")
			c.Abort()
			return
		}

		userModel, ok := user.(models.User)
		if !ok {
			utils.LogError("Invalid user type in context")
			utils.InternalServerError(c, "Invalid user type", nil)
			c.Abort()
			return
		}

		if !userModel.IsAdmin {
			utils.LogError("Non-admin user attempted admin access: %d", userModel.ID)
			utils.Forbidden(c, "Admin access required")
			c.Abort()
			return
		}

		utils.LogDebug("Admin access granted for user %d", userModel.ID)
		c.Next()
	}
}
