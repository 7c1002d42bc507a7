package middleware

import (
	"context"
	"net/http"

	"foodgram/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const CheckUserKey = "user"

// SessionUserKey is the session field holding the signed in user's id.
const SessionUserKey = "user_id"

// UserFinder loads the session's user.
type UserFinder interface {
	Find(ctx context.Context, userID uint) (*models.User, error)
}

// LoadUser retrieves user from session and sets to context. A session
// pointing at a deleted user is cleared.
func LoadUser(users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if userID, ok := session.Get(SessionUserKey).(uint); ok {
			user, err := users.Find(c.Request.Context(), userID)
			if err == nil {
				c.Set(CheckUserKey, user)
			} else {
				session.Delete(SessionUserKey)
				_ = session.Save()
			}
		}
		c.Next()
	}
}

// CurrentUser returns the user LoadUser put in the context, if any.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(CheckUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// AuthRequired ensures a user is logged in
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "authentication credentials were not provided"})
			return
		}
		c.Next()
	}
}

// RequireCapability lets through only users whose role grants cap.
func RequireCapability(capability models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "authentication credentials were not provided"})
			return
		}
		if !user.Role.Can(capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "you do not have permission to perform this action"})
			return
		}
		c.Next()
	}
}
