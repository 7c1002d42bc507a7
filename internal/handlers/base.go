package handlers

import (
	"errors"
	"net/http"
	"unicode"
	"unicode/utf8"

	"foodgram/internal/logger"
	"foodgram/internal/middleware"
	"foodgram/internal/models"
	"foodgram/internal/services"
	"foodgram/internal/utils"

	"github.com/gin-gonic/gin"
)

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrAggregateConsistency):
		return http.StatusInternalServerError
	case errors.Is(err, services.ErrDuplicateRelation),
		errors.Is(err, services.ErrRelationNotFound),
		errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrEntityNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the error's status. Internal failures are logged and
// never echoed to the client.
func writeError(c *gin.Context, log *logger.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		log.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(status, gin.H{"message": "internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"message": msg(err)})
}

func msg(err error) string {
	if err == nil {
		return ""
	}
	s := err.Error()
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": msg(err)})
}

// mustUser returns the signed in user. Routes using it sit behind
// AuthRequired, so a missing user is answered with 401 and false.
func mustUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "authentication credentials were not provided"})
	}
	return user, ok
}

// viewerID is the signed in user's id, or 0 for anonymous visitors.
func viewerID(c *gin.Context) uint {
	if user, ok := middleware.CurrentUser(c); ok {
		return user.ID
	}
	return 0
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Not found"})
	}
	return id, ok
}

func recipesLimit(c *gin.Context) int {
	if n := utils.StringToInt(c.Query("recipes_limit")); n > 0 {
		return n
	}
	return services.DefaultRecipesLimit
}
