package handlers

import (
	"net/http"

	"foodgram/internal/logger"
	"foodgram/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users   *services.UserService
	follows *services.FollowService
	log     *logger.Logger
}

func NewUserHandler(users *services.UserService, follows *services.FollowService, log *logger.Logger) *UserHandler {
	return &UserHandler{users: users, follows: follows, log: log.With("handler", "user")}
}

type setPasswordInput struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

// Me 当前登录用户
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	view, err := h.users.Profile(c.Request.Context(), user.ID, user.ID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) Profile(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	view, err := h.users.Profile(c.Request.Context(), viewerID(c), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	var in setPasswordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.users.SetPassword(c.Request.Context(), user.ID, in.CurrentPassword, in.NewPassword); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteMe removes the account and signs out.
func (h *UserHandler) DeleteMe(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), user.ID); err != nil {
		writeError(c, h.log, err)
		return
	}
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	subs, err := h.follows.Subscriptions(c.Request.Context(), user.ID, recipesLimit(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	authorID, ok := paramID(c, "id")
	if !ok {
		return
	}
	view, err := h.follows.Follow(c.Request.Context(), user.ID, authorID, recipesLimit(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	authorID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.follows.Unfollow(c.Request.Context(), user.ID, authorID); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
