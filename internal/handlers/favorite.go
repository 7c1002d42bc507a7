package handlers

import (
	"net/http"

	"foodgram/internal/logger"
	"foodgram/internal/services"

	"github.com/gin-gonic/gin"
)

type FavoriteHandler struct {
	favorites *services.FavoriteService
	log       *logger.Logger
}

func NewFavoriteHandler(favorites *services.FavoriteService, log *logger.Logger) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites, log: log.With("handler", "favorite")}
}

// Add 收藏
func (h *FavoriteHandler) Add(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	recipeID, ok := paramID(c, "id")
	if !ok {
		return
	}
	short, err := h.favorites.AddFavorite(c.Request.Context(), user.ID, recipeID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, short)
}

// Remove 取消收藏
func (h *FavoriteHandler) Remove(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	recipeID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.favorites.RemoveFavorite(c.Request.Context(), user.ID, recipeID); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
