package handlers

import (
	"net/http"

	"foodgram/internal/logger"
	"foodgram/internal/services"
	"foodgram/internal/utils"

	"github.com/gin-gonic/gin"
)

type RecipeHandler struct {
	recipes *services.RecipeService
	log     *logger.Logger
}

func NewRecipeHandler(recipes *services.RecipeService, log *logger.Logger) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, log: log.With("handler", "recipe")}
}

// List supports ?author=, repeated ?tags=<slug>, ?is_favorited=1 and
// ?is_in_shopping_cart=1.
func (h *RecipeHandler) List(c *gin.Context) {
	filter := services.RecipeFilter{
		TagSlugs:         c.QueryArray("tags"),
		IsFavorited:      utils.ParseFlag(c.Query("is_favorited")),
		IsInShoppingCart: utils.ParseFlag(c.Query("is_in_shopping_cart")),
	}
	if author := c.Query("author"); author != "" {
		id, ok := utils.ParseID(author)
		if !ok {
			c.JSON(http.StatusOK, []services.RecipeView{})
			return
		}
		filter.AuthorID = id
	}
	recipes, err := h.recipes.List(c.Request.Context(), viewerID(c), filter)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

func (h *RecipeHandler) Detail(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	recipe, err := h.recipes.Get(c.Request.Context(), viewerID(c), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) Create(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	var in services.RecipeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	recipe, err := h.recipes.Create(c.Request.Context(), user.ID, in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) Update(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.RecipeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	recipe, err := h.recipes.Update(c.Request.Context(), user, id, in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) Delete(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.recipes.Delete(c.Request.Context(), user, id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
