package handlers

import (
	"net/http"

	"foodgram/internal/logger"
	"foodgram/internal/services"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves tags and ingredients.
type CatalogHandler struct {
	catalog *services.CatalogService
	log     *logger.Logger
}

func NewCatalogHandler(catalog *services.CatalogService, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, log: log.With("handler", "catalog")}
}

func (h *CatalogHandler) ListTags(c *gin.Context) {
	tags, err := h.catalog.Tags(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

func (h *CatalogHandler) GetTag(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	tag, err := h.catalog.Tag(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (h *CatalogHandler) CreateTag(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	var in services.TagInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	tag, err := h.catalog.CreateTag(c.Request.Context(), user, in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

// ListIngredients filters by exact ?name= when given.
func (h *CatalogHandler) ListIngredients(c *gin.Context) {
	ingredients, err := h.catalog.Ingredients(c.Request.Context(), c.Query("name"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ingredients)
}

func (h *CatalogHandler) GetIngredient(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ing, err := h.catalog.Ingredient(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ing)
}

func (h *CatalogHandler) CreateIngredient(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	var in services.IngredientInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	ing, err := h.catalog.CreateIngredient(c.Request.Context(), user, in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, ing)
}
