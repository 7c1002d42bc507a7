package handlers

import (
	"encoding/csv"
	"net/http"
	"strconv"

	"foodgram/internal/logger"
	"foodgram/internal/services"

	"github.com/gin-gonic/gin"
)

type CartHandler struct {
	cart    *services.CartService
	list    *services.ShoppingListService
	recipes *services.RecipeService
	log     *logger.Logger
}

func NewCartHandler(cart *services.CartService, list *services.ShoppingListService, recipes *services.RecipeService, log *logger.Logger) *CartHandler {
	return &CartHandler{cart: cart, list: list, recipes: recipes, log: log.With("handler", "cart")}
}

// Add 加入购物车, answers with the recipe in short form.
func (h *CartHandler) Add(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	recipeID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.cart.AddToCart(c.Request.Context(), user.ID, recipeID); err != nil {
		writeError(c, h.log, err)
		return
	}
	recipe, err := h.recipes.Get(c.Request.Context(), user.ID, recipeID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, services.RecipeShort{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       recipe.Image,
		CookingTime: recipe.CookingTime,
	})
}

func (h *CartHandler) Remove(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	recipeID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.cart.RemoveFromCart(c.Request.Context(), user.ID, recipeID); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Download sends the shopping list as a CSV attachment of
// name,measurement_unit,amount rows, or as a printable page with ?format=html.
func (h *CartHandler) Download(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	rows, err := h.list.Export(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	if c.Query("format") == "html" {
		c.HTML(http.StatusOK, shoppingListTemplate, gin.H{"User": user, "Rows": rows})
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="shopping_list.csv"`)
	c.Status(http.StatusOK)
	w := csv.NewWriter(c.Writer)
	for _, row := range rows {
		if err := w.Write([]string{row.Name, row.MeasurementUnit, strconv.Itoa(row.Amount)}); err != nil {
			h.log.Error("Write shopping list", "user_id", user.ID, "error", err)
			return
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		h.log.Error("Flush shopping list", "user_id", user.ID, "error", err)
	}
}
