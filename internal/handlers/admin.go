package handlers

import (
	"net/http"

	"foodgram/internal/logger"
	"foodgram/internal/services"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes shopping list audits. Routes sit behind
// RequireCapability(CapReconcileAggregates).
type AdminHandler struct {
	list *services.ShoppingListService
	log  *logger.Logger
}

func NewAdminHandler(list *services.ShoppingListService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{list: list, log: log.With("handler", "admin")}
}

func (h *AdminHandler) VerifyShoppingList(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}
	drift, err := h.list.Verify(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "consistent": len(drift) == 0, "drift": drift})
}

func (h *AdminHandler) ReconcileShoppingList(c *gin.Context) {
	actor, ok := mustUser(c)
	if !ok {
		return
	}
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}
	drift, err := h.list.Reconcile(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	h.log.Info("Shopping list reconciled", "user_id", userID, "actor_id", actor.ID, "repaired", len(drift))
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "repaired": drift})
}
