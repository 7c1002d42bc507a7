package services_test

import (
	"testing"
	"time"

	"foodgram/internal/db/dbtest"
	"foodgram/internal/logger"
	"foodgram/internal/models"
	"foodgram/internal/services"
	"foodgram/internal/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type env struct {
	db        *gorm.DB
	cart      *services.CartService
	list      *services.ShoppingListService
	favorites *services.FavoriteService
	follows   *services.FollowService
	recipes   *services.RecipeService
	users     *services.UserService
	catalog   *services.CatalogService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	conn := dbtest.DB(t)
	log := logger.Nop()
	cache, err := utils.NewCache(64)
	require.NoError(t, err)
	return &env{
		db:        conn,
		cart:      services.NewCartService(conn, log),
		list:      services.NewShoppingListService(conn, log),
		favorites: services.NewFavoriteService(conn, log),
		follows:   services.NewFollowService(conn, log),
		recipes:   services.NewRecipeService(conn, log),
		users:     services.NewUserService(conn, log),
		catalog:   services.NewCatalogService(conn, log, cache, time.Minute),
	}
}

// aggregate returns the user's shopping list keyed by ingredient name.
func (e *env) aggregate(t *testing.T, userID uint) map[string]int {
	t.Helper()
	var items []models.ShoppingListItem
	require.NoError(t, e.db.Preload("Ingredient").Where("user_id = ?", userID).Find(&items).Error)
	out := make(map[string]int, len(items))
	for _, it := range items {
		out[it.Ingredient.Name] = it.Amount
	}
	return out
}

func (e *env) countRows(t *testing.T, model interface{}, where string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Where(where, args...).Count(&n).Error)
	return n
}

func (e *env) makeAdmin(t *testing.T, u *models.User) {
	t.Helper()
	require.NoError(t, e.db.Model(u).Update("role", models.RoleAdmin).Error)
	u.Role = models.RoleAdmin
}
