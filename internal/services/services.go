package services

import (
	"time"

	"foodgram/internal/logger"
	"foodgram/internal/utils"

	"gorm.io/gorm"
)

// Services bundles the application services built on one store.
type Services struct {
	Users     *UserService
	Follows   *FollowService
	Favorites *FavoriteService
	Cart      *CartService
	List      *ShoppingListService
	Recipes   *RecipeService
	Catalog   *CatalogService
}

func New(conn *gorm.DB, log *logger.Logger, cache *utils.GlobalCache, cacheTTL time.Duration) *Services {
	return &Services{
		Users:     NewUserService(conn, log.With("service", "users")),
		Follows:   NewFollowService(conn, log.With("service", "follows")),
		Favorites: NewFavoriteService(conn, log.With("service", "favorites")),
		Cart:      NewCartService(conn, log.With("service", "cart")),
		List:      NewShoppingListService(conn, log.With("service", "shopping_list")),
		Recipes:   NewRecipeService(conn, log.With("service", "recipes")),
		Catalog:   NewCatalogService(conn, log.With("service", "catalog"), cache, cacheTTL),
	}
}
