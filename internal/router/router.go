package router

import (
	"foodgram/internal/handlers"
	"foodgram/internal/logger"
	"foodgram/internal/middleware"
	"foodgram/internal/models"
	"foodgram/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterValidators adds the custom binding rules used by request structs.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return services.ValidSlug(fl.Field().String())
	})
}

// RegisterRoutes mounts the JSON API under /api and /metrics. Sessions and
// LoadUser must already be installed on r. authGuards run in front of the
// signup and login endpoints only.
func RegisterRoutes(r *gin.Engine, svc *services.Services, log *logger.Logger, authGuards ...gin.HandlerFunc) {
	// Handlers
	authHandler := handlers.NewAuthHandler(svc.Users, log)
	userHandler := handlers.NewUserHandler(svc.Users, svc.Follows, log)
	recipeHandler := handlers.NewRecipeHandler(svc.Recipes, log)
	cartHandler := handlers.NewCartHandler(svc.Cart, svc.List, svc.Recipes, log)
	favoriteHandler := handlers.NewFavoriteHandler(svc.Favorites, log)
	catalogHandler := handlers.NewCatalogHandler(svc.Catalog, log)
	adminHandler := handlers.NewAdminHandler(svc.List, log)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	// 公共路由 (Public Routes)
	auth := api.Group("/auth", authGuards...)
	{
		auth.POST("/signup", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}
	api.POST("/auth/logout", authHandler.Logout)

	api.GET("/tags", catalogHandler.ListTags)
	api.GET("/tags/:id", catalogHandler.GetTag)
	api.GET("/ingredients", catalogHandler.ListIngredients)
	api.GET("/ingredients/:id", catalogHandler.GetIngredient)

	api.GET("/recipes", recipeHandler.List)
	api.GET("/recipes/:id", recipeHandler.Detail)
	api.GET("/users/:id", userHandler.Profile)

	// 受保护路由 (Protected Routes)
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/users/me", userHandler.Me)
		authorized.DELETE("/users/me", userHandler.DeleteMe)
		authorized.POST("/users/set_password", userHandler.SetPassword)
		authorized.GET("/users/subscriptions", userHandler.Subscriptions)
		authorized.POST("/users/:id/subscribe", userHandler.Subscribe)
		authorized.DELETE("/users/:id/subscribe", userHandler.Unsubscribe)

		authorized.POST("/recipes", recipeHandler.Create)
		authorized.PATCH("/recipes/:id", recipeHandler.Update)
		authorized.DELETE("/recipes/:id", recipeHandler.Delete)

		authorized.GET("/recipes/download_shopping_cart", cartHandler.Download)
		authorized.POST("/recipes/:id/shopping_cart", cartHandler.Add)
		authorized.DELETE("/recipes/:id/shopping_cart", cartHandler.Remove)
		authorized.POST("/recipes/:id/favorite", favoriteHandler.Add)
		authorized.DELETE("/recipes/:id/favorite", favoriteHandler.Remove)
	}

	catalog := api.Group("")
	catalog.Use(middleware.RequireCapability(models.CapManageCatalog))
	{
		catalog.POST("/tags", catalogHandler.CreateTag)
		catalog.POST("/ingredients", catalogHandler.CreateIngredient)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.RequireCapability(models.CapReconcileAggregates))
	{
		admin.GET("/users/:id/shopping_list/verify", adminHandler.VerifyShoppingList)
		admin.POST("/users/:id/shopping_list/reconcile", adminHandler.ReconcileShoppingList)
	}
}
