package main

import (
	"fmt"
	"log"

	"foodgram/internal/config"
	"foodgram/internal/db"
	"foodgram/internal/handlers"
	"foodgram/internal/logger"
	"foodgram/internal/middleware"
	"foodgram/internal/router"
	"foodgram/internal/services"
	"foodgram/internal/utils"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLog.Sync()

	// Initialize Database
	if err := db.Init(cfg.DatabaseURL, appLog); err != nil {
		appLog.Fatal("Database init failed", "error", err)
	}

	utils.InitCache(cfg.CatalogCacheSize)
	svc := services.New(db.DB, appLog, utils.GetCache(), cfg.CatalogCacheTTL)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := router.RegisterValidators(); err != nil {
		appLog.Fatal("Failed to register validators", "error", err)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		appLog.Fatal("Invalid trusted proxies", "error", err)
	}
	r.Use(gin.Recovery(), middleware.RequestLogger(appLog))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(middleware.CORS(cfg.CORSOrigins))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// Setup Sessions
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 3600,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
	})
	r.Use(sessions.Sessions("foodgram_session", store))

	renderer, err := handlers.LoadTemplates()
	if err != nil {
		appLog.Fatal("Failed to load templates", "error", err)
	}
	r.HTMLRender = renderer

	r.Use(middleware.LoadUser(svc.Users))
	router.RegisterRoutes(r, svc, appLog, middleware.RateLimit(cfg.AuthRatePerMinute, cfg.AuthRateBurst))

	addr := fmt.Sprintf(":%d", cfg.Port)
	appLog.Info("Foodgram server starting", "addr", addr, "mode", cfg.LogMode)
	if err := r.Run(addr); err != nil {
		appLog.Fatal("Server stopped", "error", err)
	}
}
