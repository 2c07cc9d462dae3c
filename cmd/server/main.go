package main

import (
	"log"
	"net/http"

	_ "authgate/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"authgate/internal/auth"
	"authgate/internal/cache"
	"authgate/internal/config"
	"authgate/internal/db"
	"authgate/internal/handler"
	"authgate/internal/repository"
	"authgate/internal/router"
	"authgate/internal/service"
)

// @title Authgate API
// @version 1.0
// @description Authentication and session-control service with local credentials and Google sign-in.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.
func main() {
	cfg := config.Load()

	e := echo.New()
	e.Use(middleware.RequestID())

	// The database connects lazily, on the first request that needs it.
	// Migration runs inside the provider on the first successful connect.
	provider := db.NewProvider(cfg.MySQLDSN)
	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	userRepo := repository.NewUserRepository(provider)

	jwtService := auth.NewJWTService(cfg.AuthSecret)
	stateStore := auth.NewStateStore(cacheClient)

	authService := service.NewAuthService(userRepo, jwtService)
	oauthService := service.NewOAuthService(cfg.GoogleID, cfg.GoogleSecret, cfg.BaseURL, userRepo, jwtService)

	authHandler := handler.NewAuthHandler(authService, jwtService)
	oauthHandler := handler.NewOAuthHandler(oauthService, stateStore)
	pageHandler := handler.NewPageHandler()

	router.Register(e, cfg, jwtService, authHandler, oauthHandler, pageHandler)

	if cfg.GoogleID == "" || cfg.GoogleSecret == "" {
		log.Println("GOOGLE_ID/GOOGLE_SECRET not set, Google sign-in will fail")
	}

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
