// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/boleteria/cinema-api/internal/config"
	"github.com/boleteria/cinema-api/internal/handler"
	"github.com/boleteria/cinema-api/internal/middleware"
)

// Deps carries everything Register needs to mount the API.
type Deps struct {
	Cfg       config.Config
	RateCfg   config.RateLimitConfig
	CacheCfg  config.CacheConfig
	Redis     *redis.Client
	Auth      *handler.AuthHandler
	Tickets   *handler.TicketHandler
	Cards     *handler.CardHandler
	Functions *handler.FunctionHandler
	Cinemas   *handler.CinemaHandler
	Movies    *handler.MovieHandler
}

// Register mounts all routes on the given echo instance.
func Register(e *echo.Echo, d Deps) {
	e.Use(middleware.NewTokenBucket(d.RateCfg, d.Redis))

	e.GET("/healthz", handler.Health)

	// Public auth endpoints.
	auth := e.Group("/v1/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/refresh-access", d.Auth.RefreshAccess)
	auth.POST("/logout", d.Auth.Logout)

	// Everything below requires a valid access token.
	v1 := e.Group("/v1", middleware.JWTAuth(d.Cfg.JWTSecret))
	v1.GET("/auth/me", d.Auth.Me)

	cache := middleware.ResponseCache(d.CacheCfg, d.Redis)

	// Catalog reads are open to both roles; writes are admin-only.
	anyRole := middleware.RequireRole("ADMIN", "CLIENT")
	adminOnly := middleware.RequireRole("ADMIN")
	clientOnly := middleware.RequireRole("CLIENT")

	movies := v1.Group("/movies", anyRole)
	movies.GET("", d.Movies.List, cache)
	movies.GET("/:id", d.Movies.Get, cache)
	movies.POST("", d.Movies.Create, adminOnly)
	movies.PUT("/:id", d.Movies.Update, adminOnly)
	movies.DELETE("/:id", d.Movies.Delete, adminOnly)

	cinemas := v1.Group("/cinemas", anyRole)
	cinemas.GET("", d.Cinemas.List, cache)
	cinemas.GET("/:id", d.Cinemas.Get, cache)
	cinemas.POST("", d.Cinemas.CreateBatch, adminOnly)
	cinemas.PUT("/:id", d.Cinemas.Update, adminOnly)
	cinemas.DELETE("/:id", d.Cinemas.Delete, adminOnly)

	functions := v1.Group("/functions", anyRole)
	functions.GET("", d.Functions.List, cache)
	functions.GET("/:id", d.Functions.Get)
	functions.GET("/movie/:movieId/available", d.Functions.ListAvailableByMovie)
	functions.GET("/screen-type/:type", d.Functions.ListByScreenType, cache)
	functions.POST("", d.Functions.CreateBatch, adminOnly)
	functions.PUT("/:id", d.Functions.Update, adminOnly)
	functions.DELETE("/:id", d.Functions.Delete, adminOnly)

	// Tickets and the payment card belong to the purchasing client.
	tickets := v1.Group("/tickets", clientOnly)
	tickets.POST("", d.Tickets.Buy)
	tickets.GET("", d.Tickets.ListMine)
	tickets.GET("/:id", d.Tickets.Get)

	card := v1.Group("/card", clientOnly)
	card.POST("", d.Cards.Create)
	card.GET("", d.Cards.Get)
	card.GET("/balance", d.Cards.Balance)
	card.PUT("", d.Cards.Update)
	card.PATCH("/recharge", d.Cards.Recharge)
	card.DELETE("", d.Cards.Delete)
}
