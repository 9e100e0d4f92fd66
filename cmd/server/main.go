// Entry point of the ticketing API server. Loads configuration, opens the
// database and Redis connections, wires repositories, services, handlers
// and middleware, starts the purchase queue consumer and serves HTTP.
package main

import (
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/boleteria/cinema-api/internal/config"
	"github.com/boleteria/cinema-api/internal/database"
	"github.com/boleteria/cinema-api/internal/handler"
	"github.com/boleteria/cinema-api/internal/queue"
	"github.com/boleteria/cinema-api/internal/repository"
	"github.com/boleteria/cinema-api/internal/router"
	"github.com/boleteria/cinema-api/internal/service"
)

func main() {
	// A missing .env is fine in deployed environments; variables come from
	// the process environment there.
	_ = godotenv.Load()

	cfg := config.Load()

	logrus.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Env == "dev" {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logrus.SetLevel(logrus.DebugLevel)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logrus.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()

	// Redis is optional; caching and rate limiting degrade to no-ops
	// without it.
	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	movies := repository.NewMovieRepo(db)
	cinemas := repository.NewCinemaRepo(db)
	functions := repository.NewFunctionRepo(db)
	cards := repository.NewCardRepo(db)
	tickets := repository.NewTicketRepo(db)

	ticketSvc := service.NewTicketService(db, functions, cards, tickets, movies)

	go queue.StartPurchaseConsumer()

	e := echo.New()
	e.HideBanner = true

	router.Register(e, router.Deps{
		Cfg:       cfg,
		RateCfg:   config.LoadRateLimitConfig(),
		CacheCfg:  config.LoadCacheConfig(),
		Redis:     rdb,
		Auth:      handler.NewAuthHandler(cfg, users, tokens),
		Tickets:   handler.NewTicketHandler(ticketSvc),
		Cards:     handler.NewCardHandler(cards),
		Functions: handler.NewFunctionHandler(functions, cinemas, movies),
		Cinemas:   handler.NewCinemaHandler(cinemas),
		Movies:    handler.NewMovieHandler(movies),
	})

	logrus.WithField("port", cfg.Port).Info("starting server")
	if err := e.Start(":" + cfg.Port); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}
