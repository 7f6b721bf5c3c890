package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-gradebook/internal/config"
	"github.com/noah-isme/gema-gradebook/internal/database"
	"github.com/noah-isme/gema-gradebook/internal/gradebook"
	"github.com/noah-isme/gema-gradebook/internal/handler"
	"github.com/noah-isme/gema-gradebook/internal/middleware"
	"github.com/noah-isme/gema-gradebook/internal/models"
	"github.com/noah-isme/gema-gradebook/internal/repository"
	"github.com/noah-isme/gema-gradebook/internal/router"
	"github.com/noah-isme/gema-gradebook/internal/service"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.IsDevelopment() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := db.AutoMigrate(&models.User{}, &models.Course{}, &models.CourseMember{}, &models.Unit{}, &models.Answer{}, &models.Mark{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	// redis and nats are optional: without them the gradebook is computed on every request
	// and change events stay on this node.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	courseRepo := repository.NewCourseRepository(db)
	unitRepo := repository.NewUnitRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	markRepo := repository.NewMarkRepository(db)
	userRepo := repository.NewUserRepository(db)

	gradebookService := service.NewGradebookService(courseRepo, redisClient, cfg.GradebookCacheTTL,
		gradebook.NewLocaleComparator(cfg.GradebookLocale), logger)
	events := service.NewGradebookEvents(redisClient, cfg.EventsChannel, natsConn, gradebookService, logger)
	gradingService := service.NewGradingService(answerRepo, markRepo, courseRepo, gradebookService, events, validate, logger)
	answerService := service.NewAnswerService(unitRepo, answerRepo, courseRepo, gradebookService, events, validate, logger)
	courseService := service.NewCourseService(courseRepo, unitRepo, userRepo, gradebookService, validate, logger)
	seedService := service.NewSeedService(courseRepo, validate, cfg.SeedEnabled, cfg.SeedToken, logger)

	checks := []handler.DependencyCheck{handler.DatabaseCheck(db)}
	if redisClient != nil {
		checks = append(checks, handler.RedisCheck(redisClient))
	}
	if natsConn != nil {
		checks = append(checks, handler.NATSCheck(natsConn))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	events.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: logger, AccessLog: cfg.IsDevelopment()})
	router.Register(app, cfg, router.Dependencies{
		CourseHandler:    handler.NewCourseHandler(courseService, logger),
		GradebookHandler: handler.NewGradebookHandler(gradebookService, events, logger, cfg.StreamKeepAlive),
		GradingHandler:   handler.NewGradingHandler(gradingService, logger),
		AnswerHandler:    handler.NewAnswerHandler(answerService, logger),
		SeedHandler:      handler.NewSeedHandler(seedService, logger),
		JWTMiddleware:    middleware.JWTProtected(cfg.JWTSecret),
		DependencyChecks: checks,
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Msg("gradebook api listening")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	shutdown(app, logger)
}

func shutdown(app *fiber.App, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
