package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/studyroom/seat-tracker/config"
	"github.com/studyroom/seat-tracker/internal/catalog"
	"github.com/studyroom/seat-tracker/internal/consumer"
	"github.com/studyroom/seat-tracker/internal/handler"
	"github.com/studyroom/seat-tracker/internal/middleware"
	"github.com/studyroom/seat-tracker/internal/repository"
	"github.com/studyroom/seat-tracker/internal/service"
	"github.com/studyroom/seat-tracker/internal/sweeper"
	"github.com/studyroom/seat-tracker/pkg/database"
	"github.com/studyroom/seat-tracker/pkg/rabbitmq"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// Stores: a JSON data file or a relational database
	var (
		reservations repository.ReservationStore
		students     repository.StudentRepository
		buckets      repository.BucketRepository
		audit        repository.AuditRepository
	)
	if cfg.Relational() {
		db, err := database.Open(cfg.StoreBackend, cfg.DSN())
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		reservations = repository.NewGormReservationStore(db)
		students = repository.NewGormStudentRepository(db)
		buckets = repository.NewGormBucketRepository(db)
		audit = repository.NewAuditRepository(db)
	} else {
		fs, err := repository.OpenFileStore(cfg.DataFile)
		if err != nil {
			log.Fatalf("failed to open data file: %v", err)
		}
		reservations, students, buckets = fs, fs, fs
	}

	if cfg.StudentsFile != "" {
		list, err := repository.LoadStudentsFile(cfg.StudentsFile)
		if err != nil {
			log.Fatalf("failed to load students: %v", err)
		}
		if _, err := repository.ImportStudents(ctx, students, list, bcrypt.DefaultCost); err != nil {
			log.Fatalf("failed to import students: %v", err)
		}
	}

	// Capacity catalog: seed once, then read back what the store holds
	seed := catalog.DefaultBuckets()
	if cfg.CatalogFile != "" {
		fromFile, err := catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			log.Fatalf("failed to load catalog: %v", err)
		}
		seed = fromFile
	}
	if err := buckets.SeedBuckets(ctx, seed); err != nil {
		log.Fatalf("failed to seed seat buckets: %v", err)
	}
	stored, err := buckets.ListBuckets(ctx)
	if err != nil {
		log.Fatalf("failed to list seat buckets: %v", err)
	}
	cat, err := catalog.New(stored)
	if err != nil {
		log.Fatalf("invalid seat catalog: %v", err)
	}
	log.Printf("loaded %d seat buckets (backend=%s, ttl=%s, verify_password=%t)",
		cat.Len(), cfg.StoreBackend, cfg.SessionTTL, cfg.VerifyPassword)

	// RabbitMQ: publish reservation lifecycle events, audit them when a database is present
	var publisher service.EventPublisher
	if cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL)
		if err != nil {
			log.Fatalf("failed to connect to RabbitMQ: %v", err)
		}
		defer pub.Close()
		publisher = pub

		if audit != nil {
			mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, rabbitmq.AuditQueueName)
			if err != nil {
				log.Fatalf("failed to connect to RabbitMQ: %v", err)
			}
			defer mqConsumer.Close()

			msgs, err := mqConsumer.Consume()
			if err != nil {
				log.Fatalf("failed to start consuming: %v", err)
			}
			consumer.NewAuditConsumer(audit).Start(msgs)
		}
	}

	// Service
	svc := service.NewReservationService(reservations, students, cat, sweeper.New(reservations, cfg.SessionTTL), service.Options{
		VerifyPassword: cfg.VerifyPassword,
		Publisher:      publisher,
	})

	// Rate limiting for login: shared through Redis when available
	var loginMw []echo.MiddlewareFunc
	if cfg.RateLimit {
		var limiter middleware.Limiter = middleware.NewLocalLimiter(cfg.RateLimitEvery, cfg.RateLimitBurst)
		if rdb := middleware.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); rdb != nil {
			defer rdb.Close()
			limiter = middleware.NewRedisLimiter(rdb, cfg.RateLimitEvery, cfg.RateLimitBurst)
		}
		loginMw = append(loginMw, middleware.RateLimit(limiter))
	}

	// Echo
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.IPExtractor = middleware.ClientIPExtractor(cfg.TrustProxy)
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "seat-tracker"})
	})

	api := e.Group("/api")
	handler.NewReservationHandler(svc).RegisterRoutes(api, loginMw...)
	handler.NewAdminHandler(svc, audit, handler.AdminConfig{
		Password: cfg.AdminPassword,
		Secret:   cfg.AdminJWTSecret,
		TokenTTL: cfg.AdminTokenTTL,
	}).RegisterRoutes(api.Group("/admin"), middleware.AdminAuth(cfg.AdminJWTSecret))

	log.Printf("Seat tracker starting on :%s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
