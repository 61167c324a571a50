package server

import (
	"time"

	"backend-tourtrack/internal/auth"
	"backend-tourtrack/internal/config"
	"backend-tourtrack/internal/job"
	"backend-tourtrack/internal/routing"
	"backend-tourtrack/internal/stream"
	"backend-tourtrack/internal/tracking"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Stream   *stream.Hub
	Registry *tracking.Registry
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:      app,
		Cfg:      cfg,
		DB:       db,
		Redis:    redisClient,
		Stream:   stream.NewHub(redisClient),
		Registry: tracking.NewRegistry(redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	router := routing.NewClient(s.Cfg.OSRMBaseURL, time.Duration(s.Cfg.RoutingTimeoutSec)*time.Second)
	trackingSvc := tracking.NewService(s.DB, s.Stream, s.Registry, router)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))
	job.RegisterRoutes(s.App.Group("/jobs"), job.NewService(s.DB, s.Stream), jwtMiddleware)
	tracking.RegisterRoutes(s.App.Group("/tracking"), trackingSvc, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, trackingSvc)
}
