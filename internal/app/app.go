// Package app assembles the HTTP application from its dependencies.
package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"eshop/internal/config"
	"eshop/internal/handlers"
	"eshop/internal/metrics"
	"eshop/internal/middleware"
	"eshop/internal/repositories"
	"eshop/internal/services"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

// EventBus publishes catalog events and reports broker connectivity.
type EventBus interface {
	services.EventPublisher
	Connected() bool
}

// Deps are the collaborators of the application. Events may be nil.
type Deps struct {
	Config *config.Config
	Store  *repositories.Store
	Events EventBus
	Logger *logrus.Logger
}

// App is the assembled application.
type App struct {
	Fiber          *fiber.App
	AuthService    *services.AuthService
	ProductService *services.ProductService
}

// NewApp wires services, handlers and middleware into a Fiber application.
func NewApp(deps Deps) (*App, error) {
	if deps.Config == nil || deps.Store == nil {
		return nil, errors.New("app: config and store are required")
	}
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	cfg := deps.Config

	var publisher services.EventPublisher
	if deps.Events != nil {
		publisher = deps.Events
	}

	authService := services.NewAuthService(deps.Store.Users, services.AuthConfig{
		Secret:     cfg.JWTSecret,
		TokenTTL:   cfg.JWTExpire,
		BcryptCost: cfg.BcryptCost,
	}, log)
	productService := services.NewProductService(deps.Store.Products, publisher, log)

	fiberApp := fiber.New(fiber.Config{
		AppName:               "eshop",
		ErrorHandler:          handlers.ErrorHandler(log),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		DisableStartupMessage: true,
	})

	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New(logger.Config{Output: log.Out}))
	if len(cfg.CORSOrigins) > 0 {
		fiberApp.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(cfg.CORSOrigins, ","),
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
			AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		}))
	}
	fiberApp.Use(metrics.Middleware())

	fiberApp.Get("/health", healthHandler(deps))
	fiberApp.Get("/metrics", metrics.Handler())

	var loginLimiter fiber.Handler
	if cfg.LoginRateLimit > 0 {
		loginLimiter = middleware.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateBurst, log).Handler()
	}

	api := fiberApp.Group("/api")
	handlers.NewAuthHandler(authService, loginLimiter).RegisterRoutes(api)
	handlers.NewProductHandler(productService, middleware.AuthRequired(authService)).RegisterRoutes(api)

	fiberApp.Use(handlers.NotFound)

	return &App{
		Fiber:          fiberApp,
		AuthService:    authService,
		ProductService: productService,
	}, nil
}

func healthHandler(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := fiber.StatusOK
		body := fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"store":  deps.Store.Driver,
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := deps.Store.Ping(ctx); err != nil {
			status = fiber.StatusServiceUnavailable
			body["status"] = "unhealthy"
			body["database"] = "unreachable"
		} else {
			body["database"] = "up"
		}

		switch {
		case deps.Events == nil:
			body["events"] = "disabled"
		case deps.Events.Connected():
			body["events"] = "connected"
		default:
			body["events"] = "disconnected"
		}
		return c.Status(status).JSON(body)
	}
}
