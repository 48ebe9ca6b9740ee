package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/hits/carschool/docs"
	"github.com/hits/carschool/internal/api/handler"
	"github.com/hits/carschool/internal/api/metrics"
	"github.com/hits/carschool/internal/api/middleware"
	"github.com/hits/carschool/internal/core/ports"
	"github.com/hits/carschool/internal/core/security"
)

// Dependencies are the services the HTTP layer is built on.
type Dependencies struct {
	AuthService    ports.AuthService
	UserService    ports.UserService
	ChannelService ports.ChannelService
	PostService    ports.PostService
	Authenticator  middleware.Authenticator
	Policy         *security.Policy
	Readiness      map[string]handler.DependencyCheck
	Log            zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	policy := deps.Policy
	if policy == nil {
		policy = security.DefaultPolicy()
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(metrics.Middleware())
	e.Use(middleware.Auth(deps.Authenticator, deps.Log))
	e.Use(middleware.Enforce(policy))

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.AuthService)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/refresh", authHandler.Refresh)

	// --- User routes ---
	// Static segments are registered next to /users/:id; echo prefers them.
	users := handler.NewUserHandler(deps.UserService)
	e.POST("/users", users.Create)
	e.GET("/users", users.List)
	e.GET("/users/profile", users.Profile)
	e.PATCH("/users/change-password", users.ChangePassword)
	e.GET("/users/:id", users.Get)
	e.PUT("/users/:id", users.Update)
	e.DELETE("/users/:id", users.Delete)
	e.PATCH("/users/:id/activate", users.Activate)
	e.PATCH("/users/:id/deactivate", users.Deactivate)
	e.PATCH("/users/:id/change-role", users.ChangeRoles)
	e.POST("/users/:id/add-role", users.AddRole)
	e.POST("/users/:id/remove-role", users.RemoveRole)

	// --- Channel routes ---
	channels := handler.NewChannelHandler(deps.ChannelService)
	e.GET("/channel", channels.Mine)
	e.POST("/channel/create", channels.Create)
	e.GET("/channel/:id", channels.Get)
	e.GET("/channel/user/:id", channels.ListByUser)
	e.PATCH("/channel/update/:id", channels.Update)
	e.DELETE("/channel/delete/:id", channels.Delete)

	// --- Post routes ---
	posts := handler.NewPostHandler(deps.PostService)
	e.POST("/posts", posts.Create)
	e.GET("/posts/tasks", posts.Tasks)
	e.GET("/posts/channel/:channelId", posts.ListByChannel)
	e.GET("/posts/:postId", posts.Get)
	e.DELETE("/posts/:postId", posts.Delete)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Readiness)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability ---
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger writes one access log line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogRoutePath: true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error()
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("route", v.RoutePath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
