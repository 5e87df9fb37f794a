package api

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Router wires the HTTP surface onto an Echo engine.
type Router struct {
	echo     *echo.Echo
	handlers *Handlers
}

// NewRouter builds a Router with the standard middleware stack and
// every route registered.
func NewRouter(handlers *Handlers) *Router {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	r := &Router{echo: e, handlers: handlers}
	r.registerRoutes()
	return r
}

func (r *Router) registerRoutes() {
	r.echo.GET("/api/health", r.handlers.Health)

	scheduleGroup := r.echo.Group("/api/schedules")
	scheduleGroup.POST("/solve", r.handlers.SolveSync)
	scheduleGroup.POST("/solve/async", r.handlers.SolveAsync)
	scheduleGroup.GET("/:id", r.handlers.GetSchedule)
}

// Start runs the HTTP server, blocking until it stops.
func (r *Router) Start(addr string) error {
	return r.echo.Start(addr)
}

// Shutdown drains in-flight requests and stops the HTTP server, or
// forces a close once ctx expires.
func (r *Router) Shutdown(ctx context.Context) error {
	return r.echo.Shutdown(ctx)
}
