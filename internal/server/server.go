package server

import (
	"context"
	"io/fs"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"

	"github.com/fr0stylo/issuedash/internal/observability"
	"github.com/fr0stylo/issuedash/internal/renderer"
	"github.com/fr0stylo/issuedash/internal/server/routes"
)

// RouteRegister registers Echo routes.
type RouteRegister interface {
	RegisterRoutes(s *echo.Echo)
}

// Server holds the Echo instance.
type Server struct {
	e *echo.Echo
}

// New creates a server with the shared middleware stack. publicFS is served
// under /public.
func New(log *slog.Logger, publicFS fs.FS) *Server {
	e := echo.New()

	e.Renderer = &renderer.Renderer{}
	e.HTTPErrorHandler = routes.NewHTTPErrorHandler(log)
	e.HideBanner = true
	e.HidePort = true

	e.Pre(middleware.MethodOverrideWithConfig(middleware.MethodOverrideConfig{
		Getter: middleware.MethodFromForm("_method"),
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(observability.EchoMiddleware())
	e.Use(observability.EchoSpanEnrichmentMiddleware())
	e.Use(slogecho.New(log))
	// The webhook handler authenticates before reading and caps the payload
	// itself, so an unauthenticated delivery is refused regardless of size.
	e.Use(middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
		Limit:   "1M",
		Skipper: isWebhook,
	}))
	e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup: "header:X-CSRF-Token,form:_csrf",
		Skipper:     isWebhook,
	}))

	e.StaticFS("/", publicFS)

	return &Server{
		e: e,
	}
}

func isWebhook(c echo.Context) bool {
	return c.Path() == routes.WebhookPath
}

// RegisterRouter attaches a route registrar.
func (s *Server) RegisterRouter(r RouteRegister) {
	r.RegisterRoutes(s.e)
}

// Handler exposes the configured Echo instance.
func (s *Server) Handler() *echo.Echo {
	return s.e
}

// Start runs the HTTP server.
func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
