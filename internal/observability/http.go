package observability

import (
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

// Routes that are never traced. /events is a long-lived stream whose span
// would only close on disconnect, and the OAuth callback carries the
// provider code in its query string.
var untracedRoutes = map[string]struct{}{
	"/healthz":                 {},
	"/favicon.ico":             {},
	"/events":                  {},
	"/auth/:provider/callback": {},
}

// Embedded stylesheets and scripts.
var assetPrefixes = []string{"/public/css/", "/public/js/"}

// EchoMiddleware returns the unified HTTP tracing middleware.
func EchoMiddleware() echo.MiddlewareFunc {
	return otelecho.Middleware("issuedash", otelecho.WithSkipper(traceSkipper))
}

// EchoSpanEnrichmentMiddleware adds request attributes to the active root span.
// Issue routes also get the issue iid so upstream spans and logs can be joined.
func EchoSpanEnrichmentMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := WithRequestMetadata(c.Request().Context(), c.Response().Header().Get(echo.HeaderXRequestID), resolvedRoute(c))
			if iid := strings.TrimSpace(c.Param("iid")); iid != "" {
				ctx = WithIssueIID(ctx, iid)
			}
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)

			ctx = WithRequestMetadata(c.Request().Context(), c.Response().Header().Get(echo.HeaderXRequestID), resolvedRoute(c))
			c.SetRequest(c.Request().WithContext(ctx))
			return err
		}
	}
}

func traceSkipper(c echo.Context) bool {
	if _, ok := untracedRoutes[strings.TrimSpace(c.Path())]; ok {
		return true
	}

	// Static files resolve to the catch-all route, so match the raw path.
	requestPath := strings.TrimSpace(c.Request().URL.Path)
	if requestPath == "" {
		return false
	}
	if _, ok := untracedRoutes[requestPath]; ok {
		return true
	}
	if isOAuthCallback(requestPath) {
		return true
	}
	for _, prefix := range assetPrefixes {
		if strings.HasPrefix(requestPath, prefix) {
			return true
		}
	}

	switch strings.ToLower(path.Ext(requestPath)) {
	case ".css", ".js", ".map", ".png", ".svg", ".ico", ".woff2":
		return true
	default:
		return false
	}
}

// isOAuthCallback matches /auth/<provider>/callback before routing resolves it.
func isOAuthCallback(requestPath string) bool {
	parts := strings.Split(strings.Trim(requestPath, "/"), "/")
	return len(parts) == 3 && parts[0] == "auth" && parts[2] == "callback"
}

func resolvedRoute(c echo.Context) string {
	route := strings.TrimSpace(c.Path())
	if route != "" {
		return route
	}
	return strings.TrimSpace(c.Request().URL.Path)
}
