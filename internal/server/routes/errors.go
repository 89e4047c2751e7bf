package routes

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fr0stylo/issuedash/internal/app/domain"
	"github.com/fr0stylo/issuedash/views/pages"
)

const genericErrorMessage = "Something went wrong"

// NewHTTPErrorHandler maps handler errors onto status codes and renders them
// as JSON or as the error page, depending on the client.
func NewHTTPErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	if log == nil {
		log = slog.Default()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		ctx := c.Request().Context()

		var verrs domain.ValidationErrors
		if errors.As(err, &verrs) {
			writeError(c, log, http.StatusBadRequest, map[string]any{"errors": verrs}, "Invalid request")
			return
		}

		status, message := classify(err)
		if status >= http.StatusInternalServerError {
			log.ErrorContext(ctx, "Request failed", "method", c.Request().Method, "path", c.Request().URL.Path, "status", status, "error", err)
		} else {
			log.DebugContext(ctx, "Request rejected", "method", c.Request().Method, "path", c.Request().URL.Path, "status", status, "error", err)
		}
		writeError(c, log, status, map[string]string{"error": message}, message)
	}
}

func classify(err error) (int, string) {
	if errors.Is(err, domain.ErrUnauthenticated) {
		return http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized)
	}
	var upstream *domain.UpstreamAPIError
	if errors.As(err, &upstream) {
		status := upstream.HTTPStatus()
		if status == http.StatusNotFound {
			return status, "Issue not found"
		}
		if status >= http.StatusInternalServerError {
			return status, genericErrorMessage
		}
		return status, http.StatusText(status)
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Code >= http.StatusInternalServerError {
			return httpErr.Code, genericErrorMessage
		}
		return httpErr.Code, http.StatusText(httpErr.Code)
	}
	return http.StatusInternalServerError, genericErrorMessage
}

func writeError(c echo.Context, log *slog.Logger, status int, body any, message string) {
	var err error
	switch {
	case c.Request().Method == http.MethodHead:
		err = c.NoContent(status)
	case wantsJSON(c):
		err = c.JSON(status, body)
	default:
		err = c.Render(status, "", pages.Error(layoutFor(c), status, message))
	}
	if err != nil {
		log.ErrorContext(c.Request().Context(), "Write error response failed", "status", status, "error", err)
	}
}
