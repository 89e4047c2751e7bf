package routes

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/fr0stylo/issuedash/views/pages"
)

func layoutFor(c echo.Context) pages.Layout {
	layout := pages.Layout{}
	if token, ok := c.Get("csrf").(string); ok {
		layout.CSRFToken = token
	}
	if user, ok := GetAuthUser(c); ok {
		layout.User = user.Username
	}
	return layout
}

func wantsJSON(c echo.Context) bool {
	req := c.Request()
	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return true
	}
	return strings.Contains(req.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}
