package renderer

import (
	"fmt"
	"io"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Renderer implements Echo's render interface for templ components.
type Renderer struct{}

// Render writes a templ component to the response writer. The template name is
// ignored; the component carries its own markup.
func (t *Renderer) Render(w io.Writer, _ string, data interface{}, c echo.Context) error {
	tc, ok := data.(templ.Component)
	if !ok {
		return fmt.Errorf("renderer: expected templ.Component, got %T", data)
	}

	return tc.Render(c.Request().Context(), w)
}
