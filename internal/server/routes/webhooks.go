package routes

import (
	"github.com/labstack/echo/v4"

	gitlabwebhook "github.com/fr0stylo/issuedash/internal/webhooks/gitlab"
)

// WebhookPath is the GitLab webhook endpoint. It is exempt from CSRF.
const WebhookPath = "/webhook"

// WebhookRoutes registers the GitLab webhook endpoint.
type WebhookRoutes struct {
	gitlab *gitlabwebhook.Handler
}

// NewWebhookRoutes constructs webhook routes.
func NewWebhookRoutes(handler *gitlabwebhook.Handler) *WebhookRoutes {
	return &WebhookRoutes{gitlab: handler}
}

// RegisterRoutes registers webhook endpoints.
func (w *WebhookRoutes) RegisterRoutes(s *echo.Echo) {
	s.POST(WebhookPath, w.handleGitLabWebhook)
}

func (w *WebhookRoutes) handleGitLabWebhook(c echo.Context) error {
	return w.gitlab.Handle(c.Response(), c.Request())
}
