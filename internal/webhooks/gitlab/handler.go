// Package gitlab authenticates GitLab webhook deliveries and relays them as
// browser notifications.
package gitlab

import (
	"crypto/subtle"
	"io"
	"log/slog"
	"net/http"

	gitlabclient "gitlab.com/gitlab-org/api/client-go"
)

const (
	// TokenHeader carries the shared webhook secret.
	TokenHeader     = "X-Gitlab-Token"
	maxPayloadBytes = 1 << 20
)

// Handler authenticates and processes GitLab webhook requests.
type Handler struct {
	secret  string
	relay   *Relay
	log     *slog.Logger
	metrics webhookMetrics
}

// NewHandler constructs a webhook handler bound to one shared secret.
func NewHandler(secret string, relay *Relay, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		secret:  secret,
		relay:   relay,
		log:     log,
		metrics: newWebhookMetrics(),
	}
}

// Handle checks the token before reading the body. Once authenticated the
// delivery is always acknowledged with 200, whatever processing yields.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	eventType := string(gitlabclient.HookEventType(r))
	h.metrics.recordRequest(ctx, eventType)

	if !h.authenticated(r.Header.Get(TokenHeader)) {
		h.metrics.recordRejected(ctx, "token")
		h.log.WarnContext(ctx, "Webhook rejected", "reason", "token mismatch", "event_type", eventType)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		h.log.WarnContext(ctx, "Webhook body read failed", "event_type", eventType, "error", err)
		h.metrics.recordOutcome(ctx, "unknown", OutcomeFailed)
		return writeAck(w)
	}

	event, err := Decode(body)
	if err != nil {
		h.log.WarnContext(ctx, "Webhook decode failed", "event_type", eventType, "error", err)
		h.metrics.recordOutcome(ctx, "unknown", OutcomeFailed)
		return writeAck(w)
	}

	h.relay.Process(ctx, event)
	return writeAck(w)
}

func (h *Handler) authenticated(token string) bool {
	if h.secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) == 1
}

func writeAck(w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, err := io.WriteString(w, `{"status":"ok"}`)
	return err
}
