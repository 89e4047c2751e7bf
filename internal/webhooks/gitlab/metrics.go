package gitlab

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type webhookMetrics struct {
	requests metric.Int64Counter
	rejected metric.Int64Counter
	outcome  metric.Int64Counter
}

func newWebhookMetrics() webhookMetrics {
	meter := otel.Meter("github.com/fr0stylo/issuedash/internal/webhooks/gitlab")
	requests, _ := meter.Int64Counter("issuedash.webhook.requests")
	rejected, _ := meter.Int64Counter("issuedash.webhook.rejected")
	outcome, _ := meter.Int64Counter("issuedash.webhook.outcome")
	return webhookMetrics{
		requests: requests,
		rejected: rejected,
		outcome:  outcome,
	}
}

func (m webhookMetrics) recordRequest(ctx context.Context, eventType string) {
	m.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", eventType)))
}

func (m webhookMetrics) recordRejected(ctx context.Context, reason string) {
	m.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m webhookMetrics) recordOutcome(ctx context.Context, kind string, outcome Outcome) {
	m.outcome.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", string(outcome)),
	))
}
