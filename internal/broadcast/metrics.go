package broadcast

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type hubMetrics struct {
	published metric.Int64Counter
	dropped   metric.Int64Counter
}

func newHubMetrics() hubMetrics {
	meter := otel.Meter("github.com/fr0stylo/issuedash/internal/broadcast")
	published, _ := meter.Int64Counter("issuedash.broadcast.published")
	dropped, _ := meter.Int64Counter("issuedash.broadcast.dropped")
	return hubMetrics{published: published, dropped: dropped}
}

func (m hubMetrics) recordPublished(ctx context.Context, event string, clients int) {
	m.published.Add(ctx, int64(clients), metric.WithAttributes(attribute.String("event", event)))
}

func (m hubMetrics) recordDropped(ctx context.Context, event string, clients int) {
	m.dropped.Add(ctx, int64(clients), metric.WithAttributes(attribute.String("event", event)))
}
