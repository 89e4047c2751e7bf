package observability

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	upstreamTracerName = "issuedash/gitlab"
	webhookTracerName  = "issuedash/webhooks"
)

type contextKey string

const (
	usernameContextKey contextKey = "observability.username"
	requestIDKey       contextKey = "observability.request_id"
	routeKey           contextKey = "observability.route"
	issueIIDKey        contextKey = "observability.issue_iid"
)

// Span is the application-level tracing span contract.
type Span interface {
	End()
	RecordError(error)
}

type otelSpan struct {
	inner trace.Span
}

// StartUpstreamSpan starts a client span for one call to the issue tracker API.
func StartUpstreamSpan(ctx context.Context, operation string) (context.Context, Span) {
	operation = strings.TrimSpace(operation)
	if operation == "" {
		operation = "unknown"
	}
	attrs := []attribute.KeyValue{
		attribute.String("rpc.system", "gitlab"),
		attribute.String("issuedash.operation", operation),
	}
	if username, ok := UsernameFromContext(ctx); ok {
		attrs = append(attrs, attribute.String("enduser.id", username))
	}
	if iid, ok := IssueIIDFromContext(ctx); ok {
		attrs = append(attrs, attribute.String("gitlab.issue.iid", iid))
	}

	ctx, span := otel.Tracer(upstreamTracerName).Start(ctx, "gitlab."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	return ctx, otelSpan{inner: span}
}

// StartWebhookSpan starts an internal span covering translation of one delivery.
func StartWebhookSpan(ctx context.Context, objectKind string) (context.Context, Span) {
	objectKind = strings.TrimSpace(objectKind)
	if objectKind == "" {
		objectKind = "unknown"
	}
	ctx, span := otel.Tracer(webhookTracerName).Start(ctx, "webhook."+objectKind,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("gitlab.object_kind", objectKind)),
	)
	return ctx, otelSpan{inner: span}
}

// WithRequestIdentity enriches context and current span with the signed-in username.
func WithRequestIdentity(ctx context.Context, username string) context.Context {
	username = strings.TrimSpace(username)
	if username == "" {
		return ctx
	}
	ctx = context.WithValue(ctx, usernameContextKey, username)
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("enduser.id", username))
	return ctx
}

// WithRequestMetadata enriches context and current span with request metadata.
func WithRequestMetadata(ctx context.Context, requestID, route string) context.Context {
	requestID = strings.TrimSpace(requestID)
	route = strings.TrimSpace(route)
	if requestID != "" {
		ctx = context.WithValue(ctx, requestIDKey, requestID)
	}
	if route != "" {
		ctx = context.WithValue(ctx, routeKey, route)
	}
	setSpanRequestAttributes(ctx, requestID, route)
	return ctx
}

// WithIssueIID tags context and current span with the project-scoped issue number.
func WithIssueIID(ctx context.Context, iid string) context.Context {
	iid = strings.TrimSpace(iid)
	if iid == "" {
		return ctx
	}
	ctx = context.WithValue(ctx, issueIIDKey, iid)
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("gitlab.issue.iid", iid))
	return ctx
}

// IssueIIDFromContext extracts the issue number set by WithIssueIID.
func IssueIIDFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(issueIIDKey).(string)
	return value, ok && value != ""
}

// UsernameFromContext extracts the signed-in username.
func UsernameFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(usernameContextKey).(string)
	return value, ok && value != ""
}

// RequestIDFromContext extracts request id.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(requestIDKey).(string)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

// RouteFromContext extracts normalized route path.
func RouteFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(routeKey).(string)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

func setSpanRequestAttributes(ctx context.Context, requestID, route string) {
	span := trace.SpanFromContext(ctx)
	attrs := make([]attribute.KeyValue, 0, 2)
	if requestID != "" {
		attrs = append(attrs, attribute.String("request.id", requestID))
	}
	if route != "" {
		attrs = append(attrs, attribute.String("http.route", route))
	}
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
}

func (s otelSpan) End() {
	if s.inner == nil {
		return
	}
	s.inner.End()
}

func (s otelSpan) RecordError(err error) {
	if s.inner == nil || err == nil {
		return
	}
	s.inner.RecordError(err)
	s.inner.SetStatus(codes.Error, err.Error())
}
