package gitlab

import (
	"context"
	"log/slog"

	"github.com/fr0stylo/issuedash/internal/app/domain"
	"github.com/fr0stylo/issuedash/internal/app/ports"
	"github.com/fr0stylo/issuedash/internal/app/services"
	"github.com/fr0stylo/issuedash/internal/observability"
)

// Outcome is the result of processing one event.
type Outcome string

const (
	OutcomeEmitted Outcome = "emitted"
	OutcomeIgnored Outcome = "ignored"
	OutcomeFailed  Outcome = "failed"
)

// Relay turns decoded events into notifications for connected clients.
type Relay struct {
	users      ports.UserResolver
	publisher  ports.Publisher
	log        *slog.Logger
	bestEffort services.BestEffort
	metrics    webhookMetrics
}

// NewRelay constructs a relay that resolves issue authors through users.
func NewRelay(users ports.UserResolver, publisher ports.Publisher, log *slog.Logger) *Relay {
	if log == nil {
		log = slog.Default()
	}
	return &Relay{
		users:      users,
		publisher:  publisher,
		log:        log,
		bestEffort: services.BestEffort{Log: log},
		metrics:    newWebhookMetrics(),
	}
}

// Process emits at most one notification for event. Failures are logged and
// reported in the outcome, never returned.
func (r *Relay) Process(ctx context.Context, event Event) Outcome {
	ctx, span := observability.StartWebhookSpan(ctx, event.kind())
	defer span.End()

	outcome := r.process(ctx, event)
	r.metrics.recordOutcome(ctx, event.kind(), outcome)
	return outcome
}

func (r *Relay) process(ctx context.Context, event Event) Outcome {
	switch e := event.(type) {
	case IssueOpened:
		author, ok := r.lookupAuthor(ctx, e.AuthorID)
		if !ok {
			return OutcomeFailed
		}
		r.emit(ctx, domain.NewIssue{
			IID:         e.IID,
			Title:       e.Title,
			Author:      author,
			Description: e.Description,
			CreatedAt:   e.CreatedAt,
			UpdatedAt:   e.UpdatedAt,
			State:       e.State,
		})
		return OutcomeEmitted
	case IssueStateChanged:
		author, ok := r.lookupAuthor(ctx, e.AuthorID)
		if !ok {
			return OutcomeFailed
		}
		r.emit(ctx, domain.StatusUpdated{
			IID:       e.IID,
			Author:    author,
			CreatedAt: e.CreatedAt,
			NewState:  e.State,
		})
		return OutcomeEmitted
	case NoteCreated:
		r.emit(ctx, domain.NewComment{
			IID:       e.IID,
			Note:      e.Note,
			Author:    e.Author,
			CreatedAt: e.CreatedAt,
		})
		return OutcomeEmitted
	case Ignored:
		r.log.DebugContext(ctx, "Webhook event ignored", "object_kind", e.Kind, "action", e.Action)
		return OutcomeIgnored
	default:
		r.log.WarnContext(ctx, "Webhook event has no handler", "kind", event.kind())
		return OutcomeFailed
	}
}

func (r *Relay) lookupAuthor(ctx context.Context, authorID int64) (domain.User, bool) {
	var author domain.User
	ok := r.bestEffort.Do(ctx, "webhook_author_lookup", func(ctx context.Context) error {
		var err error
		author, err = r.users.GetUser(ctx, authorID)
		return err
	})
	return author, ok
}

func (r *Relay) emit(ctx context.Context, n domain.Notification) {
	clients := r.publisher.Publish(ctx, n.EventName(), n)
	r.log.InfoContext(ctx, "Webhook notification emitted", "event", n.EventName(), "clients", clients)
}
