// Package logger implements the activity fan-out: one call site per mutation,
// three possible destinations (system broadcast, user feed, admin audit log).
//
// The contract is best-effort: a failed append must never roll back or block
// the primary mutation it accompanies. Failures are logged and counted, never
// returned. Callers therefore invoke these methods only AFTER their primary
// state change has succeeded.
package logger

import (
	"context"
	"errors"
	"log/slog"

	"confreg/internal/activity"
	"confreg/internal/activity/metrics"
	"confreg/internal/activity/store"
	id "confreg/pkg/domain"
	"confreg/pkg/requestcontext"
)

//go:generate mockgen -source=logger.go -destination=mocks/mocks.go -package=mocks Emitter

var errNoRecipient = errors.New("user activity requires a recipient")

// Emitter is the interface mutation handlers depend on. Two methods cover the
// dual-logging pattern (user feed + audit log); Broadcast covers the rare
// system-wide announcement.
type Emitter interface {
	NotifyUser(ctx context.Context, userID id.UserID, event activity.UserEvent)
	Audit(ctx context.Context, actorID id.UserID, event activity.AppEvent)
	BroadcastSystem(ctx context.Context, event activity.SystemEvent)
}

// Broadcaster mirrors system activity onto an external channel (Kafka).
// Optional; nil means persist-only.
type Broadcaster interface {
	Publish(ctx context.Context, rec activity.Record) error
}

// Logger is the concrete Emitter backed by the activity record store.
type Logger struct {
	store     store.Store
	broadcast Broadcaster
	logger    *slog.Logger
}

type Option func(l *Logger)

// WithBroadcaster mirrors system records onto an external publish channel.
func WithBroadcaster(b Broadcaster) Option {
	return func(l *Logger) {
		l.broadcast = b
	}
}

func New(s store.Store, logger *slog.Logger, opts ...Option) *Logger {
	l := &Logger{store: s, logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NotifyUser persists one user-feed notification for the recipient.
func (l *Logger) NotifyUser(ctx context.Context, userID id.UserID, event activity.UserEvent) {
	if err := event.Validate(); err != nil {
		l.drop(ctx, activity.KindUser, err)
		return
	}
	if userID.IsNil() {
		l.drop(ctx, activity.KindUser, errNoRecipient)
		return
	}

	rec := activity.Record{
		ID:          id.NewActivityID(),
		Kind:        activity.KindUser,
		Title:       event.Title,
		Description: event.Description,
		Icon:        event.Icon,
		Type:        event.Type,
		CreatedAt:   requestcontext.Now(ctx),
		Metadata:    event.Metadata,
		UserID:      userID,
		Actions:     event.Actions,
	}
	l.append(ctx, rec)
}

// Audit persists one admin-audit record attributed to the actor. The caller
// context enriches the metadata with request correlation and device info so
// the audit trail can answer "who, from where, with what".
//
// Metadata keys added here: request_id, client_ip, device.
func (l *Logger) Audit(ctx context.Context, actorID id.UserID, event activity.AppEvent) {
	if err := event.Validate(); err != nil {
		l.drop(ctx, activity.KindApp, err)
		return
	}

	metadata := make(map[string]any, len(event.Metadata)+3)
	for k, v := range event.Metadata {
		metadata[k] = v
	}
	if reqID := requestcontext.RequestID(ctx); reqID != "" {
		metadata["request_id"] = reqID
	}
	if ip := requestcontext.ClientIP(ctx); ip != "" {
		metadata["client_ip"] = ip
	}
	if device := requestcontext.DeviceLabel(ctx); device != "" {
		metadata["device"] = device
	}

	rec := activity.Record{
		ID:          id.NewActivityID(),
		Kind:        activity.KindApp,
		Title:       event.Title,
		Description: event.Description,
		Icon:        event.Icon,
		Type:        event.Type,
		CreatedAt:   requestcontext.Now(ctx),
		Metadata:    metadata,
		ActorID:     actorID,
		Action:      event.Action,
		Entity:      event.Entity,
		EntityID:    event.EntityID,
		Category:    event.Category,
		Severity:    event.Severity,
	}
	l.append(ctx, rec)
}

// BroadcastSystem persists one broadcast record and, when a broadcaster is
// configured, mirrors it onto the announcement topic. Either half may fail
// independently; neither failure reaches the caller.
func (l *Logger) BroadcastSystem(ctx context.Context, event activity.SystemEvent) {
	if err := event.Validate(); err != nil {
		l.drop(ctx, activity.KindSystem, err)
		return
	}

	rec := activity.Record{
		ID:          id.NewActivityID(),
		Kind:        activity.KindSystem,
		Title:       event.Title,
		Description: event.Description,
		Icon:        event.Icon,
		Type:        event.Type,
		CreatedAt:   requestcontext.Now(ctx),
		Metadata:    event.Metadata,
	}
	l.append(ctx, rec)

	if l.broadcast != nil {
		if err := l.broadcast.Publish(ctx, rec); err != nil {
			// Publish failure is diagnostic-only; the record is persisted.
			l.logger.WarnContext(ctx, "system activity publish failed",
				"request_id", requestcontext.RequestID(ctx),
				"activity_id", rec.ID,
				"error", err,
			)
		}
	}
}

func (l *Logger) append(ctx context.Context, rec activity.Record) {
	if err := l.store.Append(ctx, rec); err != nil {
		l.logger.ErrorContext(ctx, "activity record dropped",
			"request_id", requestcontext.RequestID(ctx),
			"kind", rec.Kind,
			"title", rec.Title,
			"error", err,
		)
		metrics.IncFailed(string(rec.Kind))
		return
	}
	metrics.IncEmitted(string(rec.Kind))
}

func (l *Logger) drop(ctx context.Context, kind activity.Kind, err error) {
	l.logger.ErrorContext(ctx, "activity event rejected",
		"request_id", requestcontext.RequestID(ctx),
		"kind", kind,
		"error", err,
	)
	metrics.IncFailed(string(kind))
}
