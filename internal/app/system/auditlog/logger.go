// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/kilntrack/internal/app/store/audit"
	"github.com/dalemusser/kilntrack/internal/app/system/ratelimit"
	"github.com/dalemusser/kilntrack/internal/domain/models"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Lifecycle controls logging for piece lifecycle events (submission,
	// firing, staged actions, notifications).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Lifecycle string
}

// Valid settings for Config fields.
var Settings = []string{"all", "db", "log", "off"}

// EventStore persists audit events. *audit.Store satisfies it.
type EventStore interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger provides convenience methods for logging audit events.
// It logs to MongoDB (via EventStore, when one is configured) and to
// structured logs (via zap).
type Logger struct {
	store  EventStore
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. store may be nil, in which case "db"
// destinations are skipped.
func New(store EventStore, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

type requestMetaKey struct{}

type requestMeta struct {
	ip        string
	userAgent string
}

// Middleware stores the client IP and user agent in the request context so
// events logged further down the call chain can carry them.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta := requestMeta{ip: ratelimit.ClientIP(r), userAgent: r.UserAgent()}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestMetaKey{}, meta)))
	})
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}

	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.PieceID != 0 {
		fields = append(fields, zap.Int64("piece_id", event.PieceID))
	}
	if event.ActionToken != "" {
		fields = append(fields, zap.String("action_token", event.ActionToken))
	}
	if event.OwnerEmail != "" {
		fields = append(fields, zap.String("owner_email", event.OwnerEmail))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// Logging destination is controlled by config: "all", "db", "log", or "off".
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryLifecycle:
		setting = l.config.Lifecycle
	default:
		setting = "all" // Default to logging everything for unknown categories
	}
	if setting == "" {
		setting = "all"
	}

	if setting == "off" {
		return
	}

	if meta, ok := ctx.Value(requestMetaKey{}).(requestMeta); ok {
		if event.IP == "" {
			event.IP = meta.ip
		}
		if event.UserAgent == "" {
			event.UserAgent = meta.userAgent
		}
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Lifecycle Events ---

// PieceSubmitted logs a new pending piece.
func (l *Logger) PieceSubmitted(ctx context.Context, p models.Piece, token string) {
	l.Log(ctx, audit.Event{
		Category:    audit.CategoryLifecycle,
		EventType:   audit.EventPieceSubmitted,
		PieceID:     p.ID,
		ActionToken: token,
		OwnerEmail:  p.SubmittedBy.Email,
		Success:     true,
		Details: map[string]string{
			"title":       p.Title,
			"firing_type": p.FiringType,
			"priority":    p.Priority,
		},
	})
}

// PieceFired logs a pending to fired transition.
func (l *Logger) PieceFired(ctx context.Context, p models.Piece, token string) {
	details := map[string]string{"title": p.Title}
	if p.FiredDate != nil {
		details["fired_date"] = p.FiredDate.Format("2006-01-02T15:04:05Z07:00")
	}
	l.Log(ctx, audit.Event{
		Category:    audit.CategoryLifecycle,
		EventType:   audit.EventPieceFired,
		PieceID:     p.ID,
		ActionToken: token,
		OwnerEmail:  p.SubmittedBy.Email,
		Success:     true,
		Details:     details,
	})
}

// ActionStaged logs an action waiting at the confirmation gate.
func (l *Logger) ActionStaged(ctx context.Context, kind, token string, pieceID int64, ownerEmail string) {
	l.Log(ctx, audit.Event{
		Category:    audit.CategoryLifecycle,
		EventType:   audit.EventActionStaged,
		PieceID:     pieceID,
		ActionToken: token,
		OwnerEmail:  ownerEmail,
		Success:     true,
		Details:     map[string]string{"kind": kind},
	})
}

// ActionCancelled logs an action discarded at the gate.
func (l *Logger) ActionCancelled(ctx context.Context, kind, token string, pieceID int64) {
	l.Log(ctx, audit.Event{
		Category:    audit.CategoryLifecycle,
		EventType:   audit.EventActionCancelled,
		PieceID:     pieceID,
		ActionToken: token,
		Success:     true,
		Details:     map[string]string{"kind": kind},
	})
}

// ActionsExpired logs a sweep that dropped stale staged actions.
func (l *Logger) ActionsExpired(ctx context.Context, count int) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryLifecycle,
		EventType: audit.EventActionExpired,
		Success:   true,
		Details:   map[string]string{"count": strconv.Itoa(count)},
	})
}

// NotificationSent logs a delivered notification.
func (l *Logger) NotificationSent(ctx context.Context, kind string, p models.Piece) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryLifecycle,
		EventType:  audit.EventNotificationSent,
		PieceID:    p.ID,
		OwnerEmail: p.SubmittedBy.Email,
		Success:    true,
		Details:    map[string]string{"kind": kind},
	})
}

// NotificationFailed logs a notification that could not be delivered.
func (l *Logger) NotificationFailed(ctx context.Context, kind string, p models.Piece, err error) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryLifecycle,
		EventType:     audit.EventNotificationFailed,
		PieceID:       p.ID,
		OwnerEmail:    p.SubmittedBy.Email,
		Success:       false,
		FailureReason: err.Error(),
		Details:       map[string]string{"kind": kind},
	})
}
