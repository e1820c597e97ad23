// Package lifecycle moves pieces from pending to fired.
//
// Every mutation can go through a two-phase confirmation gate: a Stage call
// records the intent and returns an Action carrying a token, and nothing is
// written until Approve is called with that token. Cancel discards the intent.
// Submit and Fire perform the same mutations without the gate and are what
// the compatibility endpoint POST /pieces uses.
//
// After a successful submission or firing the owner is notified through the
// injected notify.Notifier. Notification failures are logged and audited but
// never fail the operation that triggered them.
package lifecycle

import (
	"context"
	"time"

	piecestore "github.com/dalemusser/kilntrack/internal/app/store/pieces"
	"github.com/dalemusser/kilntrack/internal/app/system/auditlog"
	"github.com/dalemusser/kilntrack/internal/app/system/notify"
	"github.com/dalemusser/kilntrack/internal/app/system/timeouts"
	"github.com/dalemusser/kilntrack/internal/domain/errs"
	"github.com/dalemusser/kilntrack/internal/domain/models"
	"go.uber.org/zap"
)

// DefaultActionTTL is used when Config.ActionTTL is zero.
const DefaultActionTTL = 15 * time.Minute

// Config controls gate expiry and which transitions notify the owner.
type Config struct {
	ActionTTL      time.Duration
	NotifyOnFire   bool
	NotifyOnSubmit bool
}

// Controller governs piece transitions. It is safe for concurrent use.
type Controller struct {
	store    piecestore.Store
	notifier notify.Notifier
	audit    *auditlog.Logger
	log      *zap.Logger
	cfg      Config
	gate     *gate
	now      func() time.Time
}

// New creates a Controller. A nil notifier disables notifications and a nil
// audit logger disables auditing.
func New(store piecestore.Store, notifier notify.Notifier, audit *auditlog.Logger, logger *zap.Logger, cfg Config) *Controller {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if cfg.ActionTTL <= 0 {
		cfg.ActionTTL = DefaultActionTTL
	}
	return &Controller{
		store:    store,
		notifier: notifier,
		audit:    audit,
		log:      logger,
		cfg:      cfg,
		gate:     newGate(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the clock used for action expiry. Tests only.
func (c *Controller) SetClock(now func() time.Time) {
	c.now = now
}

// StageFire records the intent to fire piece id. The piece must be pending.
func (c *Controller) StageFire(ctx context.Context, id int64) (Action, error) {
	p, err := c.store.Get(ctx, id)
	if err != nil {
		return Action{}, err
	}
	if !p.IsPending() {
		return Action{}, &errs.NotFoundError{ID: id}
	}

	a := c.stage(Action{Kind: KindFire, PieceID: id, Piece: &p})
	c.audit.ActionStaged(ctx, string(a.Kind), a.Token, id, p.SubmittedBy.Email)
	c.log.Debug("fire staged", zap.Int64("piece_id", id), zap.String("token", a.Token))
	return a, nil
}

// StageSubmission validates in and records the intent to create it. The store
// is not touched.
func (c *Controller) StageSubmission(ctx context.Context, in models.PieceInput) (Action, error) {
	if err := piecestore.Validate(in); err != nil {
		return Action{}, err
	}

	a := c.stage(Action{Kind: KindSubmit, Input: &in})
	c.audit.ActionStaged(ctx, string(a.Kind), a.Token, 0, in.SubmittedBy.Email)
	c.log.Debug("submission staged", zap.String("title", in.Title), zap.String("token", a.Token))
	return a, nil
}

func (c *Controller) stage(a Action) Action {
	now := c.now()
	a.StagedAt = now
	a.ExpiresAt = now.Add(c.cfg.ActionTTL)
	return c.gate.put(a)
}

// Pending returns the staged action for token without consuming it.
func (c *Controller) Pending(token string) (Action, error) {
	return c.gate.peek(token, c.now())
}

// Approve executes the action staged under token and returns the resulting
// piece. The token is consumed whether or not the mutation succeeds.
func (c *Controller) Approve(ctx context.Context, token string) (models.Piece, error) {
	a, err := c.gate.take(token, c.now())
	if err != nil {
		return models.Piece{}, err
	}

	switch a.Kind {
	case KindFire:
		return c.fire(ctx, a.PieceID, token)
	case KindSubmit:
		return c.submit(ctx, *a.Input, token)
	default:
		return models.Piece{}, ErrUnknownAction
	}
}

// Cancel discards the action staged under token. State is unchanged.
func (c *Controller) Cancel(ctx context.Context, token string) error {
	a, err := c.gate.take(token, c.now())
	if err != nil {
		return err
	}
	c.audit.ActionCancelled(ctx, string(a.Kind), token, a.PieceID)
	c.log.Debug("action cancelled", zap.String("kind", string(a.Kind)), zap.String("token", token))
	return nil
}

// ExpireStale drops staged actions past their TTL and returns how many were
// removed.
func (c *Controller) ExpireStale(ctx context.Context) int {
	dropped := c.gate.expire(c.now())
	if len(dropped) > 0 {
		c.audit.ActionsExpired(ctx, len(dropped))
	}
	return len(dropped)
}

// StagedCount returns the number of actions waiting at the gate.
func (c *Controller) StagedCount() int {
	return c.gate.len()
}

// Submit creates a pending piece immediately.
func (c *Controller) Submit(ctx context.Context, in models.PieceInput) (models.Piece, error) {
	return c.submit(ctx, in, "")
}

// Fire marks piece id fired immediately.
func (c *Controller) Fire(ctx context.Context, id int64) (models.Piece, error) {
	return c.fire(ctx, id, "")
}

func (c *Controller) submit(ctx context.Context, in models.PieceInput, token string) (models.Piece, error) {
	p, err := c.store.Create(ctx, in)
	if err != nil {
		return models.Piece{}, err
	}

	c.audit.PieceSubmitted(ctx, p, token)
	c.log.Info("piece submitted",
		zap.Int64("piece_id", p.ID),
		zap.String("owner", p.SubmittedBy.Email))

	if c.cfg.NotifyOnSubmit {
		c.notify(ctx, notify.PieceReceived(p))
	}
	return p, nil
}

func (c *Controller) fire(ctx context.Context, id int64, token string) (models.Piece, error) {
	p, err := c.store.MarkFired(ctx, id)
	if err != nil {
		return models.Piece{}, err
	}

	c.audit.PieceFired(ctx, p, token)
	c.log.Info("piece fired",
		zap.Int64("piece_id", p.ID),
		zap.String("owner", p.SubmittedBy.Email))

	if c.cfg.NotifyOnFire {
		c.notify(ctx, notify.PieceReady(p))
	}
	return p, nil
}

func (c *Controller) notify(ctx context.Context, msg notify.Message) {
	nctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), c.log, "notify "+string(msg.Kind))
	defer cancel()

	if err := c.notifier.Notify(nctx, msg.Piece.SubmittedBy, msg); err != nil {
		c.log.Warn("notification failed",
			zap.String("kind", string(msg.Kind)),
			zap.Int64("piece_id", msg.Piece.ID),
			zap.Error(err))
		c.audit.NotificationFailed(ctx, string(msg.Kind), msg.Piece, err)
		return
	}
	c.audit.NotificationSent(ctx, string(msg.Kind), msg.Piece)
}
