// Package notify delivers lifecycle notifications to piece owners.
//
// The lifecycle controller only sees the Notifier interface. LogNotifier is
// the default and records what would have been sent; MailNotifier sends real
// email through the mailer package.
package notify

import (
	"context"
	"errors"

	"github.com/dalemusser/kilntrack/internal/app/system/mailer"
	"github.com/dalemusser/kilntrack/internal/domain/models"
	"go.uber.org/zap"
)

// Kind identifies which lifecycle step produced a message.
type Kind string

const (
	KindPieceReady    Kind = "piece_ready"
	KindPieceReceived Kind = "piece_received"
)

// Message is what the controller wants an owner to learn.
type Message struct {
	Kind  Kind
	Piece models.Piece
}

// Notifier delivers a message to a recipient. A nil error means the message
// was accepted for delivery.
type Notifier interface {
	Notify(ctx context.Context, to models.Submitter, msg Message) error
}

// ErrNoRecipient is returned when the recipient has no email address.
var ErrNoRecipient = errors.New("notify: recipient has no email")

// PieceReady builds the message sent after a piece is fired.
func PieceReady(p models.Piece) Message {
	return Message{Kind: KindPieceReady, Piece: p}
}

// PieceReceived builds the message sent after a piece is submitted.
func PieceReceived(p models.Piece) Message {
	return Message{Kind: KindPieceReceived, Piece: p}
}

// Nop discards every message.
type Nop struct{}

func (Nop) Notify(context.Context, models.Submitter, Message) error { return nil }

// LogNotifier writes each notification to the log instead of delivering it.
type LogNotifier struct {
	Log *zap.Logger
}

// NewLogNotifier returns a notifier that only logs.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{Log: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, to models.Submitter, msg Message) error {
	if to.Email == "" {
		return ErrNoRecipient
	}
	n.Log.Info("notification",
		zap.String("kind", string(msg.Kind)),
		zap.String("to", to.Email),
		zap.String("name", to.FullName()),
		zap.Int64("piece_id", msg.Piece.ID),
		zap.String("title", msg.Piece.Title))
	return nil
}

// sender is the part of *mailer.Mailer MailNotifier uses.
type sender interface {
	Send(ctx context.Context, e mailer.Email) error
}

// MailNotifier sends notifications as email.
type MailNotifier struct {
	mail     sender
	siteName string
	baseURL  string
}

// NewMailNotifier returns a notifier sending through m. baseURL, when set,
// is linked from the email body.
func NewMailNotifier(m *mailer.Mailer, siteName, baseURL string) *MailNotifier {
	return &MailNotifier{mail: m, siteName: siteName, baseURL: baseURL}
}

func (n *MailNotifier) Notify(ctx context.Context, to models.Submitter, msg Message) error {
	if to.Email == "" {
		return ErrNoRecipient
	}

	data := mailer.PieceEmailData{
		SiteName:      n.siteName,
		RecipientName: to.FullName(),
		PieceTitle:    msg.Piece.Title,
		FiringType:    msg.Piece.FiringType,
		Link:          n.baseURL,
	}

	var email mailer.Email
	switch msg.Kind {
	case KindPieceReady:
		if msg.Piece.FiredDate != nil {
			data.When = msg.Piece.FiredDate.Format("02/01/2006")
		}
		email = mailer.BuildPieceReadyEmail(data)
	case KindPieceReceived:
		data.When = msg.Piece.CreatedAt.Format("02/01/2006")
		email = mailer.BuildPieceReceivedEmail(data)
	default:
		return errors.New("notify: unknown message kind " + string(msg.Kind))
	}
	email.To = to.Email
	return n.mail.Send(ctx, email)
}
