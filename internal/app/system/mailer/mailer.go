// internal/app/system/mailer/mailer.go
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a whole SMTP exchange when the caller's context has
// no earlier deadline.
const DefaultTimeout = 15 * time.Second

// Config holds SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	User     string // empty for unauthenticated relays such as Mailpit
	Pass     string
	From     string
	FromName string
}

// Email is a single outgoing message with text and HTML alternatives.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mailer sends email over SMTP.
type Mailer struct {
	cfg     Config
	log     *zap.Logger
	timeout time.Duration
	send    func(ctx context.Context, msg *mail.Msg) error
}

// New creates a Mailer. It does not connect until Send is called.
func New(cfg Config, logger *zap.Logger) *Mailer {
	m := &Mailer{cfg: cfg, log: logger, timeout: DefaultTimeout}
	m.send = m.dialAndSend
	return m
}

// Send delivers e. It returns once the exchange has finished or the
// connection deadline (from ctx, capped by DefaultTimeout) has passed;
// nothing keeps running afterwards.
func (m *Mailer) Send(ctx context.Context, e Email) error {
	if e.To == "" {
		return errors.New("mailer: empty recipient")
	}

	msg, err := m.build(e)
	if err != nil {
		return err
	}

	if err := m.send(ctx, msg); err != nil {
		m.log.Warn("smtp send failed", zap.String("to", e.To), zap.Error(err))
		return fmt.Errorf("smtp send: %w", err)
	}
	m.log.Info("email sent", zap.String("to", e.To), zap.String("subject", e.Subject))
	return nil
}

// build renders a quoted-printable multipart/alternative message.
func (m *Mailer) build(e Email) (*mail.Msg, error) {
	msg := mail.NewMsg(mail.WithEncoding(mail.EncodingQP), mail.WithCharset(mail.CharsetUTF8))

	var err error
	if m.cfg.FromName != "" {
		err = msg.FromFormat(m.cfg.FromName, m.cfg.From)
	} else {
		err = msg.From(m.cfg.From)
	}
	if err != nil {
		return nil, fmt.Errorf("mailer: from address: %w", err)
	}
	if err := msg.To(e.To); err != nil {
		return nil, fmt.Errorf("mailer: recipient: %w", err)
	}
	msg.Subject(e.Subject)
	msg.SetDate()

	msg.SetBodyString(mail.TypeTextPlain, e.TextBody)
	if e.HTMLBody != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, e.HTMLBody)
	}
	return msg, nil
}

func (m *Mailer) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTimeout(m.timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithDialContextFunc(m.dialContext),
	}
	if m.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.User),
			mail.WithPassword(m.cfg.Pass),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// dialContext sets a deadline on the connection so a server that stops
// answering cannot hold the exchange open past ctx's deadline.
func (m *Mailer) dialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	deadline := time.Now().Add(m.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	dialer := net.Dialer{Deadline: deadline}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
