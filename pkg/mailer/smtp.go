package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/wneessen/go-mail"
)

// SMTPSender delivers messages through an SMTP relay. A client is built per
// send; go-mail clients hold a single connection.
type SMTPSender struct {
	from    string
	options []mail.Option
	host    string
	logg    *logger.Logger
	metrics *metrics.MailMetrics
}

// NewSMTP validates the relay settings without dialing.
func NewSMTP(cfg config.SMTPConfig, logg *logger.Logger, m *metrics.MailMetrics) (*SMTPSender, error) {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(tlsPolicy(cfg.TLSPolicy)),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	if _, err := buildMsg(cfg.From, Message{To: cfg.From, Subject: "probe", Text: "probe"}); err != nil {
		return nil, fmt.Errorf("invalid smtp from address: %w", err)
	}

	return &SMTPSender{
		from:    cfg.From,
		options: opts,
		host:    host,
		logg:    logg,
		metrics: m,
	}, nil
}

// Send delivers msg, wrapping any failure in ErrSend.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	start := time.Now()
	err := s.send(ctx, msg)
	s.metrics.ObserveDuration(msg.Kind, time.Since(start))

	ctx = s.logg.WithFields(ctx, map[string]any{"mail_kind": msg.Kind, "smtp_host": s.host})
	if err != nil {
		s.metrics.IncFailed(msg.Kind)
		s.logg.Error(ctx, "email delivery failed", err)
		return fmt.Errorf("%w: %v", ErrSend, err)
	}
	s.metrics.IncSent(msg.Kind)
	s.logg.Info(ctx, "email delivered")
	return nil
}

func (s *SMTPSender) send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	m, err := buildMsg(s.from, msg)
	if err != nil {
		return err
	}
	client, err := mail.NewClient(s.host, s.options...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, m)
}

func buildMsg(from string, msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	m.Subject(msg.Subject)
	switch {
	case msg.HTML != "":
		m.SetBodyString(mail.TypeTextHTML, msg.HTML)
		if msg.Text != "" {
			m.AddAlternativeString(mail.TypeTextPlain, msg.Text)
		}
	default:
		m.SetBodyString(mail.TypeTextPlain, msg.Text)
	}
	return m, nil
}

func tlsPolicy(value string) mail.TLSPolicy {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case config.SMTPTLSMandatory:
		return mail.TLSMandatory
	case config.SMTPTLSNone:
		return mail.NoTLS
	default:
		return mail.TLSOpportunistic
	}
}
