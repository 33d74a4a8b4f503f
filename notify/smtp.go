package notify

import (
	"context"

	"github.com/pkg/errors"
	"github.com/wneessen/go-mail"
)

// SMTPConfig holds the mail-relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	UseTLS   bool
}

// Mailer sends over SMTP via go-mail. A fresh connection is dialed per send;
// credential emails are rare enough that pooling buys nothing.
type Mailer struct {
	cfg SMTPConfig
}

func NewMailer(cfg SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return errors.Wrap(err, "[Send] from address")
	}
	if err := msg.To(to); err != nil {
		return errors.Wrap(err, "[Send] to address")
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
	}
	if m.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.User),
			mail.WithPassword(m.cfg.Password),
		)
	}
	if m.cfg.UseTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return errors.Wrap(err, "[Send] client")
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Wrap(err, "[Send] deliver")
	}
	return nil
}
