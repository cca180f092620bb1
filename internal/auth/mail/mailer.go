// Package mail delivers one-time codes through the SMTP senders configured
// by administrators. Sender credentials live in the store; the designated
// outbound mailbox is chosen by the system policy.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
	gomail "github.com/wneessen/go-mail"
)

// Message is a plain-text email ready for dispatch.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer dispatches a message through the given sender mailbox. Delivery is
// synchronous: callers treat an error as "the code never left the building"
// and roll back whatever they persisted.
type Mailer interface {
	Send(ctx context.Context, sender domain.EmailSender, msg Message) error
}

// SMTPMailer sends through the sender's own SMTP credentials with
// wneessen/go-mail. A fresh client per send keeps sender switching trivial;
// volume here is a handful of codes an hour, not a campaign.
type SMTPMailer struct{}

func NewSMTPMailer() *SMTPMailer { return &SMTPMailer{} }

func (m *SMTPMailer) Send(ctx context.Context, sender domain.EmailSender, msg Message) error {
	opts := []gomail.Option{
		gomail.WithPort(sender.SMTPPort),
		gomail.WithTimeout(30 * time.Second),
	}

	if sender.Username != "" && sender.Password != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthLogin),
			gomail.WithUsername(sender.Username),
			gomail.WithPassword(sender.Password),
		)
	}

	if sender.UseTLS {
		opts = append(opts,
			gomail.WithTLSConfig(&tls.Config{ServerName: sender.SMTPHost}),
			gomail.WithTLSPolicy(gomail.TLSMandatory),
		)
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}

	client, err := gomail.NewClient(sender.SMTPHost, opts...)
	if err != nil {
		return fmt.Errorf("mail: create client: %w", err)
	}

	out := gomail.NewMsg()
	if err := out.FromFormat(sender.DisplayName, sender.Address); err != nil {
		return fmt.Errorf("mail: from address: %w", err)
	}
	if err := out.To(msg.To); err != nil {
		return fmt.Errorf("mail: to address: %w", err)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(gomail.TypeTextPlain, msg.Body)

	if err := client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	return nil
}
