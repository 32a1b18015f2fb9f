// Package mailer sends the application's transactional email over SMTP:
// account verification, password reset, and the two messages triggered by a
// public quote submission.  All sends are best-effort with a short timeout;
// callers log failures and move on, they never surface them to the HTTP
// client.
package mailer

import (
	"context"
	"fmt"
	"log"

	"github.com/wneessen/go-mail"

	"github.com/asesoriasalud/cotizaciones-api/internal/config"
	"github.com/asesoriasalud/cotizaciones-api/internal/queue"
)

// Mailer wraps an SMTP relay.  Constructed once at startup and passed to
// the components that send mail.
type Mailer struct {
	cfg         config.SMTPConfig
	frontendURL string
}

func New(cfg config.SMTPConfig, frontendURL string) *Mailer {
	return &Mailer{cfg: cfg, frontendURL: frontendURL}
}

// Enabled reports whether a relay host is configured.  With no host every
// send becomes a logged no-op, so local development works without SMTP.
func (m *Mailer) Enabled() bool { return m.cfg.Host != "" }

// send delivers one HTML message.  The client carries its own timeout so a
// hung relay cannot stall the caller longer than its context allows.
func (m *Mailer) send(ctx context.Context, to []string, subject, html string) error {
	if !m.Enabled() {
		log.Printf("mailer disabled, dropping %q to %v", subject, to)
		return nil
	}
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
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
		return fmt.Errorf("smtp client: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(to...); err != nil {
		return fmt.Errorf("to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, html)

	return client.DialAndSendWithContext(ctx, msg)
}

// SendVerification mails the email-verification link created at
// registration.
func (m *Mailer) SendVerification(ctx context.Context, email, token, firstName string) error {
	html, err := renderVerification(m.frontendURL, token, firstName)
	if err != nil {
		return err
	}
	return m.send(ctx, []string{email}, "Verifica tu cuenta - Asesoría de Salud Previsional", html)
}

// SendPasswordReset mails a password-reset link.
func (m *Mailer) SendPasswordReset(ctx context.Context, email, token, firstName string) error {
	html, err := renderPasswordReset(m.frontendURL, token, firstName)
	if err != nil {
		return err
	}
	return m.send(ctx, []string{email}, "Restablecer contraseña - Asesoría de Salud Previsional", html)
}

// SendCotizacionReceipt mails the submitter confirmation of a received
// quote request.
func (m *Mailer) SendCotizacionReceipt(ctx context.Context, ev queue.CotizacionCreatedEvent) error {
	html, err := renderCotizacionReceipt(ev)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Tu solicitud de cotización ha sido recibida [%s]", ev.CotizacionID)
	return m.send(ctx, []string{ev.Email}, subject, html)
}

// SendCotizacionNotice mails the active administrators about a new quote
// request.
func (m *Mailer) SendCotizacionNotice(ctx context.Context, ev queue.CotizacionCreatedEvent) error {
	html, err := renderCotizacionNotice(ev)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Nueva cotización recibida [%s]", ev.CotizacionID)
	return m.send(ctx, ev.AdminEmails, subject, html)
}
