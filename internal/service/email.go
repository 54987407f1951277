package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// Message is one outgoing plain-text email.
type Message struct {
	Type    string // for logs: verification, contact
	To      string
	Subject string
	Body    string
	ReplyTo string
}

// Mailer delivers a Message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type resendMailer struct {
	client    *resend.Client
	fromEmail string
}

type logMailer struct{}

// NewMailer sends through Resend, or only logs messages in development.
func NewMailer(apiKey, fromEmail string, isDev bool) Mailer {
	if isDev || apiKey == "" {
		return logMailer{}
	}
	return &resendMailer{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
	}
}

func (m *resendMailer) Send(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    m.fromEmail,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Body,
		ReplyTo: msg.ReplyTo,
	}

	_, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	slog.Info("email sent", "type", msg.Type, "to", msg.To)
	return nil
}

func (logMailer) Send(_ context.Context, msg Message) error {
	slog.Info("email sent (dev mode)", "type", msg.Type, "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}

type EmailService struct {
	mailer       Mailer
	appURL       string
	appName      string
	supportEmail string
}

func NewEmailService(mailer Mailer, appURL, appName, supportEmail string) *EmailService {
	return &EmailService{
		mailer:       mailer,
		appURL:       appURL,
		appName:      appName,
		supportEmail: supportEmail,
	}
}

// VerificationURL is the link that confirms an email address.
func (s *EmailService) VerificationURL(token string) string {
	return fmt.Sprintf("%s/api/auth/verify/%s", s.appURL, token)
}

func (s *EmailService) SendVerificationEmail(ctx context.Context, email, name, token string) error {
	subject, body := verificationEmailTemplate(name, s.VerificationURL(token), s.appName)

	return s.mailer.Send(ctx, Message{
		Type:    "verification",
		To:      email,
		Subject: subject,
		Body:    body,
	})
}

// SendContactMessage forwards a contact form submission to the support inbox.
// Replies go to the sender.
func (s *EmailService) SendContactMessage(ctx context.Context, name, email, message string) error {
	subject, body := contactEmailTemplate(name, email, message, s.appName)

	return s.mailer.Send(ctx, Message{
		Type:    "contact",
		To:      s.supportEmail,
		Subject: subject,
		Body:    body,
		ReplyTo: email,
	})
}
