package services

import (
	"context"
	"fmt"
	"log"

	"github.com/resend/resend-go/v2"

	"github.com/example/sorelly/internal/config"
)

// Mailer delivers transactional mail to resellers.
type Mailer interface {
	SendVerificationCode(ctx context.Context, to, code string) error
}

// NewMailer picks the delivery backend from configuration: Resend when an
// API key is present, otherwise a log-only transport for local runs.
func NewMailer(cfg *config.Config) Mailer {
	if cfg.ResendAPIKey == "" {
		log.Printf("RESEND_API_KEY ausente – códigos de verificação serão apenas registrados no log")
		return &logMailer{}
	}

	return &resendMailer{
		client:      resend.NewClient(cfg.ResendAPIKey),
		senderEmail: cfg.MailSenderEmail,
		senderName:  cfg.MailSenderName,
	}
}

type resendMailer struct {
	client      *resend.Client
	senderEmail string
	senderName  string
}

func (m *resendMailer) SendVerificationCode(ctx context.Context, to, code string) error {
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", m.senderName, m.senderEmail),
		To:      []string{to},
		Subject: "Seu código de acesso",
		Html:    fmt.Sprintf("<p>Seu código é <strong>%s</strong>. Ele expira em 10 minutos.</p>", code),
	}

	if _, err := m.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("falha ao enviar email de verificação: %w", err)
	}

	return nil
}

type logMailer struct{}

func (m *logMailer) SendVerificationCode(_ context.Context, to, code string) error {
	log.Printf("[mail] código de verificação para %s: %s", to, code)
	return nil
}
