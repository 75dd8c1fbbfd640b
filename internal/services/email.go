package services

import (
	"context"
	"fmt"
	"html"

	"github.com/princeprakhar/product-catalog/internal/config"
	"github.com/princeprakhar/product-catalog/internal/models"
	"gopkg.in/gomail.v2"
)

// Notifier is told about catalog events worth a human's attention.
type Notifier interface {
	ReviewCreated(ctx context.Context, review *models.Review) error
}

type NoopNotifier struct{}

func (NoopNotifier) ReviewCreated(context.Context, *models.Review) error { return nil }

// NewNotifier returns an email notifier when SMTP and a recipient are
// configured, and a no-op otherwise.
func NewNotifier(cfg *config.Config) Notifier {
	if cfg.SMTPHost == "" || cfg.NotifyEmail == "" {
		return NoopNotifier{}
	}
	return NewEmailService(cfg)
}

type EmailService struct {
	config *config.Config
	dialer *gomail.Dialer
}

func NewEmailService(config *config.Config) *EmailService {
	return &EmailService{
		config: config,
		dialer: gomail.NewDialer(config.SMTPHost, config.SMTPPort, config.SMTPUsername, config.SMTPPassword),
	}
}

func (s *EmailService) SendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.FromEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	return s.dialer.DialAndSend(m)
}

func (s *EmailService) ReviewCreated(ctx context.Context, review *models.Review) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.SendEmail(s.config.NotifyEmail, "New product review", reviewEmailBody(review))
}

func reviewEmailBody(review *models.Review) string {
	return fmt.Sprintf(`
		<h2>New Review</h2>
		<p><strong>Product:</strong> %s</p>
		<p><strong>Rate:</strong> %d/5</p>
		<p>%s</p>
	`, html.EscapeString(review.ProductID), review.Rate, html.EscapeString(review.Comment))
}
