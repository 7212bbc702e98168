package utils

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"gopkg.in/gomail.v2"
)

// SendGridMailer sends email through the SendGrid API
type SendGridMailer struct {
	APIKey    string
	FromName  string
	FromEmail string
}

// SendEmail sends an email using SendGrid
func (s *SendGridMailer) SendEmail(ctx context.Context, toName, toEmail, subject, textContent, htmlContent string) error {
	if s.APIKey == "" {
		return fmt.Errorf("SENDGRID_API_KEY is not set in environment variables")
	}

	from := mail.NewEmail(s.FromName, s.FromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, textContent, htmlContent)
	client := sendgrid.NewSendClient(s.APIKey)

	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		Logger.Error().Err(err).Str("to", toEmail).Msg("Error sending email")
		return err
	}

	if response.StatusCode >= 400 {
		Logger.Error().Int("status", response.StatusCode).Str("body", response.Body).Msg("SendGrid API Error")
		return fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
	}

	Logger.Info().Str("to", toEmail).Int("status", response.StatusCode).Msg("Email sent successfully")
	return nil
}

// SMTPMailer sends email through a plain SMTP relay
type SMTPMailer struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
}

func (s *SMTPMailer) SendEmail(ctx context.Context, toName, toEmail, subject, textContent, htmlContent string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.FromEmail, s.FromName)
	m.SetAddressHeader("To", toEmail, toName)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textContent)
	if htmlContent != "" {
		m.AddAlternative("text/html", htmlContent)
	}

	d := gomail.NewDialer(s.Host, s.Port, s.Username, s.Password)
	if err := d.DialAndSend(m); err != nil {
		Logger.Error().Err(err).Str("to", toEmail).Msg("Error sending email over SMTP")
		return err
	}
	Logger.Info().Str("to", toEmail).Msg("Email sent successfully")
	return nil
}

// LogMailer only logs outgoing email; used when no provider is configured
type LogMailer struct{}

func (LogMailer) SendEmail(ctx context.Context, toName, toEmail, subject, textContent, htmlContent string) error {
	Logger.Warn().Str("to", toEmail).Str("subject", subject).Msg("no mail provider configured, email not sent")
	return nil
}
