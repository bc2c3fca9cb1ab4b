package services

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendWelcomeEmail(email, fullName string) error
	SendPasswordResetEmail(email, token string) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
	clinic string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail, clinicName string) EmailService {
	return &emailService{
		dialer: gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword),
		from:   fromEmail,
		clinic: clinicName,
	}
}

func (s *emailService) SendWelcomeEmail(email, fullName string) error {
	m := s.message(email, "Your "+s.clinic+" staff account")
	m.SetBody("text/html", fmt.Sprintf(`
		<h2>Welcome, %s!</h2>
		<p>A staff account was created for you at %s.</p>
		<p>Sign in with this e-mail address and the password you were given.</p>
	`, fullName, s.clinic))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	return nil
}

func (s *emailService) SendPasswordResetEmail(email, token string) error {
	m := s.message(email, "Password reset request")
	m.SetBody("text/html", fmt.Sprintf(`
		<h3>Password reset requested</h3>
		<p>We received a request to reset the password for your %s account.</p>
		<p>Use the following token to reset your password: <strong>%s</strong></p>
		<p>The token expires in one hour. If you did not request this change, you can ignore this email.</p>
	`, s.clinic, token))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

func (s *emailService) message(to, subject string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	return m
}
