package services

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendRegisterCode(email, code string) error
	SendPasswordResetCode(email, code string) error
	SendTestEmail(email string) error
}

type emailService struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail, fromName string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer:   dialer,
		from:     fromEmail,
		fromName: fromName,
	}
}

func (s *emailService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}

func (s *emailService) SendRegisterCode(email, code string) error {
	body := fmt.Sprintf(`
		<h1>Welcome to ManShan Space</h1>
		<p>Your registration code is: <strong>%s</strong></p>
		<p>The code is valid for 10 minutes, please use it soon.</p>
		<p>If this wasn't you, you can safely ignore this email.</p>
	`, code)
	return s.send(email, "ManShan Space - Registration Code", body)
}

func (s *emailService) SendPasswordResetCode(email, code string) error {
	body := fmt.Sprintf(`
		<h1>ManShan Space Password Reset</h1>
		<p>Your password reset code is: <strong>%s</strong></p>
		<p>The code is valid for 10 minutes, please use it soon.</p>
		<p>If this wasn't you, please check your account security right away.</p>
	`, code)
	return s.send(email, "ManShan Space - Password Reset Code", body)
}

func (s *emailService) SendTestEmail(email string) error {
	body := `<h1>Welcome to ManShan Space</h1><p>This is a test email.</p>`
	return s.send(email, "ManShan Space Test Email", body)
}
