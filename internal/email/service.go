package email

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/bookmed-api/internal/model"
)

// Service sends appointment notification mail.
type Service interface {
	SendBookingConfirmation(ctx context.Context, to string, appointment *model.Appointment) error
	SendCancellation(ctx context.Context, to string, appointment *model.Appointment) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPService(cfg SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendBookingConfirmation(_ context.Context, to string, appointment *model.Appointment) error {
	doctorName := ""
	if appointment.Doctor != nil {
		doctorName = appointment.Doctor.Name
	}
	subject := "Appointment booked"
	body := fmt.Sprintf(
		"Your appointment with %s on %s has been booked and is pending confirmation.",
		doctorName,
		appointment.ScheduledAt.Format(time.RFC1123),
	)
	return s.send(to, subject, body)
}

func (s *smtpService) SendCancellation(_ context.Context, to string, appointment *model.Appointment) error {
	subject := "Appointment cancelled"
	body := fmt.Sprintf(
		"Your appointment on %s has been cancelled.",
		appointment.ScheduledAt.Format(time.RFC1123),
	)
	return s.send(to, subject, body)
}

func (s *smtpService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// NoopService discards all mail. Used when SMTP is not configured and in
// tests.
type NoopService struct{}

func (NoopService) SendBookingConfirmation(context.Context, string, *model.Appointment) error {
	return nil
}

func (NoopService) SendCancellation(context.Context, string, *model.Appointment) error {
	return nil
}
