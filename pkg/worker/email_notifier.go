package worker

import (
	"context"
	"encoding/json"

	"github.com/jwalitptl/bookmed-api/internal/email"
	"github.com/jwalitptl/bookmed-api/internal/model"
	"github.com/jwalitptl/bookmed-api/pkg/logger"
	"github.com/jwalitptl/bookmed-api/pkg/messaging"
)

// EmailNotifier consumes appointment events from the broker and mails
// the patient. Delivery is best effort; failures are logged, not retried.
type EmailNotifier struct {
	broker messaging.Broker
	mailer email.Service
	logger *logger.Logger
}

func NewEmailNotifier(broker messaging.Broker, mailer email.Service, logger *logger.Logger) *EmailNotifier {
	return &EmailNotifier{
		broker: broker,
		mailer: mailer,
		logger: logger,
	}
}

func (n *EmailNotifier) Start(ctx context.Context) error {
	created, err := n.broker.Subscribe(ctx, model.EventAppointmentCreated)
	if err != nil {
		return err
	}
	cancelled, err := n.broker.Subscribe(ctx, model.EventAppointmentCancelled)
	if err != nil {
		return err
	}

	n.logger.Info("starting email notifier")

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("shutting down email notifier")
			return nil
		case raw, ok := <-created:
			if !ok {
				return nil
			}
			n.handle(ctx, raw, n.mailer.SendBookingConfirmation)
		case raw, ok := <-cancelled:
			if !ok {
				return nil
			}
			n.handle(ctx, raw, n.mailer.SendCancellation)
		}
	}
}

func (n *EmailNotifier) handle(ctx context.Context, raw []byte, send func(context.Context, string, *model.Appointment) error) {
	var msg struct {
		Type    string            `json:"type"`
		Payload model.Appointment `json:"payload"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		n.logger.Error(err, "failed to decode appointment event")
		return
	}

	appointment := &msg.Payload
	if appointment.Patient == nil || appointment.Patient.Email == "" {
		n.logger.Warn("appointment event without patient email", "appointment_id", appointment.ID.String())
		return
	}

	if err := send(ctx, appointment.Patient.Email, appointment); err != nil {
		n.logger.Error(err, "failed to send notification",
			"appointment_id", appointment.ID.String(),
			"event_type", msg.Type)
	}
}
