// Package notifier consume eventos de notificación y los envía por email.
package notifier

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"storefront-service/internal/emaillog"
	"storefront-service/internal/notification"
	"storefront-service/internal/rabbit"
)

const (
	maxAttempts    = 3
	initialBackoff = time.Second
)

type EmailLogRepository interface {
	SaveLog(ctx context.Context, l emaillog.EmailLog) error
}

type Service struct {
	sender  EmailSender
	logs    EmailLogRepository
	backoff time.Duration
}

func NewService(sender EmailSender, logs EmailLogRepository) *Service {
	return &Service{sender: sender, logs: logs, backoff: initialBackoff}
}

// WithBackoff cambia la espera inicial entre reintentos.
func (s *Service) WithBackoff(d time.Duration) *Service {
	s.backoff = d
	return s
}

// Handle implementa rabbit.Handler. Los mensajes que nunca van a poder enviarse
// vuelven envueltos en rabbit.ErrDiscard.
func (s *Service) Handle(ctx context.Context, body []byte) error {
	ev, data, err := notification.Decode(body)
	if err != nil {
		return fmt.Errorf("%w: %v", rabbit.ErrDiscard, err)
	}

	entry := log.WithFields(log.Fields{"event_type": ev.EventType, "email": ev.Email})
	if err := ValidateEvent(ev, data); err != nil {
		entry.WithError(err).Error("Notification event validation failed")
		return fmt.Errorf("%w: validation error: %v", rabbit.ErrDiscard, err)
	}

	subject, text, err := Render(ev.EventType, data)
	if err != nil {
		return fmt.Errorf("%w: %v", rabbit.ErrDiscard, err)
	}

	sendErr := s.send(ctx, entry, ev.Email, subject, text)

	logEntry := emaillog.EmailLog{
		EventType:      string(ev.EventType),
		RecipientEmail: ev.Email,
		Subject:        subject,
		Status:         emaillog.StatusSent,
	}
	if sendErr != nil {
		entry.WithError(sendErr).Error("Failed to send email via SMTP")
		logEntry.Status = emaillog.StatusFailed
		logEntry.ErrorMessage = sendErr.Error()
	} else {
		entry.Info("Email sent successfully via SMTP")
	}

	if err := s.logs.SaveLog(ctx, logEntry); err != nil {
		entry.WithError(err).Error("Failed to save email log to database")
		return err
	}
	return nil
}

// send reintenta hasta maxAttempts veces con backoff exponencial.
func (s *Service) send(ctx context.Context, entry *log.Entry, to, subject, body string) error {
	delay := s.backoff
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = s.sender.SendEmail(ctx, to, subject, body)
		if err == nil {
			if attempt > 1 {
				entry.WithField("attempt", attempt).Info("Email sent successfully after retry")
			}
			return nil
		}
		if attempt == maxAttempts {
			break
		}

		entry.WithFields(log.Fields{
			"attempt":      attempt,
			"max_attempts": maxAttempts,
			"error":        err,
		}).Warn("Failed to send email, retrying...")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
