package notifier

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"storefront-service/internal/notification"
)

var (
	ErrEmptyEmail         = errors.New("email is empty")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrMissingField       = errors.New("required field is empty")
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return ErrEmptyEmail
	}
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmailFormat
	}
	return nil
}

// ValidateEvent revisa el destinatario y los campos obligatorios de la data.
func ValidateEvent(ev notification.Event, data any) error {
	if err := ValidateEmail(ev.Email); err != nil {
		return err
	}

	var fields map[string]string
	switch d := data.(type) {
	case *notification.OrderStatusChangedData:
		fields = map[string]string{"orderId": d.OrderID, "status": d.Status}
	case *notification.EmailVerificationData:
		fields = map[string]string{"verificationUrl": d.VerificationURL}
	case *notification.ForgotPasswordData:
		fields = map[string]string{"resetUrl": d.ResetURL}
	default:
		return fmt.Errorf("%w: %s", notification.ErrUnknownEventType, ev.EventType)
	}
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, name)
		}
	}
	return nil
}
