// Package notification define los eventos JSON que se intercambian con el worker de
// emails. Los nombres y el orden de los campos son parte del contrato.
package notification

import (
	"encoding/json"
	"errors"
	"fmt"
)

type EventType string

const (
	OrderStatusChanged EventType = "ORDER_STATUS_CHANGED"
	EmailVerification  EventType = "EMAIL_VERIFICATION"
	ForgotPassword     EventType = "FORGOT_PASSWORD"
)

var ErrUnknownEventType = errors.New("unknown notification event type")

// Event: {"eventType": ..., "email": ..., "data": {...}}
type Event struct {
	EventType EventType       `json:"eventType"`
	Email     string          `json:"email"`
	Data      json.RawMessage `json:"data"`
}

type OrderStatusChangedData struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
	Name    string `json:"name"`
}

type EmailVerificationData struct {
	Name            string `json:"name"`
	VerificationURL string `json:"verificationUrl"`
}

type ForgotPasswordData struct {
	Name     string `json:"name"`
	ResetURL string `json:"resetUrl"`
}

func newEvent(t EventType, email string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s data: %w", t, err)
	}
	return Event{EventType: t, Email: email, Data: raw}, nil
}

func NewOrderStatusChanged(email string, d OrderStatusChangedData) (Event, error) {
	return newEvent(OrderStatusChanged, email, d)
}

func NewEmailVerification(email string, d EmailVerificationData) (Event, error) {
	return newEvent(EmailVerification, email, d)
}

func NewForgotPassword(email string, d ForgotPasswordData) (Event, error) {
	return newEvent(ForgotPassword, email, d)
}

// Decode parsea el mensaje y su data según eventType. Devuelve el evento y la data
// tipada (OrderStatusChangedData, EmailVerificationData o ForgotPasswordData).
func Decode(body []byte) (Event, any, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, nil, fmt.Errorf("decode event: %w", err)
	}

	var data any
	switch ev.EventType {
	case OrderStatusChanged:
		data = &OrderStatusChangedData{}
	case EmailVerification:
		data = &EmailVerificationData{}
	case ForgotPassword:
		data = &ForgotPasswordData{}
	default:
		return ev, nil, fmt.Errorf("%w: %q", ErrUnknownEventType, ev.EventType)
	}

	if len(ev.Data) == 0 {
		return ev, nil, fmt.Errorf("event %s has no data", ev.EventType)
	}
	if err := json.Unmarshal(ev.Data, data); err != nil {
		return ev, nil, fmt.Errorf("decode %s data: %w", ev.EventType, err)
	}
	return ev, data, nil
}
