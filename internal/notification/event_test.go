package notification

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusChangedWireFormat(t *testing.T) {
	ev, err := NewOrderStatusChanged("ana@example.com", OrderStatusChangedData{
		OrderID: "ord-1",
		Status:  "CANCELLED",
		Name:    "Ana",
	})
	require.NoError(t, err)

	body, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Equal(t,
		`{"eventType":"ORDER_STATUS_CHANGED","email":"ana@example.com","data":{"orderId":"ord-1","status":"CANCELLED","name":"Ana"}}`,
		string(body))
}

func TestAccountEventsWireFormat(t *testing.T) {
	ev, err := NewEmailVerification("ana@example.com", EmailVerificationData{
		Name:            "Ana",
		VerificationURL: "https://shop/verify/abc",
	})
	require.NoError(t, err)
	body, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Equal(t,
		`{"eventType":"EMAIL_VERIFICATION","email":"ana@example.com","data":{"name":"Ana","verificationUrl":"https://shop/verify/abc"}}`,
		string(body))

	ev, err = NewForgotPassword("bo@example.com", ForgotPasswordData{Name: "Bo", ResetURL: "https://shop/reset/xyz"})
	require.NoError(t, err)
	body, err = json.Marshal(ev)
	require.NoError(t, err)

	decoded, data, err := Decode(body)
	require.NoError(t, err)
	assert.Equal(t, ForgotPassword, decoded.EventType)
	assert.Equal(t, &ForgotPasswordData{Name: "Bo", ResetURL: "https://shop/reset/xyz"}, data)
}

func TestDecodeTypedData(t *testing.T) {
	body := []byte(`{"eventType":"FORGOT_PASSWORD","email":"bo@example.com","data":{"name":"Bo","resetUrl":"https://shop/reset/abc"}}`)

	ev, data, err := Decode(body)
	require.NoError(t, err)
	assert.Equal(t, ForgotPassword, ev.EventType)
	assert.Equal(t, &ForgotPasswordData{Name: "Bo", ResetURL: "https://shop/reset/abc"}, data)
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	_, _, err := Decode([]byte(`{"eventType":"PROMO","email":"x@example.com","data":{}}`))
	assert.ErrorIs(t, err, ErrUnknownEventType)

	_, _, err = Decode([]byte(`{"eventType":"EMAIL_VERIFICATION","email":"x@example.com"}`))
	assert.Error(t, err)

	_, _, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}
