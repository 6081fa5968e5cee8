package refund

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"storefront-service/internal/model"
)

// ShouldRefund: solo pagos ONLINE que todavía no fueron reembolsados.
func ShouldRefund(o *model.Order) bool {
	return o.PaymentMethod == model.PaymentOnline && !o.IsRefunded
}

// Gateway inicia un reembolso en el proveedor de pagos.
type Gateway interface {
	Initiate(ctx context.Context, orderID string, amount model.Money) error
}

// LogGateway solo registra el pedido de reembolso.
type LogGateway struct{}

func (LogGateway) Initiate(_ context.Context, orderID string, amount model.Money) error {
	log.WithFields(log.Fields{
		"order_id": orderID,
		"amount":   amount.String(),
	}).Info("Refund initiated")
	return nil
}

type refundRequest struct {
	OrderID string      `json:"orderId"`
	Amount  model.Money `json:"amount"`
}

// HTTPGateway hace POST {"orderId","amount"} al endpoint de reembolsos.
type HTTPGateway struct {
	url    string
	client *http.Client
}

func NewHTTPGateway(url string) *HTTPGateway {
	return &HTTPGateway{
		url: url,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (g *HTTPGateway) Initiate(ctx context.Context, orderID string, amount model.Money) error {
	body, err := json.Marshal(refundRequest{OrderID: orderID, Amount: amount})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("refund request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("refund gateway responded %d", resp.StatusCode)
	}
	return nil
}

// NewGateway elige HTTPGateway si hay URL configurada.
func NewGateway(url string) Gateway {
	if url == "" {
		return LogGateway{}
	}
	return NewHTTPGateway(url)
}

// Dispatch inicia el reembolso en segundo plano. El resultado solo se loguea: no se
// observa ni se reintenta.
func Dispatch(g Gateway, orderID string, amount model.Money) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		entry := log.WithFields(log.Fields{"order_id": orderID, "amount": amount.String()})
		if err := g.Initiate(ctx, orderID, amount); err != nil {
			entry.WithError(err).Warn("Refund initiation failed")
			return
		}
		entry.Debug("Refund initiation sent")
	}()
}
