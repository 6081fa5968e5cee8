package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"storefront-service/internal/model"
	"storefront-service/internal/service"
)

type OrderCreator interface {
	CreatePlacedOrder(ctx context.Context, in service.PlacedOrder) (*model.Order, error)
}

type PlaceOrderConsumer struct {
	Service OrderCreator
}

func NewPlaceOrderConsumer(s OrderCreator) *PlaceOrderConsumer {
	return &PlaceOrderConsumer{Service: s}
}

// PlacedOrderMessage es el sobre que publica checkout en el exchange order_placed.
type PlacedOrderMessage struct {
	CorrelationID string `json:"correlation_id"`
	Exchange      string `json:"exchange"`
	RoutingKey    string `json:"routing_key"`
	Message       struct {
		OrderID       string `json:"orderId"`
		UserID        string `json:"userId"`
		Email         string `json:"email"`
		PaymentMethod string `json:"paymentMethod"`
		CoinsApplied  int64  `json:"coinsApplied"`
		Items         []struct {
			ProductID string      `json:"productId"`
			Name      string      `json:"name"`
			Price     model.Money `json:"price"`
			Quantity  int         `json:"quantity"`
		} `json:"items"`
	} `json:"message"`
}

func (c *PlaceOrderConsumer) Handle(ctx context.Context, msg []byte) error {
	var event PlacedOrderMessage
	if err := json.Unmarshal(msg, &event); err != nil {
		return fmt.Errorf("%w: parse place_order: %v", ErrDiscard, err)
	}

	m := event.Message
	entry := log.WithFields(log.Fields{
		"order_id":       m.OrderID,
		"correlation_id": event.CorrelationID,
	})
	entry.Info("[Rabbit] place_order received")

	method, err := model.ParsePaymentMethod(m.PaymentMethod)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDiscard, err)
	}

	in := service.PlacedOrder{
		OrderID:       m.OrderID,
		UserID:        m.UserID,
		Email:         m.Email,
		PaymentMethod: method,
		CoinsApplied:  m.CoinsApplied,
	}
	for _, it := range m.Items {
		in.Items = append(in.Items, model.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}

	_, err = c.Service.CreatePlacedOrder(ctx, in)
	switch {
	case errors.Is(err, service.ErrOrderAlreadyExists):
		entry.Info("[Rabbit] order already created, skipping")
		return nil
	case errors.Is(err, service.ErrInvalidOrder):
		return fmt.Errorf("%w: %v", ErrDiscard, err)
	case err != nil:
		return err
	}

	entry.Info("[Rabbit] order created")
	return nil
}
