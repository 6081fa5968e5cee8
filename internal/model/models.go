// models.go
package model

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus es el ciclo de vida de una orden. Los valores son de wire (API y eventos).
type OrderStatus string

const (
	StatusPlaced         OrderStatus = "PLACED"
	StatusConfirmed      OrderStatus = "CONFIRMED"
	StatusShipped        OrderStatus = "SHIPPED"
	StatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	StatusDelivered      OrderStatus = "DELIVERED"
	StatusCancelled      OrderStatus = "CANCELLED"
	StatusReturned       OrderStatus = "RETURNED"

	// statusCreatedAlias es el nombre que usaba el backend anterior para PLACED.
	statusCreatedAlias = "CREATED"
)

var orderStatuses = map[OrderStatus]bool{
	StatusPlaced:         true,
	StatusConfirmed:      true,
	StatusShipped:        true,
	StatusOutForDelivery: true,
	StatusDelivered:      true,
	StatusCancelled:      true,
	StatusReturned:       true,
}

// ParseOrderStatus normaliza un estado recibido por API o mensaje.
// CREATED se acepta como alias de PLACED.
func ParseOrderStatus(s string) (OrderStatus, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == statusCreatedAlias {
		return StatusPlaced, nil
	}
	st := OrderStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return st, nil
}

func (s OrderStatus) Valid() bool {
	return orderStatuses[s]
}

type PaymentMethod string

const (
	PaymentOnline PaymentMethod = "ONLINE"
	PaymentCOD    PaymentMethod = "COD"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch pm := PaymentMethod(strings.ToUpper(strings.TrimSpace(s))); pm {
	case PaymentOnline, PaymentCOD:
		return pm, nil
	default:
		return "", fmt.Errorf("unknown payment method %q", s)
	}
}

// ItemStatus refleja la cancelación o devolución de cada línea.
type ItemStatus string

const (
	ItemActive    ItemStatus = "ACTIVE"
	ItemCancelled ItemStatus = "CANCELLED"
	ItemReturned  ItemStatus = "RETURNED"
)

type Order struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID       string             `bson:"order_id" json:"orderId"`
	UserID        string             `bson:"user_id" json:"userId"`
	Email         string             `bson:"email" json:"email"`
	Items         []OrderItem        `bson:"items" json:"items"`
	TotalAmount   Money              `bson:"total_amount" json:"totalAmount"`
	PaymentMethod PaymentMethod      `bson:"payment_method" json:"paymentMethod"`
	Status        OrderStatus        `bson:"status" json:"status"`
	IsRefunded    bool               `bson:"is_refunded" json:"isRefunded"`
	CoinsApplied  int64              `bson:"coins_applied" json:"coinsApplied"`
	DeliveredAt   *time.Time         `bson:"delivered_at,omitempty" json:"deliveredAt,omitempty"`
	History       []StatusRecord     `bson:"history" json:"history"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

type OrderItem struct {
	ProductID string     `bson:"product_id" json:"productId"`
	Name      string     `bson:"name" json:"name"`
	Price     Money      `bson:"price" json:"price"`
	Quantity  int        `bson:"quantity" json:"quantity"`
	Status    ItemStatus `bson:"status" json:"status"`
}

// LineTotal es price × quantity.
func (i OrderItem) LineTotal() Money {
	return i.Price.MulInt(i.Quantity)
}

type StatusRecord struct {
	Status    OrderStatus `bson:"status" json:"status"`
	Reason    string      `bson:"reason" json:"reason"`
	UserID    string      `bson:"user" json:"userId"`
	ProductID string      `bson:"product_id,omitempty" json:"productId,omitempty"`
	Timestamp time.Time   `bson:"timestamp" json:"timestamp"`
}

// FindItem devuelve el índice de la línea con ese producto, o -1.
func (o *Order) FindItem(productID string) int {
	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// ComputeTotal suma todas las líneas.
func (o *Order) ComputeTotal() Money {
	total := Zero()
	for _, it := range o.Items {
		total = total.Add(it.LineTotal())
	}
	return total
}
