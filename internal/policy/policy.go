// Package policy decide si una orden, o una de sus líneas, se puede cancelar o devolver,
// y cuánto dinero vale el cambio.
package policy

import (
	"errors"
	"fmt"
	"time"

	"storefront-service/internal/model"
)

// ReturnWindow es el plazo desde la entrega en que se acepta una devolución.
const ReturnWindow = 7 * 24 * time.Hour

var (
	ErrPolicyViolation = errors.New("order policy violation")
	ErrItemNotFound    = errors.New("order item not found")
)

var cancellable = map[model.OrderStatus]bool{
	model.StatusPlaced:    true,
	model.StatusConfirmed: true,
}

// Decision es el resultado de una evaluación exitosa. No modifica la orden; eso lo
// hace Apply.
type Decision struct {
	NewStatus    model.OrderStatus
	ItemStatus   model.ItemStatus
	ProductID    string // vacío si afecta toda la orden
	RefundAmount model.Money
}

// WholeOrder indica si la decisión cubre todas las líneas.
func (d Decision) WholeOrder() bool {
	return d.ProductID == ""
}

func EvaluateCancellation(o *model.Order, productID string) (Decision, error) {
	if !cancellable[o.Status] {
		return Decision{}, violation("order in status %s cannot be cancelled", o.Status)
	}
	return evaluate(o, productID, model.StatusCancelled, model.ItemCancelled)
}

func EvaluateReturn(o *model.Order, productID string, now time.Time) (Decision, error) {
	if o.Status != model.StatusDelivered {
		return Decision{}, violation("order in status %s cannot be returned", o.Status)
	}
	if o.DeliveredAt == nil || o.DeliveredAt.IsZero() {
		return Decision{}, violation("order has no delivery date")
	}
	if now.Sub(*o.DeliveredAt) > ReturnWindow {
		return Decision{}, violation("return window of %d days has expired", int(ReturnWindow.Hours()/24))
	}
	return evaluate(o, productID, model.StatusReturned, model.ItemReturned)
}

func evaluate(o *model.Order, productID string, orderStatus model.OrderStatus, itemStatus model.ItemStatus) (Decision, error) {
	if productID == "" {
		return Decision{
			NewStatus:    orderStatus,
			ItemStatus:   itemStatus,
			RefundAmount: o.ComputeTotal(),
		}, nil
	}

	idx := o.FindItem(productID)
	if idx < 0 {
		return Decision{}, ErrItemNotFound
	}
	item := o.Items[idx]
	if item.Status != "" && item.Status != model.ItemActive {
		return Decision{}, violation("item %s is already %s", productID, item.Status)
	}
	return Decision{
		NewStatus:    o.Status,
		ItemStatus:   itemStatus,
		ProductID:    productID,
		RefundAmount: item.LineTotal(),
	}, nil
}

// Apply escribe la decisión en la orden. El estado de la orden solo cambia cuando se
// afecta la orden completa; cada aplicación queda en el historial.
func Apply(o *model.Order, d Decision, actorID, reason string, now time.Time) {
	if d.WholeOrder() {
		for i := range o.Items {
			o.Items[i].Status = d.ItemStatus
		}
	} else if idx := o.FindItem(d.ProductID); idx >= 0 {
		o.Items[idx].Status = d.ItemStatus
	}

	record := model.StatusRecord{
		Status:    d.NewStatus,
		Reason:    reason,
		UserID:    actorID,
		ProductID: d.ProductID,
		Timestamp: now,
	}
	if d.WholeOrder() {
		o.Status = d.NewStatus
	}
	o.History = append(o.History, record)
	o.UpdatedAt = now
}

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPolicyViolation, fmt.Sprintf(format, args...))
}
