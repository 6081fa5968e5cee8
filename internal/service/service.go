package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	log "github.com/sirupsen/logrus"

	"storefront-service/internal/model"
	"storefront-service/internal/notification"
	"storefront-service/internal/policy"
	"storefront-service/internal/refund"
	"storefront-service/internal/repository"
	"storefront-service/internal/rewards"
)

// Interfaz que debe implementar repository
type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	FindByOrderID(ctx context.Context, orderID string) (*model.Order, error)
	UpdateLifecycle(ctx context.Context, o *model.Order, prevUpdatedAt time.Time) error
	FindAll(ctx context.Context) ([]*model.Order, error)
	FindByStatus(ctx context.Context, status model.OrderStatus) ([]*model.Order, error)
	FindByUserID(ctx context.Context, userID string) ([]*model.Order, error)
}

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// Notifier publica eventos para el worker de emails.
type Notifier interface {
	Publish(ctx context.Context, ev notification.Event) error
}

// CoinLedger administra las monedas comprometidas con una orden.
type CoinLedger interface {
	LockCoins(ctx context.Context, userID, orderID string, coins int64) (*model.CoinWallet, error)
	RedeemLocked(ctx context.Context, userID, orderID string) (*model.CoinWallet, error)
	ReleaseLocked(ctx context.Context, userID, orderID string) (*model.CoinWallet, error)
}

// Errores de negocio exportados (los usa el controller)
var (
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrFinalState         = errors.New("order is in a final state")
	ErrOrderAlreadyExists = errors.New("order already exists")
	ErrInvalidOrder       = errors.New("invalid order")
	ErrStaleOrder         = errors.New("order was modified by another request, retry")
)

// Actor es quien ejecuta la operación.
type Actor struct {
	ID      string
	IsAdmin bool
}

// PlacedOrder son los datos con los que checkout crea una orden.
type PlacedOrder struct {
	OrderID       string
	UserID        string
	Email         string
	PaymentMethod model.PaymentMethod
	CoinsApplied  int64
	Items         []model.OrderItem
}

// ChangeResult es el resultado de una cancelación o devolución. RefundAmount es cero
// cuando no se dispara reembolso.
type ChangeResult struct {
	Order           *model.Order `json:"order"`
	RefundAmount    model.Money  `json:"refundAmount"`
	RefundInitiated bool         `json:"refundInitiated"`
}

type OrderService struct {
	repo     OrderRepository
	users    UserRepository
	gateway  refund.Gateway
	notifier Notifier
	coins    CoinLedger
	now      func() time.Time
}

func NewOrderService(r OrderRepository, users UserRepository, gateway refund.Gateway, notifier Notifier, coins CoinLedger) *OrderService {
	return &OrderService{
		repo:     r,
		users:    users,
		gateway:  gateway,
		notifier: notifier,
		coins:    coins,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// Transiciones que puede hacer un admin. Cancelar y devolver van por Cancel/Return.
var adminTransitions = map[model.OrderStatus][]model.OrderStatus{
	model.StatusPlaced:         {model.StatusConfirmed},
	model.StatusConfirmed:      {model.StatusShipped},
	model.StatusShipped:        {model.StatusOutForDelivery},
	model.StatusOutForDelivery: {model.StatusDelivered},
}

// Estados finales
var finalStates = map[model.OrderStatus]bool{
	model.StatusCancelled: true,
	model.StatusReturned:  true,
	model.StatusDelivered: true,
}

// CreatePlacedOrder crea la orden en PLACED. Si ya existe devuelve ErrOrderAlreadyExists.
func (s *OrderService) CreatePlacedOrder(ctx context.Context, in PlacedOrder) (*model.Order, error) {
	if err := validatePlaced(in); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByOrderID(ctx, in.OrderID)
	if err == nil && existing != nil {
		return nil, ErrOrderAlreadyExists
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	items := make([]model.OrderItem, len(in.Items))
	for i, it := range in.Items {
		it.Status = model.ItemActive
		items[i] = it
	}

	o := &model.Order{
		OrderID:       in.OrderID,
		UserID:        in.UserID,
		Email:         in.Email,
		Items:         items,
		PaymentMethod: in.PaymentMethod,
		Status:        model.StatusPlaced,
		CoinsApplied:  in.CoinsApplied,
		History: []model.StatusRecord{
			{
				Status:    model.StatusPlaced,
				Reason:    "Order placed",
				UserID:    in.UserID,
				Timestamp: now,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.TotalAmount = o.ComputeTotal()

	locked := false
	if o.CoinsApplied > 0 {
		if _, err := s.coins.LockCoins(ctx, o.UserID, o.OrderID, o.CoinsApplied); err != nil {
			log.WithError(err).WithField("order_id", o.OrderID).Warn("Could not lock coins for order")
			o.CoinsApplied = 0
		} else {
			locked = true
		}
	}

	if err := s.repo.Create(ctx, o); err != nil {
		if locked {
			if _, relErr := s.coins.ReleaseLocked(ctx, o.UserID, o.OrderID); relErr != nil {
				log.WithError(relErr).WithField("order_id", o.OrderID).Error("Could not release coins after failed create")
			}
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrOrderAlreadyExists
		}
		return nil, err
	}

	s.notifyStatus(ctx, o)
	return o, nil
}

func validatePlaced(in PlacedOrder) error {
	if in.OrderID == "" || in.UserID == "" {
		return fmt.Errorf("%w: orderId and userId are required", ErrInvalidOrder)
	}
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: order has no items", ErrInvalidOrder)
	}
	for _, it := range in.Items {
		if it.ProductID == "" || it.Quantity <= 0 || it.Price.IsNegative() {
			return fmt.Errorf("%w: bad item %q", ErrInvalidOrder, it.ProductID)
		}
	}
	if in.CoinsApplied < 0 {
		return fmt.Errorf("%w: negative coins", ErrInvalidOrder)
	}
	return nil
}

// Getters
func (s *OrderService) GetByOrderID(ctx context.Context, orderID string, actor Actor) (*model.Order, error) {
	o, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := authorize(o, actor); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *OrderService) GetAll(ctx context.Context) ([]*model.Order, error) {
	return s.repo.FindAll(ctx)
}

func (s *OrderService) GetByStatus(ctx context.Context, status string) ([]*model.Order, error) {
	st, err := model.ParseOrderStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	return s.repo.FindByStatus(ctx, st)
}

func (s *OrderService) GetByUserID(ctx context.Context, userID string) ([]*model.Order, error) {
	return s.repo.FindByUserID(ctx, userID)
}

// Cancel cancela la orden completa, o solo la línea productID si viene.
func (s *OrderService) Cancel(ctx context.Context, orderID, productID string, actor Actor, reason string) (*ChangeResult, error) {
	o, err := s.GetByOrderID(ctx, orderID, actor)
	if err != nil {
		return nil, err
	}
	d, err := policy.EvaluateCancellation(o, productID)
	if err != nil {
		return nil, err
	}
	return s.applyChange(ctx, o, d, actor, reason)
}

// Return devuelve la orden completa, o solo la línea productID, dentro de la ventana.
func (s *OrderService) Return(ctx context.Context, orderID, productID string, actor Actor, reason string) (*ChangeResult, error) {
	o, err := s.GetByOrderID(ctx, orderID, actor)
	if err != nil {
		return nil, err
	}
	d, err := policy.EvaluateReturn(o, productID, s.now())
	if err != nil {
		return nil, err
	}
	return s.applyChange(ctx, o, d, actor, reason)
}

func (s *OrderService) applyChange(ctx context.Context, o *model.Order, d policy.Decision, actor Actor, reason string) (*ChangeResult, error) {
	prev := o.UpdatedAt
	policy.Apply(o, d, actor.ID, reason, s.now())

	refunding := refund.ShouldRefund(o)
	if refunding {
		o.IsRefunded = true
	}

	if err := s.persist(ctx, o, prev); err != nil {
		return nil, err
	}

	entry := log.WithFields(log.Fields{
		"order_id":   o.OrderID,
		"product_id": d.ProductID,
		"status":     o.Status,
		"refund":     d.RefundAmount.String(),
	})
	entry.Info("Order change applied")

	if refunding {
		refund.Dispatch(s.gateway, o.OrderID, d.RefundAmount)
	}
	if d.WholeOrder() {
		if o.Status == model.StatusCancelled && o.CoinsApplied > 0 {
			if _, err := s.coins.ReleaseLocked(ctx, o.UserID, o.OrderID); err != nil && !errors.Is(err, rewards.ErrNoLock) {
				entry.WithError(err).Error("Could not release locked coins")
			}
		}
		s.notifyStatus(ctx, o)
	}

	res := &ChangeResult{Order: o, RefundAmount: model.Zero(), RefundInitiated: refunding}
	if refunding {
		res.RefundAmount = d.RefundAmount
	}
	return res, nil
}

// UpdateStatus valida y realiza la transición de admin según la tabla.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, newStatus, reason string, actor Actor) (*model.Order, error) {
	if !actor.IsAdmin {
		return nil, ErrForbidden
	}
	target, err := model.ParseOrderStatus(newStatus)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}

	o, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	current := o.Status
	// Si el estado nuevo es el mismo que ya está, no hacemos nada
	if current == target {
		return o, nil
	}
	if finalStates[current] {
		return nil, ErrFinalState
	}
	if !slices.Contains(adminTransitions[current], target) {
		return nil, ErrInvalidTransition
	}

	prev := o.UpdatedAt
	now := s.now()
	o.Status = target
	o.UpdatedAt = now
	if target == model.StatusDelivered {
		o.DeliveredAt = &now
	}
	o.History = append(o.History, model.StatusRecord{
		Status:    target,
		Reason:    reason,
		UserID:    actor.ID,
		Timestamp: now,
	})

	if err := s.persist(ctx, o, prev); err != nil {
		return nil, err
	}

	if target == model.StatusDelivered && o.CoinsApplied > 0 {
		if _, err := s.coins.RedeemLocked(ctx, o.UserID, o.OrderID); err != nil && !errors.Is(err, rewards.ErrNoLock) {
			log.WithError(err).WithField("order_id", o.OrderID).Error("Could not redeem locked coins")
		}
	}
	s.notifyStatus(ctx, o)
	return o, nil
}

func (s *OrderService) persist(ctx context.Context, o *model.Order, prev time.Time) error {
	err := s.repo.UpdateLifecycle(ctx, o, prev)
	if errors.Is(err, repository.ErrConflict) {
		return ErrStaleOrder
	}
	return err
}

// notifyStatus es best effort: un fallo de publicación no revierte el cambio.
func (s *OrderService) notifyStatus(ctx context.Context, o *model.Order) {
	if o.Email == "" {
		return
	}
	data := notification.OrderStatusChangedData{OrderID: o.OrderID, Status: string(o.Status)}
	if u, err := s.users.FindByID(ctx, o.UserID); err == nil {
		data.Name = u.Name
	}

	entry := log.WithFields(log.Fields{"order_id": o.OrderID, "status": o.Status})
	ev, err := notification.NewOrderStatusChanged(o.Email, data)
	if err != nil {
		entry.WithError(err).Error("Could not build notification")
		return
	}
	if err := s.notifier.Publish(ctx, ev); err != nil {
		entry.WithError(err).Warn("Could not publish order status notification")
	}
}

// authorize: el dueño o un admin.
func authorize(o *model.Order, actor Actor) error {
	if actor.IsAdmin || (actor.ID != "" && o.UserID == actor.ID) {
		return nil
	}
	return ErrForbidden
}
