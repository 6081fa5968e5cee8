package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/model"
	"storefront-service/internal/notification"
	"storefront-service/internal/policy"
	"storefront-service/internal/repository"
	"storefront-service/internal/rewards"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Create(ctx context.Context, o *model.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) FindByOrderID(ctx context.Context, orderID string) (*model.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateLifecycle(ctx context.Context, o *model.Order, prev time.Time) error {
	return m.Called(ctx, o, prev).Error(0)
}

func (m *MockOrderRepository) FindAll(ctx context.Context) ([]*model.Order, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*model.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByStatus(ctx context.Context, st model.OrderStatus) ([]*model.Order, error) {
	args := m.Called(ctx, st)
	return args.Get(0).([]*model.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByUserID(ctx context.Context, userID string) ([]*model.Order, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*model.Order), args.Error(1)
}

type stubUsers struct{}

func (stubUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	return &model.User{ID: id, Name: "Ana"}, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification.Event
}

func (r *recordingNotifier) Publish(_ context.Context, ev notification.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

type refundCall struct {
	orderID string
	amount  string
}

type chanGateway chan refundCall

func (g chanGateway) Initiate(_ context.Context, orderID string, amount model.Money) error {
	g <- refundCall{orderID, amount.String()}
	return nil
}

type MockCoins struct{ mock.Mock }

func (m *MockCoins) LockCoins(ctx context.Context, userID, orderID string, coins int64) (*model.CoinWallet, error) {
	args := m.Called(ctx, userID, orderID, coins)
	return nil, args.Error(1)
}

func (m *MockCoins) RedeemLocked(ctx context.Context, userID, orderID string) (*model.CoinWallet, error) {
	args := m.Called(ctx, userID, orderID)
	return nil, args.Error(1)
}

func (m *MockCoins) ReleaseLocked(ctx context.Context, userID, orderID string) (*model.CoinWallet, error) {
	args := m.Called(ctx, userID, orderID)
	return nil, args.Error(1)
}

var (
	now     = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	owner   = Actor{ID: "u1"}
	version = now.Add(-time.Hour)
)

type fixture struct {
	repo     *MockOrderRepository
	notifier *recordingNotifier
	refunds  chanGateway
	coins    *MockCoins
	svc      *OrderService
}

func newFixture() *fixture {
	f := &fixture{
		repo:     new(MockOrderRepository),
		notifier: &recordingNotifier{},
		refunds:  make(chanGateway, 4),
		coins:    new(MockCoins),
	}
	f.svc = NewOrderService(f.repo, stubUsers{}, f.refunds, f.notifier, f.coins)
	f.svc.now = func() time.Time { return now }
	return f
}

func order(status model.OrderStatus, method model.PaymentMethod) *model.Order {
	return &model.Order{
		OrderID:       "ord-1",
		UserID:        "u1",
		Email:         "ana@example.com",
		Status:        status,
		PaymentMethod: method,
		Items: []model.OrderItem{
			{ProductID: "a", Price: model.MustMoney("10"), Quantity: 1, Status: model.ItemActive},
			{ProductID: "b", Price: model.MustMoney("20"), Quantity: 2, Status: model.ItemActive},
			{ProductID: "c", Price: model.MustMoney("5"), Quantity: 4, Status: model.ItemActive},
		},
		UpdatedAt: version,
	}
}

func (f *fixture) expectRefund(t *testing.T) refundCall {
	t.Helper()
	select {
	case c := <-f.refunds:
		return c
	case <-time.After(time.Second):
		t.Fatal("refund was not initiated")
		return refundCall{}
	}
}

func (f *fixture) expectNoRefund(t *testing.T) {
	t.Helper()
	select {
	case c := <-f.refunds:
		t.Fatalf("unexpected refund %+v", c)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCancelOnlineOrderRefundsAndNotifies(t *testing.T) {
	f := newFixture()
	f.repo.On("FindByOrderID", mock.Anything, "ord-1").Return(order(model.StatusPlaced, model.PaymentOnline), nil)
	f.repo.On("UpdateLifecycle", mock.Anything, mock.MatchedBy(func(o *model.Order) bool {
		return o.Status == model.StatusCancelled && o.IsRefunded
	}), version).Return(nil)

	res, err := f.svc.Cancel(context.Background(), "ord-1", "", owner, "no longer needed")
	require.NoError(t, err)
	assert.True(t, res.RefundInitiated)
	assert.Equal(t, "70", res.RefundAmount.String())

	assert.Equal(t, refundCall{"ord-1", "70"}, f.expectRefund(t))
	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, notification.OrderStatusChanged, f.notifier.events[0].EventType)
	assert.JSONEq(t, `{"orderId":"ord-1","status":"CANCELLED","name":"Ana"}`, string(f.notifier.events[0].Data))
}

func TestCancelCODOrderDoesNotRefund(t *testing.T) {
	f := newFixture()
	f.repo.On("FindByOrderID", mock.Anything, "ord-1").Return(order(model.StatusConfirmed, model.PaymentCOD), nil)
	f.repo.On("UpdateLifecycle", mock.Anything, mock.MatchedBy(func(o *model.Order) bool {
		return !o.IsRefunded
	}), version).Return(nil)

	res, err := f.svc.Cancel(context.Background(), "ord-1", "", owner, "")
	require.NoError(t, err)
	assert.False(t, res.RefundInitiated)
	assert.True(t, res.RefundAmount.IsZero())
	f.expectNoRefund(t)
}

func TestCancelAlreadyRefundedOrderDoesNotRefundAgain(t *testing.T) {
	f := newFixture()
	o := order(model.StatusPlaced, model.PaymentOnline)
	o.IsRefunded = true
	f.repo.On("FindByOrderID", mock.Anything, "ord-1").Return(o, nil)
	f.repo.On("UpdateLifecycle", mock.Anything, mock.Anything, version).Return(nil)

	res, err := f.svc.Cancel(context.Background(), "ord-1", "", owner, "")
	require.NoError(t, err)
	assert.False(t, res.RefundInitiated)
	assert.True(t, res.RefundAmount.IsZero())
	f.expectNoRefund(t)
}

func TestCancelSingleItemOfThree(t *testing.T) {
	f := newFixture()
	f.repo.On("FindByOrderID", mock.Anything, "ord-1").Return(order(model.StatusPlaced, model.PaymentOnline), nil)
	f.repo.On("UpdateLifecycle", mock.Anything, mock.Anything, version).Return(nil)

	res, err := f.svc.Cancel(context.Background(), "ord-1", "b", owner, "")
	require.NoError(t, err)

	assert.Equal(t, "40", res.RefundAmount.String())
	assert.Equal(t, model.StatusPlaced, res.Order.Status)
	assert.Equal(t, model.ItemActive, res.Order.Items[0].Status)
	assert.Equal(t, model.ItemCancelled, res.Order.Items[1].Status)
	assert.Equal(t, model.ItemActive, res.Order.Items[2].Status)
	assert.Equal(t, refundCall{"ord-1", "40"}, f.expectRefund(t))
	assert.Empty(t, f.notifier.events, "order status did not change")
}

func TestCancelShippedOrderViolatesPolicy(t *testing.T) {
	f := newFixture()
	f.repo.On("FindByOrderID", mock.Anything, "ord-1").Return(order(model.StatusShipped, model.PaymentOnline), nil)

	_, err := f.svc.Cancel(context.Background(), "ord-1", "", owner, "")
	assert.ErrorIs(t, err, policy.ErrPolicyViolation)
	f.repo.AssertNotCalled(t, "UpdateLifecycle", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelByStrangerIsForbidden(t *testing.T) {
	f := newFixture()
	f.repo.On("FindByOrderID", mock.Anything, "ord-1").Return(order(model.StatusPlaced, model.PaymentOnline), nil)

	_, err := f.svc.Cancel(context.Background(), "ord-1", "", Actor{ID: "intruder"}, "")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCancelReleasesLockedCoins(t *testing.T) {
	f := newFixture()
	o := order(model.StatusPlaced, model.PaymentCOD)
	o.CoinsApplied = 30
	f.repo.On("FindByOrderID", mock.Anything, "ord-1").Return(o, nil)
	f.repo.On("UpdateLifecycle", mock.Anything, mock.Anything, version).Return(nil)
	f.coins.On("ReleaseLocked", mock.Anything, "u1", "ord-1").Return(nil, nil)

	_, err := f.svc.Cancel(context.Background(), "ord-1", "", owner, "")
	require.NoError(t, err)
	f.coins.AssertExpectations(t)
}

func TestConcurrentWriterYieldsStaleOrder(t *testing.T) {
	f := newFixture()
	f.repo.On("FindByOrderID", mock.Anything, "ord-1").Return(order(model.StatusPlaced, model.PaymentOnline), nil)
	f.repo.On("UpdateLifecycle", mock.Anything, mock.Anything, version).Return(repository.ErrConflict)

	_, err := f.svc.Cancel(context.Background(), "ord-1", "", owner, "")
	assert.ErrorIs(t, err, ErrStaleOrder)
	f.expectNoRefund(t)
}

func TestReturnWithinWindow(t *testing.T) {
	f := newFixture()
	o := order(model.StatusDelivered, model.PaymentOnline)
	delivered := now.Add(-6 * 24 * time.Hour)
	o.DeliveredAt = &delivered
	f.repo.On("FindByOrderID", mock.Anything, "ord-1").Return(o, nil)
	f.repo.On("UpdateLifecycle", mock.Anything, mock.Anything, version).Return(nil)

	res, err := f.svc.Return(context.Background(), "ord-1", "", owner, "damaged")
	require.NoError(t, err)
	assert.Equal(t, model.StatusReturned, res.Order.Status)
	assert.Equal(t, refundCall{"ord-1", "70"}, f.expectRefund(t))
}

func TestReturnAfterWindow(t *testing.T) {
	f := newFixture()
	o := order(model.StatusDelivered, model.PaymentOnline)
	delivered := now.Add(-8 * 24 * time.Hour)
	o.DeliveredAt = &delivered
	f.repo.On("FindByOrderID", mock.Anything, "ord-1").Return(o, nil)

	_, err := f.svc.Return(context.Background(), "ord-1", "", owner, "")
	assert.ErrorIs(t, err, policy.ErrPolicyViolation)
}

func TestAdminUpdateStatusTransitions(t *testing.T) {
	admin := Actor{ID: "adm", IsAdmin: true}

	tests := []struct {
		name    string
		from    model.OrderStatus
		to      string
		wantErr error
	}{
		{"confirm", model.StatusPlaced, "CONFIRMED", nil},
		{"ship", model.StatusConfirmed, "SHIPPED", nil},
		{"skip ahead", model.StatusPlaced, "SHIPPED", ErrInvalidTransition},
		{"from final", model.StatusCancelled, "CONFIRMED", ErrFinalState},
		{"unknown", model.StatusPlaced, "LOST", ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.repo.On("FindByOrderID", mock.Anything, "ord-1").Return(order(tt.from, model.PaymentOnline), nil)
			f.repo.On("UpdateLifecycle", mock.Anything, mock.Anything, version).Return(nil)

			_, err := f.svc.UpdateStatus(context.Background(), "ord-1", tt.to, "", admin)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDeliveryStampsDateAndRedeemsCoins(t *testing.T) {
	f := newFixture()
	o := order(model.StatusOutForDelivery, model.PaymentOnline)
	o.CoinsApplied = 10
	f.repo.On("FindByOrderID", mock.Anything, "ord-1").Return(o, nil)
	f.repo.On("UpdateLifecycle", mock.Anything, mock.Anything, version).Return(nil)
	f.coins.On("RedeemLocked", mock.Anything, "u1", "ord-1").Return(nil, rewards.ErrNoLock)

	got, err := f.svc.UpdateStatus(context.Background(), "ord-1", "DELIVERED", "", Actor{ID: "adm", IsAdmin: true})
	require.NoError(t, err)
	require.NotNil(t, got.DeliveredAt)
	assert.Equal(t, now, *got.DeliveredAt)
	f.coins.AssertExpectations(t)
}

func TestUpdateStatusRequiresAdmin(t *testing.T) {
	f := newFixture()
	_, err := f.svc.UpdateStatus(context.Background(), "ord-1", "CONFIRMED", "", owner)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreatePlacedOrder(t *testing.T) {
	f := newFixture()
	f.repo.On("FindByOrderID", mock.Anything, "ord-2").Return(nil, repository.ErrNotFound)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.coins.On("LockCoins", mock.Anything, "u1", "ord-2", int64(15)).Return(nil, nil)

	o, err := f.svc.CreatePlacedOrder(context.Background(), PlacedOrder{
		OrderID:       "ord-2",
		UserID:        "u1",
		Email:         "ana@example.com",
		PaymentMethod: model.PaymentOnline,
		CoinsApplied:  15,
		Items: []model.OrderItem{
			{ProductID: "a", Price: model.MustMoney("12.50"), Quantity: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPlaced, o.Status)
	assert.Equal(t, "25", o.TotalAmount.String())
	assert.Equal(t, model.ItemActive, o.Items[0].Status)
	assert.Equal(t, int64(15), o.CoinsApplied)
	require.Len(t, f.notifier.events, 1)
}

func TestCreatePlacedOrderDuplicate(t *testing.T) {
	f := newFixture()
	f.repo.On("FindByOrderID", mock.Anything, "ord-1").Return(order(model.StatusPlaced, model.PaymentOnline), nil)

	_, err := f.svc.CreatePlacedOrder(context.Background(), PlacedOrder{
		OrderID: "ord-1", UserID: "u1", PaymentMethod: model.PaymentCOD,
		Items: []model.OrderItem{{ProductID: "a", Price: model.MustMoney("1"), Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrOrderAlreadyExists)
}

func TestCreatePlacedOrderValidation(t *testing.T) {
	f := newFixture()
	_, err := f.svc.CreatePlacedOrder(context.Background(), PlacedOrder{OrderID: "ord-3", UserID: "u1"})
	assert.ErrorIs(t, err, ErrInvalidOrder)
}
