package fraud

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/model"
	"storefront-service/internal/repository"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type MockSpinCounter struct {
	mock.Mock
}

func (m *MockSpinCounter) CountByUserSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	args := m.Called(ctx, userID, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSpinCounter) CountByIPSince(ctx context.Context, ip string, since time.Time) (int64, error) {
	args := m.Called(ctx, ip, since)
	return args.Get(0).(int64), args.Error(1)
}

var (
	loc      = time.FixedZone("IST", 5*3600+1800)
	now      = time.Date(2026, 5, 10, 15, 30, 0, 0, loc)
	midnight = time.Date(2026, 5, 10, 0, 0, 0, 0, loc)
)

func newService(users *MockUserRepository, spins *MockSpinCounter) *Service {
	return NewService(users, spins, 3, loc).WithClock(func() time.Time { return now })
}

func TestValidateSpinEligibilityOK(t *testing.T) {
	users, spins := new(MockUserRepository), new(MockSpinCounter)
	users.On("FindByID", mock.Anything, "u1").Return(&model.User{ID: "u1", IsVerified: true}, nil)
	spins.On("CountByUserSince", mock.Anything, "u1", midnight).Return(int64(2), nil)
	spins.On("CountByIPSince", mock.Anything, "10.0.0.1", midnight).Return(int64(9), nil)

	e, err := newService(users, spins).ValidateSpinEligibility(context.Background(), "u1", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), e.UserSpinsToday)
	assert.Equal(t, int64(9), e.IPSpinsToday)
	spins.AssertExpectations(t)
}

func TestValidateSpinEligibilityUnknownUser(t *testing.T) {
	users, spins := new(MockUserRepository), new(MockSpinCounter)
	users.On("FindByID", mock.Anything, "ghost").Return(nil, repository.ErrNotFound)

	_, err := newService(users, spins).ValidateSpinEligibility(context.Background(), "ghost", "10.0.0.1")
	assert.ErrorIs(t, err, ErrUserNotFound)
	spins.AssertNotCalled(t, "CountByUserSince", mock.Anything, mock.Anything, mock.Anything)
}

func TestValidateSpinEligibilityUnverified(t *testing.T) {
	users, spins := new(MockUserRepository), new(MockSpinCounter)
	users.On("FindByID", mock.Anything, "u1").Return(&model.User{ID: "u1"}, nil)

	_, err := newService(users, spins).ValidateSpinEligibility(context.Background(), "u1", "10.0.0.1")
	assert.ErrorIs(t, err, ErrUnverified)
}

func TestFourthSpinHitsDailyLimit(t *testing.T) {
	users, spins := new(MockUserRepository), new(MockSpinCounter)
	users.On("FindByID", mock.Anything, "u1").Return(&model.User{ID: "u1", IsVerified: true}, nil)
	spins.On("CountByUserSince", mock.Anything, "u1", midnight).Return(int64(3), nil)

	_, err := newService(users, spins).ValidateSpinEligibility(context.Background(), "u1", "10.0.0.1")
	assert.ErrorIs(t, err, ErrDailyLimitExceeded)
	spins.AssertNotCalled(t, "CountByIPSince", mock.Anything, mock.Anything, mock.Anything)
}

func TestIPLimit(t *testing.T) {
	users, spins := new(MockUserRepository), new(MockSpinCounter)
	users.On("FindByID", mock.Anything, "u1").Return(&model.User{ID: "u1", IsVerified: true}, nil)
	spins.On("CountByUserSince", mock.Anything, "u1", midnight).Return(int64(0), nil)
	spins.On("CountByIPSince", mock.Anything, "10.0.0.1", midnight).Return(int64(IPDailyLimit), nil)

	_, err := newService(users, spins).ValidateSpinEligibility(context.Background(), "u1", "10.0.0.1")
	assert.ErrorIs(t, err, ErrIPLimitExceeded)
}

func TestCounterErrorsAreWrapped(t *testing.T) {
	users, spins := new(MockUserRepository), new(MockSpinCounter)
	boom := errors.New("mongo down")
	users.On("FindByID", mock.Anything, "u1").Return(&model.User{ID: "u1", IsVerified: true}, nil)
	spins.On("CountByUserSince", mock.Anything, "u1", midnight).Return(int64(0), boom)

	_, err := newService(users, spins).ValidateSpinEligibility(context.Background(), "u1", "10.0.0.1")
	assert.ErrorIs(t, err, boom)
}

func TestStartOfDayUsesLocation(t *testing.T) {
	utc := time.Date(2026, 5, 10, 20, 0, 0, 0, time.UTC) // 01:30 del 11 en IST
	got := StartOfDay(utc, loc)
	assert.Equal(t, time.Date(2026, 5, 11, 0, 0, 0, 0, loc), got)
}

func TestRiskScore(t *testing.T) {
	assert.Equal(t, 0, RiskScore(&Eligibility{}, 3, "Mozilla/5.0"))
	assert.Equal(t, 20, RiskScore(&Eligibility{}, 3, ""))
	assert.Equal(t, 26+36, RiskScore(&Eligibility{UserSpinsToday: 2, IPSpinsToday: 9}, 3, "curl"))
	assert.Equal(t, 100, RiskScore(&Eligibility{UserSpinsToday: 10, IPSpinsToday: 10}, 3, ""))
}
