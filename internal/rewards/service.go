// Package rewards maneja los giros de premio y la billetera de monedas.
package rewards

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront-service/internal/fraud"
	"storefront-service/internal/model"
	"storefront-service/internal/repository"
)

var (
	ErrInsufficientCoins = errors.New("insufficient coins")
	ErrNoLock            = errors.New("no coins locked for this order")
	ErrInvalidAmount     = errors.New("coins must be positive")
)

type Gate interface {
	ValidateSpinEligibility(ctx context.Context, userID, ip string) (*fraud.Eligibility, error)
}

type WalletRepository interface {
	FindByUserID(ctx context.Context, userID string) (*model.CoinWallet, error)
	Credit(ctx context.Context, userID string, coins int64, now time.Time) (*model.CoinWallet, error)
	Lock(ctx context.Context, userID, orderID string, coins int64, now time.Time) (*model.CoinWallet, error)
	Redeem(ctx context.Context, userID string, lock model.CoinsLock, now time.Time) (*model.CoinWallet, error)
	Release(ctx context.Context, userID string, lock model.CoinsLock, now time.Time) (*model.CoinWallet, error)
}

type SpinRepository interface {
	Insert(ctx context.Context, s *model.SpinHistory) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type SpinResult struct {
	Coins     int64 `json:"coins"`
	Balance   int64 `json:"balance"`
	RiskScore int   `json:"riskScore"`
}

type Service struct {
	gate       Gate
	wallets    WalletRepository
	spins      SpinRepository
	wheel      *Wheel
	dailyLimit int
	now        func() time.Time
}

func NewService(gate Gate, wallets WalletRepository, spins SpinRepository, wheel *Wheel, dailyLimit int) *Service {
	return &Service{
		gate:       gate,
		wallets:    wallets,
		spins:      spins,
		wheel:      wheel,
		dailyLimit: dailyLimit,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Spin valida la elegibilidad, gira la rueda, acredita y registra el giro.
// El conteo y el insert no son atómicos: dos giros simultáneos pueden pasar el límite.
func (s *Service) Spin(ctx context.Context, userID, ip, userAgent string) (*SpinResult, error) {
	elig, err := s.gate.ValidateSpinEligibility(ctx, userID, ip)
	if err != nil {
		return nil, err
	}

	now := s.now()
	coins := s.wheel.Spin()
	risk := fraud.RiskScore(elig, s.dailyLimit, userAgent)

	// primero el registro: un giro acreditado siempre cuenta para el límite diario
	spin := &model.SpinHistory{
		UserID:    userID,
		IP:        ip,
		UserAgent: userAgent,
		Coins:     coins,
		RiskScore: risk,
		CreatedAt: now,
	}
	if err := s.spins.Insert(ctx, spin); err != nil {
		return nil, fmt.Errorf("record spin: %w", err)
	}

	wallet, err := s.wallets.Credit(ctx, userID, coins, now)
	if err != nil {
		if delErr := s.spins.Delete(ctx, spin.ID); delErr != nil {
			log.WithError(delErr).WithField("spin_id", spin.ID.Hex()).Error("Could not remove spin after failed credit")
		}
		return nil, fmt.Errorf("credit wallet: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id":    userID,
		"coins":      coins,
		"risk_score": risk,
	}).Info("Spin awarded")

	return &SpinResult{Coins: coins, Balance: wallet.Balance, RiskScore: risk}, nil
}

// Wallet devuelve la billetera; una vacía si el usuario nunca ganó monedas.
func (s *Service) Wallet(ctx context.Context, userID string) (*model.CoinWallet, error) {
	w, err := s.wallets.FindByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return &model.CoinWallet{UserID: userID, Locks: []model.CoinsLock{}}, nil
	}
	return w, err
}

func (s *Service) LockCoins(ctx context.Context, userID, orderID string, coins int64) (*model.CoinWallet, error) {
	if coins <= 0 {
		return nil, ErrInvalidAmount
	}
	w, err := s.wallets.Lock(ctx, userID, orderID, coins, s.now())
	if errors.Is(err, repository.ErrConflict) {
		return nil, ErrInsufficientCoins
	}
	return w, err
}

func (s *Service) RedeemLocked(ctx context.Context, userID, orderID string) (*model.CoinWallet, error) {
	lock, err := s.findLock(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	w, err := s.wallets.Redeem(ctx, userID, lock, s.now())
	if errors.Is(err, repository.ErrConflict) {
		return nil, ErrNoLock
	}
	return w, err
}

func (s *Service) ReleaseLocked(ctx context.Context, userID, orderID string) (*model.CoinWallet, error) {
	lock, err := s.findLock(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	w, err := s.wallets.Release(ctx, userID, lock, s.now())
	if errors.Is(err, repository.ErrConflict) {
		return nil, ErrNoLock
	}
	return w, err
}

func (s *Service) findLock(ctx context.Context, userID, orderID string) (model.CoinsLock, error) {
	w, err := s.wallets.FindByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.CoinsLock{}, ErrNoLock
	}
	if err != nil {
		return model.CoinsLock{}, err
	}
	lock, ok := w.FindLock(orderID)
	if !ok {
		return model.CoinsLock{}, ErrNoLock
	}
	return lock, nil
}
