// Package fraud filtra los giros de premio: la cuenta tiene que estar verificada y tanto
// el usuario como la IP tienen que estar bajo su tope diario de giros.
package fraud

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"storefront-service/internal/model"
	"storefront-service/internal/repository"
)

// IPDailyLimit es la cantidad de giros aceptados desde una IP por día local.
const IPDailyLimit = 10

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUnverified         = errors.New("account is not verified")
	ErrDailyLimitExceeded = errors.New("daily spin limit reached")
	ErrIPLimitExceeded    = errors.New("too many spins from this network today")
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

type SpinCounter interface {
	CountByUserSince(ctx context.Context, userID string, since time.Time) (int64, error)
	CountByIPSince(ctx context.Context, ip string, since time.Time) (int64, error)
}

// Eligibility son los conteos del día con los que se aprobó el giro.
type Eligibility struct {
	User           *model.User
	UserSpinsToday int64
	IPSpinsToday   int64
}

type Service struct {
	users      UserRepository
	spins      SpinCounter
	dailyLimit int64
	loc        *time.Location
	now        func() time.Time
}

func NewService(users UserRepository, spins SpinCounter, dailyLimit int, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		users:      users,
		spins:      spins,
		dailyLimit: int64(dailyLimit),
		loc:        loc,
		now:        time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ValidateSpinEligibility corre los chequeos en orden: usuario, verificación, límite
// diario del usuario, límite diario de la IP.
func (s *Service) ValidateSpinEligibility(ctx context.Context, userID, ip string) (*Eligibility, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsVerified {
		return nil, ErrUnverified
	}

	since := StartOfDay(s.now(), s.loc)
	entry := log.WithFields(log.Fields{"user_id": userID, "ip": ip})

	userSpins, err := s.spins.CountByUserSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("count user spins: %w", err)
	}
	if userSpins >= s.dailyLimit {
		entry.WithField("spins_today", userSpins).Info("Spin rejected: daily limit")
		return nil, ErrDailyLimitExceeded
	}

	ipSpins, err := s.spins.CountByIPSince(ctx, ip, since)
	if err != nil {
		return nil, fmt.Errorf("count ip spins: %w", err)
	}
	if ipSpins >= IPDailyLimit {
		entry.WithField("ip_spins_today", ipSpins).Warn("Spin rejected: ip limit")
		return nil, ErrIPLimitExceeded
	}

	return &Eligibility{User: user, UserSpinsToday: userSpins, IPSpinsToday: ipSpins}, nil
}

// StartOfDay es la medianoche local de t en loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// RiskScore devuelve 0..100: sube con el uso del día y sin user agent.
func RiskScore(e *Eligibility, dailyLimit int, userAgent string) int {
	score := 0
	if dailyLimit > 0 {
		score += int(40 * e.UserSpinsToday / int64(dailyLimit))
	}
	score += int(40 * e.IPSpinsToday / IPDailyLimit)
	if userAgent == "" {
		score += 20
	}
	if score > 100 {
		score = 100
	}
	return score
}
