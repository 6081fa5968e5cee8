package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID         string `bson:"_id" json:"id"`
	Email      string `bson:"email" json:"email"`
	Name       string `bson:"name" json:"name"`
	IsVerified bool   `bson:"is_verified" json:"isVerified"`
}

// CoinWallet: uno por usuario.
type CoinWallet struct {
	UserID           string      `bson:"user_id" json:"userId"`
	Balance          int64       `bson:"balance" json:"balance"`
	LockedBalance    int64       `bson:"locked_balance" json:"lockedBalance"`
	LifetimeEarned   int64       `bson:"lifetime_earned" json:"lifetimeEarned"`
	LifetimeRedeemed int64       `bson:"lifetime_redeemed" json:"lifetimeRedeemed"`
	Locks            []CoinsLock `bson:"locks" json:"locks"`
	UpdatedAt        time.Time   `bson:"updated_at" json:"updatedAt"`
}

// CoinsLock son monedas comprometidas con una orden en curso.
type CoinsLock struct {
	OrderID  string    `bson:"order_id" json:"orderId"`
	Coins    int64     `bson:"coins" json:"coins"`
	LockedAt time.Time `bson:"locked_at" json:"lockedAt"`
}

func (w *CoinWallet) FindLock(orderID string) (CoinsLock, bool) {
	for _, l := range w.Locks {
		if l.OrderID == orderID {
			return l, true
		}
	}
	return CoinsLock{}, false
}

// SpinHistory es append-only.
type SpinHistory struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"userId"`
	IP        string             `bson:"ip" json:"ip"`
	UserAgent string             `bson:"user_agent" json:"userAgent"`
	Coins     int64              `bson:"coins" json:"coins"`
	RiskScore int                `bson:"risk_score" json:"riskScore"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}
