package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront-service/internal/model"
)

type MongoWalletRepository struct {
	col *mongo.Collection
}

func NewMongoWalletRepository(db *mongo.Database) *MongoWalletRepository {
	return &MongoWalletRepository{col: db.Collection(WalletsCollection)}
}

func (m *MongoWalletRepository) FindByUserID(ctx context.Context, userID string) (*model.CoinWallet, error) {
	var w model.CoinWallet
	if err := m.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&w); err != nil {
		return nil, notFound(err)
	}
	return &w, nil
}

// Credit suma monedas; crea la billetera si no existe.
func (m *MongoWalletRepository) Credit(ctx context.Context, userID string, coins int64, now time.Time) (*model.CoinWallet, error) {
	update := bson.M{
		"$inc": bson.M{"balance": coins, "lifetime_earned": coins},
		"$set": bson.M{"updated_at": now},
		"$setOnInsert": bson.M{
			"locked_balance":    0,
			"lifetime_redeemed": 0,
			"locks":             bson.A{},
		},
	}
	return m.findOneAndUpdate(ctx, bson.M{"user_id": userID}, update, true)
}

// Lock mueve monedas del saldo al saldo bloqueado para orderID. Devuelve ErrConflict si
// el saldo no alcanza o la orden ya tenía un bloqueo.
func (m *MongoWalletRepository) Lock(ctx context.Context, userID, orderID string, coins int64, now time.Time) (*model.CoinWallet, error) {
	filter := bson.M{
		"user_id":        userID,
		"balance":        bson.M{"$gte": coins},
		"locks.order_id": bson.M{"$ne": orderID},
	}
	update := bson.M{
		"$inc":  bson.M{"balance": -coins, "locked_balance": coins},
		"$push": bson.M{"locks": model.CoinsLock{OrderID: orderID, Coins: coins, LockedAt: now}},
		"$set":  bson.M{"updated_at": now},
	}
	return m.findOneAndUpdate(ctx, filter, update, false)
}

// Redeem consume el bloqueo de orderID.
func (m *MongoWalletRepository) Redeem(ctx context.Context, userID string, lock model.CoinsLock, now time.Time) (*model.CoinWallet, error) {
	update := bson.M{
		"$inc":  bson.M{"locked_balance": -lock.Coins, "lifetime_redeemed": lock.Coins},
		"$pull": bson.M{"locks": bson.M{"order_id": lock.OrderID}},
		"$set":  bson.M{"updated_at": now},
	}
	return m.findOneAndUpdate(ctx, lockFilter(userID, lock.OrderID), update, false)
}

// Release devuelve al saldo las monedas bloqueadas para orderID.
func (m *MongoWalletRepository) Release(ctx context.Context, userID string, lock model.CoinsLock, now time.Time) (*model.CoinWallet, error) {
	update := bson.M{
		"$inc":  bson.M{"locked_balance": -lock.Coins, "balance": lock.Coins},
		"$pull": bson.M{"locks": bson.M{"order_id": lock.OrderID}},
		"$set":  bson.M{"updated_at": now},
	}
	return m.findOneAndUpdate(ctx, lockFilter(userID, lock.OrderID), update, false)
}

func lockFilter(userID, orderID string) bson.M {
	return bson.M{"user_id": userID, "locks.order_id": orderID}
}

func (m *MongoWalletRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M, upsert bool) (*model.CoinWallet, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetUpsert(upsert)

	var w model.CoinWallet
	err := m.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&w)
	if err == mongo.ErrNoDocuments {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}
