package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("document already exists")
	// ErrConflict: el documento cambió (o no cumple la condición) entre la lectura y la escritura.
	ErrConflict = errors.New("document was modified concurrently")
)

const (
	OrdersCollection      = "orders"
	UsersCollection       = "users"
	WalletsCollection     = "coin_wallets"
	SpinHistoryCollection = "spin_history"
	CartsCollection       = "carts"
	WishlistsCollection   = "wishlists"
)

// EnsureIndexes crea los índices una sola vez al arrancar.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ownerIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "owner.kind", Value: 1}, {Key: "owner.id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	indexes := map[string][]mongo.IndexModel{
		OrdersCollection: {
			{Keys: bson.D{{Key: "order_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		WalletsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		SpinHistoryCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "ip", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		CartsCollection:     {ownerIndex},
		WishlistsCollection: {ownerIndex},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func decodeAll[T any](ctx context.Context, cur *mongo.Cursor) ([]*T, error) {
	defer cur.Close(ctx)

	out := []*T{}
	for cur.Next(ctx) {
		var v T
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, cur.Err()
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
