package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront-service/internal/model"
)

type MongoOrderRepository struct {
	col *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{col: db.Collection(OrdersCollection)}
}

func (m *MongoOrderRepository) Create(ctx context.Context, o *model.Order) error {
	// Mongo guarda milisegundos; updated_at se usa como versión.
	now := time.Now().UTC().Truncate(time.Millisecond)
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	_, err := m.col.InsertOne(ctx, o)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (m *MongoOrderRepository) FindByOrderID(ctx context.Context, orderID string) (*model.Order, error) {
	var res model.Order
	err := m.col.FindOne(ctx, bson.M{"order_id": orderID}).Decode(&res)
	if err != nil {
		return nil, notFound(err)
	}
	return &res, nil
}

// UpdateLifecycle persiste estado, líneas, flag de reembolso e historial, solo si la
// orden no cambió desde que se leyó (updated_at == prevUpdatedAt).
func (m *MongoOrderRepository) UpdateLifecycle(ctx context.Context, o *model.Order, prevUpdatedAt time.Time) error {
	filter := bson.M{
		"order_id":   o.OrderID,
		"updated_at": prevUpdatedAt,
	}
	set := bson.M{
		"status":      o.Status,
		"items":       o.Items,
		"is_refunded": o.IsRefunded,
		"history":     o.History,
		"updated_at":  o.UpdatedAt,
	}
	if o.DeliveredAt != nil {
		set["delivered_at"] = o.DeliveredAt
	}

	res, err := m.col.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

func (m *MongoOrderRepository) FindAll(ctx context.Context) ([]*model.Order, error) {
	return m.find(ctx, bson.M{})
}

func (m *MongoOrderRepository) FindByStatus(ctx context.Context, status model.OrderStatus) ([]*model.Order, error) {
	return m.find(ctx, bson.M{"status": status})
}

func (m *MongoOrderRepository) FindByUserID(ctx context.Context, userID string) ([]*model.Order, error) {
	return m.find(ctx, bson.M{"user_id": userID})
}

func (m *MongoOrderRepository) find(ctx context.Context, filter bson.M) ([]*model.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Order](ctx, cur)
}
