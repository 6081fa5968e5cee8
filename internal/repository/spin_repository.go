package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront-service/internal/model"
)

type MongoSpinRepository struct {
	col *mongo.Collection
}

func NewMongoSpinRepository(db *mongo.Database) *MongoSpinRepository {
	return &MongoSpinRepository{col: db.Collection(SpinHistoryCollection)}
}

// Insert asigna el _id antes de insertar para que el caller pueda borrarlo.
func (m *MongoSpinRepository) Insert(ctx context.Context, s *model.SpinHistory) error {
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	_, err := m.col.InsertOne(ctx, s)
	return err
}

func (m *MongoSpinRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (m *MongoSpinRepository) CountByUserSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	return m.col.CountDocuments(ctx, bson.M{
		"user_id":    userID,
		"created_at": bson.M{"$gte": since},
	})
}

func (m *MongoSpinRepository) CountByIPSince(ctx context.Context, ip string, since time.Time) (int64, error) {
	return m.col.CountDocuments(ctx, bson.M{
		"ip":         ip,
		"created_at": bson.M{"$gte": since},
	})
}
