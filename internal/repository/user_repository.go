package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront-service/internal/model"
)

// MongoUserRepository lee la colección de usuarios que mantiene el servicio de auth.
type MongoUserRepository struct {
	col *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{col: db.Collection(UsersCollection)}
}

func (m *MongoUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	// El _id puede ser ObjectID o string según quién creó el usuario.
	ids := bson.A{id}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		ids = append(ids, oid)
	}

	var u model.User
	err := m.col.FindOne(ctx, bson.M{"_id": bson.M{"$in": ids}}).Decode(&u)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}
