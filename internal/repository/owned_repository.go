package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront-service/internal/model"
)

// ownedCollection guarda documentos con un único dueño (carts y wishlists), uno por
// dueño gracias al índice único sobre owner.kind + owner.id.
type ownedCollection[T any] struct {
	col *mongo.Collection
}

func ownerFilter(o model.Owner) bson.M {
	return bson.M{"owner.kind": o.Kind, "owner.id": o.ID}
}

func (c ownedCollection[T]) findByOwner(ctx context.Context, owner model.Owner) (*T, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	var v T
	if err := c.col.FindOne(ctx, ownerFilter(owner)).Decode(&v); err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

// saveItems reemplaza las líneas del dueño, creando el documento si no existe.
func (c ownedCollection[T]) saveItems(ctx context.Context, owner model.Owner, items any, now time.Time) error {
	if err := owner.Validate(); err != nil {
		return err
	}
	update := bson.M{
		"$set":         bson.M{"items": items, "updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}
	_, err := c.col.UpdateOne(ctx, ownerFilter(owner), update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	return err
}

// reown cambia el dueño del documento de from a to.
func (c ownedCollection[T]) reown(ctx context.Context, from, to model.Owner, now time.Time) error {
	if err := from.Validate(); err != nil {
		return err
	}
	if err := to.Validate(); err != nil {
		return err
	}
	res, err := c.col.UpdateOne(ctx, ownerFilter(from), bson.M{
		"$set": bson.M{"owner": to, "updated_at": now},
	})
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c ownedCollection[T]) delete(ctx context.Context, owner model.Owner) error {
	if err := owner.Validate(); err != nil {
		return err
	}
	_, err := c.col.DeleteOne(ctx, ownerFilter(owner))
	return err
}

type MongoCartRepository struct {
	owned ownedCollection[model.Cart]
}

func NewMongoCartRepository(db *mongo.Database) *MongoCartRepository {
	return &MongoCartRepository{owned: ownedCollection[model.Cart]{col: db.Collection(CartsCollection)}}
}

func (m *MongoCartRepository) FindByOwner(ctx context.Context, owner model.Owner) (*model.Cart, error) {
	return m.owned.findByOwner(ctx, owner)
}

func (m *MongoCartRepository) Save(ctx context.Context, c *model.Cart) error {
	if c.Items == nil {
		c.Items = []model.CartItem{}
	}
	c.UpdatedAt = time.Now().UTC()
	return m.owned.saveItems(ctx, c.Owner, c.Items, c.UpdatedAt)
}

func (m *MongoCartRepository) Reown(ctx context.Context, from, to model.Owner) error {
	return m.owned.reown(ctx, from, to, time.Now().UTC())
}

func (m *MongoCartRepository) Delete(ctx context.Context, owner model.Owner) error {
	return m.owned.delete(ctx, owner)
}

type MongoWishlistRepository struct {
	owned ownedCollection[model.Wishlist]
}

func NewMongoWishlistRepository(db *mongo.Database) *MongoWishlistRepository {
	return &MongoWishlistRepository{owned: ownedCollection[model.Wishlist]{col: db.Collection(WishlistsCollection)}}
}

func (m *MongoWishlistRepository) FindByOwner(ctx context.Context, owner model.Owner) (*model.Wishlist, error) {
	return m.owned.findByOwner(ctx, owner)
}

func (m *MongoWishlistRepository) Save(ctx context.Context, w *model.Wishlist) error {
	if w.Items == nil {
		w.Items = []model.WishlistItem{}
	}
	w.UpdatedAt = time.Now().UTC()
	return m.owned.saveItems(ctx, w.Owner, w.Items, w.UpdatedAt)
}

func (m *MongoWishlistRepository) Reown(ctx context.Context, from, to model.Owner) error {
	return m.owned.reown(ctx, from, to, time.Now().UTC())
}

func (m *MongoWishlistRepository) Delete(ctx context.Context, owner model.Owner) error {
	return m.owned.delete(ctx, owner)
}
