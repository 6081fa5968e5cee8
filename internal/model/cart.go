package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Owner     Owner              `bson:"owner" json:"owner"`
	Items     []CartItem         `bson:"items" json:"items"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

type CartItem struct {
	ProductID string `bson:"product_id" json:"productId"`
	Quantity  int    `bson:"quantity" json:"quantity"`
}

// AddQuantity suma qty a la línea del producto o agrega una nueva.
func (c *Cart) AddQuantity(productID string, qty int) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += qty
			return
		}
	}
	c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: qty})
}

// Remove quita el producto; devuelve false si no estaba.
func (c *Cart) Remove(productID string) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

type Wishlist struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Owner     Owner              `bson:"owner" json:"owner"`
	Items     []WishlistItem     `bson:"items" json:"items"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

type WishlistItem struct {
	ProductID string    `bson:"product_id" json:"productId"`
	AddedAt   time.Time `bson:"added_at" json:"addedAt"`
}

func (w *Wishlist) Contains(productID string) bool {
	for _, it := range w.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

// Add agrega el producto si no estaba. Devuelve true si lo agregó.
func (w *Wishlist) Add(productID string, at time.Time) bool {
	if w.Contains(productID) {
		return false
	}
	w.Items = append(w.Items, WishlistItem{ProductID: productID, AddedAt: at})
	return true
}

func (w *Wishlist) Remove(productID string) bool {
	for i := range w.Items {
		if w.Items[i].ProductID == productID {
			w.Items = append(w.Items[:i], w.Items[i+1:]...)
			return true
		}
	}
	return false
}
