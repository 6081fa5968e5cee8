// Package merge junta el cart y la wishlist del invitado con los del usuario al loguearse.
package merge

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"storefront-service/internal/model"
	"storefront-service/internal/repository"
)

type CartRepository interface {
	FindByOwner(ctx context.Context, owner model.Owner) (*model.Cart, error)
	Save(ctx context.Context, c *model.Cart) error
	Reown(ctx context.Context, from, to model.Owner) error
	Delete(ctx context.Context, owner model.Owner) error
}

type WishlistRepository interface {
	FindByOwner(ctx context.Context, owner model.Owner) (*model.Wishlist, error)
	Save(ctx context.Context, w *model.Wishlist) error
	Reown(ctx context.Context, from, to model.Owner) error
	Delete(ctx context.Context, owner model.Owner) error
}

type Service struct {
	carts     CartRepository
	wishlists WishlistRepository
}

func NewService(carts CartRepository, wishlists WishlistRepository) *Service {
	return &Service{carts: carts, wishlists: wishlists}
}

// MergeCart: sin cart de invitado no hace nada; si el usuario no tiene cart, el del
// invitado pasa a ser suyo; si ambos existen, suma cantidades por producto y borra el
// del invitado.
func (s *Service) MergeCart(ctx context.Context, userID, guestID string) error {
	user, guest := model.OwnedByUser(userID), model.OwnedByGuest(guestID)

	guestCart, err := s.carts.FindByOwner(ctx, guest)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find guest cart: %w", err)
	}

	userCart, err := s.carts.FindByOwner(ctx, user)
	if errors.Is(err, repository.ErrNotFound) {
		return s.carts.Reown(ctx, guest, user)
	}
	if err != nil {
		return fmt.Errorf("find user cart: %w", err)
	}

	for _, it := range guestCart.Items {
		userCart.AddQuantity(it.ProductID, it.Quantity)
	}
	if err := s.carts.Save(ctx, userCart); err != nil {
		return fmt.Errorf("save user cart: %w", err)
	}
	return s.carts.Delete(ctx, guest)
}

// MergeWishlist: igual que MergeCart pero solo agrega productos que el usuario no tenía.
func (s *Service) MergeWishlist(ctx context.Context, userID, guestID string) error {
	user, guest := model.OwnedByUser(userID), model.OwnedByGuest(guestID)

	guestList, err := s.wishlists.FindByOwner(ctx, guest)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find guest wishlist: %w", err)
	}

	userList, err := s.wishlists.FindByOwner(ctx, user)
	if errors.Is(err, repository.ErrNotFound) {
		return s.wishlists.Reown(ctx, guest, user)
	}
	if err != nil {
		return fmt.Errorf("find user wishlist: %w", err)
	}

	for _, it := range guestList.Items {
		userList.Add(it.ProductID, it.AddedAt)
	}
	if err := s.wishlists.Save(ctx, userList); err != nil {
		return fmt.Errorf("save user wishlist: %w", err)
	}
	return s.wishlists.Delete(ctx, guest)
}

// MergeGuest corre ambos merges. Nunca falla: los errores se loguean para no bloquear
// el login.
func (s *Service) MergeGuest(ctx context.Context, userID, guestID string) {
	if userID == "" || guestID == "" {
		return
	}
	entry := log.WithFields(log.Fields{"user_id": userID, "guest_id": guestID})

	if err := s.MergeCart(ctx, userID, guestID); err != nil {
		entry.WithError(err).Error("Guest cart merge failed")
	}
	if err := s.MergeWishlist(ctx, userID, guestID); err != nil {
		entry.WithError(err).Error("Guest wishlist merge failed")
	}
}
