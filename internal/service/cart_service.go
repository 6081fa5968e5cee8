package service

import (
	"context"
	"errors"
	"time"

	"storefront-service/internal/merge"
	"storefront-service/internal/model"
	"storefront-service/internal/repository"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrMissingProduct  = errors.New("productId is required")
)

// CartService es el CRUD de cart y wishlist para usuarios e invitados.
type CartService struct {
	carts     merge.CartRepository
	wishlists merge.WishlistRepository
	now       func() time.Time
}

func NewCartService(carts merge.CartRepository, wishlists merge.WishlistRepository) *CartService {
	return &CartService{
		carts:     carts,
		wishlists: wishlists,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *CartService) GetCart(ctx context.Context, owner model.Owner) (*model.Cart, error) {
	c, err := s.carts.FindByOwner(ctx, owner)
	if errors.Is(err, repository.ErrNotFound) {
		return &model.Cart{Owner: owner, Items: []model.CartItem{}}, nil
	}
	return c, err
}

func (s *CartService) AddToCart(ctx context.Context, owner model.Owner, productID string, qty int) (*model.Cart, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	if productID == "" {
		return nil, ErrMissingProduct
	}
	c, err := s.GetCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	c.AddQuantity(productID, qty)
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CartService) RemoveFromCart(ctx context.Context, owner model.Owner, productID string) (*model.Cart, error) {
	c, err := s.carts.FindByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !c.Remove(productID) {
		return nil, repository.ErrNotFound
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CartService) GetWishlist(ctx context.Context, owner model.Owner) (*model.Wishlist, error) {
	w, err := s.wishlists.FindByOwner(ctx, owner)
	if errors.Is(err, repository.ErrNotFound) {
		return &model.Wishlist{Owner: owner, Items: []model.WishlistItem{}}, nil
	}
	return w, err
}

func (s *CartService) AddToWishlist(ctx context.Context, owner model.Owner, productID string) (*model.Wishlist, error) {
	if productID == "" {
		return nil, ErrMissingProduct
	}
	w, err := s.GetWishlist(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !w.Add(productID, s.now()) {
		return w, nil
	}
	if err := s.wishlists.Save(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *CartService) RemoveFromWishlist(ctx context.Context, owner model.Owner, productID string) (*model.Wishlist, error) {
	w, err := s.wishlists.FindByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !w.Remove(productID) {
		return nil, repository.ErrNotFound
	}
	if err := s.wishlists.Save(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}
