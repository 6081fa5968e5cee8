package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/dto"
	"storefront-service/internal/middleware"
	"storefront-service/internal/model"
)

type CartService interface {
	GetCart(ctx context.Context, owner model.Owner) (*model.Cart, error)
	AddToCart(ctx context.Context, owner model.Owner, productID string, qty int) (*model.Cart, error)
	RemoveFromCart(ctx context.Context, owner model.Owner, productID string) (*model.Cart, error)
	GetWishlist(ctx context.Context, owner model.Owner) (*model.Wishlist, error)
	AddToWishlist(ctx context.Context, owner model.Owner, productID string) (*model.Wishlist, error)
	RemoveFromWishlist(ctx context.Context, owner model.Owner, productID string) (*model.Wishlist, error)
}

type GuestMerger interface {
	MergeGuest(ctx context.Context, userID, guestID string)
}

type CartController struct {
	Service CartService
	Merger  GuestMerger
}

func NewCartController(s CartService, m GuestMerger) *CartController {
	return &CartController{Service: s, Merger: m}
}

// ownerFrom: el usuario logueado si hay uno, si no el invitado de la cookie.
func ownerFrom(c *gin.Context) model.Owner {
	if uid := c.GetString(middleware.UserIDKey); uid != "" {
		return model.OwnedByUser(uid)
	}
	return model.OwnedByGuest(c.GetString(middleware.GuestIDKey))
}

// GET /cart
func (ctl *CartController) GetCart(c *gin.Context) {
	cart, err := ctl.Service.GetCart(c.Request.Context(), ownerFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// POST /cart/items
func (ctl *CartController) AddToCart(c *gin.Context) {
	var req dto.CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cart, err := ctl.Service.AddToCart(c.Request.Context(), ownerFrom(c), req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// DELETE /cart/items/:productId
func (ctl *CartController) RemoveFromCart(c *gin.Context) {
	cart, err := ctl.Service.RemoveFromCart(c.Request.Context(), ownerFrom(c), c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// GET /wishlist
func (ctl *CartController) GetWishlist(c *gin.Context) {
	w, err := ctl.Service.GetWishlist(c.Request.Context(), ownerFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// POST /wishlist/items
func (ctl *CartController) AddToWishlist(c *gin.Context) {
	var req dto.WishlistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w, err := ctl.Service.AddToWishlist(c.Request.Context(), ownerFrom(c), req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// DELETE /wishlist/items/:productId
func (ctl *CartController) RemoveFromWishlist(c *gin.Context) {
	w, err := ctl.Service.RemoveFromWishlist(c.Request.Context(), ownerFrom(c), c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// POST /guest/merge (requiere token). Junta el cart y la wishlist del invitado con los
// del usuario y borra la cookie. El merge es best effort.
func (ctl *CartController) MergeGuest(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)
	guestID, err := c.Cookie(middleware.GuestCookie)
	if err == nil && guestID != "" {
		ctl.Merger.MergeGuest(c.Request.Context(), userID, guestID)
		middleware.ClearGuestCookie(c)
	}

	cart, err := ctl.Service.GetCart(c.Request.Context(), model.OwnedByUser(userID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}
