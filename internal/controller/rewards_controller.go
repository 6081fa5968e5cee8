package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/middleware"
	"storefront-service/internal/model"
	"storefront-service/internal/rewards"
)

type RewardsService interface {
	Spin(ctx context.Context, userID, ip, userAgent string) (*rewards.SpinResult, error)
	Wallet(ctx context.Context, userID string) (*model.CoinWallet, error)
}

type RewardsController struct {
	Service RewardsService
}

func NewRewardsController(s RewardsService) *RewardsController {
	return &RewardsController{Service: s}
}

// POST /rewards/spin
func (ctl *RewardsController) Spin(c *gin.Context) {
	res, err := ctl.Service.Spin(
		c.Request.Context(),
		c.GetString(middleware.UserIDKey),
		c.ClientIP(),
		c.Request.UserAgent(),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /rewards/wallet
func (ctl *RewardsController) Wallet(c *gin.Context) {
	w, err := ctl.Service.Wallet(c.Request.Context(), c.GetString(middleware.UserIDKey))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}
