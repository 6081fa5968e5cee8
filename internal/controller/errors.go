package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"storefront-service/internal/fraud"
	"storefront-service/internal/model"
	"storefront-service/internal/policy"
	"storefront-service/internal/repository"
	"storefront-service/internal/rewards"
	"storefront-service/internal/service"
)

// statusFor mapea errores de negocio a códigos HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, policy.ErrItemNotFound),
		errors.Is(err, fraud.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, policy.ErrPolicyViolation),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrFinalState):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, fraud.ErrUnverified):
		return http.StatusForbidden
	case errors.Is(err, fraud.ErrDailyLimitExceeded),
		errors.Is(err, fraud.ErrIPLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, rewards.ErrInsufficientCoins),
		errors.Is(err, service.ErrStaleOrder),
		errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrMissingProduct),
		errors.Is(err, service.ErrInvalidOrder),
		errors.Is(err, model.ErrInvalidOwner):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		log.WithError(err).WithField("path", c.FullPath()).Error("Unhandled error")
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
