package controller

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/middleware"
)

// NewEngine arma el engine base. ClientIP solo lee X-Forwarded-For / X-Real-IP cuando el
// peer está en trustedProxies; sin proxies se usa siempre la dirección remota.
func NewEngine(trustedProxies []string) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(trustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(middleware.RequestLogger(), gin.Recovery())
	return r, nil
}
