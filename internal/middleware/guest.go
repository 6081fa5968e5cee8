package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	GuestCookie = "guest_id"
	GuestIDKey  = "guestID"
	guestMaxAge = 30 * 24 * 60 * 60
)

// GuestID asegura que todo request tenga una identidad de invitado en cookie.
func GuestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(GuestCookie)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.NewString()
			SetGuestCookie(c, id, guestMaxAge)
		}
		c.Set(GuestIDKey, id)
		c.Next()
	}
}

// SetGuestCookie escribe (o con maxAge < 0 borra) la cookie de invitado.
func SetGuestCookie(c *gin.Context, id string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(GuestCookie, id, maxAge, "/", "", false, true)
}

func ClearGuestCookie(c *gin.Context) {
	SetGuestCookie(c, "", -1)
}
