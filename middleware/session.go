package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SessionCookie holds the session id issued at login
const SessionCookie = "mess_session"

// SetSessionCookie writes an httpOnly session cookie valid for ttl
func SetSessionCookie(c *gin.Context, sessionID string, ttl time.Duration, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, sessionID, int(ttl.Seconds()), "/", "", secure, true)
}

// ClearSessionCookie expires the session cookie in the browser
func ClearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", secure, true)
}
