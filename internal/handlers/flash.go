package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const flashCookie = "libportal_flash"

const (
	flashSuccess = "success"
	flashWarning = "warning"
	flashError   = "error"
)

// Flash is a one-shot notice carried across a redirect in its own cookie.
type Flash struct {
	Level   string
	Message string
}

func setFlash(c *gin.Context, level, message string) {
	c.SetCookie(flashCookie, level+"|"+message, 60, "/", "", false, true)
}

// takeFlash returns the pending flash, if any, and clears it.
func takeFlash(c *gin.Context) (*Flash, bool) {
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil, false
	}
	c.SetCookie(flashCookie, "", -1, "/", "", false, true)
	level, message, ok := strings.Cut(raw, "|")
	if !ok {
		return nil, false
	}
	return &Flash{Level: level, Message: message}, true
}
