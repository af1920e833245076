package response

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

const flashCookie = "spt_flash"

// Flash carries a one-shot user notice between a form POST and the redirect target.
type Flash struct {
	Kind    string
	Message string
}

// Notice kinds rendered as banner styles.
const (
	FlashError   = "error"
	FlashSuccess = "success"
)

// HTML renders a template with common page chrome merged into the data map.
func HTML(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["Flash"]; !ok {
		if flash, found := TakeFlash(c); found {
			data["Flash"] = flash
		}
	}
	c.Header("Cache-Control", "no-store")
	c.HTML(status, name, data)
}

// Redirect issues a see-other redirect so form resubmission is never prompted.
func Redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}

// SetFlash stores a notice for the next rendered page.
func SetFlash(c *gin.Context, kind, message string) {
	value := url.QueryEscape(kind + "|" + message)
	c.SetCookie(flashCookie, value, 60, "/", "", false, true)
}

// TakeFlash consumes the pending notice, if any.
func TakeFlash(c *gin.Context) (Flash, bool) {
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return Flash{}, false
	}
	c.SetCookie(flashCookie, "", -1, "/", "", false, true)

	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return Flash{}, false
	}
	for i := 0; i < len(decoded); i++ {
		if decoded[i] == '|' {
			return Flash{Kind: decoded[:i], Message: decoded[i+1:]}, true
		}
	}
	return Flash{Kind: FlashSuccess, Message: decoded}, true
}
