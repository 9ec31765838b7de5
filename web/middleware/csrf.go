package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/maintainview/maintainview/database"
	"github.com/maintainview/maintainview/web/entity"
	"github.com/maintainview/maintainview/web/locale"
	"github.com/maintainview/maintainview/web/session"

	"github.com/gin-gonic/gin"
)

// CsrfFormField is the hidden form field every mutating form must carry.
const CsrfFormField = "csrf_token"

// Csrf is the single choke point for state-changing requests: the read-only
// kill switch is checked first and wins over token validation, then the
// submitted csrf_token form field must equal the session's token.
func Csrf() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if database.IsReadOnly() {
			c.AbortWithStatusJSON(http.StatusForbidden, entity.Msg{
				Success: false,
				Msg:     locale.I18n(locale.Web, "errors.readOnlyMode"),
			})
			return
		}

		submitted := c.PostForm(CsrfFormField)
		expected := session.CsrfToken(c)
		if submitted == "" || expected == "" ||
			subtle.ConstantTimeCompare([]byte(submitted), []byte(expected)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, entity.Msg{
				Success: false,
				Msg:     locale.I18n(locale.Web, "errors.csrfInvalid"),
			})
			return
		}

		c.Next()
	}
}
