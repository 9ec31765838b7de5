// Package controller provides the HTTP request handlers of the MaintainView
// portal: the login surface, the agency (admin) panel, the client panel and
// the tokenized file downloads.
package controller

import (
	"net/http"

	"github.com/maintainview/maintainview/database/model"
	"github.com/maintainview/maintainview/logger"
	"github.com/maintainview/maintainview/web/locale"
	"github.com/maintainview/maintainview/web/service"
	"github.com/maintainview/maintainview/web/session"

	"github.com/gin-gonic/gin"
)

// loginUserKey caches the freshly loaded account in the gin context so a
// handler chain hits the users table at most once per request.
const loginUserKey = "login_user"

// BaseController provides the authentication gate shared by all controllers.
type BaseController struct {
	userService service.UserService
}

// checkLogin verifies the session cookie and loads the account behind it.
// A missing, stale or deactivated account redirects to the login page; the
// session is the only thing trusted from the client, the account state is
// re-read from the database on every request.
func (a *BaseController) checkLogin(c *gin.Context) {
	user := a.loadLoginUser(c)
	if user == nil || !user.IsActive {
		if isAjax(c) {
			pureJsonMsg(c, http.StatusUnauthorized, false, I18nWeb(c, "pages.login.loginAgain"))
		} else {
			c.Redirect(http.StatusFound, c.GetString("base_path")+"login")
		}
		c.Abort()
		return
	}
	c.Next()
}

// checkAdmin gates the agency panel. Non-admin accounts are sent back to the
// login page, not to their own panel, so the response does not leak which
// routes exist.
func (a *BaseController) checkAdmin(c *gin.Context) {
	user := a.loadLoginUser(c)
	if user == nil || !user.IsActive || !user.IsAdmin() {
		if isAjax(c) {
			pureJsonMsg(c, http.StatusUnauthorized, false, I18nWeb(c, "pages.login.loginAgain"))
		} else {
			c.Redirect(http.StatusFound, c.GetString("base_path")+"login")
		}
		c.Abort()
		return
	}
	c.Next()
}

// checkClient gates the client panel the same way checkAdmin gates the
// agency panel. Client accounts must be bound to a tenant.
func (a *BaseController) checkClient(c *gin.Context) {
	user := a.loadLoginUser(c)
	if user == nil || !user.IsActive || user.Role != model.RoleClient || user.ClientId == nil {
		if isAjax(c) {
			pureJsonMsg(c, http.StatusUnauthorized, false, I18nWeb(c, "pages.login.loginAgain"))
		} else {
			c.Redirect(http.StatusFound, c.GetString("base_path")+"login")
		}
		c.Abort()
		return
	}
	c.Next()
}

func (a *BaseController) loadLoginUser(c *gin.Context) *model.User {
	if cached, ok := c.Get(loginUserKey); ok {
		return cached.(*model.User)
	}
	userId, ok := session.GetLoginUserId(c)
	if !ok {
		return nil
	}
	user := a.userService.GetUser(userId)
	if user == nil {
		return nil
	}
	c.Set(loginUserKey, user)
	return user
}

// getLoginUser returns the account loaded by the gate middleware. Handlers
// behind checkLogin/checkAdmin/checkClient may rely on a non-nil result.
func getLoginUser(c *gin.Context) *model.User {
	cached, ok := c.Get(loginUserKey)
	if !ok {
		return nil
	}
	return cached.(*model.User)
}

// I18nWeb retrieves an internationalized message for the web interface based on the current locale.
func I18nWeb(c *gin.Context, name string, params ...string) string {
	anyfunc, funcExists := c.Get("I18n")
	if !funcExists {
		logger.Warning("I18n function not exists in gin context!")
		return ""
	}
	i18nFunc, _ := anyfunc.(func(i18nType locale.I18nType, key string, keyParams ...string) string)
	msg := i18nFunc(locale.Web, name, params...)
	return msg
}
