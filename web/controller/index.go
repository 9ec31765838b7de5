package controller

import (
	"net/http"
	"text/template"

	"github.com/maintainview/maintainview/config"
	"github.com/maintainview/maintainview/logger"
	"github.com/maintainview/maintainview/web/middleware"
	"github.com/maintainview/maintainview/web/service"
	"github.com/maintainview/maintainview/web/session"

	"github.com/gin-gonic/gin"
)

// LoginForm represents the login request structure.
type LoginForm struct {
	Email     string `json:"email" form:"email"`
	Password  string `json:"password" form:"password"`
	CsrfToken string `json:"csrf_token" form:"csrf_token"`
}

// IndexController handles the login surface and the role dispatch at the root.
type IndexController struct {
	BaseController

	userService service.UserService
}

// NewIndexController creates a new IndexController and initializes its routes.
func NewIndexController(g *gin.RouterGroup) *IndexController {
	a := &IndexController{}
	a.initRouter(g)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.index)
	g.GET("/login", a.loginPage)
	g.GET("/logout", a.logout)
	g.GET("/api/version", a.version)

	g.POST("/login", middleware.Csrf(), a.login)
}

// index dispatches a logged-in account to its panel and everyone else to the
// login page.
func (a *IndexController) index(c *gin.Context) {
	user := a.loadLoginUser(c)
	basePath := c.GetString("base_path")
	switch {
	case user == nil || !user.IsActive:
		c.Redirect(http.StatusFound, basePath+"login")
	case user.IsAdmin():
		c.Redirect(http.StatusFound, basePath+"admin/")
	default:
		c.Redirect(http.StatusFound, basePath+"client/")
	}
}

// loginPage renders the login form. The anti-forgery token is issued here so
// the subsequent POST can present it.
func (a *IndexController) loginPage(c *gin.Context) {
	user := a.loadLoginUser(c)
	if user != nil && user.IsActive {
		c.Redirect(http.StatusFound, c.GetString("base_path"))
		return
	}
	csrfToken := session.EnsureCsrfToken(c)
	html(c, "login.html", "pages.login.title", gin.H{
		"csrf_token": csrfToken,
	})
}

// login authenticates the form credentials. The mutation guard on the route
// has already enforced read-only mode and the anti-forgery token.
func (a *IndexController) login(c *gin.Context) {
	var form LoginForm

	if err := c.ShouldBind(&form); err != nil {
		pureJsonMsg(c, http.StatusOK, false, I18nWeb(c, "pages.login.invalidFormData"))
		return
	}
	if form.Email == "" {
		pureJsonMsg(c, http.StatusOK, false, I18nWeb(c, "pages.login.emptyEmail"))
		return
	}
	if form.Password == "" {
		pureJsonMsg(c, http.StatusOK, false, I18nWeb(c, "pages.login.emptyPassword"))
		return
	}

	user := a.userService.CheckUser(form.Email, form.Password)
	safeEmail := template.HTMLEscapeString(form.Email)
	if user == nil {
		logger.Warningf("wrong credentials for %q, IP: %q", safeEmail, getRemoteIp(c))
		pureJsonMsg(c, http.StatusOK, false, I18nWeb(c, "pages.login.wrongCredentials"))
		return
	}

	session.SetLoginUser(c, user.Id)
	session.EnsureCsrfToken(c)
	a.userService.MarkLogin(user)

	logger.Infof("%s logged in successfully, IP: %s", safeEmail, getRemoteIp(c))
	jsonMsg(c, I18nWeb(c, "pages.login.successLogin"), nil)
}

// logout clears the session cookie and returns to the login page.
func (a *IndexController) logout(c *gin.Context) {
	if user := a.loadLoginUser(c); user != nil {
		logger.Infof("%s logged out", user.Email)
	}
	session.Clear(c)
	c.Redirect(http.StatusFound, c.GetString("base_path")+"login")
}

func (a *IndexController) version(c *gin.Context) {
	c.String(http.StatusOK, config.GetVersion())
}
