package controller

import (
	"strings"

	"github.com/maintainview/maintainview/database/model"
	"github.com/maintainview/maintainview/logger"
	"github.com/maintainview/maintainview/util/common"
	"github.com/maintainview/maintainview/web/service"

	"github.com/gin-gonic/gin"
)

// ClientForm carries the tenant create/update fields.
type ClientForm struct {
	Name         string `json:"name" form:"name"`
	DisplayName  string `json:"displayName" form:"displayName"`
	ClientMemo   string `json:"clientMemo" form:"clientMemo"`
	InternalMemo string `json:"internalMemo" form:"internalMemo"`
	IsActive     bool   `json:"isActive" form:"isActive"`
}

// ClientUserForm carries the client account create fields.
type ClientUserForm struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// AdminController handles the agency-side tenant, account and settings routes.
type AdminController struct {
	BaseController

	clientService  service.ClientService
	userService    service.UserService
	settingService service.SettingService
	serverService  service.ServerService
	logService     service.MaintenanceLogService
	reportService  service.ReportService
	siteService    service.SiteService
}

func NewAdminController(g *gin.RouterGroup) *AdminController {
	a := &AdminController{}
	a.initRouter(g)
	return a
}

func (a *AdminController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.dashboard)
	g.GET("/clients", a.listClients)
	g.GET("/clients/:id", a.getClient)
	g.GET("/clients/:id/users", a.listClientUsers)
	g.GET("/clients/:id/report", a.clientReport)
	g.GET("/settings", a.getSettings)
	g.GET("/status", a.status)
	g.GET("/logs", a.recentLogs)
	g.GET("/syslog", a.sysLogs)

	g.POST("/clients/add", a.addClient)
	g.POST("/clients/update/:id", a.updateClient)
	g.POST("/clients/:id/users/add", a.addClientUser)
	g.POST("/users/:id/active", a.setUserActive)
	g.POST("/users/:id/password", a.setUserPassword)
	g.POST("/settings/update", a.updateSettings)
	g.POST("/settings/readonly", a.setReadOnly)
}

// dashboard aggregates recent activity and approaching deadlines across all
// tenants.
func (a *AdminController) dashboard(c *gin.Context) {
	logs, err := a.logService.ListRecentLogs(10)
	if err != nil {
		jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
		return
	}
	sites, err := a.siteService.ListActiveSites(0)
	if err != nil {
		jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
		return
	}
	alerts, err := a.reportService.CollectExpiryAlerts(sites)
	if err != nil {
		jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
		return
	}
	jsonObj(c, gin.H{
		"recentLogs": logs,
		"alerts":     alerts,
	}, nil)
}

func (a *AdminController) listClients(c *gin.Context) {
	clients, err := a.clientService.SearchClients(c.Query("q"))
	jsonObj(c, clients, err)
}

func (a *AdminController) getClient(c *gin.Context) {
	client, err := a.clientService.GetClient(paramInt(c.Param("id")))
	if err != nil {
		jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
		return
	}
	jsonObj(c, client, nil)
}

func (a *AdminController) addClient(c *gin.Context) {
	var form ClientForm
	if err := c.ShouldBind(&form); err != nil {
		jsonMsg(c, I18nWeb(c, "pages.login.invalidFormData"), err)
		return
	}
	if form.Name == "" {
		jsonMsg(c, I18nWeb(c, "pages.login.invalidFormData"), common.NewError("client name is required"))
		return
	}
	client := &model.Client{
		Name:         form.Name,
		DisplayName:  form.DisplayName,
		ClientMemo:   form.ClientMemo,
		InternalMemo: form.InternalMemo,
		IsActive:     true,
	}
	err := a.clientService.CreateClient(client)
	jsonMsgObj(c, I18nWeb(c, "flash.clientCreated"), client, err)
}

func (a *AdminController) updateClient(c *gin.Context) {
	client, err := a.clientService.GetClient(paramInt(c.Param("id")))
	if err != nil {
		jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
		return
	}
	var form ClientForm
	if err := c.ShouldBind(&form); err != nil {
		jsonMsg(c, I18nWeb(c, "pages.login.invalidFormData"), err)
		return
	}
	client.Name = form.Name
	client.DisplayName = form.DisplayName
	client.ClientMemo = form.ClientMemo
	client.InternalMemo = form.InternalMemo
	client.IsActive = form.IsActive
	err = a.clientService.UpdateClient(client)
	jsonMsg(c, I18nWeb(c, "flash.clientUpdated"), err)
}

func (a *AdminController) listClientUsers(c *gin.Context) {
	users, err := a.userService.ListClientUsers(paramInt(c.Param("id")))
	jsonObj(c, users, err)
}

func (a *AdminController) clientReport(c *gin.Context) {
	clientId := paramInt(c.Param("id"))
	if _, err := a.clientService.GetClient(clientId); err != nil {
		jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
		return
	}
	month := c.Query("month")
	if month == "" {
		var err error
		month, err = a.reportService.CurrentMonth()
		if err != nil {
			jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
			return
		}
	}
	report, err := a.reportService.BuildMonthlyReport(clientId, month)
	if err != nil {
		jsonMsg(c, I18nWeb(c, "pages.login.invalidFormData"), err)
		return
	}
	jsonObj(c, report, nil)
}

func (a *AdminController) addClientUser(c *gin.Context) {
	clientId := paramInt(c.Param("id"))
	if _, err := a.clientService.GetClient(clientId); err != nil {
		jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
		return
	}
	var form ClientUserForm
	if err := c.ShouldBind(&form); err != nil {
		jsonMsg(c, I18nWeb(c, "pages.login.invalidFormData"), err)
		return
	}
	if form.Email == "" || form.Password == "" {
		jsonMsg(c, I18nWeb(c, "pages.login.invalidFormData"), common.NewError("email and password are required"))
		return
	}
	user, err := a.userService.CreateClientUser(clientId, form.Email, form.Password)
	jsonMsgObj(c, I18nWeb(c, "flash.userCreated"), user, err)
}

func (a *AdminController) setUserActive(c *gin.Context) {
	userId := paramInt(c.Param("id"))
	active := c.PostForm("active") == "true"
	if me := getLoginUser(c); me != nil && me.Id == userId && !active {
		jsonMsg(c, I18nWeb(c, "errors.accessDenied"), common.NewError("can not deactivate own account"))
		return
	}
	err := a.userService.SetActive(userId, active)
	jsonMsg(c, I18nWeb(c, "flash.userStatusUpdated"), err)
}

func (a *AdminController) setUserPassword(c *gin.Context) {
	password := c.PostForm("password")
	if password == "" {
		jsonMsg(c, I18nWeb(c, "pages.login.emptyPassword"), common.NewError("password is required"))
		return
	}
	err := a.userService.UpdatePassword(paramInt(c.Param("id")), password)
	jsonMsg(c, I18nWeb(c, "flash.passwordChanged"), err)
}

func (a *AdminController) getSettings(c *gin.Context) {
	readOnly, err := a.settingService.GetReadOnlyMode()
	if err != nil {
		jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
		return
	}
	jsonObj(c, gin.H{
		"readOnlyMode":  readOnly,
		"featureFlags":  a.settingService.GetFeatureFlags(),
		"displayLabels": a.settingService.GetDisplayLabels(),
	}, nil)
}

// updateSettings saves the portal feature flags and display labels. The form
// carries flags as flag_<key>=true/false and labels as label keys directly.
func (a *AdminController) updateSettings(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		jsonMsg(c, I18nWeb(c, "pages.login.invalidFormData"), err)
		return
	}
	flags := make(map[string]bool)
	labels := make(map[string]string)
	for key, values := range c.Request.PostForm {
		if len(values) == 0 {
			continue
		}
		switch {
		case strings.HasPrefix(key, "flag_"):
			flags[strings.TrimPrefix(key, "flag_")] = values[0] == "true"
		case strings.HasPrefix(key, "label_"), strings.HasPrefix(key, "status_"):
			labels[key] = values[0]
		}
	}
	err := a.settingService.UpdatePortalSettings(flags, labels)
	jsonMsg(c, I18nWeb(c, "flash.settingsSaved"), err)
}

// setReadOnly engages the kill switch. Once the portal is read-only the
// mutation guard rejects every POST including this one, so disabling is done
// out-of-band with the readonly CLI command.
func (a *AdminController) setReadOnly(c *gin.Context) {
	enabled := c.PostForm("enabled") == "true"
	err := a.settingService.SetReadOnlyMode(enabled)
	if err == nil {
		logger.Infof("read-only mode set to %v by %s", enabled, getLoginUser(c).Email)
	}
	jsonMsg(c, I18nWeb(c, "flash.settingsSaved"), err)
}

func (a *AdminController) status(c *gin.Context) {
	jsonObj(c, a.serverService.GetStatus(), nil)
}

func (a *AdminController) recentLogs(c *gin.Context) {
	limit := paramInt(c.Query("limit"))
	if limit == 0 {
		limit = 50
	}
	logs, err := a.logService.ListRecentLogs(limit)
	jsonObj(c, logs, err)
}

// sysLogs exposes the in-memory application log buffer.
func (a *AdminController) sysLogs(c *gin.Context) {
	count := paramInt(c.Query("count"))
	if count == 0 {
		count = 50
	}
	level := c.DefaultQuery("level", "info")
	jsonObj(c, logger.GetLogs(count, level), nil)
}
