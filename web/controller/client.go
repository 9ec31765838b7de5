package controller

import (
	"net/http"
	"time"

	"github.com/maintainview/maintainview/database/model"
	"github.com/maintainview/maintainview/util/common"
	"github.com/maintainview/maintainview/web/middleware"
	"github.com/maintainview/maintainview/web/service"

	"github.com/gin-gonic/gin"
)

// RequestForm carries the client-side request create fields.
type RequestForm struct {
	SiteId   int    `json:"siteId" form:"siteId"`
	Subject  string `json:"subject" form:"subject"`
	Body     string `json:"body" form:"body"`
	Priority string `json:"priority" form:"priority"`
}

// ClientController handles the client-facing portal. Every handler resolves
// data through the caller's own tenant; ids from the URL are verified against
// it and a mismatch reads as "not found", never as "forbidden".
type ClientController struct {
	BaseController

	siteService    service.SiteService
	logService     service.MaintenanceLogService
	noticeService  service.NoticeService
	fileService    service.FileService
	requestService service.RequestService
	reportService  service.ReportService
	settingService service.SettingService
}

func NewClientController(g *gin.RouterGroup) *ClientController {
	a := &ClientController{}
	a.initRouter(g)
	return a
}

func (a *ClientController) initRouter(g *gin.RouterGroup) {
	g = g.Group("/client")
	g.Use(a.checkClient)
	g.Use(middleware.Csrf())

	g.GET("/", a.dashboard)
	g.GET("/sites", a.listSites)
	g.GET("/sites/:id", a.getSite)
	g.GET("/sites/:id/logs", a.listSiteLogs)
	g.GET("/sites/:id/files", a.listSiteFiles)
	g.GET("/logs", a.listLogs)
	g.GET("/report", a.report)
	g.GET("/requests", a.listRequests)
	g.GET("/requests/:id", a.getRequest)

	g.POST("/requests/add", a.addRequest)
	g.POST("/requests/:id/reply", a.reply)
}

// requireFeature aborts with 404 when a client-facing section is switched
// off, so disabled sections are indistinguishable from absent ones.
func (a *ClientController) requireFeature(c *gin.Context, key string) bool {
	if !a.settingService.IsFeatureEnabled(key) {
		pureJsonMsg(c, http.StatusNotFound, false, I18nWeb(c, "errors.featureDisabled"))
		c.Abort()
		return false
	}
	return true
}

// ownSite loads a site and verifies tenant ownership. Foreign and missing
// sites both come back nil with a 404 already written.
func (a *ClientController) ownSite(c *gin.Context) *model.Site {
	site, err := a.siteService.GetSite(paramInt(c.Param("id")))
	if err != nil || !service.CanAccessSite(getLoginUser(c), site) {
		pureJsonMsg(c, http.StatusNotFound, false, I18nWeb(c, "errors.notFound"))
		return nil
	}
	return site
}

func (a *ClientController) dashboard(c *gin.Context) {
	user := getLoginUser(c)
	clientId := *user.ClientId

	sites, err := a.siteService.ListActiveSites(clientId)
	if err != nil {
		jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
		return
	}

	data := gin.H{
		"sites":  sites,
		"labels": a.settingService.GetDisplayLabels(),
		"flags":  a.settingService.GetFeatureFlags(),
	}

	if a.settingService.IsFeatureEnabled("show_top_cards") {
		alerts, err := a.reportService.CollectExpiryAlerts(sites)
		if err != nil {
			jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
			return
		}
		data["alerts"] = alerts
	}

	if a.settingService.IsFeatureEnabled("show_maintenance_log") {
		now := time.Now()
		logs, err := a.logService.ListVisibleClientLogs(clientId, now.AddDate(0, -1, 0), now)
		if err != nil {
			jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
			return
		}
		data["recentLogs"] = logs
	}

	if a.settingService.IsFeatureEnabled("show_notice") {
		now := time.Now()
		notices, err := a.noticeService.ListActiveClientNotices(clientId, now, now)
		if err != nil {
			jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
			return
		}
		data["notices"] = notices
	}

	jsonObj(c, data, nil)
}

func (a *ClientController) listSites(c *gin.Context) {
	sites, err := a.siteService.ListActiveSites(*getLoginUser(c).ClientId)
	jsonObj(c, sites, err)
}

func (a *ClientController) getSite(c *gin.Context) {
	site := a.ownSite(c)
	if site == nil {
		return
	}

	data := gin.H{"site": site}

	if a.settingService.IsFeatureEnabled("show_notice") {
		notices, err := a.noticeService.ListActiveSiteNotices(site.Id, time.Now())
		if err != nil {
			jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
			return
		}
		data["notices"] = notices
	}

	if a.settingService.IsFeatureEnabled("show_files") {
		files, err := a.fileService.ListVisibleSiteFiles(site.Id, 5)
		if err != nil {
			jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
			return
		}
		withTokens := make([]gin.H, 0, len(files))
		for i := range files {
			withTokens = append(withTokens, gin.H{
				"file":  files[i],
				"token": a.fileService.IssueToken(files[i].Id),
			})
		}
		data["latestFiles"] = withTokens
	}

	jsonObj(c, data, nil)
}

func (a *ClientController) listSiteLogs(c *gin.Context) {
	if !a.requireFeature(c, "show_maintenance_log") {
		return
	}
	site := a.ownSite(c)
	if site == nil {
		return
	}
	start, end, err := a.monthWindow(c)
	if err != nil {
		jsonMsg(c, I18nWeb(c, "pages.login.invalidFormData"), err)
		return
	}
	logs, err := a.logService.ListVisibleSiteLogs(site.Id, start, end)
	jsonObj(c, logs, err)
}

func (a *ClientController) listSiteFiles(c *gin.Context) {
	if !a.requireFeature(c, "show_files") {
		return
	}
	site := a.ownSite(c)
	if site == nil {
		return
	}
	files, err := a.fileService.ListVisibleSiteFiles(site.Id, 0)
	if err != nil {
		jsonObj(c, nil, err)
		return
	}
	withTokens := make([]gin.H, 0, len(files))
	for i := range files {
		withTokens = append(withTokens, gin.H{
			"file":  files[i],
			"token": a.fileService.IssueToken(files[i].Id),
		})
	}
	jsonObj(c, withTokens, nil)
}

func (a *ClientController) listLogs(c *gin.Context) {
	if !a.requireFeature(c, "show_maintenance_log") {
		return
	}
	start, end, err := a.monthWindow(c)
	if err != nil {
		jsonMsg(c, I18nWeb(c, "pages.login.invalidFormData"), err)
		return
	}
	logs, err := a.logService.ListVisibleClientLogs(*getLoginUser(c).ClientId, start, end)
	jsonObj(c, logs, err)
}

// monthWindow resolves the ?month=YYYY-MM query, defaulting to the current
// month.
func (a *ClientController) monthWindow(c *gin.Context) (time.Time, time.Time, error) {
	month := c.Query("month")
	if month == "" {
		var err error
		month, err = a.reportService.CurrentMonth()
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return a.reportService.MonthRange(month)
}

func (a *ClientController) report(c *gin.Context) {
	if !a.requireFeature(c, "show_monthly_report") {
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
	report, err := a.reportService.BuildMonthlyReport(*getLoginUser(c).ClientId, month)
	if err != nil {
		jsonMsg(c, I18nWeb(c, "pages.login.invalidFormData"), err)
		return
	}
	jsonObj(c, report, nil)
}

func (a *ClientController) listRequests(c *gin.Context) {
	if !a.requireFeature(c, "show_requests") {
		return
	}
	requests, err := a.requestService.ListClientRequests(*getLoginUser(c).ClientId)
	jsonObj(c, requests, err)
}

// ownRequest loads a request and verifies tenant ownership.
func (a *ClientController) ownRequest(c *gin.Context) *model.Request {
	req, err := a.requestService.GetRequest(paramInt(c.Param("id")))
	if err != nil || !service.CanAccessRequest(getLoginUser(c), req) {
		pureJsonMsg(c, http.StatusNotFound, false, I18nWeb(c, "errors.notFound"))
		return nil
	}
	return req
}

func (a *ClientController) getRequest(c *gin.Context) {
	if !a.requireFeature(c, "show_requests") {
		return
	}
	req := a.ownRequest(c)
	if req == nil {
		return
	}
	messages, err := a.requestService.ListMessages(req.Id)
	if err != nil {
		jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
		return
	}
	initialFiles, err := a.requestService.ListInitialFiles(req.Id)
	if err != nil {
		jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
		return
	}
	// attachments hidden from the client stay hidden in the conversation
	tokens := make(map[int]string)
	user := getLoginUser(c)
	for i := range messages {
		f := messages[i].SharedFile
		if f != nil && service.CanAccessFile(user, f) {
			tokens[messages[i].Id] = a.fileService.IssueToken(f.Id)
		}
	}
	visibleInitial := make([]gin.H, 0, len(initialFiles))
	for i := range initialFiles {
		if service.CanAccessFile(user, &initialFiles[i]) {
			visibleInitial = append(visibleInitial, gin.H{
				"file":  initialFiles[i],
				"token": a.fileService.IssueToken(initialFiles[i].Id),
			})
		}
	}
	jsonObj(c, gin.H{
		"request":      req,
		"messages":     messages,
		"messageFiles": tokens,
		"initialFiles": visibleInitial,
	}, nil)
}

func (a *ClientController) addRequest(c *gin.Context) {
	if !a.requireFeature(c, "show_requests") {
		return
	}
	var form RequestForm
	if err := c.ShouldBind(&form); err != nil {
		jsonMsg(c, I18nWeb(c, "pages.login.invalidFormData"), err)
		return
	}
	if form.Subject == "" {
		jsonMsg(c, I18nWeb(c, "pages.login.invalidFormData"), common.NewError("subject is required"))
		return
	}

	user := getLoginUser(c)
	req := &model.Request{
		ClientId:    *user.ClientId,
		Subject:     form.Subject,
		Body:        form.Body,
		Priority:    model.RequestPriorityNormal,
		Status:      model.RequestStatusNew,
		CreatedById: user.Id,
	}
	if form.Priority == model.RequestPriorityHigh {
		req.Priority = model.RequestPriorityHigh
	}
	if form.SiteId > 0 {
		site, err := a.siteService.GetSite(form.SiteId)
		if err != nil || !service.CanAccessSite(user, site) {
			pureJsonMsg(c, http.StatusNotFound, false, I18nWeb(c, "errors.notFound"))
			return
		}
		siteId := site.Id
		req.SiteId = &siteId
	}

	if err := a.requestService.CreateRequest(req); err != nil {
		jsonMsg(c, I18nWeb(c, "pages.login.invalidFormData"), err)
		return
	}

	if fh, err := c.FormFile("file"); err == nil {
		requestId := req.Id
		if _, err := a.fileService.SaveUpload(fh, user, nil, &requestId, "", "", "", true); err != nil {
			jsonMsg(c, uploadErrorMsg(c, err), err)
			return
		}
	}

	jsonMsgObj(c, I18nWeb(c, "flash.requestCreated"), req, nil)
}

func (a *ClientController) reply(c *gin.Context) {
	if !a.requireFeature(c, "show_requests") {
		return
	}
	req := a.ownRequest(c)
	if req == nil {
		return
	}
	body := c.PostForm("body")
	if body == "" {
		jsonMsg(c, I18nWeb(c, "pages.login.invalidFormData"), common.NewError("message body is required"))
		return
	}

	user := getLoginUser(c)
	msg := &model.RequestMessage{
		RequestId:    req.Id,
		AuthorUserId: user.Id,
		AuthorRole:   user.Role,
		Body:         body,
	}

	if fh, err := c.FormFile("file"); err == nil {
		requestId := req.Id
		f, err := a.fileService.SaveUpload(fh, user, nil, &requestId, "", "", "", true)
		if err != nil {
			jsonMsg(c, uploadErrorMsg(c, err), err)
			return
		}
		msg.SharedFileId = &f.Id
	}

	err := a.requestService.AddMessage(msg)
	jsonMsg(c, I18nWeb(c, "flash.replyPosted"), err)
}
