package controller

import (
	"time"

	"github.com/maintainview/maintainview/database/model"
	"github.com/maintainview/maintainview/util/common"
	"github.com/maintainview/maintainview/web/service"

	"github.com/gin-gonic/gin"
)

// SiteForm carries the site create/update fields. Dates arrive as
// "YYYY-MM-DD" strings and empty means unset.
type SiteForm struct {
	ClientId          int    `json:"clientId" form:"clientId"`
	Name              string `json:"name" form:"name"`
	Url               string `json:"url" form:"url"`
	ContractType      string `json:"contractType" form:"contractType"`
	ContractStartDate string `json:"contractStartDate" form:"contractStartDate"`
	ContractEndDate   string `json:"contractEndDate" form:"contractEndDate"`
	RenewalDate       string `json:"renewalDate" form:"renewalDate"`
	DomainExpireDate  string `json:"domainExpireDate" form:"domainExpireDate"`
	SslExpireDate     string `json:"sslExpireDate" form:"sslExpireDate"`
	ClientNote        string `json:"clientNote" form:"clientNote"`
	InternalNote      string `json:"internalNote" form:"internalNote"`
	IsActive          bool   `json:"isActive" form:"isActive"`
}

// LogForm carries the maintenance log create/update fields.
type LogForm struct {
	PerformedAt       string `json:"performedAt" form:"performedAt"`
	Category          string `json:"category" form:"category"`
	Summary           string `json:"summary" form:"summary"`
	Details           string `json:"details" form:"details"`
	InternalNote      string `json:"internalNote" form:"internalNote"`
	IsVisibleToClient bool   `json:"isVisibleToClient" form:"isVisibleToClient"`
	IsImportant       bool   `json:"isImportant" form:"isImportant"`
	RelatedRequestId  int    `json:"relatedRequestId" form:"relatedRequestId"`
}

// NoticeForm carries the notice create/update fields.
type NoticeForm struct {
	Title             string `json:"title" form:"title"`
	Body              string `json:"body" form:"body"`
	StartDate         string `json:"startDate" form:"startDate"`
	EndDate           string `json:"endDate" form:"endDate"`
	IsVisibleToClient bool   `json:"isVisibleToClient" form:"isVisibleToClient"`
}

// TemplateForm carries the log template create/update fields.
type TemplateForm struct {
	Name     string `json:"name" form:"name"`
	Category string `json:"category" form:"category"`
	Summary  string `json:"summary" form:"summary"`
	Details  string `json:"details" form:"details"`
	IsActive bool   `json:"isActive" form:"isActive"`
}

// SiteController handles the agency-side site, log, notice and template
// routes.
type SiteController struct {
	BaseController

	siteService     service.SiteService
	logService      service.MaintenanceLogService
	noticeService   service.NoticeService
	templateService service.LogTemplateService
}

func NewSiteController(g *gin.RouterGroup) *SiteController {
	a := &SiteController{}
	a.initRouter(g)
	return a
}

func (a *SiteController) initRouter(g *gin.RouterGroup) {
	g.GET("/sites", a.listSites)
	g.GET("/sites/:id", a.getSite)
	g.GET("/sites/:id/logs", a.listSiteLogs)
	g.GET("/sites/:id/notices", a.listSiteNotices)
	g.GET("/templates", a.listTemplates)

	g.POST("/sites/add", a.addSite)
	g.POST("/sites/update/:id", a.updateSite)
	g.POST("/sites/:id/logs/add", a.addLog)
	g.POST("/logs/update/:id", a.updateLog)
	g.POST("/sites/:id/notices/add", a.addNotice)
	g.POST("/notices/update/:id", a.updateNotice)
	g.POST("/templates/add", a.addTemplate)
	g.POST("/templates/update/:id", a.updateTemplate)
	g.POST("/templates/del/:id", a.delTemplate)
}

func (a *SiteController) listSites(c *gin.Context) {
	sites, err := a.siteService.SearchSites(paramInt(c.Query("clientId")), c.Query("q"))
	jsonObj(c, sites, err)
}

func (a *SiteController) getSite(c *gin.Context) {
	site, err := a.siteService.GetSite(paramInt(c.Param("id")))
	if err != nil {
		jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
		return
	}
	jsonObj(c, site, nil)
}

func (a *SiteController) addSite(c *gin.Context) {
	var form SiteForm
	if err := c.ShouldBind(&form); err != nil {
		jsonMsg(c, I18nWeb(c, "pages.login.invalidFormData"), err)
		return
	}
	if form.ClientId <= 0 || form.Name == "" {
		jsonMsg(c, I18nWeb(c, "pages.login.invalidFormData"), common.NewError("client and site name are required"))
		return
	}
	site := &model.Site{IsActive: true}
	applySiteForm(site, &form)
	err := a.siteService.CreateSite(site)
	jsonMsgObj(c, I18nWeb(c, "flash.siteCreated"), site, err)
}

func (a *SiteController) updateSite(c *gin.Context) {
	site, err := a.siteService.GetSite(paramInt(c.Param("id")))
	if err != nil {
		jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
		return
	}
	var form SiteForm
	if err := c.ShouldBind(&form); err != nil {
		jsonMsg(c, I18nWeb(c, "pages.login.invalidFormData"), err)
		return
	}
	applySiteForm(site, &form)
	site.IsActive = form.IsActive
	err = a.siteService.UpdateSite(site)
	jsonMsg(c, I18nWeb(c, "flash.siteUpdated"), err)
}

func applySiteForm(site *model.Site, form *SiteForm) {
	if form.ClientId > 0 {
		site.ClientId = form.ClientId
	}
	site.Client = nil
	site.Name = form.Name
	site.Url = form.Url
	site.ContractType = form.ContractType
	site.ContractStartDate = formDate(form.ContractStartDate)
	site.ContractEndDate = formDate(form.ContractEndDate)
	site.RenewalDate = formDate(form.RenewalDate)
	site.DomainExpireDate = formDate(form.DomainExpireDate)
	site.SslExpireDate = formDate(form.SslExpireDate)
	site.ClientNote = form.ClientNote
	site.InternalNote = form.InternalNote
}

func (a *SiteController) listSiteLogs(c *gin.Context) {
	logs, err := a.logService.SearchSiteLogs(paramInt(c.Param("id")), c.Query("q"))
	jsonObj(c, logs, err)
}

func (a *SiteController) addLog(c *gin.Context) {
	siteId := paramInt(c.Param("id"))
	if _, err := a.siteService.GetSite(siteId); err != nil {
		jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
		return
	}
	var form LogForm
	if err := c.ShouldBind(&form); err != nil {
		jsonMsg(c, I18nWeb(c, "pages.login.invalidFormData"), err)
		return
	}
	if form.Summary == "" {
		jsonMsg(c, I18nWeb(c, "pages.login.invalidFormData"), common.NewError("summary is required"))
		return
	}
	log := &model.MaintenanceLog{SiteId: siteId}
	applyLogForm(log, &form, getLoginUser(c).Id)
	err := a.logService.CreateLog(log)
	jsonMsgObj(c, I18nWeb(c, "flash.logCreated"), log, err)
}

func (a *SiteController) updateLog(c *gin.Context) {
	log, err := a.logService.GetLog(paramInt(c.Param("id")))
	if err != nil {
		jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
		return
	}
	var form LogForm
	if err := c.ShouldBind(&form); err != nil {
		jsonMsg(c, I18nWeb(c, "pages.login.invalidFormData"), err)
		return
	}
	applyLogForm(log, &form, 0)
	err = a.logService.UpdateLog(log)
	jsonMsg(c, I18nWeb(c, "flash.logUpdated"), err)
}

func applyLogForm(log *model.MaintenanceLog, form *LogForm, createdById int) {
	if performedAt := formDate(form.PerformedAt); performedAt != nil {
		log.PerformedAt = *performedAt
	} else if log.PerformedAt.IsZero() {
		log.PerformedAt = time.Now()
	}
	log.Category = form.Category
	log.Summary = form.Summary
	log.Details = form.Details
	log.InternalNote = form.InternalNote
	log.IsVisibleToClient = form.IsVisibleToClient
	log.IsImportant = form.IsImportant
	if form.RelatedRequestId > 0 {
		relatedId := form.RelatedRequestId
		log.RelatedRequestId = &relatedId
	}
	if createdById > 0 {
		log.CreatedById = &createdById
	}
	log.Site = nil
}

func (a *SiteController) listSiteNotices(c *gin.Context) {
	notices, err := a.noticeService.ListSiteNotices(paramInt(c.Param("id")))
	jsonObj(c, notices, err)
}

func (a *SiteController) addNotice(c *gin.Context) {
	siteId := paramInt(c.Param("id"))
	if _, err := a.siteService.GetSite(siteId); err != nil {
		jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
		return
	}
	var form NoticeForm
	if err := c.ShouldBind(&form); err != nil {
		jsonMsg(c, I18nWeb(c, "pages.login.invalidFormData"), err)
		return
	}
	if form.Title == "" {
		jsonMsg(c, I18nWeb(c, "pages.login.invalidFormData"), common.NewError("title is required"))
		return
	}
	notice := &model.Notice{
		SiteId:            siteId,
		Title:             form.Title,
		Body:              form.Body,
		StartDate:         formDate(form.StartDate),
		EndDate:           formDate(form.EndDate),
		IsVisibleToClient: form.IsVisibleToClient,
	}
	err := a.noticeService.CreateNotice(notice)
	jsonMsgObj(c, I18nWeb(c, "flash.noticeCreated"), notice, err)
}

func (a *SiteController) updateNotice(c *gin.Context) {
	notice, err := a.noticeService.GetNotice(paramInt(c.Param("id")))
	if err != nil {
		jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
		return
	}
	var form NoticeForm
	if err := c.ShouldBind(&form); err != nil {
		jsonMsg(c, I18nWeb(c, "pages.login.invalidFormData"), err)
		return
	}
	notice.Title = form.Title
	notice.Body = form.Body
	notice.StartDate = formDate(form.StartDate)
	notice.EndDate = formDate(form.EndDate)
	notice.IsVisibleToClient = form.IsVisibleToClient
	notice.Site = nil
	err = a.noticeService.UpdateNotice(notice)
	jsonMsg(c, I18nWeb(c, "flash.noticeUpdated"), err)
}

func (a *SiteController) listTemplates(c *gin.Context) {
	templates, err := a.templateService.ListTemplates()
	jsonObj(c, templates, err)
}

func (a *SiteController) addTemplate(c *gin.Context) {
	var form TemplateForm
	if err := c.ShouldBind(&form); err != nil {
		jsonMsg(c, I18nWeb(c, "pages.login.invalidFormData"), err)
		return
	}
	if form.Name == "" {
		jsonMsg(c, I18nWeb(c, "pages.login.invalidFormData"), common.NewError("template name is required"))
		return
	}
	template := &model.LogTemplate{
		Name:     form.Name,
		Category: form.Category,
		Summary:  form.Summary,
		Details:  form.Details,
		IsActive: true,
	}
	err := a.templateService.CreateTemplate(template)
	jsonMsgObj(c, I18nWeb(c, "flash.templateCreated"), template, err)
}

func (a *SiteController) updateTemplate(c *gin.Context) {
	template, err := a.templateService.GetTemplate(paramInt(c.Param("id")))
	if err != nil {
		jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
		return
	}
	var form TemplateForm
	if err := c.ShouldBind(&form); err != nil {
		jsonMsg(c, I18nWeb(c, "pages.login.invalidFormData"), err)
		return
	}
	template.Name = form.Name
	template.Category = form.Category
	template.Summary = form.Summary
	template.Details = form.Details
	template.IsActive = form.IsActive
	err = a.templateService.UpdateTemplate(template)
	jsonMsg(c, I18nWeb(c, "flash.templateUpdated"), err)
}

func (a *SiteController) delTemplate(c *gin.Context) {
	err := a.templateService.DeleteTemplate(paramInt(c.Param("id")))
	jsonMsg(c, I18nWeb(c, "flash.templateDeleted"), err)
}
