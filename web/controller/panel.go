package controller

import (
	"github.com/maintainview/maintainview/web/middleware"

	"github.com/gin-gonic/gin"
)

// PanelController groups the agency-side controllers behind the admin gate
// and the mutation guard.
type PanelController struct {
	BaseController

	adminController   *AdminController
	siteController    *SiteController
	uploadController  *UploadController
	requestController *RequestController
}

func NewPanelController(g *gin.RouterGroup) *PanelController {
	a := &PanelController{}
	a.initRouter(g)
	return a
}

func (a *PanelController) initRouter(g *gin.RouterGroup) {
	g = g.Group("/admin")
	g.Use(a.checkAdmin)
	g.Use(middleware.Csrf())

	a.adminController = NewAdminController(g)
	a.siteController = NewSiteController(g)
	a.uploadController = NewUploadController(g)
	a.requestController = NewRequestController(g)
}
