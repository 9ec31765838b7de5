package controller

import (
	"errors"
	"strconv"

	"github.com/maintainview/maintainview/web/service"

	"github.com/gin-gonic/gin"
)

// UploadController handles the agency-side shared file management: uploads,
// metadata edits, soft deletion and restore.
type UploadController struct {
	BaseController

	fileService    service.FileService
	siteService    service.SiteService
	settingService service.SettingService
}

func NewUploadController(g *gin.RouterGroup) *UploadController {
	a := &UploadController{}
	a.initRouter(g)
	return a
}

func (a *UploadController) initRouter(g *gin.RouterGroup) {
	g.GET("/sites/:id/files", a.listSiteFiles)

	g.POST("/sites/:id/files/add", a.uploadSiteFile)
	g.POST("/files/update/:id", a.updateFile)
	g.POST("/files/del/:id", a.deleteFile)
	g.POST("/files/restore/:id", a.restoreFile)
}

func (a *UploadController) listSiteFiles(c *gin.Context) {
	includeDeleted := c.Query("showDeleted") == "true"
	files, err := a.fileService.ListSiteFiles(paramInt(c.Param("id")), includeDeleted)
	jsonObj(c, files, err)
}

func (a *UploadController) uploadSiteFile(c *gin.Context) {
	siteId := paramInt(c.Param("id"))
	if _, err := a.siteService.GetSite(siteId); err != nil {
		jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		jsonMsg(c, I18nWeb(c, "flash.fileMissing"), err)
		return
	}

	f, err := a.fileService.SaveUpload(
		fh,
		getLoginUser(c),
		&siteId,
		nil,
		c.PostForm("title"),
		c.PostForm("description"),
		c.PostForm("category"),
		c.PostForm("clientVisible") == "true",
	)
	if err != nil {
		jsonMsg(c, uploadErrorMsg(c, err), err)
		return
	}
	jsonMsgObj(c, I18nWeb(c, "flash.fileUploaded"), gin.H{
		"file":  f,
		"token": a.fileService.IssueToken(f.Id),
	}, nil)
}

// uploadErrorMsg maps upload validation failures to their localized message.
func uploadErrorMsg(c *gin.Context, err error) string {
	var extErr service.ErrExtensionNotAllowed
	if errors.As(err, &extErr) {
		return I18nWeb(c, "upload.extensionNotAllowed", "Ext=="+extErr.Ext)
	}
	var sizeErr service.ErrFileTooLarge
	if errors.As(err, &sizeErr) {
		maxMB := strconv.FormatInt(sizeErr.MaxBytes/1024/1024, 10)
		return I18nWeb(c, "upload.tooLarge", "MaxMB=="+maxMB)
	}
	return I18nWeb(c, "pages.login.invalidFormData")
}

func (a *UploadController) updateFile(c *gin.Context) {
	err := a.fileService.UpdateFileMeta(
		paramInt(c.Param("id")),
		c.PostForm("title"),
		c.PostForm("description"),
		c.PostForm("category"),
		c.PostForm("clientVisible") == "true",
	)
	jsonMsg(c, I18nWeb(c, "flash.fileUpdated"), err)
}

func (a *UploadController) deleteFile(c *gin.Context) {
	err := a.fileService.SetDeleted(paramInt(c.Param("id")), true)
	jsonMsg(c, I18nWeb(c, "flash.fileHidden"), err)
}

func (a *UploadController) restoreFile(c *gin.Context) {
	err := a.fileService.SetDeleted(paramInt(c.Param("id")), false)
	jsonMsg(c, I18nWeb(c, "flash.fileRestored"), err)
}
