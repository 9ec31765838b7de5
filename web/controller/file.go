package controller

import (
	"net/http"
	"os"

	"github.com/maintainview/maintainview/logger"
	"github.com/maintainview/maintainview/web/service"

	"github.com/gin-gonic/gin"
)

// FileController serves shared files through opaque signed tokens. The token
// is the only thing in the URL; real ids never appear, and the two failure
// modes differ deliberately: a token that does not verify is a plain 404 (the
// URL is indistinguishable from a nonexistent page), while a verified token
// whose file the caller may not read is a 403.
type FileController struct {
	BaseController

	fileService service.FileService
}

func NewFileController(g *gin.RouterGroup) *FileController {
	a := &FileController{}
	a.initRouter(g)
	return a
}

func (a *FileController) initRouter(g *gin.RouterGroup) {
	g = g.Group("/files")
	g.Use(a.checkLogin)

	g.GET("/:token", a.download)
}

func (a *FileController) download(c *gin.Context) {
	fileId, ok := a.fileService.ResolveToken(c.Param("token"))
	if !ok {
		c.String(http.StatusNotFound, I18nWeb(c, "errors.notFound"))
		return
	}

	f, err := a.fileService.GetFile(fileId)
	if err != nil {
		c.String(http.StatusNotFound, I18nWeb(c, "errors.notFound"))
		return
	}

	// soft-deleted files read as gone for everyone, before any role check
	if f.IsDeleted {
		c.String(http.StatusNotFound, I18nWeb(c, "errors.notFound"))
		return
	}

	user := getLoginUser(c)
	if !service.CanAccessFile(user, f) {
		c.String(http.StatusForbidden, I18nWeb(c, "errors.accessDenied"))
		return
	}

	path := a.fileService.StoredFilePath(f)
	if _, err := os.Stat(path); err != nil {
		logger.Warningf("shared file %d missing on disk: %v", f.Id, err)
		c.String(http.StatusNotFound, I18nWeb(c, "errors.notFound"))
		return
	}

	c.FileAttachment(path, f.OriginalFilename)
}
