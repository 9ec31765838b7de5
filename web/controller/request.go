package controller

import (
	"github.com/maintainview/maintainview/database/model"
	"github.com/maintainview/maintainview/util/common"
	"github.com/maintainview/maintainview/web/service"

	"github.com/gin-gonic/gin"
)

// RequestController handles the agency-side support request queue.
type RequestController struct {
	BaseController

	requestService service.RequestService
	fileService    service.FileService
}

func NewRequestController(g *gin.RouterGroup) *RequestController {
	a := &RequestController{}
	a.initRouter(g)
	return a
}

func (a *RequestController) initRouter(g *gin.RouterGroup) {
	g.GET("/requests", a.listRequests)
	g.GET("/requests/:id", a.getRequest)

	g.POST("/requests/:id/status", a.updateStatus)
	g.POST("/requests/:id/reply", a.reply)
}

func (a *RequestController) listRequests(c *gin.Context) {
	requests, err := a.requestService.SearchRequests(
		c.Query("status"),
		paramInt(c.Query("clientId")),
		c.Query("q"),
	)
	jsonObj(c, requests, err)
}

// getRequest returns a request with its conversation. File attachments are
// exposed through download tokens only.
func (a *RequestController) getRequest(c *gin.Context) {
	req, err := a.requestService.GetRequest(paramInt(c.Param("id")))
	if err != nil {
		jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
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
	jsonObj(c, gin.H{
		"request":      req,
		"messages":     messages,
		"messageFiles": a.messageFileTokens(messages),
		"initialFiles": a.fileTokenList(initialFiles),
	}, nil)
}

func (a *RequestController) updateStatus(c *gin.Context) {
	req, err := a.requestService.GetRequest(paramInt(c.Param("id")))
	if err != nil {
		jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
		return
	}
	status := c.PostForm("status")
	switch status {
	case model.RequestStatusNew, model.RequestStatusInProgress, model.RequestStatusDone:
	default:
		jsonMsg(c, I18nWeb(c, "pages.login.invalidFormData"), common.NewErrorf("unknown status %q", status))
		return
	}
	req.Status = status
	req.Client = nil
	req.Site = nil
	err = a.requestService.UpdateRequest(req)
	jsonMsg(c, I18nWeb(c, "flash.statusUpdated"), err)
}

// reply posts an agency message, optionally with one attachment. The
// attachment inherits the request binding so the file policy follows the
// request's tenant.
func (a *RequestController) reply(c *gin.Context) {
	req, err := a.requestService.GetRequest(paramInt(c.Param("id")))
	if err != nil {
		jsonMsg(c, I18nWeb(c, "errors.notFound"), err)
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
		f, err := a.fileService.SaveUpload(
			fh, user, nil, &requestId,
			c.PostForm("title"), "", "",
			c.PostForm("clientVisible") != "false",
		)
		if err != nil {
			jsonMsg(c, uploadErrorMsg(c, err), err)
			return
		}
		msg.SharedFileId = &f.Id
	}

	err = a.requestService.AddMessage(msg)
	jsonMsg(c, I18nWeb(c, "flash.replyPosted"), err)
}

// fileTokenList pairs files with their download tokens.
func (a *RequestController) fileTokenList(files []model.SharedFile) []gin.H {
	out := make([]gin.H, 0, len(files))
	for i := range files {
		out = append(out, gin.H{
			"file":  files[i],
			"token": a.fileService.IssueToken(files[i].Id),
		})
	}
	return out
}

// messageFileTokens maps message ids to tokens for their attachments.
func (a *RequestController) messageFileTokens(messages []model.RequestMessage) map[int]string {
	tokens := make(map[int]string)
	for i := range messages {
		if messages[i].SharedFileId != nil {
			tokens[messages[i].Id] = a.fileService.IssueToken(*messages[i].SharedFileId)
		}
	}
	return tokens
}
