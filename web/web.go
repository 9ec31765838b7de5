// Package web provides the web server of the MaintainView portal: HTTP
// serving, routing, the login surface, the agency and client panels and
// background job scheduling.
package web

import (
	"context"
	"crypto/tls"
	"embed"
	"html/template"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/maintainview/maintainview/config"
	"github.com/maintainview/maintainview/database"
	"github.com/maintainview/maintainview/logger"
	"github.com/maintainview/maintainview/util/common"
	"github.com/maintainview/maintainview/web/controller"
	"github.com/maintainview/maintainview/web/job"
	"github.com/maintainview/maintainview/web/locale"
	"github.com/maintainview/maintainview/web/middleware"
	"github.com/maintainview/maintainview/web/service"
	"github.com/maintainview/maintainview/web/session"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

//go:embed html/*
var htmlFS embed.FS

//go:embed translation/*
var i18nFS embed.FS

// Server is the portal web server with its controllers, services and
// scheduled jobs.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	index  *controller.IndexController
	panel  *controller.PanelController
	portal *controller.ClientController
	files  *controller.FileController

	settingService service.SettingService

	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new web server instance with a cancellable context.
func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{ctx: ctx, cancel: cancel}
}

// initRouter initializes Gin, registers middleware, templates, controllers
// and returns the configured engine.
func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.Default()

	webDomain, err := s.settingService.GetWebDomain()
	if err != nil {
		return nil, err
	}
	if webDomain != "" {
		engine.Use(middleware.DomainValidatorMiddleware(webDomain))
	}

	basePath, err := s.settingService.GetBasePath()
	if err != nil {
		return nil, err
	}
	secret, err := s.settingService.GetSecret()
	if err != nil {
		return nil, err
	}

	// The session codec and the file token codec share the secret but live
	// in different salt namespaces.
	session.Init(secret, basePath)
	service.InitFileTokens(secret)

	engine.Use(gzip.Gzip(gzip.DefaultCompression))
	engine.Use(func(c *gin.Context) {
		c.Set("base_path", basePath)
	})
	engine.Use(locale.LocalizerMiddleware())

	i18nWebFunc := func(key string, params ...string) string {
		return locale.I18n(locale.Web, key, params...)
	}
	funcMap := template.FuncMap{"i18n": i18nWebFunc}
	engine.SetFuncMap(funcMap)

	tpl := template.New("").Funcs(funcMap)
	tpl, err = tpl.ParseFS(htmlFS, "html/*.html")
	if err != nil {
		return nil, err
	}
	engine.SetHTMLTemplate(tpl)

	g := engine.Group(basePath)
	s.index = controller.NewIndexController(g)
	s.panel = controller.NewPanelController(g)
	s.portal = controller.NewClientController(g)
	s.files = controller.NewFileController(g)

	engine.NoRoute(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusNotFound)
	})

	return engine, nil
}

// startTask schedules the background jobs.
func (s *Server) startTask() {
	if _, err := s.cron.AddJob("@daily", job.NewCheckExpiryJob()); err != nil {
		logger.Warning("add expiry check job failed:", err)
	}
}

// initSettings loads the persisted state that must be in place before the
// router serves. Reading the secret persists the generated default, so it
// has to happen before the kill switch engages; otherwise a read-only portal
// would mint a fresh secret on every boot and invalidate all outstanding
// sessions and file tokens.
func (s *Server) initSettings() error {
	if _, err := s.settingService.GetSecret(); err != nil {
		return err
	}

	// The kill switch survives restarts through the settings table.
	readOnly, err := s.settingService.GetReadOnlyMode()
	if err != nil {
		return err
	}
	database.SetReadOnly(readOnly)
	if readOnly {
		logger.Info("portal starting in read-only mode")
	}
	return nil
}

// Start initializes and starts the web server.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	if err := locale.InitLocalizer(i18nFS); err != nil {
		return err
	}

	if err := s.initSettings(); err != nil {
		return err
	}

	loc, err := s.settingService.GetTimeLocation()
	if err != nil {
		return err
	}
	s.cron = cron.New(cron.WithLocation(loc))
	s.cron.Start()

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	certFile := config.GetCertFile()
	keyFile := config.GetKeyFile()
	listen, err := s.settingService.GetListen()
	if err != nil {
		return err
	}
	port, err := s.settingService.GetPort()
	if err != nil {
		return err
	}

	listenAddr := net.JoinHostPort(listen, strconv.Itoa(port))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	if certFile != "" || keyFile != "" {
		if cert, err := tls.LoadX509KeyPair(certFile, keyFile); err == nil {
			cfg := &tls.Config{Certificates: []tls.Certificate{cert}}
			listener = tls.NewListener(listener, cfg)
			logger.Info("Web server running HTTPS on", listener.Addr())
		} else {
			logger.Error("Error loading certificates:", err)
			logger.Info("Web server running HTTP on", listener.Addr())
		}
	} else {
		logger.Info("Web server running HTTP on", listener.Addr())
	}

	s.listener = listener
	s.httpServer = &http.Server{Handler: engine}

	go func() {
		defer common.Recover("web server serve")
		_ = s.httpServer.Serve(listener)
	}()

	s.startTask()

	return nil
}

// Stop gracefully shuts down the web server and its cron jobs.
func (s *Server) Stop() error {
	s.cancel()
	if s.cron != nil {
		s.cron.Stop()
	}
	var err1, err2 error
	if s.httpServer != nil {
		err1 = s.httpServer.Shutdown(s.ctx)
	}
	if s.listener != nil {
		err2 = s.listener.Close()
	}
	return common.Combine(err1, err2)
}

// GetCtx returns the server's context.
func (s *Server) GetCtx() context.Context { return s.ctx }
