package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/maintainview/maintainview/config"
	"github.com/maintainview/maintainview/database"
	"github.com/maintainview/maintainview/logger"
	"github.com/maintainview/maintainview/web"
	"github.com/maintainview/maintainview/web/service"

	"github.com/joho/godotenv"
	"github.com/op/go-logging"
)

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())

	switch config.GetLogLevel() {
	case config.Debug:
		logger.InitLogger(logging.DEBUG)
	case config.Info:
		logger.InitLogger(logging.INFO)
	case config.Notice:
		logger.InitLogger(logging.NOTICE)
	case config.Warn:
		logger.InitLogger(logging.WARNING)
	case config.Error:
		logger.InitLogger(logging.ERROR)
	default:
		log.Fatal("unknown log level:", config.GetLogLevel())
	}

	err := database.InitDB(config.GetDBPath())
	if err != nil {
		log.Fatal(err)
	}

	server := web.NewServer()
	err = server.Start()
	if err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	// Trap shutdown signals
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			err := server.Stop()
			if err != nil {
				logger.Warning("stop server err:", err)
			}
			server = web.NewServer()
			err = server.Start()
			if err != nil {
				log.Println(err)
				return
			}
		default:
			_ = server.Stop()
			_ = database.CloseDB()
			logger.CloseLogger()
			return
		}
	}
}

func showSetting() {
	settingService := service.SettingService{}
	port, err := settingService.GetPort()
	if err != nil {
		fmt.Println("get current port failed:", err)
		return
	}
	basePath, err := settingService.GetBasePath()
	if err != nil {
		fmt.Println("get current base path failed:", err)
		return
	}
	readOnly, err := settingService.GetReadOnlyMode()
	if err != nil {
		fmt.Println("get read-only mode failed:", err)
		return
	}
	fmt.Println("current portal settings:")
	fmt.Println("port:", port)
	fmt.Println("base path:", basePath)
	fmt.Println("read-only mode:", readOnly)
}

func setReadOnly(enabled bool) {
	settingService := service.SettingService{}
	if err := settingService.SetReadOnlyMode(enabled); err != nil {
		fmt.Println("set read-only mode failed:", err)
		return
	}
	fmt.Println("read-only mode set to", enabled)
}

func resetAdmin(email string, password string) {
	if email == "" || password == "" {
		fmt.Println("email and password are required")
		return
	}
	userService := service.UserService{}
	if err := userService.ResetAdmin(email, password); err != nil {
		fmt.Println("reset admin failed:", err)
		return
	}
	fmt.Println("admin account reset:", email)
}

func main() {
	if len(os.Args) < 2 {
		_ = godotenv.Load()
		runWebServer()
		return
	}

	var showVersion bool
	flag.BoolVar(&showVersion, "v", false, "show version")

	runCmd := flag.NewFlagSet("run", flag.ExitOnError)

	settingCmd := flag.NewFlagSet("setting", flag.ExitOnError)
	var show bool
	var readOnly string
	settingCmd.BoolVar(&show, "show", false, "show current settings")
	settingCmd.StringVar(&readOnly, "readonly", "", "set read-only mode (true/false)")

	resetAdminCmd := flag.NewFlagSet("reset-admin", flag.ExitOnError)
	var email string
	var password string
	resetAdminCmd.StringVar(&email, "email", "", "admin email")
	resetAdminCmd.StringVar(&password, "password", "", "admin password")

	flag.Usage = func() {
		fmt.Println("Usage:")
		fmt.Println("    run            start the web server (default)")
		fmt.Println("    setting        show or change settings")
		fmt.Println("    reset-admin    reset the admin account credentials")
	}

	flag.Parse()
	if showVersion {
		fmt.Println(config.GetVersion())
		return
	}

	_ = godotenv.Load()

	switch os.Args[1] {
	case "run":
		_ = runCmd.Parse(os.Args[2:])
		runWebServer()
	case "setting":
		_ = settingCmd.Parse(os.Args[2:])
		if err := database.InitDB(config.GetDBPath()); err != nil {
			fmt.Println(err)
			return
		}
		switch {
		case show:
			showSetting()
		case readOnly != "":
			setReadOnly(readOnly == "true")
		default:
			settingCmd.Usage()
		}
	case "reset-admin":
		_ = resetAdminCmd.Parse(os.Args[2:])
		if err := database.InitDB(config.GetDBPath()); err != nil {
			fmt.Println(err)
			return
		}
		resetAdmin(email, password)
	default:
		fmt.Println("unknown command:", os.Args[1])
		flag.Usage()
	}
}
