package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("MTV_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("MTV_DEBUG") == "true"
}

func GetDBFolderPath() string {
	dbFolderPath := os.Getenv("MTV_DB_FOLDER")
	if dbFolderPath == "" {
		dbFolderPath = "data"
	}
	return dbFolderPath
}

func GetDBPath() string {
	return fmt.Sprintf("%s/%s.db", GetDBFolderPath(), GetName())
}

func GetUploadFolderPath() string {
	uploadFolderPath := os.Getenv("MTV_UPLOAD_FOLDER")
	if uploadFolderPath == "" {
		uploadFolderPath = "data/uploads"
	}
	return uploadFolderPath
}

// GetCertFile returns the TLS certificate path; empty disables HTTPS.
func GetCertFile() string {
	return os.Getenv("MTV_CERT_FILE")
}

// GetKeyFile returns the TLS key path; empty disables HTTPS.
func GetKeyFile() string {
	return os.Getenv("MTV_KEY_FILE")
}

func GetLogFolder() string {
	logFolderPath := os.Getenv("MTV_LOG_FOLDER")
	if logFolderPath == "" {
		logFolderPath = "/var/log"
	}
	return logFolderPath
}
