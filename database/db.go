// Package database manages the sqlite storage of the portal: connection
// setup, migrations, the initial admin account, and the process-wide
// read-only guard that blocks every write at the gorm layer.
package database

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path"

	"github.com/maintainview/maintainview/config"
	"github.com/maintainview/maintainview/database/model"
	"github.com/maintainview/maintainview/util/crypto"

	"go.uber.org/atomic"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

// readOnly is set from configuration at startup and only read during request
// handling. When true, every create/update/delete fails at this layer, so
// the demo-mode guarantee holds even for code paths that bypass HTTP.
var readOnly atomic.Bool

const (
	defaultAdminEmail    = "admin@example.com"
	defaultAdminPassword = "admin"
)

// ErrReadOnlyMode is returned for any write attempted while the guard is on.
var ErrReadOnlyMode = errors.New("database is in read-only mode")

// SetReadOnly toggles the process-wide write guard.
func SetReadOnly(enabled bool) {
	readOnly.Store(enabled)
}

// IsReadOnly reports whether the write guard is active.
func IsReadOnly() bool {
	return readOnly.Load()
}

func initModels() error {
	models := []any{
		&model.User{},
		&model.Client{},
		&model.Site{},
		&model.MaintenanceLog{},
		&model.Notice{},
		&model.LogTemplate{},
		&model.Request{},
		&model.RequestMessage{},
		&model.SharedFile{},
		&model.Setting{},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			log.Printf("Error auto migrating model: %v", err)
			return err
		}
	}
	return nil
}

func initAdminUser() error {
	var count int64
	err := db.Model(model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		admin := &model.User{
			Email:        defaultAdminEmail,
			PasswordHash: crypto.HashPassword(defaultAdminPassword),
			Role:         model.RoleAdmin,
			IsActive:     true,
		}
		return db.Create(admin).Error
	}
	return nil
}

func registerReadOnlyGuard() error {
	reject := func(tx *gorm.DB) {
		if readOnly.Load() {
			_ = tx.AddError(ErrReadOnlyMode)
		}
	}
	if err := db.Callback().Create().Before("gorm:create").Register("maintainview:readonly_create", reject); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("maintainview:readonly_update", reject); err != nil {
		return err
	}
	return db.Callback().Delete().Before("gorm:delete").Register("maintainview:readonly_delete", reject)
}

func InitDB(dbPath string) error {
	dir := path.Dir(dbPath)
	err := os.MkdirAll(dir, fs.ModePerm)
	if err != nil {
		return err
	}

	var gormLogger logger.Interface

	if config.IsDebug() {
		gormLogger = logger.Default
	} else {
		gormLogger = logger.Discard
	}

	c := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	}

	dsn := dbPath + "?cache=shared&_journal_mode=WAL&_synchronous=NORMAL"
	db, err = gorm.Open(sqlite.Open(dsn), c)
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	_, err = sqlDB.Exec("PRAGMA cache_size = -64000;")
	if err != nil {
		return err
	}
	_, err = sqlDB.Exec("PRAGMA temp_store = MEMORY;")
	if err != nil {
		return err
	}
	_, err = sqlDB.Exec("PRAGMA foreign_keys = ON;")
	if err != nil {
		return err
	}

	if err := registerReadOnlyGuard(); err != nil {
		return err
	}
	if err := initModels(); err != nil {
		return err
	}
	if err := initAdminUser(); err != nil {
		return err
	}

	return nil
}

func CloseDB() error {
	if db != nil {
		if err := Checkpoint(); err != nil {
			log.Printf("error executing checkpoint: %v", err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

func GetDB() *gorm.DB {
	return db
}

func IsNotFound(err error) bool {
	return err == gorm.ErrRecordNotFound
}

func Checkpoint() error {
	return db.Exec("PRAGMA wal_checkpoint;").Error
}
