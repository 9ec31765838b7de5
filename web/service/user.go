package service

import (
	"time"

	"github.com/maintainview/maintainview/database"
	"github.com/maintainview/maintainview/database/model"
	"github.com/maintainview/maintainview/logger"
	"github.com/maintainview/maintainview/util/crypto"

	"gorm.io/gorm"
)

type UserService struct{}

// GetUser loads an account by id. Missing accounts resolve to nil, not an
// error: a stale session must read as "not logged in".
func (s *UserService) GetUser(id int) *model.User {
	db := database.GetDB()
	user := &model.User{}
	err := db.Model(model.User{}).Where("id = ?", id).First(user).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	} else if err != nil {
		logger.Warning("get user err:", err)
		return nil
	}
	return user
}

// CheckUser verifies credentials against the stored hash; nil means failure.
// Deactivated accounts can not log in.
func (s *UserService) CheckUser(email string, password string) *model.User {
	db := database.GetDB()

	user := &model.User{}
	err := db.Model(model.User{}).
		Where("email = ? and is_active = ?", email, true).
		First(user).
		Error
	if err == gorm.ErrRecordNotFound {
		return nil
	} else if err != nil {
		logger.Warning("check user err:", err)
		return nil
	}

	if !crypto.VerifyPassword(password, user.PasswordHash) {
		return nil
	}

	return user
}

// MarkLogin records the successful login time. A failure here is logged, not
// surfaced: in read-only mode the timestamp simply stays unchanged.
func (s *UserService) MarkLogin(user *model.User) {
	db := database.GetDB()
	now := time.Now()
	err := db.Model(model.User{}).
		Where("id = ?", user.Id).
		Update("last_login_at", now).
		Error
	if err != nil {
		logger.Debug("update last login err:", err)
	}
}

// CreateClientUser creates a client-role account bound to a tenant.
func (s *UserService) CreateClientUser(clientId int, email string, password string) (*model.User, error) {
	db := database.GetDB()
	user := &model.User{
		Email:        email,
		PasswordHash: crypto.HashPassword(password),
		Role:         model.RoleClient,
		ClientId:     &clientId,
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// SetActive toggles the account activation flag; accounts are never deleted.
func (s *UserService) SetActive(userId int, active bool) error {
	db := database.GetDB()
	return db.Model(model.User{}).
		Where("id = ?", userId).
		Update("is_active", active).
		Error
}

// UpdatePassword replaces the stored hash for one account.
func (s *UserService) UpdatePassword(userId int, newPassword string) error {
	db := database.GetDB()
	return db.Model(model.User{}).
		Where("id = ?", userId).
		Update("password_hash", crypto.HashPassword(newPassword)).
		Error
}

// ResetAdmin rewrites the first admin account's credentials, creating the
// account when none exists. Used by the CLI for lockout recovery.
func (s *UserService) ResetAdmin(email string, password string) error {
	db := database.GetDB()
	admin := &model.User{}
	err := db.Model(model.User{}).
		Where("role = ?", model.RoleAdmin).
		Order("id asc").
		First(admin).
		Error
	if err == gorm.ErrRecordNotFound {
		admin = &model.User{
			Email:        email,
			PasswordHash: crypto.HashPassword(password),
			Role:         model.RoleAdmin,
			IsActive:     true,
		}
		return db.Create(admin).Error
	} else if err != nil {
		return err
	}
	return db.Model(model.User{}).
		Where("id = ?", admin.Id).
		Updates(map[string]any{
			"email":         email,
			"password_hash": crypto.HashPassword(password),
			"is_active":     true,
		}).
		Error
}

// ListClientUsers returns every account of one tenant.
func (s *UserService) ListClientUsers(clientId int) ([]model.User, error) {
	db := database.GetDB()
	users := make([]model.User, 0)
	err := db.Model(model.User{}).
		Where("client_id = ?", clientId).
		Order("id asc").
		Find(&users).
		Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
