package service

import (
	"time"

	"github.com/maintainview/maintainview/database"
	"github.com/maintainview/maintainview/database/model"
)

type MaintenanceLogService struct{}

func (s *MaintenanceLogService) GetLog(id int) (*model.MaintenanceLog, error) {
	db := database.GetDB()
	log := &model.MaintenanceLog{}
	err := db.Model(model.MaintenanceLog{}).Preload("Site").Where("id = ?", id).First(log).Error
	if err != nil {
		return nil, err
	}
	return log, nil
}

// SearchSiteLogs lists a site's logs newest first, optionally filtered by a
// summary substring. Used by the admin surface, so hidden entries show too.
func (s *MaintenanceLogService) SearchSiteLogs(siteId int, q string) ([]model.MaintenanceLog, error) {
	db := database.GetDB()
	logs := make([]model.MaintenanceLog, 0)
	query := db.Model(model.MaintenanceLog{}).Where("site_id = ?", siteId)
	if q != "" {
		query = query.Where("summary LIKE ?", "%"+q+"%")
	}
	err := query.Order("performed_at desc").Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// ListVisibleSiteLogs lists one site's client-visible logs within [start, end].
func (s *MaintenanceLogService) ListVisibleSiteLogs(siteId int, start, end time.Time) ([]model.MaintenanceLog, error) {
	db := database.GetDB()
	logs := make([]model.MaintenanceLog, 0)
	err := db.Model(model.MaintenanceLog{}).
		Where("site_id = ? AND is_visible_to_client = ? AND performed_at >= ? AND performed_at <= ?",
			siteId, true, start, end).
		Order("performed_at desc").
		Find(&logs).
		Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// ListVisibleClientLogs lists the client-visible logs of every site of one
// tenant within [start, end].
func (s *MaintenanceLogService) ListVisibleClientLogs(clientId int, start, end time.Time) ([]model.MaintenanceLog, error) {
	db := database.GetDB()
	logs := make([]model.MaintenanceLog, 0)
	err := db.Model(model.MaintenanceLog{}).
		Preload("Site").
		Joins("JOIN sites ON sites.id = maintenance_logs.site_id").
		Where("sites.client_id = ? AND maintenance_logs.is_visible_to_client = ?", clientId, true).
		Where("maintenance_logs.performed_at >= ? AND maintenance_logs.performed_at <= ?", start, end).
		Order("maintenance_logs.performed_at desc").
		Find(&logs).
		Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// ListRecentLogs returns the latest entries across every site for the admin
// dashboard.
func (s *MaintenanceLogService) ListRecentLogs(limit int) ([]model.MaintenanceLog, error) {
	db := database.GetDB()
	logs := make([]model.MaintenanceLog, 0)
	err := db.Model(model.MaintenanceLog{}).
		Preload("Site").
		Order("performed_at desc").
		Limit(limit).
		Find(&logs).
		Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *MaintenanceLogService) CreateLog(log *model.MaintenanceLog) error {
	db := database.GetDB()
	return db.Create(log).Error
}

func (s *MaintenanceLogService) UpdateLog(log *model.MaintenanceLog) error {
	db := database.GetDB()
	return db.Save(log).Error
}
