package service

import (
	"time"

	"github.com/maintainview/maintainview/database"
	"github.com/maintainview/maintainview/database/model"
)

type NoticeService struct{}

func (s *NoticeService) GetNotice(id int) (*model.Notice, error) {
	db := database.GetDB()
	notice := &model.Notice{}
	err := db.Model(model.Notice{}).Preload("Site").Where("id = ?", id).First(notice).Error
	if err != nil {
		return nil, err
	}
	return notice, nil
}

// ListSiteNotices lists every notice of one site for the admin surface.
func (s *NoticeService) ListSiteNotices(siteId int) ([]model.Notice, error) {
	db := database.GetDB()
	notices := make([]model.Notice, 0)
	err := db.Model(model.Notice{}).
		Where("site_id = ?", siteId).
		Order("created_at desc").
		Find(&notices).
		Error
	if err != nil {
		return nil, err
	}
	return notices, nil
}

// ListActiveSiteNotices lists a site's client-visible notices whose display
// window covers today. Open-ended windows (null start or end) always match.
func (s *NoticeService) ListActiveSiteNotices(siteId int, today time.Time) ([]model.Notice, error) {
	db := database.GetDB()
	notices := make([]model.Notice, 0)
	err := db.Model(model.Notice{}).
		Where("site_id = ? AND is_visible_to_client = ?", siteId, true).
		Where("start_date IS NULL OR start_date <= ?", today).
		Where("end_date IS NULL OR end_date >= ?", today).
		Order("created_at desc").
		Find(&notices).
		Error
	if err != nil {
		return nil, err
	}
	return notices, nil
}

// ListActiveClientNotices lists the client-visible notices of every site of
// one tenant whose window overlaps [start, end].
func (s *NoticeService) ListActiveClientNotices(clientId int, start, end time.Time) ([]model.Notice, error) {
	db := database.GetDB()
	notices := make([]model.Notice, 0)
	err := db.Model(model.Notice{}).
		Preload("Site").
		Joins("JOIN sites ON sites.id = notices.site_id").
		Where("sites.client_id = ? AND notices.is_visible_to_client = ?", clientId, true).
		Where("notices.start_date IS NULL OR notices.start_date <= ?", end).
		Where("notices.end_date IS NULL OR notices.end_date >= ?", start).
		Order("notices.created_at desc").
		Find(&notices).
		Error
	if err != nil {
		return nil, err
	}
	return notices, nil
}

func (s *NoticeService) CreateNotice(notice *model.Notice) error {
	db := database.GetDB()
	return db.Create(notice).Error
}

func (s *NoticeService) UpdateNotice(notice *model.Notice) error {
	db := database.GetDB()
	return db.Save(notice).Error
}
