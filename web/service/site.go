package service

import (
	"github.com/maintainview/maintainview/database"
	"github.com/maintainview/maintainview/database/model"
)

type SiteService struct{}

func (s *SiteService) GetSite(id int) (*model.Site, error) {
	db := database.GetDB()
	site := &model.Site{}
	err := db.Model(model.Site{}).Preload("Client").Where("id = ?", id).First(site).Error
	if err != nil {
		return nil, err
	}
	return site, nil
}

// SearchSites lists sites, optionally restricted to one client and filtered
// by a name substring.
func (s *SiteService) SearchSites(clientId int, q string) ([]model.Site, error) {
	db := database.GetDB()
	sites := make([]model.Site, 0)
	query := db.Model(model.Site{}).Preload("Client")
	if clientId > 0 {
		query = query.Where("client_id = ?", clientId)
	}
	if q != "" {
		query = query.Where("name LIKE ?", "%"+q+"%")
	}
	err := query.Order("id desc").Find(&sites).Error
	if err != nil {
		return nil, err
	}
	return sites, nil
}

// ListActiveSites returns the active sites of one client, or of every client
// when clientId is zero.
func (s *SiteService) ListActiveSites(clientId int) ([]model.Site, error) {
	db := database.GetDB()
	sites := make([]model.Site, 0)
	query := db.Model(model.Site{}).Where("is_active = ?", true)
	if clientId > 0 {
		query = query.Where("client_id = ?", clientId)
	}
	err := query.Order("id desc").Find(&sites).Error
	if err != nil {
		return nil, err
	}
	return sites, nil
}

func (s *SiteService) CreateSite(site *model.Site) error {
	db := database.GetDB()
	return db.Create(site).Error
}

func (s *SiteService) UpdateSite(site *model.Site) error {
	db := database.GetDB()
	return db.Save(site).Error
}
