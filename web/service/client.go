package service

import (
	"github.com/maintainview/maintainview/database"
	"github.com/maintainview/maintainview/database/model"
)

type ClientService struct{}

func (s *ClientService) GetClient(id int) (*model.Client, error) {
	db := database.GetDB()
	client := &model.Client{}
	err := db.Model(model.Client{}).Where("id = ?", id).First(client).Error
	if err != nil {
		return nil, err
	}
	return client, nil
}

// SearchClients lists clients, optionally filtered by a name substring.
func (s *ClientService) SearchClients(q string) ([]model.Client, error) {
	db := database.GetDB()
	clients := make([]model.Client, 0)
	query := db.Model(model.Client{})
	if q != "" {
		like := "%" + q + "%"
		query = query.Where("name LIKE ? OR display_name LIKE ?", like, like)
	}
	err := query.Order("id desc").Find(&clients).Error
	if err != nil {
		return nil, err
	}
	return clients, nil
}

func (s *ClientService) CreateClient(client *model.Client) error {
	db := database.GetDB()
	return db.Create(client).Error
}

func (s *ClientService) UpdateClient(client *model.Client) error {
	db := database.GetDB()
	return db.Save(client).Error
}
