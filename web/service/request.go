package service

import (
	"time"

	"github.com/maintainview/maintainview/database"
	"github.com/maintainview/maintainview/database/model"
)

type RequestService struct{}

func (s *RequestService) GetRequest(id int) (*model.Request, error) {
	db := database.GetDB()
	req := &model.Request{}
	err := db.Model(model.Request{}).
		Preload("Client").
		Preload("Site").
		Where("id = ?", id).
		First(req).
		Error
	if err != nil {
		return nil, err
	}
	return req, nil
}

// SearchRequests lists requests for the admin queue, filtered by status,
// client and a subject/body substring.
func (s *RequestService) SearchRequests(status string, clientId int, q string) ([]model.Request, error) {
	db := database.GetDB()
	requests := make([]model.Request, 0)
	query := db.Model(model.Request{}).Preload("Client").Preload("Site")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if clientId > 0 {
		query = query.Where("client_id = ?", clientId)
	}
	if q != "" {
		like := "%" + q + "%"
		query = query.Where("subject LIKE ? OR body LIKE ?", like, like)
	}
	err := query.Order("updated_at desc").Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// ListClientRequests lists one tenant's requests newest-activity first.
func (s *RequestService) ListClientRequests(clientId int) ([]model.Request, error) {
	db := database.GetDB()
	requests := make([]model.Request, 0)
	err := db.Model(model.Request{}).
		Preload("Site").
		Where("client_id = ?", clientId).
		Order("updated_at desc").
		Find(&requests).
		Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *RequestService) CreateRequest(req *model.Request) error {
	db := database.GetDB()
	return db.Create(req).Error
}

func (s *RequestService) UpdateRequest(req *model.Request) error {
	db := database.GetDB()
	return db.Save(req).Error
}

// ListMessages returns a request's thread oldest first, attachments included.
// The attachment's Site and Request associations are loaded too so the file
// policy can resolve the owning tenant from the returned rows.
func (s *RequestService) ListMessages(requestId int) ([]model.RequestMessage, error) {
	db := database.GetDB()
	messages := make([]model.RequestMessage, 0)
	err := db.Model(model.RequestMessage{}).
		Preload("SharedFile").
		Preload("SharedFile.Site").
		Preload("SharedFile.Request").
		Where("request_id = ?", requestId).
		Order("created_at asc").
		Find(&messages).
		Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// AddMessage appends a reply to the thread and bumps the request's activity
// timestamp so it sorts to the top of the queue.
func (s *RequestService) AddMessage(msg *model.RequestMessage) error {
	db := database.GetDB()
	if err := db.Create(msg).Error; err != nil {
		return err
	}
	return db.Model(model.Request{}).
		Where("id = ?", msg.RequestId).
		Update("updated_at", time.Now()).
		Error
}

// ListInitialFiles returns a request's attachments that are not bound to any
// thread message (the files attached when the request was opened).
func (s *RequestService) ListInitialFiles(requestId int) ([]model.SharedFile, error) {
	db := database.GetDB()
	files := make([]model.SharedFile, 0)
	err := db.Model(model.SharedFile{}).
		Preload("Site").
		Preload("Request").
		Where("request_id = ?", requestId).
		Where("id NOT IN (?)", db.Model(model.RequestMessage{}).
			Select("shared_file_id").
			Where("shared_file_id IS NOT NULL")).
		Find(&files).
		Error
	if err != nil {
		return nil, err
	}
	return files, nil
}
