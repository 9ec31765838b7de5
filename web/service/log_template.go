package service

import (
	"github.com/maintainview/maintainview/database"
	"github.com/maintainview/maintainview/database/model"
)

type LogTemplateService struct{}

func (s *LogTemplateService) GetTemplate(id int) (*model.LogTemplate, error) {
	db := database.GetDB()
	template := &model.LogTemplate{}
	err := db.Model(model.LogTemplate{}).Where("id = ?", id).First(template).Error
	if err != nil {
		return nil, err
	}
	return template, nil
}

func (s *LogTemplateService) ListTemplates() ([]model.LogTemplate, error) {
	db := database.GetDB()
	templates := make([]model.LogTemplate, 0)
	err := db.Model(model.LogTemplate{}).Order("id desc").Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

// ListActiveTemplates returns the templates offered in the log form.
func (s *LogTemplateService) ListActiveTemplates() ([]model.LogTemplate, error) {
	db := database.GetDB()
	templates := make([]model.LogTemplate, 0)
	err := db.Model(model.LogTemplate{}).
		Where("is_active = ?", true).
		Order("name asc").
		Find(&templates).
		Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (s *LogTemplateService) CreateTemplate(template *model.LogTemplate) error {
	db := database.GetDB()
	return db.Create(template).Error
}

func (s *LogTemplateService) UpdateTemplate(template *model.LogTemplate) error {
	db := database.GetDB()
	return db.Save(template).Error
}

// DeleteTemplate removes a template. Templates carry no history, so this is
// the one hard delete in the portal.
func (s *LogTemplateService) DeleteTemplate(id int) error {
	db := database.GetDB()
	return db.Delete(&model.LogTemplate{}, id).Error
}
