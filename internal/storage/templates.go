package storage

import (
	"errors"

	"gorm.io/gorm"

	"crmconsole/backend/internal/models"
)

// ErrTemplateNotFound is returned when a template name does not resolve.
var ErrTemplateNotFound = errors.New("template not found")

const templateListKey = "templates:all"

// ListTemplates returns all registered templates. The list changes rarely
// and is read on every compose, so it is served from the in-process cache.
func (s *Service) ListTemplates() ([]models.Template, error) {
	if cached, found := s.templates.Get(templateListKey); found {
		return cached.([]models.Template), nil
	}

	var tpls []models.Template
	if err := s.DB.Order("name asc").Find(&tpls).Error; err != nil {
		return nil, err
	}
	s.templates.SetDefault(templateListKey, tpls)
	return tpls, nil
}

// GetTemplate resolves one template by name, body included.
func (s *Service) GetTemplate(name string) (*models.Template, error) {
	if cached, found := s.templates.Get(name); found {
		tpl := cached.(models.Template)
		return &tpl, nil
	}

	var tpl models.Template
	err := s.DB.Where("name = ?", name).First(&tpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}
	s.templates.SetDefault(name, tpl)
	return &tpl, nil
}

// SaveTemplate upserts a template and invalidates the cache. Variables are
// re-derived from the body so they never drift.
func (s *Service) SaveTemplate(tpl *models.Template) error {
	tpl.Variables = models.PlaceholderNames(tpl.Body)
	if err := s.DB.Save(tpl).Error; err != nil {
		return err
	}
	s.templates.Delete(templateListKey)
	s.templates.Delete(tpl.Name)
	return nil
}
