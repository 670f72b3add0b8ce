package dao

import (
	"errors"

	"reconflow/internal/models"
	recon "reconflow/pkg/errors"

	"gorm.io/gorm"
)

type TargetDAO interface {
	CreateTarget(target *models.Target) error
	GetTarget(taskID string) (*models.Target, error)
	ListTargets() ([]models.Target, error)
	DeleteTarget(taskID string) error
}

type targetDAO struct {
	db *gorm.DB
}

func NewTargetDAO(db *gorm.DB) TargetDAO {
	return &targetDAO{db: db}
}

func (dao *targetDAO) CreateTarget(target *models.Target) error {
	var count int64
	if err := dao.db.Model(&models.Target{}).Where("domain = ?", target.Domain).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return recon.ErrTargetExists
	}
	return dao.db.Create(target).Error
}

func (dao *targetDAO) GetTarget(taskID string) (*models.Target, error) {
	var target models.Target
	if err := dao.db.Where("task_id = ?", taskID).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, recon.ErrTargetNotFound
		}
		return nil, err
	}
	return &target, nil
}

func (dao *targetDAO) ListTargets() ([]models.Target, error) {
	var targets []models.Target
	if err := dao.db.Order("domain asc").Find(&targets).Error; err != nil {
		return nil, err
	}
	return targets, nil
}

func (dao *targetDAO) DeleteTarget(taskID string) error {
	result := dao.db.Where("task_id = ?", taskID).Delete(&models.Target{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return recon.ErrTargetNotFound
	}
	return nil
}
