package dao

import (
	"errors"
	"time"

	"reconflow/internal/models"
	recon "reconflow/pkg/errors"

	"gorm.io/gorm"
)

type JobDAO interface {
	CreateJob(job *models.ScanJob) error
	GetJob(taskID string) (*models.ScanJob, error)
	ListJobsByKind(kind string) ([]models.ScanJob, error)
	ListJobsByFromJob(fromJobID string) ([]models.ScanJob, error)
	ListJobsByTarget(target string) ([]models.ScanJob, error)
	// ListRootJobs returns jobs anchored at the given domain: jobs whose
	// target is the domain or that own at least one result row whose
	// provenance is the domain.
	ListRootJobs(domain string) ([]models.ScanJob, error)
	Transition(taskID, newStatus, errorMessage string) error
	MarkRead(taskID string) error
	DeleteJob(taskID string) error
}

type jobDAO struct {
	db *gorm.DB
}

func NewJobDAO(db *gorm.DB) JobDAO {
	return &jobDAO{db: db}
}

func (dao *jobDAO) CreateJob(job *models.ScanJob) error {
	if job.Status == "" {
		job.Status = models.StatusPending
	}
	if job.StartTime.IsZero() {
		job.StartTime = time.Now()
	}
	return dao.db.Create(job).Error
}

func (dao *jobDAO) GetJob(taskID string) (*models.ScanJob, error) {
	var job models.ScanJob
	if err := dao.db.Where("task_id = ?", taskID).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, recon.ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (dao *jobDAO) ListJobsByKind(kind string) ([]models.ScanJob, error) {
	var jobs []models.ScanJob
	if err := dao.db.Where("kind = ?", kind).Order("start_time desc").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (dao *jobDAO) ListJobsByFromJob(fromJobID string) ([]models.ScanJob, error) {
	var jobs []models.ScanJob
	if err := dao.db.Where("from_job_id = ?", fromJobID).Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (dao *jobDAO) ListJobsByTarget(target string) ([]models.ScanJob, error) {
	var jobs []models.ScanJob
	if err := dao.db.Where("target = ?", target).Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (dao *jobDAO) ListRootJobs(domain string) ([]models.ScanJob, error) {
	var jobs []models.ScanJob
	err := dao.db.
		Where("target = ?", domain).
		Or("task_id IN (?)", dao.db.Model(&models.Subdomain{}).Select("task_id").Where("from_asset = ?", domain)).
		Or("task_id IN (?)", dao.db.Model(&models.Port{}).Select("task_id").Where("from_asset = ?", domain)).
		Or("task_id IN (?)", dao.db.Model(&models.PathResult{}).Select("task_id").Where("from_asset = ?", domain)).
		Order("start_time asc").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// statusRank orders statuses so a transition is legal only when it moves
// strictly forward. Terminal statuses share the top rank.
func statusRank(status string) int {
	switch status {
	case models.StatusPending:
		return 0
	case models.StatusRunning:
		return 1
	case models.StatusCompleted, models.StatusError:
		return 2
	default:
		return -1
	}
}

func (dao *jobDAO) Transition(taskID, newStatus, errorMessage string) error {
	return dao.db.Transaction(func(tx *gorm.DB) error {
		var job models.ScanJob
		if err := tx.Where("task_id = ?", taskID).First(&job).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return recon.ErrJobNotFound
			}
			return err
		}

		if statusRank(newStatus) <= statusRank(job.Status) {
			return recon.NewTransitionError(taskID, job.Status, newStatus)
		}

		job.Status = newStatus
		if models.IsTerminalStatus(newStatus) {
			now := time.Now()
			job.EndTime = &now
		}
		if newStatus == models.StatusError {
			job.ErrorMessage = errorMessage
		}

		return tx.Save(&job).Error
	})
}

func (dao *jobDAO) MarkRead(taskID string) error {
	result := dao.db.Model(&models.ScanJob{}).Where("task_id = ?", taskID).Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return recon.ErrJobNotFound
	}
	return nil
}

func (dao *jobDAO) DeleteJob(taskID string) error {
	return dao.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("task_id = ?", taskID).Delete(&models.ScanJob{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return recon.ErrJobNotFound
		}

		// Cascade to owned result rows and chaining edges.
		if err := tx.Where("task_id = ?", taskID).Delete(&models.Subdomain{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", taskID).Delete(&models.Port{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", taskID).Delete(&models.PathResult{}).Error; err != nil {
			return err
		}
		return tx.Where("child_job_id = ?", taskID).Delete(&models.AssetEdge{}).Error
	})
}
