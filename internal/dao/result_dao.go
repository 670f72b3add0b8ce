package dao

import (
	"fmt"

	"reconflow/internal/models"
	recon "reconflow/pkg/errors"

	"gorm.io/gorm"
)

// StatusField selects which probe column a status-code pruning predicate
// applies to.
const (
	FieldHTTP  = "http"
	FieldHTTPS = "https"
)

type ResultDAO interface {
	SaveSubdomains(rows []models.Subdomain) error
	SavePorts(rows []models.Port) error
	SavePaths(rows []models.PathResult) error

	ListSubdomains(taskID string) ([]models.Subdomain, error)
	ListPorts(taskID string) ([]models.Port, error)
	ListPaths(taskID string) ([]models.PathResult, error)

	DeleteSubdomain(id uint) error
	DeletePort(id uint) error
	DeletePath(id uint) error

	// CountResults returns the row count in the kind-appropriate table.
	CountResults(taskID, kind string) (int64, error)

	// DeleteByStatusCode removes rows of one job whose probe status matches
	// (or, inverted, does not match) the given code. For PATH jobs the
	// field is ignored; the response status column is used.
	DeleteByStatusCode(taskID, kind, field string, code int, invert bool) (int64, error)

	// DeleteDuplicates keeps, per distinct discovered value, the row with
	// the lowest id and deletes the rest. Returns the number deleted.
	DeleteDuplicates(taskID, kind string) (int64, error)

	SaveEdges(edges []models.AssetEdge) error
	ListEdgesByParent(parentKind string, parentAssetID uint) ([]models.AssetEdge, error)
}

type resultDAO struct {
	db *gorm.DB
}

func NewResultDAO(db *gorm.DB) ResultDAO {
	return &resultDAO{db: db}
}

func (dao *resultDAO) SaveSubdomains(rows []models.Subdomain) error {
	if len(rows) == 0 {
		return nil
	}
	return dao.db.Create(&rows).Error
}

func (dao *resultDAO) SavePorts(rows []models.Port) error {
	if len(rows) == 0 {
		return nil
	}
	return dao.db.Create(&rows).Error
}

func (dao *resultDAO) SavePaths(rows []models.PathResult) error {
	if len(rows) == 0 {
		return nil
	}
	return dao.db.Create(&rows).Error
}

func (dao *resultDAO) ListSubdomains(taskID string) ([]models.Subdomain, error) {
	var rows []models.Subdomain
	if err := dao.db.Where("task_id = ?", taskID).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (dao *resultDAO) ListPorts(taskID string) ([]models.Port, error) {
	var rows []models.Port
	if err := dao.db.Where("task_id = ?", taskID).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (dao *resultDAO) ListPaths(taskID string) ([]models.PathResult, error) {
	var rows []models.PathResult
	if err := dao.db.Where("task_id = ?", taskID).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (dao *resultDAO) DeleteSubdomain(id uint) error {
	return dao.deleteByID(&models.Subdomain{}, id)
}

func (dao *resultDAO) DeletePort(id uint) error {
	return dao.deleteByID(&models.Port{}, id)
}

func (dao *resultDAO) DeletePath(id uint) error {
	return dao.deleteByID(&models.PathResult{}, id)
}

func (dao *resultDAO) deleteByID(model interface{}, id uint) error {
	result := dao.db.Where("id = ?", id).Delete(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return recon.ErrResultNotFound
	}
	return nil
}

func (dao *resultDAO) CountResults(taskID, kind string) (int64, error) {
	var count int64
	var err error
	switch kind {
	case models.KindSubdomain:
		err = dao.db.Model(&models.Subdomain{}).Where("task_id = ?", taskID).Count(&count).Error
	case models.KindPort:
		err = dao.db.Model(&models.Port{}).Where("task_id = ?", taskID).Count(&count).Error
	case models.KindPath:
		err = dao.db.Model(&models.PathResult{}).Where("task_id = ?", taskID).Count(&count).Error
	default:
		return 0, recon.ErrInvalidKind
	}
	return count, err
}

func (dao *resultDAO) DeleteByStatusCode(taskID, kind, field string, code int, invert bool) (int64, error) {
	var column string
	switch kind {
	case models.KindSubdomain, models.KindPort:
		switch field {
		case FieldHTTPS:
			column = "https_status"
		default:
			column = "http_status"
		}
	case models.KindPath:
		column = "status"
	default:
		return 0, recon.ErrInvalidKind
	}

	op := "="
	if invert {
		op = "<>"
	}
	cond := fmt.Sprintf("task_id = ? AND %s %s ?", column, op)

	var result *gorm.DB
	switch kind {
	case models.KindSubdomain:
		result = dao.db.Where(cond, taskID, code).Delete(&models.Subdomain{})
	case models.KindPort:
		result = dao.db.Where(cond, taskID, code).Delete(&models.Port{})
	case models.KindPath:
		result = dao.db.Where(cond, taskID, code).Delete(&models.PathResult{})
	}
	return result.RowsAffected, result.Error
}

// duplicate identity per kind: subdomain name, ip:port pair, path URL.
func (dao *resultDAO) DeleteDuplicates(taskID, kind string) (int64, error) {
	var result *gorm.DB
	switch kind {
	case models.KindSubdomain:
		result = dao.db.Exec(
			`DELETE FROM subdomains WHERE task_id = ? AND id NOT IN
			 (SELECT MIN(id) FROM subdomains WHERE task_id = ? GROUP BY subdomain)`,
			taskID, taskID)
	case models.KindPort:
		result = dao.db.Exec(
			`DELETE FROM ports WHERE task_id = ? AND id NOT IN
			 (SELECT MIN(id) FROM ports WHERE task_id = ? GROUP BY ip_address, port_number)`,
			taskID, taskID)
	case models.KindPath:
		result = dao.db.Exec(
			`DELETE FROM path_results WHERE task_id = ? AND id NOT IN
			 (SELECT MIN(id) FROM path_results WHERE task_id = ? GROUP BY url)`,
			taskID, taskID)
	default:
		return 0, recon.ErrInvalidKind
	}
	return result.RowsAffected, result.Error
}

func (dao *resultDAO) SaveEdges(edges []models.AssetEdge) error {
	if len(edges) == 0 {
		return nil
	}
	return dao.db.Create(&edges).Error
}

func (dao *resultDAO) ListEdgesByParent(parentKind string, parentAssetID uint) ([]models.AssetEdge, error) {
	var edges []models.AssetEdge
	err := dao.db.Where("parent_kind = ? AND parent_asset_id = ?", parentKind, parentAssetID).Find(&edges).Error
	if err != nil {
		return nil, err
	}
	return edges, nil
}
