package services

import (
	"reconflow/internal/dao"
	"reconflow/internal/models"
	"reconflow/pkg/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TargetAssets is the dashboard summary row for one target: tree-wide
// result counts per kind, aggregated over every job reachable from the
// target through upstream-job links.
type TargetAssets struct {
	TaskID     string `json:"task_id"`
	Domain     string `json:"domain"`
	Subdomains int64  `json:"subdomains"`
	Ports      int64  `json:"ports"`
	Paths      int64  `json:"paths"`
}

type QueryServiceMethods interface {
	CreateTarget(domain string) (*models.Target, error)
	DeleteTarget(taskID string) error
	ListTargetAssets() ([]TargetAssets, error)
	CountByTypeRecursive(targetTaskID, kind string) (int64, error)
	PruneByStatusCode(taskID, field string, code int, invert bool) (int64, error)
	PruneDuplicates(taskID string) (int64, error)
}

type queryService struct {
	jobDao    dao.JobDAO
	resultDao dao.ResultDAO
	targetDao dao.TargetDAO
	logger    *logger.Logger
}

func NewQueryService(jobDao dao.JobDAO, resultDao dao.ResultDAO, targetDao dao.TargetDAO) QueryServiceMethods {
	return &queryService{
		jobDao:    jobDao,
		resultDao: resultDao,
		targetDao: targetDao,
		logger:    logger.NewLogger(logrus.InfoLevel),
	}
}

func (s *queryService) CreateTarget(domain string) (*models.Target, error) {
	target := &models.Target{
		TaskID: uuid.New().String(),
		Domain: domain,
	}
	if err := s.targetDao.CreateTarget(target); err != nil {
		return nil, err
	}
	return target, nil
}

func (s *queryService) DeleteTarget(taskID string) error {
	// Jobs reference targets only through provenance strings; deleting a
	// target deliberately orphans its historical jobs.
	return s.targetDao.DeleteTarget(taskID)
}

func (s *queryService) ListTargetAssets() ([]TargetAssets, error) {
	targets, err := s.targetDao.ListTargets()
	if err != nil {
		return nil, err
	}

	assets := make([]TargetAssets, 0, len(targets))
	for _, target := range targets {
		row := TargetAssets{TaskID: target.TaskID, Domain: target.Domain}
		if row.Subdomains, err = s.CountByTypeRecursive(target.TaskID, models.KindSubdomain); err != nil {
			return nil, err
		}
		if row.Ports, err = s.CountByTypeRecursive(target.TaskID, models.KindPort); err != nil {
			return nil, err
		}
		if row.Paths, err = s.CountByTypeRecursive(target.TaskID, models.KindPath); err != nil {
			return nil, err
		}
		assets = append(assets, row)
	}
	return assets, nil
}

// CountByTypeRecursive sums the result counts of every job reachable by
// following upstream-job links transitively from the target, filtered to
// the given kind. Iterative with a visited set so malformed cyclic chains
// terminate.
func (s *queryService) CountByTypeRecursive(targetTaskID, kind string) (int64, error) {
	var total int64
	visited := make(map[string]bool)
	queue := []string{targetTaskID}

	for len(queue) > 0 {
		fromID := queue[0]
		queue = queue[1:]
		if visited[fromID] {
			continue
		}
		visited[fromID] = true

		jobs, err := s.jobDao.ListJobsByFromJob(fromID)
		if err != nil {
			return 0, err
		}
		for _, job := range jobs {
			if job.Kind == kind {
				count, err := s.resultDao.CountResults(job.TaskID, job.Kind)
				if err != nil {
					return 0, err
				}
				total += count
			}
			queue = append(queue, job.TaskID)
		}
	}
	return total, nil
}

func (s *queryService) PruneByStatusCode(taskID, field string, code int, invert bool) (int64, error) {
	job, err := s.jobDao.GetJob(taskID)
	if err != nil {
		return 0, err
	}
	deleted, err := s.resultDao.DeleteByStatusCode(taskID, job.Kind, field, code, invert)
	if err != nil {
		return 0, err
	}
	s.logger.WithJob(taskID, job.Kind).Infof("Pruned %d result(s) by status code %d", deleted, code)
	return deleted, nil
}

func (s *queryService) PruneDuplicates(taskID string) (int64, error) {
	job, err := s.jobDao.GetJob(taskID)
	if err != nil {
		return 0, err
	}
	deleted, err := s.resultDao.DeleteDuplicates(taskID, job.Kind)
	if err != nil {
		return 0, err
	}
	s.logger.WithJob(taskID, job.Kind).Infof("Pruned %d duplicate result(s)", deleted)
	return deleted, nil
}
