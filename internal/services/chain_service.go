package services

import (
	"fmt"

	"reconflow/internal/dao"
	"reconflow/internal/models"
	"reconflow/pkg/logger"
)

// Fan-out defaults for chained jobs. User-submitted jobs carry their own
// parameters; chained jobs get these.
const (
	chainedPortRange = "1-10000"
	chainedWordlist  = "wordlists/common.txt"
	chainedDelay     = 0
)

type dispatchFunc func(ScanRequest) (string, error)

// ChainEngine decides, from a completed job's results, which follow-on jobs
// to enqueue, and records the parent-asset -> child-job edge for each.
// Chaining is fire-and-forget: a child's eventual failure never touches the
// parent's terminal status.
type ChainEngine struct {
	jobDao    dao.JobDAO
	resultDao dao.ResultDAO
	dispatch  dispatchFunc
	logger    *logger.Logger
}

func NewChainEngine(jobDao dao.JobDAO, resultDao dao.ResultDAO, log *logger.Logger) *ChainEngine {
	return &ChainEngine{jobDao: jobDao, resultDao: resultDao, logger: log}
}

// ChainFrom computes and enqueues the fan-out set for a completed job. It
// returns the ids of the jobs it created; errors are absorbed after
// logging since no caller can do anything about a failed fan-out.
func (c *ChainEngine) ChainFrom(taskID string) []string {
	if c.dispatch == nil {
		return nil
	}

	job, err := c.jobDao.GetJob(taskID)
	if err != nil {
		c.logger.Error("Chaining: job lookup failed", logger.Fields{"task_id": taskID, "error": err})
		return nil
	}
	if job.Status != models.StatusCompleted {
		return nil
	}

	switch job.Kind {
	case models.KindSubdomain:
		return c.chainSubdomainJob(job)
	case models.KindPort:
		return c.chainPortJob(job)
	default:
		// PATH jobs are terminal.
		return nil
	}
}

// chainSubdomainJob enqueues one PORT job per distinct resolved IP among
// the parent's results.
func (c *ChainEngine) chainSubdomainJob(job *models.ScanJob) []string {
	rows, err := c.resultDao.ListSubdomains(job.TaskID)
	if err != nil {
		c.logger.Error("Chaining: listing subdomains failed", logger.Fields{"task_id": job.TaskID, "error": err})
		return nil
	}

	// Set semantics on the fan-out key: the first row owning each IP
	// becomes the edge parent.
	parents := make(map[string]uint)
	order := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.IPAddress == "" {
			continue
		}
		if _, ok := parents[row.IPAddress]; ok {
			continue
		}
		parents[row.IPAddress] = row.ID
		order = append(order, row.IPAddress)
	}

	var created []string
	for _, ip := range order {
		childID, err := c.dispatch(ScanRequest{
			Kind:      models.KindPort,
			Target:    ip,
			Ports:     chainedPortRange,
			FromJobID: job.TaskID,
			FromAsset: ip,
		})
		if err != nil {
			c.logger.Error("Chaining: port job dispatch failed", logger.Fields{"ip": ip, "error": err})
			continue
		}
		c.saveEdge(models.KindSubdomain, parents[ip], ip, childID)
		created = append(created, childID)
	}

	if len(created) > 0 {
		c.logger.WithJob(job.TaskID, job.Kind).Infof("Chained %d port scan(s)", len(created))
	}
	return created
}

// chainPortJob enqueues one PATH job per distinct (ip, port, scheme) triple
// found speaking HTTP or HTTPS.
func (c *ChainEngine) chainPortJob(job *models.ScanJob) []string {
	rows, err := c.resultDao.ListPorts(job.TaskID)
	if err != nil {
		c.logger.Error("Chaining: listing ports failed", logger.Fields{"task_id": job.TaskID, "error": err})
		return nil
	}

	type fanoutKey struct {
		hostPort string
		scheme   string
	}
	parents := make(map[fanoutKey]uint)
	var order []fanoutKey
	for _, row := range rows {
		for _, scheme := range []string{"http", "https"} {
			if scheme == "http" && !row.SpeaksHTTP() {
				continue
			}
			if scheme == "https" && !row.SpeaksHTTPS() {
				continue
			}
			key := fanoutKey{hostPort: row.AssetKey(), scheme: scheme}
			if _, ok := parents[key]; ok {
				continue
			}
			parents[key] = row.ID
			order = append(order, key)
		}
	}

	var created []string
	for _, key := range order {
		baseURL := fmt.Sprintf("%s://%s/", key.scheme, key.hostPort)
		childID, err := c.dispatch(ScanRequest{
			Kind:      models.KindPath,
			Target:    baseURL,
			Wordlist:  chainedWordlist,
			Delay:     chainedDelay,
			FromJobID: job.TaskID,
			FromAsset: key.hostPort,
		})
		if err != nil {
			c.logger.Error("Chaining: path job dispatch failed", logger.Fields{"url": baseURL, "error": err})
			continue
		}
		c.saveEdge(models.KindPort, parents[key], key.hostPort, childID)
		created = append(created, childID)
	}

	if len(created) > 0 {
		c.logger.WithJob(job.TaskID, job.Kind).Infof("Chained %d path scan(s)", len(created))
	}
	return created
}

func (c *ChainEngine) saveEdge(parentKind string, parentAssetID uint, parentKey, childJobID string) {
	err := c.resultDao.SaveEdges([]models.AssetEdge{{
		ParentKind:    parentKind,
		ParentAssetID: parentAssetID,
		ParentKey:     parentKey,
		ChildJobID:    childJobID,
	}})
	if err != nil {
		c.logger.Error("Chaining: edge save failed", logger.Fields{"child_job_id": childJobID, "error": err})
	}
}
