package services

import (
	"strconv"

	"reconflow/internal/dao"
	"reconflow/internal/models"
	"reconflow/pkg/logger"

	"github.com/sirupsen/logrus"
)

// TreeNode is one node of the lineage tree: a target domain, a scan job, or
// a discovered asset.
type TreeNode struct {
	Name     string      `json:"name"`
	Value    string      `json:"value"`
	Children []*TreeNode `json:"children,omitempty"`
}

// TreeService reconstructs the full job/asset lineage rooted at a target.
// Jobs and assets interleave: a job's result rows hang under the job node,
// and a follow-on job hangs under the asset row that caused it.
type TreeService struct {
	jobDao    dao.JobDAO
	resultDao dao.ResultDAO
	targetDao dao.TargetDAO
	logger    *logger.Logger
}

func NewTreeService(jobDao dao.JobDAO, resultDao dao.ResultDAO, targetDao dao.TargetDAO) *TreeService {
	return &TreeService{
		jobDao:    jobDao,
		resultDao: resultDao,
		targetDao: targetDao,
		logger:    logger.NewLogger(logrus.InfoLevel),
	}
}

// frame is one unit of the iterative traversal: a job to expand and the
// node it attaches under.
type frame struct {
	jobID  string
	parent *TreeNode
}

// BuildTree reconstructs the lineage tree for a target. The traversal is
// iterative with a visited set: jobs only reference earlier jobs so cycles
// are not expected, but malformed data must not loop — a job id seen twice
// is attached as a leaf and not re-expanded.
func (s *TreeService) BuildTree(targetTaskID string) (*TreeNode, error) {
	target, err := s.targetDao.GetTarget(targetTaskID)
	if err != nil {
		return nil, err
	}

	root := &TreeNode{Name: target.Domain, Value: target.TaskID}

	rootJobs, err := s.jobDao.ListRootJobs(target.Domain)
	if err != nil {
		return nil, err
	}

	visited := make(map[string]bool)
	queue := make([]frame, 0, len(rootJobs))
	for _, job := range rootJobs {
		queue = append(queue, frame{jobID: job.TaskID, parent: root})
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		job, err := s.jobDao.GetJob(current.jobID)
		if err != nil {
			s.logger.Warn("Tree: job vanished during traversal", logger.Fields{"task_id": current.jobID})
			continue
		}

		node := &TreeNode{Name: job.Target, Value: job.TaskID}
		current.parent.Children = append(current.parent.Children, node)

		if visited[job.TaskID] {
			// Repeat sighting: emit as leaf, do not re-expand.
			continue
		}
		visited[job.TaskID] = true

		attached, err := s.attachAssets(job, node, visited, &queue)
		if err != nil {
			return nil, err
		}

		// Direct job-to-job children not already hanging under an asset.
		children, err := s.jobDao.ListJobsByFromJob(job.TaskID)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if attached[child.TaskID] {
				continue
			}
			queue = append(queue, frame{jobID: child.TaskID, parent: node})
		}
	}

	return root, nil
}

// attachAssets adds one child node per result row of the job and queues any
// follow-on job under the asset that caused it. Returns the set of child
// job ids that found an asset parent.
func (s *TreeService) attachAssets(job *models.ScanJob, node *TreeNode, visited map[string]bool, queue *[]frame) (map[string]bool, error) {
	attached := make(map[string]bool)

	type asset struct {
		id   uint
		key  string
		name string
	}

	var assets []asset
	switch job.Kind {
	case models.KindSubdomain:
		rows, err := s.resultDao.ListSubdomains(job.TaskID)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			assets = append(assets, asset{id: row.ID, key: row.AssetKey(), name: row.DisplayName()})
		}
	case models.KindPort:
		rows, err := s.resultDao.ListPorts(job.TaskID)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			assets = append(assets, asset{id: row.ID, key: row.AssetKey(), name: row.DisplayName()})
		}
	case models.KindPath:
		rows, err := s.resultDao.ListPaths(job.TaskID)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			assets = append(assets, asset{id: row.ID, key: row.AssetKey(), name: row.DisplayName()})
		}
	}

	for _, a := range assets {
		assetNode := &TreeNode{Name: a.name, Value: assetValue(job.Kind, a.id)}
		node.Children = append(node.Children, assetNode)

		childIDs := make(map[string]bool)

		// Edges written at chaining time are authoritative.
		edges, err := s.resultDao.ListEdgesByParent(job.Kind, a.id)
		if err != nil {
			return nil, err
		}
		for _, edge := range edges {
			childIDs[edge.ChildJobID] = true
		}

		// Legacy fallback: a job whose target equals the asset's canonical
		// key descends from this asset even without an edge.
		if a.key != "" {
			byTarget, err := s.jobDao.ListJobsByTarget(a.key)
			if err != nil {
				return nil, err
			}
			for _, child := range byTarget {
				if child.TaskID == job.TaskID {
					continue
				}
				childIDs[child.TaskID] = true
			}
		}

		for childID := range childIDs {
			attached[childID] = true
			*queue = append(*queue, frame{jobID: childID, parent: assetNode})
		}
	}

	return attached, nil
}

func assetValue(kind string, id uint) string {
	switch kind {
	case models.KindSubdomain:
		return "subdomain-" + strconv.FormatUint(uint64(id), 10)
	case models.KindPort:
		return "port-" + strconv.FormatUint(uint64(id), 10)
	default:
		return "path-" + strconv.FormatUint(uint64(id), 10)
	}
}
