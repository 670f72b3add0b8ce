package services

import (
	"testing"

	"reconflow/internal/models"
	recon "reconflow/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findChild(t *testing.T, node *TreeNode, name string) *TreeNode {
	t.Helper()
	for _, child := range node.Children {
		if child.Name == name {
			return child
		}
	}
	t.Fatalf("node %q has no child %q", node.Name, name)
	return nil
}

func TestBuildTreeInterleavesJobsAndAssets(t *testing.T) {
	jobDao, resultDao, targetDao := newTestDAOs(t)
	tree := NewTreeService(jobDao, resultDao, targetDao)

	target := &models.Target{TaskID: "target-1", Domain: "example.com"}
	require.NoError(t, targetDao.CreateTarget(target))

	subJob := &models.ScanJob{TaskID: "subjob-1", Target: "example.com", Kind: models.KindSubdomain, Status: models.StatusCompleted}
	portJob := &models.ScanJob{TaskID: "portjob-1", Target: "10.0.0.1", Kind: models.KindPort, Status: models.StatusCompleted, FromJobID: "subjob-1"}
	pathJob := &models.ScanJob{TaskID: "pathjob-1", Target: "http://10.0.0.1:80/", Kind: models.KindPath, Status: models.StatusCompleted, FromJobID: "portjob-1"}
	require.NoError(t, jobDao.CreateJob(subJob))
	require.NoError(t, jobDao.CreateJob(portJob))
	require.NoError(t, jobDao.CreateJob(pathJob))

	require.NoError(t, resultDao.SaveSubdomains([]models.Subdomain{
		{TaskID: "subjob-1", Subdomain: "www.example.com", IPAddress: "10.0.0.1", FromAsset: "example.com"},
	}))
	require.NoError(t, resultDao.SavePorts([]models.Port{
		{TaskID: "portjob-1", IPAddress: "10.0.0.1", PortNumber: 80, Protocol: "tcp", HTTPStatus: 200, FromAsset: "10.0.0.1"},
	}))
	require.NoError(t, resultDao.SavePaths([]models.PathResult{
		{TaskID: "pathjob-1", URL: "http://10.0.0.1:80/admin", Path: "admin", Status: 403, FromAsset: "10.0.0.1:80"},
	}))

	// Edges recorded at chaining time.
	require.NoError(t, resultDao.SaveEdges([]models.AssetEdge{
		{ParentKind: models.KindSubdomain, ParentAssetID: 1, ParentKey: "10.0.0.1", ChildJobID: "portjob-1"},
		{ParentKind: models.KindPort, ParentAssetID: 1, ParentKey: "10.0.0.1:80", ChildJobID: "pathjob-1"},
	}))

	root, err := tree.BuildTree(target.TaskID)
	require.NoError(t, err)
	assert.Equal(t, "example.com", root.Name)
	assert.Equal(t, target.TaskID, root.Value)

	// domain -> subdomain job -> asset row -> port job -> asset row -> path job -> asset row
	subNode := findChild(t, root, "example.com")
	assert.Equal(t, "subjob-1", subNode.Value)

	assetNode := findChild(t, subNode, "subdomain:www.example.com/ip:10.0.0.1")
	assert.Equal(t, "subdomain-1", assetNode.Value)

	portNode := findChild(t, assetNode, "10.0.0.1")
	assert.Equal(t, "portjob-1", portNode.Value)

	portAsset := findChild(t, portNode, "10.0.0.1:80/tcp")
	pathNode := findChild(t, portAsset, "http://10.0.0.1:80/")
	assert.Equal(t, "pathjob-1", pathNode.Value)

	pathAsset := findChild(t, pathNode, "path:admin")
	assert.Empty(t, pathAsset.Children)
}

func TestBuildTreeFallsBackToTargetMatch(t *testing.T) {
	jobDao, resultDao, targetDao := newTestDAOs(t)
	tree := NewTreeService(jobDao, resultDao, targetDao)

	target := &models.Target{TaskID: "target-2", Domain: "example.com"}
	require.NoError(t, targetDao.CreateTarget(target))

	// A legacy chain without edge rows: the port job's target equals the
	// asset's canonical key.
	subJob := &models.ScanJob{TaskID: "subjob-2", Target: "example.com", Kind: models.KindSubdomain, Status: models.StatusCompleted}
	portJob := &models.ScanJob{TaskID: "portjob-2", Target: "10.0.0.5", Kind: models.KindPort, Status: models.StatusCompleted, FromJobID: "subjob-2"}
	require.NoError(t, jobDao.CreateJob(subJob))
	require.NoError(t, jobDao.CreateJob(portJob))

	require.NoError(t, resultDao.SaveSubdomains([]models.Subdomain{
		{TaskID: "subjob-2", Subdomain: "www.example.com", IPAddress: "10.0.0.5", FromAsset: "example.com"},
	}))

	root, err := tree.BuildTree(target.TaskID)
	require.NoError(t, err)

	subNode := findChild(t, root, "example.com")
	assetNode := findChild(t, subNode, "subdomain:www.example.com/ip:10.0.0.5")
	portNode := findChild(t, assetNode, "10.0.0.5")
	assert.Equal(t, "portjob-2", portNode.Value, "Jobs targeting the asset key hang under it even without an edge")
}

func TestBuildTreeGuardsAgainstCycles(t *testing.T) {
	jobDao, resultDao, targetDao := newTestDAOs(t)
	tree := NewTreeService(jobDao, resultDao, targetDao)

	target := &models.Target{TaskID: "target-3", Domain: "example.com"}
	require.NoError(t, targetDao.CreateTarget(target))

	// Malformed data: two jobs pointing at each other.
	jobA := &models.ScanJob{TaskID: "cycle-a", Target: "example.com", Kind: models.KindSubdomain, Status: models.StatusCompleted, FromJobID: "cycle-b"}
	jobB := &models.ScanJob{TaskID: "cycle-b", Target: "example.com", Kind: models.KindSubdomain, Status: models.StatusCompleted, FromJobID: "cycle-a"}
	require.NoError(t, jobDao.CreateJob(jobA))
	require.NoError(t, jobDao.CreateJob(jobB))

	root, err := tree.BuildTree(target.TaskID)
	require.NoError(t, err, "Traversal must terminate on cyclic references")
	require.NotEmpty(t, root.Children)

	// Each job appears at most once as an expanded node; the repeat sighting
	// is a bare leaf.
	var countLeaves func(node *TreeNode, value string) int
	countLeaves = func(node *TreeNode, value string) int {
		total := 0
		if node.Value == value {
			total++
		}
		for _, child := range node.Children {
			total += countLeaves(child, value)
		}
		return total
	}
	assert.LessOrEqual(t, countLeaves(root, "cycle-a"), 2)
	assert.LessOrEqual(t, countLeaves(root, "cycle-b"), 2)
}

func TestBuildTreeMissingTarget(t *testing.T) {
	jobDao, resultDao, targetDao := newTestDAOs(t)
	tree := NewTreeService(jobDao, resultDao, targetDao)

	_, err := tree.BuildTree("missing")
	assert.ErrorIs(t, err, recon.ErrTargetNotFound)
}
