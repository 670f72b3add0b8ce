package services

import (
	"testing"

	"reconflow/internal/models"
	recon "reconflow/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTargetAssignsID(t *testing.T) {
	jobDao, resultDao, targetDao := newTestDAOs(t)
	svc := NewQueryService(jobDao, resultDao, targetDao)

	target, err := svc.CreateTarget("example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, target.TaskID)
	assert.Equal(t, "example.com", target.Domain)

	_, err = svc.CreateTarget("example.com")
	assert.ErrorIs(t, err, recon.ErrTargetExists)
}

func TestCountByTypeRecursive(t *testing.T) {
	jobDao, resultDao, targetDao := newTestDAOs(t)
	svc := NewQueryService(jobDao, resultDao, targetDao)

	target := &models.Target{TaskID: "target-counts", Domain: "example.com"}
	require.NoError(t, targetDao.CreateTarget(target))

	// target -> subdomain job -> two port jobs -> one path job.
	subJob := &models.ScanJob{TaskID: "count-sub", Target: "example.com", Kind: models.KindSubdomain, Status: models.StatusCompleted, FromJobID: target.TaskID}
	portJobA := &models.ScanJob{TaskID: "count-port-a", Target: "10.0.0.1", Kind: models.KindPort, Status: models.StatusCompleted, FromJobID: "count-sub"}
	portJobB := &models.ScanJob{TaskID: "count-port-b", Target: "10.0.0.2", Kind: models.KindPort, Status: models.StatusCompleted, FromJobID: "count-sub"}
	pathJob := &models.ScanJob{TaskID: "count-path", Target: "http://10.0.0.1:80/", Kind: models.KindPath, Status: models.StatusCompleted, FromJobID: "count-port-a"}
	for _, job := range []*models.ScanJob{subJob, portJobA, portJobB, pathJob} {
		require.NoError(t, jobDao.CreateJob(job))
	}

	require.NoError(t, resultDao.SaveSubdomains([]models.Subdomain{
		{TaskID: "count-sub", Subdomain: "www.example.com", IPAddress: "10.0.0.1"},
		{TaskID: "count-sub", Subdomain: "api.example.com", IPAddress: "10.0.0.2"},
	}))
	require.NoError(t, resultDao.SavePorts([]models.Port{
		{TaskID: "count-port-a", IPAddress: "10.0.0.1", PortNumber: 80},
		{TaskID: "count-port-a", IPAddress: "10.0.0.1", PortNumber: 443},
		{TaskID: "count-port-b", IPAddress: "10.0.0.2", PortNumber: 22},
	}))
	require.NoError(t, resultDao.SavePaths([]models.PathResult{
		{TaskID: "count-path", URL: "http://10.0.0.1:80/admin"},
	}))

	// An unrelated root that must not leak into the counts.
	other := &models.ScanJob{TaskID: "count-other", Target: "other.com", Kind: models.KindSubdomain, Status: models.StatusCompleted}
	require.NoError(t, jobDao.CreateJob(other))
	require.NoError(t, resultDao.SaveSubdomains([]models.Subdomain{
		{TaskID: "count-other", Subdomain: "www.other.com"},
	}))

	subCount, err := svc.CountByTypeRecursive(target.TaskID, models.KindSubdomain)
	require.NoError(t, err)
	assert.Equal(t, int64(2), subCount)

	portCount, err := svc.CountByTypeRecursive(target.TaskID, models.KindPort)
	require.NoError(t, err)
	assert.Equal(t, int64(3), portCount, "Counts aggregate across sibling jobs")

	pathCount, err := svc.CountByTypeRecursive(target.TaskID, models.KindPath)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pathCount, "Counts follow the chain transitively")
}

func TestCountByTypeRecursiveTerminatesOnCycles(t *testing.T) {
	jobDao, resultDao, targetDao := newTestDAOs(t)
	svc := NewQueryService(jobDao, resultDao, targetDao)

	jobA := &models.ScanJob{TaskID: "loop-a", Target: "example.com", Kind: models.KindSubdomain, FromJobID: "loop-b"}
	jobB := &models.ScanJob{TaskID: "loop-b", Target: "example.com", Kind: models.KindSubdomain, FromJobID: "loop-a"}
	require.NoError(t, jobDao.CreateJob(jobA))
	require.NoError(t, jobDao.CreateJob(jobB))

	count, err := svc.CountByTypeRecursive("loop-a", models.KindSubdomain)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListTargetAssets(t *testing.T) {
	jobDao, resultDao, targetDao := newTestDAOs(t)
	svc := NewQueryService(jobDao, resultDao, targetDao)

	target, err := svc.CreateTarget("example.com")
	require.NoError(t, err)

	subJob := &models.ScanJob{TaskID: "assets-sub", Target: "example.com", Kind: models.KindSubdomain, Status: models.StatusCompleted, FromJobID: target.TaskID}
	require.NoError(t, jobDao.CreateJob(subJob))
	require.NoError(t, resultDao.SaveSubdomains([]models.Subdomain{
		{TaskID: "assets-sub", Subdomain: "www.example.com"},
	}))

	assets, err := svc.ListTargetAssets()
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "example.com", assets[0].Domain)
	assert.Equal(t, int64(1), assets[0].Subdomains)
	assert.Zero(t, assets[0].Ports)
	assert.Zero(t, assets[0].Paths)
}

func TestPruneLooksUpJobKind(t *testing.T) {
	jobDao, resultDao, targetDao := newTestDAOs(t)
	svc := NewQueryService(jobDao, resultDao, targetDao)

	job := &models.ScanJob{TaskID: "prune-job", Target: "example.com", Kind: models.KindSubdomain, Status: models.StatusCompleted}
	require.NoError(t, jobDao.CreateJob(job))
	require.NoError(t, resultDao.SaveSubdomains([]models.Subdomain{
		{TaskID: "prune-job", Subdomain: "a.example.com", HTTPStatus: 404},
		{TaskID: "prune-job", Subdomain: "b.example.com", HTTPStatus: 200},
		{TaskID: "prune-job", Subdomain: "a.example.com", HTTPStatus: 200},
	}))

	// Duplicate pruning keeps the first "a" row.
	deleted, err := svc.PruneDuplicates("prune-job")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// Status pruning then removes the surviving 404 row.
	deleted, err = svc.PruneByStatusCode("prune-job", "http", 404, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = svc.PruneByStatusCode("missing", "http", 404, false)
	assert.ErrorIs(t, err, recon.ErrJobNotFound)

	_, err = svc.PruneDuplicates("missing")
	assert.ErrorIs(t, err, recon.ErrJobNotFound)
}

func TestDeleteTargetLeavesJobs(t *testing.T) {
	jobDao, resultDao, targetDao := newTestDAOs(t)
	svc := NewQueryService(jobDao, resultDao, targetDao)

	target, err := svc.CreateTarget("example.com")
	require.NoError(t, err)

	job := &models.ScanJob{TaskID: "orphan-job", Target: "example.com", Kind: models.KindSubdomain, FromJobID: target.TaskID}
	require.NoError(t, jobDao.CreateJob(job))

	require.NoError(t, svc.DeleteTarget(target.TaskID))
	assert.ErrorIs(t, svc.DeleteTarget(target.TaskID), recon.ErrTargetNotFound)

	// Historical jobs survive the target's deletion.
	_, err = jobDao.GetJob("orphan-job")
	assert.NoError(t, err)
}
