package dao

import (
	"testing"

	"reconflow/internal/models"
	recon "reconflow/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultTaskID = "99999999-9999-9999-9999-999999999999"

func TestSaveAndListSubdomains(t *testing.T) {
	db := newTestDB(t)
	dao := NewResultDAO(db)

	rows := []models.Subdomain{
		{TaskID: resultTaskID, Subdomain: "www.example.com", Domain: "example.com", IPAddress: "10.0.0.1", HTTPStatus: 200},
		{TaskID: resultTaskID, Subdomain: "api.example.com", Domain: "example.com", IPAddress: "10.0.0.2", HTTPStatus: 0},
	}
	require.NoError(t, dao.SaveSubdomains(rows))
	require.NoError(t, dao.SaveSubdomains(nil), "Saving an empty batch is a no-op")

	got, err := dao.ListSubdomains(resultTaskID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "www.example.com", got[0].Subdomain, "Rows come back in insertion order")
	assert.Equal(t, "api.example.com", got[1].Subdomain)

	count, err := dao.CountResults(resultTaskID, models.KindSubdomain)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestCountResultsInvalidKind(t *testing.T) {
	db := newTestDB(t)
	dao := NewResultDAO(db)

	_, err := dao.CountResults(resultTaskID, "BANNER")
	assert.ErrorIs(t, err, recon.ErrInvalidKind)
}

func TestDeleteResultByID(t *testing.T) {
	db := newTestDB(t)
	dao := NewResultDAO(db)

	require.NoError(t, dao.SavePorts([]models.Port{
		{TaskID: resultTaskID, IPAddress: "10.0.0.1", PortNumber: 80},
	}))

	require.NoError(t, dao.DeletePort(1))
	assert.ErrorIs(t, dao.DeletePort(1), recon.ErrResultNotFound)

	got, err := dao.ListPorts(resultTaskID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDeleteByStatusCode(t *testing.T) {
	tests := []struct {
		name        string
		field       string
		code        int
		invert      bool
		wantDeleted int64
		wantLeft    []int
	}{
		{name: "Match http 404", field: FieldHTTP, code: 404, wantDeleted: 2, wantLeft: []int{200, 500}},
		{name: "Invert keeps only http 404", field: FieldHTTP, code: 404, invert: true, wantDeleted: 2, wantLeft: []int{404, 404}},
		{name: "Match https 403", field: FieldHTTPS, code: 403, wantDeleted: 1, wantLeft: []int{404, 200, 404}},
		{name: "No match deletes nothing", field: FieldHTTP, code: 301, wantDeleted: 0, wantLeft: []int{404, 200, 404, 500}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			dao := NewResultDAO(db)

			require.NoError(t, dao.SaveSubdomains([]models.Subdomain{
				{TaskID: resultTaskID, Subdomain: "a.example.com", HTTPStatus: 404, HTTPSStatus: 403},
				{TaskID: resultTaskID, Subdomain: "b.example.com", HTTPStatus: 200, HTTPSStatus: 200},
				{TaskID: resultTaskID, Subdomain: "c.example.com", HTTPStatus: 404, HTTPSStatus: 404},
				{TaskID: resultTaskID, Subdomain: "d.example.com", HTTPStatus: 500, HTTPSStatus: 500},
			}))

			deleted, err := dao.DeleteByStatusCode(resultTaskID, models.KindSubdomain, tt.field, tt.code, tt.invert)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDeleted, deleted)

			left, err := dao.ListSubdomains(resultTaskID)
			require.NoError(t, err)
			codes := make([]int, 0, len(left))
			for _, row := range left {
				codes = append(codes, row.HTTPStatus)
			}
			assert.ElementsMatch(t, tt.wantLeft, codes)
		})
	}
}

func TestDeleteByStatusCodePathUsesResponseStatus(t *testing.T) {
	db := newTestDB(t)
	dao := NewResultDAO(db)

	require.NoError(t, dao.SavePaths([]models.PathResult{
		{TaskID: resultTaskID, URL: "http://10.0.0.1/admin", Status: 403},
		{TaskID: resultTaskID, URL: "http://10.0.0.1/login", Status: 200},
	}))

	// The field selector is meaningless for paths and must be ignored.
	deleted, err := dao.DeleteByStatusCode(resultTaskID, models.KindPath, FieldHTTPS, 403, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	left, err := dao.ListPaths(resultTaskID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "http://10.0.0.1/login", left[0].URL)
}

func TestDeleteDuplicatesKeepsLowestID(t *testing.T) {
	db := newTestDB(t)
	dao := NewResultDAO(db)

	require.NoError(t, dao.SaveSubdomains([]models.Subdomain{
		{TaskID: resultTaskID, Subdomain: "www.example.com", Source: "crtsh"},
		{TaskID: resultTaskID, Subdomain: "www.example.com", Source: "dns"},
		{TaskID: resultTaskID, Subdomain: "api.example.com", Source: "crtsh"},
		{TaskID: resultTaskID, Subdomain: "www.example.com", Source: "wayback"},
	}))

	deleted, err := dao.DeleteDuplicates(resultTaskID, models.KindSubdomain)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	left, err := dao.ListSubdomains(resultTaskID)
	require.NoError(t, err)
	require.Len(t, left, 2)
	assert.Equal(t, uint(1), left[0].ID, "Survivor is the lowest id per name")
	assert.Equal(t, "www.example.com", left[0].Subdomain)
	assert.Equal(t, "crtsh", left[0].Source)
	assert.Equal(t, "api.example.com", left[1].Subdomain)
}

func TestDeleteDuplicatesScopedToJob(t *testing.T) {
	db := newTestDB(t)
	dao := NewResultDAO(db)

	otherTask := "aaaabbbb-cccc-dddd-eeee-ffff00001111"
	require.NoError(t, dao.SavePorts([]models.Port{
		{TaskID: resultTaskID, IPAddress: "10.0.0.1", PortNumber: 80},
		{TaskID: resultTaskID, IPAddress: "10.0.0.1", PortNumber: 80},
		{TaskID: otherTask, IPAddress: "10.0.0.1", PortNumber: 80},
	}))

	deleted, err := dao.DeleteDuplicates(resultTaskID, models.KindPort)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	otherRows, err := dao.ListPorts(otherTask)
	require.NoError(t, err)
	assert.Len(t, otherRows, 1, "Other jobs' rows are untouched")
}

func TestSaveAndListEdges(t *testing.T) {
	db := newTestDB(t)
	dao := NewResultDAO(db)

	childA := "bbbbbbbb-0000-0000-0000-000000000001"
	childB := "bbbbbbbb-0000-0000-0000-000000000002"
	require.NoError(t, dao.SaveEdges([]models.AssetEdge{
		{ParentKind: models.KindSubdomain, ParentAssetID: 7, ParentKey: "10.0.0.1", ChildJobID: childA},
		{ParentKind: models.KindSubdomain, ParentAssetID: 7, ParentKey: "10.0.0.1", ChildJobID: childB},
		{ParentKind: models.KindPort, ParentAssetID: 7, ParentKey: "10.0.0.1:80", ChildJobID: childA},
	}))

	edges, err := dao.ListEdgesByParent(models.KindSubdomain, 7)
	require.NoError(t, err)
	require.Len(t, edges, 2, "Parent lookup is keyed by kind and asset id together")
	assert.Equal(t, childA, edges[0].ChildJobID)
	assert.Equal(t, childB, edges[1].ChildJobID)
}
