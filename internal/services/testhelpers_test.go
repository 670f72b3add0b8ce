package services

import (
	"context"
	"fmt"
	"testing"

	"reconflow/internal/dao"
	"reconflow/internal/database"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"reconflow/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "Failed to open in-memory database")

	require.NoError(t, database.Migrate(db), "Failed to migrate schema")
	return db
}

func newTestDAOs(t *testing.T) (dao.JobDAO, dao.ResultDAO, dao.TargetDAO) {
	t.Helper()
	db := newTestDB(t)
	return dao.NewJobDAO(db), dao.NewResultDAO(db), dao.NewTargetDAO(db)
}

func testLogger() *logger.Logger {
	log := logger.NewLogger(logrus.ErrorLevel)
	return log
}

// fakeProber returns scripted statuses per scheme. Hosts absent from the
// map get the unreachable sentinel.
type fakeProber struct {
	httpStatus  map[string]int
	httpsStatus map[string]int
}

func (f *fakeProber) Probe(_ context.Context, scheme, host string) (int, string) {
	statuses := f.httpStatus
	if scheme == "https" {
		statuses = f.httpsStatus
	}
	if status, ok := statuses[host]; ok {
		return status, fmt.Sprintf("%s title", host)
	}
	return 0, "title unavailable"
}

func (f *fakeProber) ProbeURL(ctx context.Context, rawURL string) (int, string) {
	return 0, "title unavailable"
}
