// internal/domain/audit/service_test.go
package audit

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Log{}))

	log := logrus.New()
	log.SetOutput(io.Discard)

	return NewService(db, log), db
}

func TestRecordPersistsEntry(t *testing.T) {
	svc, db := newTestService(t)

	svc.Record("orders", 42, ActionCreate, nil,
		map[string]interface{}{"order_number": "ORD-20260829-ABCDEF01", "total_amount": 5999},
		"admin@example.com")

	var entry Log
	require.NoError(t, db.First(&entry).Error)

	assert.Equal(t, "orders", entry.Table)
	assert.Equal(t, uint(42), entry.RecordID)
	assert.Equal(t, ActionCreate, entry.Action)
	assert.Equal(t, "admin@example.com", entry.ChangedBy)
	assert.Empty(t, entry.OldData)
	assert.JSONEq(t, `{"order_number":"ORD-20260829-ABCDEF01","total_amount":5999}`, entry.NewData)
	assert.False(t, entry.ChangedAt.IsZero())
}

func TestRecordDefaultsChangedByToSystem(t *testing.T) {
	svc, db := newTestService(t)

	svc.Record("bouquets", 1, ActionUpdate, nil, nil, "")

	var entry Log
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, "system", entry.ChangedBy)
}

func TestRecordStringSnapshotsPassThrough(t *testing.T) {
	svc, db := newTestService(t)

	svc.Record("categories", 3, ActionDelete, "raw old", "raw new", "system")

	var entry Log
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, "raw old", entry.OldData)
	assert.Equal(t, "raw new", entry.NewData)
}

func TestRecordFailureIsSwallowed(t *testing.T) {
	svc, db := newTestService(t)

	require.NoError(t, db.Migrator().DropTable(&Log{}))

	// Must not panic or surface the DB error
	svc.Record("orders", 1, ActionCreate, nil, nil, "")
}

func TestGetLogsFilters(t *testing.T) {
	svc, _ := newTestService(t)

	svc.Record("orders", 1, ActionCreate, nil, nil, "alice@example.com")
	svc.Record("orders", 1, ActionUpdate, nil, nil, "bob@example.com")
	svc.Record("bouquets", 7, ActionDelete, nil, nil, "alice@example.com")

	byTable, err := svc.GetLogs(&ListRequest{TableName: "orders"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), byTable.Pagination.Total)

	byAction, err := svc.GetLogs(&ListRequest{Action: ActionDelete})
	require.NoError(t, err)
	require.Len(t, byAction.Logs, 1)
	assert.Equal(t, "bouquets", byAction.Logs[0].Table)

	byUser, err := svc.GetLogs(&ListRequest{ChangedBy: "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), byUser.Pagination.Total)

	all, err := svc.GetLogs(&ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Pagination.Total)
	assert.Equal(t, 50, all.Pagination.Limit)
}

func TestGetLogsDateRange(t *testing.T) {
	svc, _ := newTestService(t)

	svc.Record("orders", 1, ActionCreate, nil, nil, "")

	today, err := svc.GetLogs(&ListRequest{DateFrom: "2020-01-01"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), today.Pagination.Total)

	past, err := svc.GetLogs(&ListRequest{DateTo: "2020-01-01"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), past.Pagination.Total)
}

func TestGetLogsPagination(t *testing.T) {
	svc, _ := newTestService(t)

	for i := 0; i < 5; i++ {
		svc.Record("orders", uint(i+1), ActionCreate, nil, nil, "")
	}

	page, err := svc.GetLogs(&ListRequest{Page: 2, Limit: 2})
	require.NoError(t, err)

	assert.Len(t, page.Logs, 2)
	assert.Equal(t, int64(5), page.Pagination.Total)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.True(t, page.Pagination.HasNext)
	assert.True(t, page.Pagination.HasPrev)
}
