package history_test

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"modforge/core/history"
	"modforge/core/notify"
)

func memoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func TestRecorder_JournalsOneCycle(t *testing.T) {
	rec := history.NewRecorder(memoryDB(t), zap.NewNop())
	require.NoError(t, rec.Migrate())

	bus := notify.NewBus()
	rec.Attach(bus)

	bus.Publish(notify.LoadStarted{Cycle: "cycle-1"})
	bus.Publish(notify.ValidationError{Source: "broken", Message: "missing mod.json"})
	bus.Publish(notify.ContentLoadError{Source: "mod", Path: "items/bad.json", Message: "parse error"})
	bus.Publish(notify.LoadFinished{Cycle: "cycle-1", Items: 4, Errors: 2})

	cycles, err := rec.RecentCycles(10)
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, "cycle-1", cycles[0].ID)
	assert.Equal(t, 4, cycles[0].Items)
	assert.Equal(t, 2, cycles[0].Errors)
	assert.False(t, cycles[0].FinishedAt.Before(cycles[0].StartedAt))

	errs, err := rec.ErrorsFor("cycle-1")
	require.NoError(t, err)
	require.Len(t, errs, 2)
	assert.Equal(t, "broken", errs[0].Source)
	assert.Equal(t, "items/bad.json", errs[1].Path)
}

func TestRecorder_RecentCyclesNewestFirst(t *testing.T) {
	rec := history.NewRecorder(memoryDB(t), zap.NewNop())
	require.NoError(t, rec.Migrate())

	bus := notify.NewBus()
	rec.Attach(bus)

	bus.Publish(notify.LoadStarted{Cycle: "older"})
	bus.Publish(notify.LoadFinished{Cycle: "older", Items: 1})
	time.Sleep(10 * time.Millisecond)
	bus.Publish(notify.LoadStarted{Cycle: "newer"})
	bus.Publish(notify.LoadFinished{Cycle: "newer", Items: 2})

	cycles, err := rec.RecentCycles(1)
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, "newer", cycles[0].ID)
}

func TestRecorder_IgnoresMismatchedFinish(t *testing.T) {
	rec := history.NewRecorder(memoryDB(t), zap.NewNop())
	require.NoError(t, rec.Migrate())

	bus := notify.NewBus()
	rec.Attach(bus)

	bus.Publish(notify.LoadStarted{Cycle: "cycle-1"})
	bus.Publish(notify.LoadFinished{Cycle: "cycle-2", Items: 1})

	cycles, err := rec.RecentCycles(10)
	require.NoError(t, err)
	assert.Empty(t, cycles)
}

func TestRecorder_DropsErrorsOutsideCycle(t *testing.T) {
	rec := history.NewRecorder(memoryDB(t), zap.NewNop())
	require.NoError(t, rec.Migrate())

	bus := notify.NewBus()
	rec.Attach(bus)

	// Before any cycle starts, errors have no home.
	bus.Publish(notify.ContentLoadError{Source: "mod", Message: "stray"})

	bus.Publish(notify.LoadStarted{Cycle: "cycle-1"})
	bus.Publish(notify.LoadFinished{Cycle: "cycle-1", Items: 0})

	errs, err := rec.ErrorsFor("cycle-1")
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestRecorder_FlushCostsOneInsert(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `cycles`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	rec := history.NewRecorder(db, zap.NewNop())
	bus := notify.NewBus()
	rec.Attach(bus)

	bus.Publish(notify.LoadStarted{Cycle: "cycle-1"})
	bus.Publish(notify.LoadFinished{Cycle: "cycle-1", Items: 3})

	assert.NoError(t, mock.ExpectationsWereMet())
}
