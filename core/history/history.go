// Package history journals load cycles to the database.
//
// A Recorder subscribes to the notification bus and turns the cycle
// lifecycle into rows: one CycleRecord per full load, plus one
// CycleErrorRecord per isolated failure reported during it. The journal is
// optional; without a database connection the pipeline runs unrecorded.
package history

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"modforge/core/notify"
)

// CycleRecord is one completed load cycle.
type CycleRecord struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Items      int       `json:"items"`
	Errors     int       `json:"errors"`
}

// TableName maps the record to the cycles table.
func (CycleRecord) TableName() string { return "cycles" }

// CycleErrorRecord is one isolated failure reported during a cycle.
type CycleErrorRecord struct {
	ID      uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	CycleID string `gorm:"index;size:36" json:"cycle_id"`
	Source  string `json:"source"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

// TableName maps the record to the cycle_errors table.
func (CycleErrorRecord) TableName() string { return "cycle_errors" }

// Recorder accumulates the in-flight cycle and flushes it on completion.
type Recorder struct {
	db     *gorm.DB
	logger *zap.Logger

	mu      sync.Mutex
	current *CycleRecord
	errs    []CycleErrorRecord
}

// NewRecorder creates a recorder writing through db.
func NewRecorder(db *gorm.DB, logger *zap.Logger) *Recorder {
	return &Recorder{db: db, logger: logger}
}

// Migrate creates the journal tables.
func (r *Recorder) Migrate() error {
	if err := r.db.AutoMigrate(&CycleRecord{}, &CycleErrorRecord{}); err != nil {
		return fmt.Errorf("migrate cycle journal: %w", err)
	}
	return nil
}

// Attach subscribes the recorder to the bus. Events arrive on the pipeline
// goroutine; flushing happens on LoadFinished so a cycle costs one write.
func (r *Recorder) Attach(bus *notify.Bus) {
	bus.Subscribe(r.handle)
}

func (r *Recorder) handle(e notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev := e.(type) {
	case notify.LoadStarted:
		r.current = &CycleRecord{ID: ev.Cycle, StartedAt: time.Now()}
		r.errs = nil
	case notify.ValidationError:
		r.appendError(CycleErrorRecord{Source: ev.Source, Message: ev.Message})
	case notify.ContentLoadError:
		r.appendError(CycleErrorRecord{Source: ev.Source, Path: ev.Path, Message: ev.Message})
	case notify.LoadFinished:
		if r.current == nil || r.current.ID != ev.Cycle {
			return
		}
		r.current.FinishedAt = time.Now()
		r.current.Items = ev.Items
		r.current.Errors = ev.Errors
		r.flush()
		r.current = nil
		r.errs = nil
	}
}

func (r *Recorder) appendError(rec CycleErrorRecord) {
	if r.current == nil {
		return
	}
	rec.CycleID = r.current.ID
	r.errs = append(r.errs, rec)
}

func (r *Recorder) flush() {
	if err := r.db.Create(r.current).Error; err != nil {
		r.logger.Warn("cycle journal write failed", zap.Error(err))
		return
	}
	if len(r.errs) > 0 {
		if err := r.db.Create(&r.errs).Error; err != nil {
			r.logger.Warn("cycle error journal write failed", zap.Error(err))
		}
	}
}

// RecentCycles returns the latest cycles, newest first.
func (r *Recorder) RecentCycles(limit int) ([]CycleRecord, error) {
	var cycles []CycleRecord
	err := r.db.Order("started_at DESC").Limit(limit).Find(&cycles).Error
	return cycles, err
}

// ErrorsFor returns the isolated failures recorded for one cycle.
func (r *Recorder) ErrorsFor(cycleID string) ([]CycleErrorRecord, error) {
	var errs []CycleErrorRecord
	err := r.db.Where("cycle_id = ?", cycleID).Find(&errs).Error
	return errs, err
}
