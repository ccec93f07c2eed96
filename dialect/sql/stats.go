package sql

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/syssam/querycraft/dialect"
)

// DefaultSlowThreshold is the slow statement threshold of a StatsDriver
// created without WithSlowThreshold.
const DefaultSlowThreshold = 100 * time.Millisecond

// QueryStats counts statements executed through a StatsDriver.
type QueryStats struct {
	Queries  atomic.Int64
	Execs    atomic.Int64
	Slow     atomic.Int64
	Errors   atomic.Int64
	Duration atomic.Int64 // nanoseconds
}

// Snapshot returns a copy of the current counters.
func (s *QueryStats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Queries:  s.Queries.Load(),
		Execs:    s.Execs.Load(),
		Slow:     s.Slow.Load(),
		Errors:   s.Errors.Load(),
		Duration: time.Duration(s.Duration.Load()),
	}
}

// StatsSnapshot is a point-in-time copy of QueryStats.
type StatsSnapshot struct {
	Queries  int64
	Execs    int64
	Slow     int64
	Errors   int64
	Duration time.Duration
}

// Avg returns the mean statement duration.
func (s StatsSnapshot) Avg() time.Duration {
	n := s.Queries + s.Execs
	if n == 0 {
		return 0
	}
	return s.Duration / time.Duration(n)
}

func (s StatsSnapshot) String() string {
	return fmt.Sprintf("queries=%d execs=%d slow=%d errors=%d avg=%s",
		s.Queries, s.Execs, s.Slow, s.Errors, s.Avg())
}

// SlowHook is called for every statement slower than the threshold.
type SlowHook func(ctx context.Context, query string, args []any, took time.Duration)

// StatsDriver wraps a Driver and records QueryStats.
type StatsDriver struct {
	*Driver
	stats     QueryStats
	mu        sync.RWMutex
	threshold time.Duration
	hook      SlowHook
	log       *slog.Logger
}

// StatsOption configures a StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the slow statement threshold.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.threshold = d
	}
}

// WithSlowHook sets the slow statement hook.
func WithSlowHook(hook SlowHook) StatsOption {
	return func(s *StatsDriver) {
		s.hook = hook
	}
}

// WithSlowLog logs slow statements at warn level, to slog.Default when l
// is nil. Argument values are not logged.
func WithSlowLog(l *slog.Logger) StatsOption {
	if l == nil {
		l = slog.Default()
	}
	return WithSlowHook(func(ctx context.Context, query string, args []any, took time.Duration) {
		l.WarnContext(ctx, "slow statement", "took", took, "sql", query, "args", len(args))
	})
}

// WithStatementLog logs every statement at debug level.
func WithStatementLog(l *slog.Logger) StatsOption {
	return func(s *StatsDriver) {
		s.log = l
	}
}

// NewStatsDriver wraps drv.
func NewStatsDriver(drv *Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{Driver: drv, threshold: DefaultSlowThreshold}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats returns the counters of the driver.
func (d *StatsDriver) Stats() *QueryStats { return &d.stats }

// SlowThreshold returns the current threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.threshold
}

// SetSlowThreshold updates the threshold.
func (d *StatsDriver) SetSlowThreshold(t time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.threshold = t
}

// Query implements dialect.ExecQuerier.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Query(ctx, query, args, v)
	d.record(ctx, query, args, start, err, true)
	return err
}

// Exec implements dialect.ExecQuerier.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Exec(ctx, query, args, v)
	d.record(ctx, query, args, start, err, false)
	return err
}

func (d *StatsDriver) record(ctx context.Context, query string, args any, start time.Time, err error, isQuery bool) {
	took := time.Since(start)
	if isQuery {
		d.stats.Queries.Add(1)
	} else {
		d.stats.Execs.Add(1)
	}
	d.stats.Duration.Add(int64(took))
	if err != nil {
		d.stats.Errors.Add(1)
	}
	if d.log != nil {
		a, _ := args.([]any)
		d.log.DebugContext(ctx, "statement", "sql", query, "args", len(a), "took", took, "error", err)
	}
	d.mu.RLock()
	threshold, hook := d.threshold, d.hook
	d.mu.RUnlock()
	if took <= threshold {
		return
	}
	d.stats.Slow.Add(1)
	if hook != nil {
		a, _ := args.([]any)
		hook(ctx, query, a, took)
	}
}

// Tx starts a transaction whose statements are recorded too.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &statsTx{Tx: tx, drv: d}, nil
}

type statsTx struct {
	dialect.Tx
	drv *StatsDriver
}

func (tx *statsTx) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Query(ctx, query, args, v)
	tx.drv.record(ctx, query, args, start, err, true)
	return err
}

func (tx *statsTx) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Exec(ctx, query, args, v)
	tx.drv.record(ctx, query, args, start, err, false)
	return err
}

var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Tx     = (*statsTx)(nil)
)
