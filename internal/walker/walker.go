// Package walker runs the database → table → column traversal over a single
// source connection and releases that connection once every branch has
// resolved.
package walker

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/alexanderjulianmartinez/schemawalk/internal/report"
	"github.com/alexanderjulianmartinez/schemawalk/internal/source"
	"github.com/alexanderjulianmartinez/schemawalk/pkg/types"
)

// pendingUnknown marks a branch whose table list has not arrived yet.
const pendingUnknown = -1

type Options struct {
	// Concurrency bounds in-flight database branches and, separately,
	// in-flight table descriptions. Zero or less means unbounded.
	Concurrency int
	// Filter drops databases before fan-out. Nil admits every database.
	Filter func(database string) bool
}

type Walker struct {
	src  source.Source
	sink report.Sink
	log  logrus.FieldLogger
	opts Options
}

// New returns a Walker that owns src: every walk ends by closing it.
func New(src source.Source, sink report.Sink, log logrus.FieldLogger, opts Options) *Walker {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Walker{src: src, sink: sink, log: log, opts: opts}
}

// walk holds the state of one traversal. pending is indexed by branch so
// that duplicate database names stay independent; processed is keyed by
// name because it only controls header printing.
type walk struct {
	w         *Walker
	mu        sync.Mutex
	pending   []int
	processed map[string]bool
	summary   types.WalkSummary

	release    sync.Once
	releaseErr error
}

// Walk lists databases, fans out to their tables and column descriptions
// and writes one report block per described table. Only a failure to list
// databases is returned as an error; branch failures are logged and
// collected in the summary. The source is closed exactly once either way.
func (w *Walker) Walk(ctx context.Context) (*types.WalkSummary, error) {
	st := &walk{w: w, processed: map[string]bool{}}

	dbs, err := w.src.ListDatabases(ctx)
	if err != nil {
		w.log.WithError(err).Error("Error looking up databases")
		st.finish()
		return nil, fmt.Errorf("list databases: %w", err)
	}
	dbs = w.filter(dbs)

	st.pending = make([]int, len(dbs))
	for i := range st.pending {
		st.pending[i] = pendingUnknown
	}
	st.summary.Databases = len(dbs)

	if len(dbs) == 0 {
		st.finish()
		return &st.summary, st.releaseErr
	}

	limit := w.opts.Concurrency
	if limit <= 0 {
		limit = -1
	}
	// Branches only submit to tables and tables never submit, so a branch
	// blocked on a full table pool cannot stall the pool it waits on.
	var branches, tables errgroup.Group
	branches.SetLimit(limit)
	tables.SetLimit(limit)

	for idx, db := range dbs {
		idx, db := idx, db
		branches.Go(func() error {
			st.walkDatabase(ctx, &tables, idx, db)
			return nil
		})
	}
	_ = branches.Wait()
	_ = tables.Wait()

	return &st.summary, st.releaseErr
}

// Databases lists databases that pass the filter and releases the source.
func (w *Walker) Databases(ctx context.Context) ([]string, error) {
	defer func() {
		if err := w.src.Close(); err != nil {
			w.log.WithError(err).Warn("release connection")
		}
	}()

	dbs, err := w.src.ListDatabases(ctx)
	if err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}
	return w.filter(dbs), nil
}

func (w *Walker) filter(dbs []string) []string {
	if w.opts.Filter == nil {
		return dbs
	}
	kept := make([]string, 0, len(dbs))
	for _, db := range dbs {
		if w.opts.Filter(db) {
			kept = append(kept, db)
		} else {
			w.log.WithField("database", db).Debug("skipping filtered database")
		}
	}
	return kept
}

func (st *walk) walkDatabase(ctx context.Context, tables *errgroup.Group, idx int, db string) {
	log := st.w.log.WithField("database", db)

	names, err := st.w.src.ListTables(ctx, db)
	if err != nil {
		log.WithError(err).Error("Error finding tables in database")
		st.resolve(func() {
			st.pending[idx] = 0
			st.summary.Failures = append(st.summary.Failures, types.Failure{Database: db, Err: err.Error()})
		})
		return
	}

	st.resolve(func() {
		st.pending[idx] = len(names)
		st.summary.Tables += len(names)
	})
	for _, table := range names {
		table := table
		tables.Go(func() error {
			st.describe(ctx, idx, db, table)
			return nil
		})
	}
}

func (st *walk) describe(ctx context.Context, idx int, db, table string) {
	cols, err := st.w.src.DescribeTable(ctx, db, table)

	st.resolve(func() {
		st.pending[idx]--
		if err != nil {
			st.w.log.WithField("table", source.QualifiedName(db, table)).WithError(err).Error("Error describing table")
			st.summary.Failures = append(st.summary.Failures, types.Failure{Database: db, Table: table, Err: err.Error()})
			return
		}

		header := !st.processed[db]
		st.processed[db] = true
		block := report.TableBlock(db, table, cols, header)
		if werr := st.w.sink.Write(ctx, block); werr != nil {
			st.w.log.WithField("table", source.QualifiedName(db, table)).WithError(werr).Warn("write report block")
		}
		st.summary.Columns += len(cols)
	})
}

// resolve applies update under the state lock and, if every branch is now
// at zero, releases the source. Several goroutines may observe completion;
// finish runs the release once.
func (st *walk) resolve(update func()) {
	st.mu.Lock()
	update()
	complete := st.allZero()
	st.mu.Unlock()

	if complete {
		st.finish()
	}
}

func (st *walk) allZero() bool {
	for _, n := range st.pending {
		if n != 0 {
			return false
		}
	}
	return true
}

func (st *walk) finish() {
	st.release.Do(func() {
		st.releaseErr = st.w.src.Close()
		if st.releaseErr != nil {
			st.w.log.WithError(st.releaseErr).Warn("release connection")
			return
		}
		st.w.log.Debug("connection released")
	})
}
