package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/clearcart/ordersearch/internal/domain"
	"github.com/clearcart/ordersearch/internal/domain/document"
	"github.com/clearcart/ordersearch/internal/domain/indexing"
	"github.com/clearcart/ordersearch/internal/domain/order"
	"github.com/clearcart/ordersearch/internal/index"
	"github.com/clearcart/ordersearch/internal/metrics"
)

// Job names for logging and metrics.
const (
	JobIncremental = "incremental"
	JobFull        = "full"
	JobOptimize    = "optimize"
)

// Intervals holds the scheduled job cadence.
type Intervals struct {
	Incremental time.Duration
	Full        time.Duration
	Optimize    time.Duration
	JobTimeout  time.Duration
}

// Service owns all writes to the search index. It runs incremental, full
// and optimize jobs on independent tickers, serves event-driven single-
// document reindexing, and maintains the index statistics. A tick that
// fires while the same job type is still running is skipped, never run
// concurrently; different job types may interleave because every index
// mutation is atomic at single-document or whole-index granularity.
type Service struct {
	source    Source
	idx       *index.Index
	logger    *zap.Logger
	intervals Intervals

	incRunning  atomic.Bool
	fullRunning atomic.Bool
	optRunning  atomic.Bool

	mu             sync.Mutex
	lastUpdate     time.Time
	lastChangedRun time.Time
	totalDocuments int
	indexErrors    int
	indexedCount   int
	totalIndexTime time.Duration

	stop chan struct{}
	wg   sync.WaitGroup
}

// New creates an indexing scheduler.
func New(source Source, idx *index.Index, intervals Intervals, logger *zap.Logger) *Service {
	return &Service{
		source:    source,
		idx:       idx,
		logger:    logger,
		intervals: intervals,
		stop:      make(chan struct{}),
	}
}

// Start launches the scheduled jobs. Stop shuts them down.
func (s *Service) Start() {
	s.startJob(JobIncremental, s.intervals.Incremental, s.RunIncremental)
	s.startJob(JobFull, s.intervals.Full, s.RunFull)
	s.startJob(JobOptimize, s.intervals.Optimize, s.RunOptimize)
}

// Stop halts the scheduled jobs and waits for in-flight ticks to finish.
func (s *Service) Stop() {
	close(s.stop)
	s.wg.Wait()
}

func (s *Service) startJob(name string, every time.Duration, run func(context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), s.intervals.JobTimeout)
				if err := run(ctx); err != nil {
					if errors.Is(err, domain.ErrJobRunning) {
						s.logger.Debug("indexing tick skipped", zap.String("job", name))
					} else {
						// Job failures self-heal at the next tick; no backoff.
						s.logger.Warn("indexing job failed", zap.String("job", name), zap.Error(err))
					}
				}
				cancel()
			}
		}
	}()
}

// RunIncremental upserts source records changed since the last successful
// incremental run. Per-record failures are recorded without aborting the
// batch.
func (s *Service) RunIncremental(ctx context.Context) error {
	if !s.incRunning.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %s", domain.ErrJobRunning, JobIncremental)
	}
	defer s.incRunning.Store(false)

	s.mu.Lock()
	since := s.lastChangedRun
	s.mu.Unlock()

	fetchStart := time.Now()
	orders, err := s.source.FetchChangedSince(ctx, since)
	if err != nil {
		return fmt.Errorf("fetch changed orders: %w", err)
	}

	outcomes := s.upsertBatch(orders, JobIncremental)
	s.finishRun(ctx, JobIncremental, fetchStart, outcomes)

	s.mu.Lock()
	s.lastChangedRun = fetchStart
	s.mu.Unlock()
	return nil
}

// RunFull upserts every source record. Orphaned index entries are left in
// place; only the optimize job removes them.
func (s *Service) RunFull(ctx context.Context) error {
	if !s.fullRunning.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %s", domain.ErrJobRunning, JobFull)
	}
	defer s.fullRunning.Store(false)

	start := time.Now()
	orders, err := s.source.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch all orders: %w", err)
	}

	outcomes := s.upsertBatch(orders, JobFull)
	s.finishRun(ctx, JobFull, start, outcomes)
	return nil
}

// RunOptimize removes index entries whose source record no longer exists.
func (s *Service) RunOptimize(ctx context.Context) error {
	if !s.optRunning.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %s", domain.ErrJobRunning, JobOptimize)
	}
	defer s.optRunning.Store(false)

	start := time.Now()
	removed := 0
	for _, id := range s.idx.IDs() {
		_, err := s.source.FetchOne(ctx, id)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrOrderNotFound):
			s.idx.Delete(id)
			removed++
		default:
			// Transient fetch failure: keep the entry, the next run decides.
			s.logger.Warn("optimize: fetch failed", zap.String("order_id", id), zap.Error(err))
		}
	}

	metrics.IndexJobDuration.WithLabelValues(JobOptimize).Observe(time.Since(start).Seconds())
	s.logger.Info("optimize finished",
		zap.Int("removed", removed),
		zap.Int("remaining", s.idx.Len()),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// ReindexOne upserts a single order immediately, independent of the
// scheduled cadence. When the source record is gone the index entry is
// deliberately left in place; the optimize job owns orphan removal.
func (s *Service) ReindexOne(ctx context.Context, id string) error {
	o, err := s.source.FetchOne(ctx, id)
	if err != nil {
		return fmt.Errorf("reindex %s: %w", id, err)
	}

	start := time.Now()
	doc, err := mapOrder(o)
	if err != nil {
		s.recordError()
		return fmt.Errorf("reindex %s: %w", id, err)
	}
	s.idx.Upsert(doc)
	s.recordIndexed(1, time.Since(start))
	metrics.IndexedDocumentsTotal.WithLabelValues(JobIncremental).Inc()
	return nil
}

// ForceReindex clears the index and its statistics, then rebuilds from the
// full source snapshot in one atomic swap so readers never observe a
// half-built index.
func (s *Service) ForceReindex(ctx context.Context) error {
	if !s.fullRunning.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %s", domain.ErrJobRunning, JobFull)
	}
	defer s.fullRunning.Store(false)

	s.mu.Lock()
	s.indexErrors = 0
	s.indexedCount = 0
	s.totalIndexTime = 0
	s.lastUpdate = time.Time{}
	s.lastChangedRun = time.Time{}
	s.mu.Unlock()
	s.idx.Clear()

	start := time.Now()
	orders, err := s.source.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch all orders: %w", err)
	}

	docs := make([]document.Document, 0, len(orders))
	failures := 0
	for _, o := range orders {
		itemStart := time.Now()
		doc, mapErr := mapOrder(o)
		if mapErr != nil {
			failures++
			s.recordError()
			s.logger.Warn("force reindex: record failed", zap.String("order_id", o.ID), zap.Error(mapErr))
			continue
		}
		docs = append(docs, doc)
		s.recordIndexed(1, time.Since(itemStart))
	}
	s.idx.SnapshotReplace(docs)
	s.refreshTotal(ctx)

	metrics.IndexJobDuration.WithLabelValues(JobFull).Observe(time.Since(start).Seconds())
	metrics.IndexedDocumentsTotal.WithLabelValues(JobFull).Add(float64(len(docs)))
	s.logger.Info("force reindex finished",
		zap.Int("indexed", len(docs)),
		zap.Int("failed", failures),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// Stats returns a snapshot of the index statistics.
func (s *Service) Stats() indexing.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	avg := 0.0
	if s.indexedCount > 0 {
		avg = float64(s.totalIndexTime.Microseconds()) / float64(s.indexedCount) / 1000.0
	}
	return indexing.Stats{
		TotalDocuments:     s.totalDocuments,
		IndexedDocuments:   s.idx.Len(),
		LastUpdateTime:     s.lastUpdate,
		AverageIndexTimeMs: avg,
		IndexErrors:        s.indexErrors,
	}
}

// upsertBatch maps and upserts one fetched batch, isolating per-item
// failures into outcomes.
func (s *Service) upsertBatch(orders []order.Order, job string) []indexing.Outcome {
	outcomes := make([]indexing.Outcome, 0, len(orders))
	for _, o := range orders {
		start := time.Now()
		doc, err := mapOrder(o)
		if err != nil {
			outcomes = append(outcomes, indexing.NewError(o.ID, err))
			s.recordError()
			s.logger.Warn("indexing record failed",
				zap.String("job", job),
				zap.String("order_id", o.ID),
				zap.Error(err),
			)
			continue
		}
		s.idx.Upsert(doc)
		s.recordIndexed(1, time.Since(start))
		metrics.IndexedDocumentsTotal.WithLabelValues(job).Inc()
		outcomes = append(outcomes, indexing.NewOK(o.ID))
	}
	return outcomes
}

func (s *Service) finishRun(ctx context.Context, job string, start time.Time, outcomes []indexing.Outcome) {
	ok := 0
	for _, o := range outcomes {
		if o.Status() == indexing.StatusOK {
			ok++
		}
	}

	s.mu.Lock()
	s.lastUpdate = time.Now()
	s.mu.Unlock()
	s.refreshTotal(ctx)

	metrics.IndexJobDuration.WithLabelValues(job).Observe(time.Since(start).Seconds())
	s.logger.Info("indexing job finished",
		zap.String("job", job),
		zap.Int("indexed", ok),
		zap.Int("failed", len(outcomes)-ok),
		zap.Duration("took", time.Since(start)),
	)
}

func (s *Service) refreshTotal(ctx context.Context) {
	total, err := s.source.CountAll(ctx)
	if err != nil {
		s.logger.Warn("count orders failed", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.totalDocuments = total
	s.mu.Unlock()
}

func (s *Service) recordIndexed(n int, took time.Duration) {
	s.mu.Lock()
	s.indexedCount += n
	s.totalIndexTime += took
	s.lastUpdate = time.Now()
	s.mu.Unlock()
}

func (s *Service) recordError() {
	s.mu.Lock()
	s.indexErrors++
	s.mu.Unlock()
	metrics.IndexErrorsTotal.Inc()
}

// mapOrder flattens a source order, rejecting records that cannot be keyed.
func mapOrder(o order.Order) (document.Document, error) {
	if o.ID == "" {
		return document.Document{}, fmt.Errorf("%w: order has no id", domain.ErrValidation)
	}
	return document.FromOrder(o), nil
}
