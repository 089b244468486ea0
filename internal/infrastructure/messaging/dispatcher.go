package messaging

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/guildhub/guild-xp-hub/internal/domain/member"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY DISPATCHER
// Fans inbound activity events out to a fixed set of workers. Events are
// partitioned by membership, so two messages from the same member in the
// same guild always land on the same worker and run strictly in order.
// The cooldown check depends on that ordering.
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrDispatcherClosed is returned when enqueueing after shutdown.
	ErrDispatcherClosed = errors.New("dispatcher is closed")

	// ErrQueueFull is returned when a shard queue is at capacity.
	ErrQueueFull = errors.New("dispatcher queue is full")
)

// ProcessFunc consumes one activity event. Returned errors are logged and
// counted; they never stop the worker.
type ProcessFunc func(ctx context.Context, ev member.ActivityEvent) error

// DispatcherConfig contains configuration for the ActivityDispatcher.
type DispatcherConfig struct {
	// ShardCount is the number of worker goroutines.
	ShardCount int

	// QueueSize is the buffer depth of each shard queue.
	QueueSize int

	// ProcessTimeout bounds a single event's processing time.
	ProcessTimeout time.Duration

	// Logger for structured logging
	Logger *slog.Logger
}

// DefaultDispatcherConfig returns sensible defaults.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		ShardCount:     8,
		QueueSize:      256,
		ProcessTimeout: 10 * time.Second,
	}
}

// ActivityDispatcher routes activity events to sharded workers.
type ActivityDispatcher struct {
	shards  []chan member.ActivityEvent
	process ProcessFunc
	config  DispatcherConfig
	logger  *slog.Logger
	metrics *DispatcherMetrics

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewActivityDispatcher creates a dispatcher and starts its workers.
func NewActivityDispatcher(config DispatcherConfig, process ProcessFunc) *ActivityDispatcher {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.ShardCount <= 0 {
		config.ShardCount = 8
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 256
	}
	if config.ProcessTimeout <= 0 {
		config.ProcessTimeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &ActivityDispatcher{
		shards:  make([]chan member.ActivityEvent, config.ShardCount),
		process: process,
		config:  config,
		logger:  config.Logger.With("component", "dispatcher"),
		metrics: NewDispatcherMetrics(),
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := range d.shards {
		d.shards[i] = make(chan member.ActivityEvent, config.QueueSize)

		d.wg.Add(1)
		go d.worker(i, d.shards[i])
	}

	return d
}

// Enqueue hands an event to its shard without blocking. A full shard
// rejects the event so the caller can shed load instead of stalling.
func (d *ActivityDispatcher) Enqueue(ev member.ActivityEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	shard := d.shardFor(ev)

	select {
	case d.shards[shard] <- ev:
		d.metrics.RecordEnqueue(shard)
		return nil
	default:
		d.metrics.RecordRejection(shard)
		return ErrQueueFull
	}
}

// shardFor hashes the event's partition key onto a worker index.
func (d *ActivityDispatcher) shardFor(ev member.ActivityEvent) int {
	h := fnv.New32a()
	h.Write([]byte(ev.ShardKey()))
	return int(h.Sum32() % uint32(len(d.shards)))
}

// worker drains one shard queue until the queue is closed.
func (d *ActivityDispatcher) worker(shard int, queue <-chan member.ActivityEvent) {
	defer d.wg.Done()

	for ev := range queue {
		start := time.Now()

		ctx, cancel := context.WithTimeout(d.ctx, d.config.ProcessTimeout)
		err := d.process(ctx, ev)
		cancel()

		d.metrics.RecordProcessed(shard, time.Since(start), err == nil)

		if err != nil {
			d.logger.Error("failed to process activity event",
				"shard", shard,
				"kind", ev.Kind,
				"user_id", ev.UserID.Int64(),
				"guild_id", ev.GuildID.Int64(),
				"error", err,
			)
		}
	}
}

// Close stops accepting events and waits for the queues to drain.
func (d *ActivityDispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	for _, shard := range d.shards {
		close(shard)
	}
	d.mu.Unlock()

	d.wg.Wait()
	d.cancel()

	d.logger.Info("dispatcher stopped")
	return nil
}

// Metrics returns dispatcher metrics.
func (d *ActivityDispatcher) Metrics() *DispatcherMetrics {
	return d.metrics
}

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHER METRICS
// ══════════════════════════════════════════════════════════════════════════════

// DispatcherMetrics tracks dispatcher throughput per shard.
type DispatcherMetrics struct {
	mu sync.RWMutex

	EnqueuedTotal  int64
	RejectedTotal  int64
	ProcessedTotal int64
	FailuresTotal  int64
	TotalDuration  time.Duration

	EnqueuedByShard  map[int]int64
	ProcessedByShard map[int]int64
}

// NewDispatcherMetrics creates new dispatcher metrics.
func NewDispatcherMetrics() *DispatcherMetrics {
	return &DispatcherMetrics{
		EnqueuedByShard:  make(map[int]int64),
		ProcessedByShard: make(map[int]int64),
	}
}

// RecordEnqueue records an accepted event.
func (m *DispatcherMetrics) RecordEnqueue(shard int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.EnqueuedTotal++
	m.EnqueuedByShard[shard]++
}

// RecordRejection records an event shed by a full queue.
func (m *DispatcherMetrics) RecordRejection(shard int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RejectedTotal++
}

// RecordProcessed records a completed event.
func (m *DispatcherMetrics) RecordProcessed(shard int, duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ProcessedTotal++
	m.ProcessedByShard[shard]++
	m.TotalDuration += duration

	if !success {
		m.FailuresTotal++
	}
}

// Snapshot returns a point-in-time snapshot.
func (m *DispatcherMetrics) Snapshot() DispatcherMetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	avgDuration := time.Duration(0)
	if m.ProcessedTotal > 0 {
		avgDuration = m.TotalDuration / time.Duration(m.ProcessedTotal)
	}

	return DispatcherMetricsSnapshot{
		TotalEnqueued:   m.EnqueuedTotal,
		TotalRejected:   m.RejectedTotal,
		TotalProcessed:  m.ProcessedTotal,
		TotalFailures:   m.FailuresTotal,
		AverageDuration: avgDuration,
	}
}

// DispatcherMetricsSnapshot is a point-in-time snapshot.
type DispatcherMetricsSnapshot struct {
	TotalEnqueued   int64
	TotalRejected   int64
	TotalProcessed  int64
	TotalFailures   int64
	AverageDuration time.Duration
}
