package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits for a batch attack run.
type Config struct {
	// MaxWorkers is the maximum number of samples attacked concurrently.
	// If 0, defaults to 1.
	MaxWorkers int64

	// QueryRatePerSec is the maximum oracle query throughput across all
	// workers. If 0, unlimited.
	QueryRatePerSec int64

	// MemoryLimitBytes is the hard limit for probe-batch memory.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// IOLimitBytesPerSec is the maximum IO throughput for artifact
	// writes. If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages resources shared by the workers of a batch run
// (worker slots, oracle throughput, memory, artifact IO).
type Controller struct {
	cfg Config

	// Concurrency
	workerSem *semaphore.Weighted

	// Oracle throughput
	queryLimiter *rate.Limiter

	// Memory
	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	// IO
	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}

	c := &Controller{
		cfg:       cfg,
		workerSem: semaphore.NewWeighted(cfg.MaxWorkers),
	}

	if cfg.QueryRatePerSec > 0 {
		c.queryLimiter = rate.NewLimiter(rate.Limit(cfg.QueryRatePerSec), int(cfg.QueryRatePerSec))
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// AcquireWorker attempts to reserve a worker slot.
// Blocks if all slots are busy.
func (c *Controller) AcquireWorker(ctx context.Context) error {
	if c == nil {
		return nil
	}

	return c.workerSem.Acquire(ctx, 1)
}

// TryAcquireWorker attempts to reserve a worker slot without blocking.
func (c *Controller) TryAcquireWorker() bool {
	if c == nil {
		return true
	}

	return c.workerSem.TryAcquire(1)
}

// ReleaseWorker releases a worker slot.
func (c *Controller) ReleaseWorker() {
	if c == nil {
		return
	}

	c.workerSem.Release(1)
}

// AcquireQueries waits until the query rate limit admits n oracle
// queries. Requests larger than the limiter's burst are admitted in
// burst-sized chunks so oversized probe batches do not error out.
func (c *Controller) AcquireQueries(ctx context.Context, n int) error {
	if c == nil || c.queryLimiter == nil {
		return nil
	}

	burst := c.queryLimiter.Burst()
	for n > 0 {
		take := n
		if take > burst {
			take = burst
		}

		if err := c.queryLimiter.WaitN(ctx, take); err != nil {
			return err
		}

		n -= take
	}

	return nil
}

// AcquireMemory attempts to reserve memory for probe batches.
// If a hard limit is configured and usage would exceed it,
// this blocks until memory is available or ctx is canceled.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil {
		return nil
	}
	if bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if err := c.memSem.Acquire(ctx, bytes); err != nil {
			return err
		}
	}

	c.memUsed.Add(bytes)
	return nil
}

// TryAcquireMemory attempts to reserve memory without blocking.
// Returns true if acquired, false if limit would be exceeded.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil {
		return true
	}
	if bytes <= 0 {
		return true
	}

	if c.memSem != nil {
		if !c.memSem.TryAcquire(bytes) {
			return false
		}
	}

	c.memUsed.Add(bytes)
	return true
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil {
		return
	}
	if bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the current memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}

	return c.memUsed.Load()
}

// AcquireIO waits until the IO limit allows the specified number of
// bytes. Requests larger than the limiter's burst are admitted in
// burst-sized chunks so bulk snapshot writes do not error out.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}

	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		take := bytes
		if take > burst {
			take = burst
		}

		if err := c.ioLimiter.WaitN(ctx, take); err != nil {
			return err
		}

		bytes -= take
	}

	return nil
}
