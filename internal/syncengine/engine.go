// Package syncengine replays the offline mutation queue against the
// remote store: one pass at a time, oldest first, with per-item retry
// backoff. Replay is idempotent; a duplicate-key conflict means the
// mutation already landed and the item is marked synced.
package syncengine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/remote"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/syncqueue"
)

const (
	// DefaultBackoffBase is the delay after a first replay failure.
	DefaultBackoffBase = 5 * time.Second

	// DefaultBackoffCap bounds the doubled delay.
	DefaultBackoffCap = 15 * time.Minute

	// DefaultReplayRate caps replays per second so a long queue cannot
	// saturate the remote service right after a reconnect.
	DefaultReplayRate = 20
)

// Result summarizes one sync pass.
type Result struct {
	// Skipped is true when another pass was already running and this
	// call did nothing.
	Skipped bool

	// Synced counts items applied remotely, including conflicts
	// resolved as already-applied.
	Synced int

	// Conflicts counts the subset of Synced resolved by a
	// duplicate-key conflict.
	Conflicts int

	// Failed counts items that errored and stay queued.
	Failed int

	// Deferred counts items skipped because their retry backoff has
	// not elapsed.
	Deferred int
}

// Config configures New.
type Config struct {
	Queue  *syncqueue.Queue
	Remote remote.Store
	Logger zerolog.Logger

	// Metrics is optional; nil disables instrumentation.
	Metrics *Metrics

	// BackoffBase and BackoffCap tune per-item retry delays.
	BackoffBase time.Duration
	BackoffCap  time.Duration

	// ReplayRate caps replays per second. Zero applies
	// DefaultReplayRate.
	ReplayRate float64
}

// Engine drains the sync queue. Safe for concurrent use; overlapping
// SyncAll calls collapse into a single pass.
type Engine struct {
	queue   *syncqueue.Queue
	remote  remote.Store
	log     zerolog.Logger
	metrics *Metrics
	limiter *rate.Limiter

	backoffBase time.Duration
	backoffCap  time.Duration

	syncing atomic.Bool

	// now is swapped in tests to control backoff timing.
	now func() time.Time
}

// New creates an Engine.
func New(cfg Config) *Engine {
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultBackoffBase
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = DefaultBackoffCap
	}
	if cfg.ReplayRate <= 0 {
		cfg.ReplayRate = DefaultReplayRate
	}
	return &Engine{
		queue:       cfg.Queue,
		remote:      cfg.Remote,
		log:         cfg.Logger,
		metrics:     cfg.Metrics,
		limiter:     rate.NewLimiter(rate.Limit(cfg.ReplayRate), 1),
		backoffBase: cfg.BackoffBase,
		backoffCap:  cfg.BackoffCap,
		now:         time.Now,
	}
}

// Syncing reports whether a pass is currently running.
func (e *Engine) Syncing() bool {
	return e.syncing.Load()
}

// SyncAll replays the user's pending queue items in submission order.
// If a pass is already running the call returns immediately with
// Skipped set. Items are processed sequentially; an unreachable remote
// aborts the pass and leaves the remainder queued.
func (e *Engine) SyncAll(ctx context.Context, userID string) (Result, error) {
	if !e.syncing.CompareAndSwap(false, true) {
		e.countRun("busy")
		return Result{Skipped: true}, nil
	}
	defer e.syncing.Store(false)

	start := e.now()
	res, err := e.drain(ctx, userID)
	e.observe(ctx, userID, start, res, err)
	return res, err
}

func (e *Engine) drain(ctx context.Context, userID string) (Result, error) {
	var res Result

	items, err := e.queue.Pending(ctx, userID)
	if err != nil {
		return res, err
	}
	if len(items) == 0 {
		return res, nil
	}
	e.log.Info().Int("pending", len(items)).Str("user", userID).Msg("starting sync pass")

	// Mutations of one record must land in submission order. Once an
	// item for a record defers or fails, every later item for that
	// record holds back too; replaying them early would reorder the
	// record's history (an UPDATE jumping ahead of its still-pending
	// INSERT gets dropped as not-found and the edit is lost).
	blocked := make(map[string]bool)

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		key := item.Table + "/" + item.RecordID
		if blocked[key] {
			res.Deferred++
			e.countItem("deferred")
			continue
		}
		if !e.due(item) {
			blocked[key] = true
			res.Deferred++
			e.countItem("deferred")
			continue
		}
		if err := e.limiter.Wait(ctx); err != nil {
			return res, err
		}

		conflict, err := e.replay(ctx, item)
		switch {
		case err == nil:
			if err := e.queue.MarkSynced(ctx, item.ID); err != nil {
				return res, err
			}
			res.Synced++
			if conflict {
				res.Conflicts++
				e.countItem("conflict")
			} else {
				e.countItem("synced")
			}
		case remote.IsUnavailable(err):
			// The service dropped out mid-pass. Stop; the remainder
			// replays on the next reconnect.
			e.log.Warn().Err(err).Str("item", item.ID).Msg("remote unreachable, aborting sync pass")
			return res, err
		default:
			e.log.Warn().Err(err).
				Str("item", item.ID).
				Str("op", string(item.Operation)).
				Str("table", item.Table).
				Msg("queue item replay failed")
			if err := e.queue.MarkFailed(ctx, item.ID, err.Error()); err != nil {
				return res, err
			}
			blocked[key] = true
			res.Failed++
			e.countItem("failed")
		}
	}

	e.log.Info().
		Int("synced", res.Synced).
		Int("conflicts", res.Conflicts).
		Int("failed", res.Failed).
		Int("deferred", res.Deferred).
		Msg("sync pass finished")
	return res, nil
}

// replay applies one queued mutation remotely. The returned bool is
// true when the item resolved through a duplicate-key conflict.
func (e *Engine) replay(ctx context.Context, item syncqueue.Item) (bool, error) {
	values, err := item.DecodePayload()
	if err != nil {
		return false, err
	}

	switch item.Operation {
	case syncqueue.OpInsert:
		err := e.remote.Insert(ctx, nil, item.Table, values)
		if remote.IsConflict(err) {
			// The record landed before we went offline, or another
			// device created it. First write wins; this payload is
			// discarded.
			return true, nil
		}
		return false, err

	case syncqueue.OpUpdate:
		err := e.remote.Update(ctx, nil, item.Table, item.RecordID, values)
		if remote.IsNotFound(err) {
			// The record was deleted remotely while we were offline.
			// Nothing left to update.
			e.log.Warn().Str("item", item.ID).Str("record", item.RecordID).
				Msg("queued update targets a deleted record, dropping")
			return false, nil
		}
		return false, err

	case syncqueue.OpDelete:
		return false, e.remote.Delete(ctx, item.Table, item.RecordID)

	default:
		return false, errUnknownOperation(item.Operation)
	}
}

// due reports whether the item's retry backoff has elapsed. The delay
// doubles per failed attempt from backoffBase up to backoffCap.
func (e *Engine) due(item syncqueue.Item) bool {
	if item.RetryCount == 0 || item.LastAttemptAt.IsZero() {
		return true
	}
	delay := e.backoffBase
	for i := 1; i < item.RetryCount && delay < e.backoffCap; i++ {
		delay *= 2
	}
	if delay > e.backoffCap {
		delay = e.backoffCap
	}
	return !e.now().Before(item.LastAttemptAt.Time().Add(delay))
}

func (e *Engine) observe(ctx context.Context, userID string, start time.Time, res Result, err error) {
	switch {
	case err != nil:
		e.countRun("aborted")
	default:
		e.countRun("completed")
	}
	if e.metrics == nil {
		return
	}
	e.metrics.Duration.Observe(e.now().Sub(start).Seconds())
	if pending, err := e.queue.CountPending(ctx, userID); err == nil {
		e.metrics.Pending.Set(float64(pending))
	}
}

func (e *Engine) countRun(result string) {
	if e.metrics != nil {
		e.metrics.Runs.WithLabelValues(result).Inc()
	}
}

func (e *Engine) countItem(result string) {
	if e.metrics != nil {
		e.metrics.Items.WithLabelValues(result).Inc()
	}
}

type errUnknownOperation string

func (e errUnknownOperation) Error() string {
	return "syncengine: unknown queue operation " + string(e)
}
