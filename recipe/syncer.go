package recipe

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"recipebook"
)

type snapshot struct {
	seq     uint64
	blob    []byte
	records int
}

type flushWaiter struct {
	seq  uint64
	done chan struct{}
}

// syncer writes collection snapshots to the bridge from a single goroutine.
// Only the newest pending snapshot is written; older ones it replaced are
// counted as attempted, since each snapshot is the full collection.
type syncer struct {
	bridge  recipebook.PersistenceBridge
	key     string
	timeout time.Duration
	log     zerolog.Logger
	plog    recipebook.PersistenceLogger
	tracer  trace.Tracer
	inst    instruments

	base   context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	pending    *snapshot
	dispatched uint64
	attempted  uint64
	waiters    []flushWaiter

	wake      chan struct{}
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newSyncer(bridge recipebook.PersistenceBridge, key string, o options, inst instruments) *syncer {
	base, cancel := context.WithCancel(context.Background())
	s := &syncer{
		bridge:  bridge,
		key:     key,
		timeout: o.saveTimeout,
		log:     o.logger,
		plog:    o.plog,
		tracer:  o.tracer,
		inst:    inst,
		base:    base,
		cancel:  cancel,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

// dispatch queues blob as the latest snapshot. It never blocks on I/O.
func (s *syncer) dispatch(blob []byte, records int) {
	s.mu.Lock()
	s.dispatched++
	s.pending = &snapshot{seq: s.dispatched, blob: blob, records: records}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *syncer) run() {
	defer close(s.done)
	for {
		select {
		case <-s.wake:
			s.drain()
		case <-s.stop:
			s.drain()
			return
		}
	}
}

func (s *syncer) drain() {
	for {
		s.mu.Lock()
		snap := s.pending
		s.pending = nil
		s.mu.Unlock()

		if snap == nil {
			return
		}

		s.write(snap)

		s.mu.Lock()
		s.attempted = snap.seq
		s.releaseLocked()
		s.mu.Unlock()
	}
}

func (s *syncer) write(snap *snapshot) {
	ctx, cancel := context.WithTimeout(s.base, s.timeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "Store.save", trace.WithAttributes(
		attribute.String("storage.key", s.key),
		attribute.Int("recipes.count", snap.records),
		attribute.Int("blob.bytes", len(snap.blob)),
	))
	defer span.End()

	start := time.Now()
	err := s.bridge.Save(ctx, s.key, snap.blob)
	elapsed := time.Since(start)

	s.inst.saves.Add(ctx, 1)
	s.inst.saveDuration.Record(ctx, elapsed.Seconds())

	entry := recipebook.SaveLog{
		Key:       s.key,
		Timestamp: start,
		Bytes:     len(snap.blob),
		Records:   snap.records,
		Duration:  elapsed,
	}

	if err != nil {
		entry.Error = err.Error()
		s.inst.saveFailures.Add(ctx, 1)
		span.SetStatus(codes.Error, "save failed")
		span.RecordError(err)
		s.log.Error().Err(err).
			Str("key", s.key).
			Int("records", snap.records).
			Msg("failed to save recipes, in-memory state is not durable")
	} else {
		s.log.Debug().
			Str("key", s.key).
			Int("records", snap.records).
			Dur("duration", elapsed).
			Msg("recipes saved")
	}

	if lerr := s.plog.LogSave(entry); lerr != nil {
		s.log.Warn().Err(lerr).Msg("failed to record save attempt")
	}
}

// releaseLocked wakes every flush waiter whose snapshot has been attempted.
func (s *syncer) releaseLocked() {
	kept := s.waiters[:0]
	for _, w := range s.waiters {
		if w.seq <= s.attempted {
			close(w.done)
			continue
		}
		kept = append(kept, w)
	}
	s.waiters = kept
}

// flush blocks until every snapshot dispatched before the call has been attempted.
func (s *syncer) flush(ctx context.Context) error {
	s.mu.Lock()
	if s.attempted >= s.dispatched {
		s.mu.Unlock()
		return nil
	}
	w := flushWaiter{seq: s.dispatched, done: make(chan struct{})}
	s.waiters = append(s.waiters, w)
	s.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close writes any pending snapshot and stops the worker. If ctx expires
// first, the in-flight save is cancelled.
func (s *syncer) close(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.stop) })

	select {
	case <-s.done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return ctx.Err()
	}
}
