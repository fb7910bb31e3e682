package chunk

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"

	"rfr/internal/format"
	"rfr/internal/logging"
	"rfr/internal/schema"
)

// ChunkWriter durably persists a completed Chunk and reports the path it
// was written to. internal/chunk/file implements this against the
// recording directory layout of §4.5; tests may supply an in-memory stub.
type ChunkWriter interface {
	WriteChunk(Chunk) (path string, err error)
}

// MetaWriter durably writes a recording's meta record exactly once, at
// engine construction (§4.5). internal/chunk/file's DirMetaWriter
// implements this against meta.rfr.
type MetaWriter interface {
	WriteMeta(createdTime schema.AbsTimestamp, formatIdentifiers []string) error
}

// CallsitesAppender durably appends registered callsites to a recording's
// callsites log and is closed once, on Shutdown (§4.5's "closes meta and
// callsites logs"). internal/chunk/file's CallsitesWriter implements this.
type CallsitesAppender interface {
	Append(schema.Callsite) error
	Close() error
}

// ChunkLister enumerates a recording's sealed chunks for retention sweeps.
// internal/chunk/file's DirWriter implements this against the same
// directory it writes chunks to.
type ChunkLister interface {
	ListChunks() ([]ChunkMeta, error)
}

// ChunkRemover deletes a sealed chunk by its recording-relative path.
// internal/chunk/file's DirWriter implements this.
type ChunkRemover interface {
	RemoveChunk(path string) error
}

// usedFormatIdentifiers lists the format identifiers a recording directory
// produced by this engine exercises. Written once into meta.rfr at
// construction (§4.3, §4.5).
var usedFormatIdentifiers = []string{
	format.Identifier{Variant: format.VariantMeta, Major: 1, Minor: 0, Patch: 0}.String(),
	format.Identifier{Variant: format.VariantCallsites, Major: 1, Minor: 0, Patch: 0}.String(),
	format.Identifier{Variant: format.VariantChunk, Major: 1, Minor: 0, Patch: 0}.String(),
}

// sequenceBuffer is a single producer's per-interval accumulation: the
// object set and ordered records for its currently active interval. Per
// §4.5/§9, a given SeqID has one producer, so Record never contends with
// itself on the same buffer — but WaitFlush/Shutdown can hand a buffer off
// from a different goroutine while that producer is still appending to it,
// so mu guards every field below across both paths.
type sequenceBuffer struct {
	seqID    schema.SeqID
	interval ChunkInterval

	mu         sync.Mutex
	hasData    bool
	objectSeen map[schema.InstrumentationID]struct{}
	objects    []schema.Object
	records    []schema.Record
	lastTS     schema.ChunkTimestamp
}

func newSequenceBuffer(seqID schema.SeqID, interval ChunkInterval) *sequenceBuffer {
	return &sequenceBuffer{
		seqID:      seqID,
		interval:   interval,
		objectSeen: make(map[schema.InstrumentationID]struct{}),
	}
}

func (b *sequenceBuffer) seqChunk() SeqChunk {
	b.mu.Lock()
	defer b.mu.Unlock()
	header := SeqChunkHeader{SeqID: b.seqID}
	if len(b.records) > 0 {
		header.Earliest = b.records[0].Meta.Timestamp
		header.Latest = b.records[len(b.records)-1].Meta.Timestamp
		for _, r := range b.records {
			if r.Meta.Timestamp < header.Earliest {
				header.Earliest = r.Meta.Timestamp
			}
			if r.Meta.Timestamp > header.Latest {
				header.Latest = r.Meta.Timestamp
			}
		}
	}
	return SeqChunk{Header: header, Objects: b.objects, Records: b.records}
}

// Engine is the chunked recording engine of §4.5: a callsite registry, an
// interval clock, one buffer per active sequence, and a flusher that
// serializes completed intervals to chunk files.
type Engine struct {
	clock     IntervalClock
	registry  *CallsiteRegistry
	writer    ChunkWriter
	callsites CallsitesAppender
	retention RetentionPolicy
	lister    ChunkLister
	remover   ChunkRemover
	logger    *slog.Logger

	mu         sync.Mutex
	sequences  map[schema.SeqID]*sequenceBuffer
	pending    map[ChunkInterval][]SeqChunk
	droppedSeq map[schema.SeqID]uint64 // backpressure diagnostic counters

	scheduler gocron.Scheduler
	cancel    context.CancelFunc
}

// EngineConfig configures a new Engine.
type EngineConfig struct {
	Clock          IntervalClock
	Writer         ChunkWriter
	Logger         *slog.Logger
	IdleFlushEvery time.Duration // 0 disables the periodic idle-flush job

	// Meta, if set, is written once at construction with this engine's
	// created-time and format identifiers (§4.5).
	Meta MetaWriter
	// Callsites, if set, is the durable append target wired into the
	// callsite registry and closed on Shutdown (§4.5).
	Callsites CallsitesAppender

	// RetentionPolicy, Lister, and Remover together drive a periodic
	// retention sweep (§6's supplemented retention feature); all three
	// must be set, and RetentionEvery must be non-zero, for the sweep to
	// run. internal/chunk/file's DirWriter implements both ChunkLister
	// and ChunkRemover against the same directory it writes chunks to, so
	// the same value usually fills Writer, Lister, and Remover.
	RetentionPolicy RetentionPolicy
	Lister          ChunkLister
	Remover         ChunkRemover
	RetentionEvery  time.Duration
}

// NewEngine constructs an Engine, writes the recording's meta record if
// Meta is configured, and starts whichever gocron jobs IdleFlushEvery and
// RetentionEvery enable: an idle-flush job that periodically flushes
// intervals whose end has passed (so chunks for quiet sequences still
// reach disk promptly), and a retention sweep that prunes sealed chunks
// the configured policy selects.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	logger := logging.Default(cfg.Logger)
	_, cancel := context.WithCancel(context.Background())

	var onAppend func(schema.Callsite) error
	if cfg.Callsites != nil {
		onAppend = cfg.Callsites.Append
	}

	e := &Engine{
		clock:      cfg.Clock,
		registry:   NewCallsiteRegistry(onAppend),
		writer:     cfg.Writer,
		callsites:  cfg.Callsites,
		retention:  cfg.RetentionPolicy,
		lister:     cfg.Lister,
		remover:    cfg.Remover,
		logger:     logger,
		sequences:  make(map[schema.SeqID]*sequenceBuffer),
		pending:    make(map[ChunkInterval][]SeqChunk),
		droppedSeq: make(map[schema.SeqID]uint64),
		cancel:     cancel,
	}

	if cfg.Meta != nil {
		created := schema.AbsTimestampFromTime(time.Now())
		if err := cfg.Meta.WriteMeta(created, usedFormatIdentifiers); err != nil {
			cancel()
			return nil, fmt.Errorf("chunk: write meta: %w", err)
		}
	}

	runRetention := e.retention != nil && e.lister != nil && e.remover != nil && cfg.RetentionEvery > 0
	if cfg.IdleFlushEvery > 0 || runRetention {
		s, err := gocron.NewScheduler()
		if err != nil {
			cancel()
			return nil, err
		}
		if cfg.IdleFlushEvery > 0 {
			if _, err := s.NewJob(
				gocron.DurationJob(cfg.IdleFlushEvery),
				gocron.NewTask(e.flushDueIntervals),
				gocron.WithName("rfr-idle-flush"),
			); err != nil {
				cancel()
				return nil, err
			}
		}
		if runRetention {
			if _, err := s.NewJob(
				gocron.DurationJob(cfg.RetentionEvery),
				gocron.NewTask(e.sweepRetention),
				gocron.WithName("rfr-retention-sweep"),
			); err != nil {
				cancel()
				return nil, err
			}
		}
		e.scheduler = s
		s.Start()
	}

	return e, nil
}

// RegisterCallsite assigns a CallsiteId to callsite and durably appends it
// to the callsites file via the engine's configured CallsitesAppender,
// returning the id (§4.5, §6).
func (e *Engine) RegisterCallsite(callsite schema.Callsite) (schema.CallsiteID, error) {
	return e.registry.Register(callsite)
}

// sweepRetention is the periodic retention job body: it lists the
// recording's sealed chunks, asks the configured policy which ones to
// delete, and removes them (§6's supplemented retention feature).
func (e *Engine) sweepRetention() {
	metas, err := e.lister.ListChunks()
	if err != nil {
		e.logger.Error("retention sweep: list chunks failed", "error", err)
		return
	}
	selected := e.retention.Apply(RecordingState{Chunks: metas, Now: time.Now().UTC()})
	for _, p := range selected {
		if err := e.remover.RemoveChunk(p); err != nil {
			e.logger.Error("retention sweep: remove chunk failed", "path", p, "error", err)
			continue
		}
		e.logger.Debug("retention sweep: removed chunk", "path", p)
	}
}

// Record appends one record to the named sequence's buffer (§4.5's
// record() operation). If the record declares a new object (obj non-nil
// and not yet present in the interval's object set), the object is added
// to the sub-chunk's table first.
func (e *Engine) Record(seqID schema.SeqID, ts schema.AbsTimestamp, obj *schema.Object, data schema.RecordData) {
	interval := e.clock.IntervalFor(ts)

	e.mu.Lock()
	buf, ok := e.sequences[seqID]
	if !ok {
		buf = newSequenceBuffer(seqID, interval)
		e.sequences[seqID] = buf
	}
	if buf.interval != interval {
		e.handoffLocked(buf)
		buf = newSequenceBuffer(seqID, interval)
		e.sequences[seqID] = buf
	}
	e.mu.Unlock()

	chunkTS := interval.ChunkTimestampFor(ts)

	buf.mu.Lock()
	if buf.hasData && chunkTS < buf.lastTS {
		// §5 ordering guarantee: clamp backward-moving timestamps within a
		// sequence and count the correction as a diagnostic.
		e.mu.Lock()
		e.droppedSeq[seqID]++
		e.mu.Unlock()
		chunkTS = buf.lastTS
	}
	buf.lastTS = chunkTS
	buf.hasData = true

	if obj != nil {
		if _, seen := buf.objectSeen[obj.IID()]; !seen {
			buf.objectSeen[obj.IID()] = struct{}{}
			buf.objects = append(buf.objects, *obj)
		}
	}
	buf.records = append(buf.records, schema.Record{
		Meta: schema.RecordMeta{Timestamp: chunkTS},
		Data: data,
	})
	buf.mu.Unlock()
}

// handoffLocked moves buf's completed contents into the pending table for
// its interval. Callers must hold e.mu; buf's own mutex additionally
// guards against a producer still appending to buf concurrently.
func (e *Engine) handoffLocked(buf *sequenceBuffer) {
	buf.mu.Lock()
	hasData := buf.hasData
	buf.mu.Unlock()
	if !hasData {
		return
	}
	e.pending[buf.interval] = append(e.pending[buf.interval], buf.seqChunk())
}

// FlushInterval collects all pending per-sequence buffers whose interval
// equals interval, sorts them by seq_id ascending, and writes the chunk
// file (§4.5's flush_interval operation). It is idempotent: an interval
// with no pending data is a no-op.
func (e *Engine) FlushInterval(interval ChunkInterval) error {
	e.mu.Lock()
	seqChunks := e.pending[interval]
	delete(e.pending, interval)
	e.mu.Unlock()

	if len(seqChunks) == 0 {
		return nil
	}
	sort.Slice(seqChunks, func(i, j int) bool {
		return seqChunks[i].Header.SeqID < seqChunks[j].Header.SeqID
	})

	header := ChunkHeader{Interval: interval}
	first := true
	for _, sc := range seqChunks {
		if len(sc.Records) == 0 {
			continue
		}
		if first {
			header.Earliest, header.Latest = sc.Header.Earliest, sc.Header.Latest
			first = false
			continue
		}
		if sc.Header.Earliest < header.Earliest {
			header.Earliest = sc.Header.Earliest
		}
		if sc.Header.Latest > header.Latest {
			header.Latest = sc.Header.Latest
		}
	}

	chunk := Chunk{Header: header, SeqChunks: seqChunks}
	path, err := e.writer.WriteChunk(chunk)
	if err != nil {
		e.logger.Error("flush interval failed", "interval", interval, "error", err)
		return err
	}
	e.logger.Debug("flushed chunk", "path", path, "sequences", len(seqChunks))
	return nil
}

// flushDueIntervals is the idle-flush job body: it flushes every pending
// interval whose end has already passed, so a quiet sequence's last
// interval still reaches disk without waiting for new records to trigger
// a handoff.
func (e *Engine) flushDueIntervals() {
	now := time.Now().UTC()
	e.mu.Lock()
	for seqID, buf := range e.sequences {
		if now.After(ChunkMeta{Interval: buf.interval}.WallClockEnd()) {
			e.handoffLocked(buf)
			delete(e.sequences, seqID)
		}
	}
	due := make([]ChunkInterval, 0, len(e.pending))
	for iv := range e.pending {
		if now.After(ChunkMeta{Interval: iv}.WallClockEnd()) {
			due = append(due, iv)
		}
	}
	e.mu.Unlock()

	for _, iv := range due {
		if err := e.FlushInterval(iv); err != nil {
			e.logger.Error("idle flush failed", "interval", iv, "error", err)
		}
	}
}

// WaitFlush blocks until every currently active sequence has been handed
// off and every pending interval has been written, or ctx is cancelled
// (§6's flusher handle).
func (e *Engine) WaitFlush(ctx context.Context) error {
	e.mu.Lock()
	for _, buf := range e.sequences {
		e.handoffLocked(buf)
	}
	e.sequences = make(map[schema.SeqID]*sequenceBuffer)
	intervals := make([]ChunkInterval, 0, len(e.pending))
	for iv := range e.pending {
		intervals = append(intervals, iv)
	}
	e.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, iv := range intervals {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
				return e.FlushInterval(iv)
			}
		})
	}
	return g.Wait()
}

// Shutdown drains all pending intervals, stops the scheduler, and closes
// the callsites log, returning once durable or ctx expires (§4.5's
// shutdown() operation: "closes meta and callsites logs"; §5's
// bounded-wait cancellation policy). Meta itself needs no close — it is
// written once, atomically, at construction.
func (e *Engine) Shutdown(ctx context.Context) error {
	err := e.WaitFlush(ctx)
	if e.scheduler != nil {
		_ = e.scheduler.Shutdown()
	}
	if e.callsites != nil {
		if cerr := e.callsites.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	e.cancel()
	return err
}

// DroppedRecords reports the per-sequence count of timestamp-clamp
// diagnostics recorded so far (§5).
func (e *Engine) DroppedRecords(seqID schema.SeqID) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.droppedSeq[seqID]
}
