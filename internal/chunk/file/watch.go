package file

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"rfr/internal/chunk"
	"rfr/internal/logging"
)

// Watcher live-tails a recording directory: newly written chunk files are
// decoded and delivered as they appear, and callsites.rfr growth is folded
// into a shared CallsiteTable. Grounded on the teacher's tail ingester event
// loop (fsnotify plus a periodic poll fallback for filesystems that miss
// events).
type Watcher struct {
	reader    *RecordingReader
	tailer    *CallsitesTailer
	logger    *slog.Logger
	seen      map[string]struct{}
	pollEvery time.Duration
}

// NewWatcher opens dir as a RecordingReader and prepares to tail it.
func NewWatcher(dir string, logger *slog.Logger) (*Watcher, error) {
	r, err := OpenRecording(dir)
	if err != nil {
		return nil, err
	}
	tailer, err := NewCallsitesTailer(dir, r.Callsites)
	if err != nil {
		return nil, err
	}
	logger = logging.Default(logger)
	return &Watcher{
		reader:    r,
		tailer:    tailer,
		logger:    logger,
		seen:      make(map[string]struct{}),
		pollEvery: time.Second,
	}, nil
}

// Run watches the recording directory until ctx is cancelled, invoking
// onChunk for each newly observed, fully-decodable chunk file; a file that is
// still partial is skipped without a diagnostic and retried on the next
// scan. It watches the recording root
// directly; new `<YYYY>-<MM>/<DD>-<HH>` subdirectories are added to the
// watch as they're created, mirroring watchDirsForPatterns's static-prefix
// extraction for a glob whose directory depth is fixed in advance.
func (w *Watcher) Run(ctx context.Context, onChunk func(chunk.Chunk)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := w.addDirs(watcher); err != nil {
		return err
	}

	ticker := time.NewTicker(w.pollEvery)
	defer ticker.Stop()

	for {
		if err := w.scan(onChunk); err != nil {
			w.logger.Error("watch scan failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "error", err)
		case <-ticker.C:
		}
	}
}

// addDirs registers the recording root and its existing two levels of
// interval subdirectories with watcher, following the teacher's
// staticPrefix approach of watching directories rather than individual
// files.
func (w *Watcher) addDirs(watcher *fsnotify.Watcher) error {
	if err := watcher.Add(w.reader.Dir); err != nil {
		return err
	}
	monthDirs, err := filepath.Glob(filepath.Join(w.reader.Dir, "*-*"))
	if err != nil {
		return err
	}
	for _, md := range monthDirs {
		_ = watcher.Add(md)
		dayDirs, err := filepath.Glob(filepath.Join(md, "*-*"))
		if err != nil {
			continue
		}
		for _, dd := range dayDirs {
			_ = watcher.Add(dd)
		}
	}
	return nil
}

// scan re-reads callsites.rfr growth and decodes any chunk file not yet
// seen, leaving partial files unseen for the next scan rather than failing.
func (w *Watcher) scan(onChunk func(chunk.Chunk)) error {
	if err := w.tailer.Poll(); err != nil {
		w.logger.Warn("callsites tail error", "error", err)
	}

	paths, err := w.reader.ChunkPaths()
	if err != nil {
		return err
	}
	for _, p := range paths {
		if _, ok := w.seen[p]; ok {
			continue
		}
		c, err := w.reader.ReadChunk(p)
		if err != nil {
			// Leave unseen: a partial file may still be mid-write and
			// complete itself by the next scan.
			continue
		}
		w.seen[p] = struct{}{}
		onChunk(c)
	}
	return nil
}

