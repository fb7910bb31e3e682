package file

import (
	"fmt"
	"os"
	"path/filepath"

	"rfr/internal/chunk"
	"rfr/internal/format"
)

// ChunkIdentifier is the format identifier stamped onto chunk files written
// by WriteChunk when the caller left Chunk.FormatIdentifier unset.
var ChunkIdentifier = format.Identifier{Variant: format.VariantChunk, Major: 1, Minor: 0, Patch: 0}

// DirWriter implements chunk.ChunkWriter against a recording directory
// rooted at Dir, laying out chunk files per §4.5:
// `<YYYY>-<MM>/<DD>-<HH>/chunk-<mm>-<ss>.rfr`.
type DirWriter struct {
	Dir string
}

// NewDirWriter ensures dir exists and returns a DirWriter rooted there.
func NewDirWriter(dir string) (*DirWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DirWriter{Dir: dir}, nil
}

// WriteChunk atomically writes c to its interval-derived path under Dir,
// creating any missing `<YYYY>-<MM>/<DD>-<HH>` directories, and returns the
// path relative to Dir.
func (w *DirWriter) WriteChunk(c chunk.Chunk) (string, error) {
	if c.FormatIdentifier.Variant == "" {
		c.FormatIdentifier = ChunkIdentifier
	}
	rel := c.Header.Interval.Path()
	full := filepath.Join(w.Dir, rel)
	if err := atomicWriteFile(full, c.Encode(nil)); err != nil {
		return "", fmt.Errorf("file: write chunk %s: %w", rel, err)
	}
	return rel, nil
}

// ListChunks implements chunk.ChunkLister: it stats and decodes every
// sealed chunk file under Dir and reports its metadata for retention
// decisions (§6's supplemented retention feature). A chunk file that fails
// to decode is skipped rather than reported — a partial chunk is left for
// a human to investigate, not silently swept away.
func (w *DirWriter) ListChunks() ([]chunk.ChunkMeta, error) {
	paths, err := listChunkFiles(w.Dir)
	if err != nil {
		return nil, err
	}
	metas := make([]chunk.ChunkMeta, 0, len(paths))
	for _, p := range paths {
		full := filepath.Join(w.Dir, p)
		info, err := os.Stat(full)
		if err != nil {
			continue
		}
		data, err := os.ReadFile(full)
		if err != nil {
			continue
		}
		c, _, err := chunk.DecodeChunk(data)
		if err != nil {
			continue
		}
		var records int64
		for _, sc := range c.SeqChunks {
			records += int64(len(sc.Records))
		}
		metas = append(metas, chunk.ChunkMeta{
			Interval:    c.Header.Interval,
			Path:        p,
			Bytes:       info.Size(),
			RecordCount: records,
			Sealed:      true,
		})
	}
	return metas, nil
}

// RemoveChunk implements chunk.ChunkRemover: it deletes the sealed chunk
// file at the given recording-relative path.
func (w *DirWriter) RemoveChunk(path string) error {
	return os.Remove(filepath.Join(w.Dir, path))
}

// OpenEngineConfig opens dir's chunk writer and callsites log and returns a
// chunk.EngineConfig with Writer, Lister, Remover, Meta, and Callsites
// wired against it — the usual way to drive chunk.NewEngine from an
// on-disk recording directory. The caller still sets Clock and any of
// Logger/IdleFlushEvery/RetentionPolicy/RetentionEvery it needs.
func OpenEngineConfig(dir string) (chunk.EngineConfig, error) {
	w, err := NewDirWriter(dir)
	if err != nil {
		return chunk.EngineConfig{}, err
	}
	cw, err := OpenCallsitesWriter(dir)
	if err != nil {
		return chunk.EngineConfig{}, err
	}
	return chunk.EngineConfig{
		Writer:    w,
		Lister:    w,
		Remover:   w,
		Meta:      DirMetaWriter{Dir: dir},
		Callsites: cw,
	}, nil
}
