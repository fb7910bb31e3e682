package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"rfr/internal/chunk"
)

// PartialChunk reports a chunk file that could not be fully decoded —
// truncated mid-record or missing its leading format identifier entirely
// (scenario S4). The recording reader surfaces these as diagnostics and
// continues with the remaining chunk files.
type PartialChunk struct {
	Path string
	Err  error
}

func (p PartialChunk) Error() string {
	return fmt.Sprintf("file: partial chunk %s: %v", p.Path, p.Err)
}

// RecordingReader reads a complete recording directory: its meta file,
// callsites, and chunk files in chronological order (§4.6). Chronological
// order coincides with the lexicographic order of chunk paths, since the
// `<YYYY>-<MM>/<DD>-<HH>/chunk-<mm>-<ss>.rfr` layout sorts by time.
type RecordingReader struct {
	Dir       string
	Meta      Meta
	Callsites *chunk.CallsiteTable
	Partial   []PartialChunk
}

// OpenRecording reads dir's meta file and callsites file and prepares to
// enumerate its chunk files. Partial or absent callsites are tolerated the
// same way chunk files are: OpenRecording only fails if the meta file
// itself cannot be read.
func OpenRecording(dir string) (*RecordingReader, error) {
	meta, err := ReadMeta(dir)
	if err != nil {
		return nil, fmt.Errorf("file: open recording %s: %w", dir, err)
	}
	table := chunk.NewCallsiteTable()
	r := &RecordingReader{Dir: dir, Meta: meta, Callsites: table}
	if err := LoadCallsites(dir, table); err != nil {
		r.Partial = append(r.Partial, PartialChunk{Path: callsitesFileName, Err: err})
	}
	return r, nil
}

// ChunkPaths lists every chunk file under the recording directory, relative
// to Dir, in chronological (lexicographic) order.
func (r *RecordingReader) ChunkPaths() ([]string, error) {
	return listChunkFiles(r.Dir)
}

// listChunkFiles globs dir for chunk files laid out per §4.5 and returns
// their paths relative to dir, sorted chronologically (= lexicographically).
// Shared by RecordingReader.ChunkPaths and DirWriter.ListChunks.
func listChunkFiles(dir string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(dir, "*-*/*-*/chunk-*-*.rfr"))
	if err != nil {
		return nil, err
	}
	rel := make([]string, len(matches))
	for i, m := range matches {
		p, err := filepath.Rel(dir, m)
		if err != nil {
			return nil, err
		}
		rel[i] = p
	}
	sort.Strings(rel)
	return rel, nil
}

// ReadChunk decodes the chunk file at the given recording-relative path. A
// truncated or header-less file yields a PartialChunk error rather than
// aborting; callers enumerating via All should record it and continue.
func (r *RecordingReader) ReadChunk(relPath string) (chunk.Chunk, error) {
	data, err := os.ReadFile(filepath.Join(r.Dir, relPath))
	if err != nil {
		return chunk.Chunk{}, PartialChunk{Path: relPath, Err: err}
	}
	c, _, err := chunk.DecodeChunk(data)
	if err != nil {
		return chunk.Chunk{}, PartialChunk{Path: relPath, Err: err}
	}
	return c, nil
}

// All reads every chunk file in chronological order, skipping and
// recording any that are partial rather than aborting the whole recording
// (scenario S4). The returned chunks are in the same order as ChunkPaths.
func (r *RecordingReader) All() ([]chunk.Chunk, error) {
	paths, err := r.ChunkPaths()
	if err != nil {
		return nil, err
	}
	chunks := make([]chunk.Chunk, 0, len(paths))
	for _, p := range paths {
		c, err := r.ReadChunk(p)
		if err != nil {
			var pc PartialChunk
			if asPartialChunk(err, &pc) {
				r.Partial = append(r.Partial, pc)
				continue
			}
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

func asPartialChunk(err error, out *PartialChunk) bool {
	pc, ok := err.(PartialChunk)
	if ok {
		*out = pc
	}
	return ok
}
