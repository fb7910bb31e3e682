package file

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"rfr/internal/chunk"
	"rfr/internal/format"
	"rfr/internal/schema"
)

// CallsitesIdentifier is the format identifier written at the head of
// callsites.rfr.
var CallsitesIdentifier = format.Identifier{Variant: format.VariantCallsites, Major: 1, Minor: 0, Patch: 0}

// CallsitesWriter appends schema.Callsite records to callsites.rfr. Unlike
// meta.rfr and chunk files, the callsites file is grown in place (§4.5: the
// registry is append-only and readers may tail it), so writes are plain
// appends rather than tempfile-and-rename.
type CallsitesWriter struct {
	mu sync.Mutex
	f  *os.File
}

// OpenCallsitesWriter opens (creating if absent) dir's callsites.rfr,
// writing the leading format identifier only if the file is new.
func OpenCallsitesWriter(dir string) (*CallsitesWriter, error) {
	path := filepath.Join(dir, callsitesFileName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	info, statErr := os.Stat(path)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	if statErr != nil || info.Size() == 0 {
		if _, err := f.Write(CallsitesIdentifier.Encode(nil)); err != nil {
			f.Close()
			return nil, err
		}
	}
	return &CallsitesWriter{f: f}, nil
}

// Append durably writes one callsite. It is safe to pass directly as a
// chunk.CallsiteRegistry's onAppend callback.
func (w *CallsitesWriter) Append(c schema.Callsite) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.f.Write(c.Encode(nil)); err != nil {
		return err
	}
	return w.f.Sync()
}

func (w *CallsitesWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

// ErrPartialCallsite marks a trailing callsite entry that could not be
// decoded in full, mirroring scenario S4's truncation recovery: entries
// read before it remain valid.
var ErrPartialCallsite = errors.New("file: partial trailing callsite entry")

// LoadCallsites reads dir's callsites.rfr in full and populates table with
// every complete callsite entry found. A truncated trailing entry is
// reported as ErrPartialCallsite without discarding the entries already
// added.
func LoadCallsites(dir string, table *chunk.CallsiteTable) error {
	path := filepath.Join(dir, callsitesFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	_, n, err := format.DecodeAndValidate(data, format.VariantCallsites, 1)
	if err != nil {
		return fmt.Errorf("file: decode %s header: %w", callsitesFileName, err)
	}
	rest := data[n:]
	for len(rest) > 0 {
		c, consumed, err := schema.DecodeCallsite(rest)
		if err != nil {
			return ErrPartialCallsite
		}
		if err := table.Add(c); err != nil {
			return err
		}
		rest = rest[consumed:]
	}
	return nil
}

// CallsitesTailer incrementally re-reads callsites.rfr as it grows, for a
// reader running alongside a live writer (scenario S5). It remembers the
// byte offset already consumed so a re-scan only parses new entries.
type CallsitesTailer struct {
	path   string
	offset int64
	table  *chunk.CallsiteTable
}

// NewCallsitesTailer opens dir's callsites.rfr, validates its header, and
// returns a tailer positioned at the first entry. table may already contain
// entries from a prior LoadCallsites call. The file is permitted to not
// exist yet — the writer may not have registered any callsite at all — in
// which case the tailer validates the header lazily on the first Poll.
func NewCallsitesTailer(dir string, table *chunk.CallsiteTable) (*CallsitesTailer, error) {
	path := filepath.Join(dir, callsitesFileName)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return &CallsitesTailer{path: path, table: table}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	header := make([]byte, 32)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if n == 0 {
		return &CallsitesTailer{path: path, table: table}, nil
	}
	_, hn, err := format.DecodeAndValidate(header[:n], format.VariantCallsites, 1)
	if err != nil {
		return nil, fmt.Errorf("file: decode %s header: %w", callsitesFileName, err)
	}
	return &CallsitesTailer{path: path, offset: int64(hn), table: table}, nil
}

// Poll reads any bytes appended since the last call and adds complete
// callsite entries to the table, leaving a trailing partial entry for the
// next Poll.
func (t *CallsitesTailer) Poll() error {
	f, err := os.Open(t.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	if t.offset == 0 {
		header := make([]byte, 32)
		n, err := f.Read(header)
		if err != nil && err != io.EOF {
			return err
		}
		if n == 0 {
			return nil
		}
		_, hn, err := format.DecodeAndValidate(header[:n], format.VariantCallsites, 1)
		if err != nil {
			return fmt.Errorf("file: decode %s header: %w", callsitesFileName, err)
		}
		t.offset = int64(hn)
	}

	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}
	for len(data) > 0 {
		c, consumed, err := schema.DecodeCallsite(data)
		if err != nil {
			return nil
		}
		if err := t.table.Add(c); err != nil {
			return err
		}
		data = data[consumed:]
		t.offset += int64(consumed)
	}
	return nil
}
