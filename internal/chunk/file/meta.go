// Package file implements the on-disk recording directory of §4.5/§4.6: a
// meta file, an append-only callsites file, and a tree of interval-named
// chunk files, plus the writer, reader, and live-tail watcher over them.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"rfr/internal/codec"
	"rfr/internal/format"
	"rfr/internal/schema"
)

const (
	metaFileName      = "meta.rfr"
	callsitesFileName = "callsites.rfr"
)

// MetaIdentifier is the format identifier written at the head of meta.rfr.
var MetaIdentifier = format.Identifier{Variant: format.VariantMeta, Major: 1, Minor: 0, Patch: 0}

// Meta is the recording directory's fixed metadata record: when the
// recording started and which format identifiers its files use.
type Meta struct {
	CreatedTime       schema.AbsTimestamp
	FormatIdentifiers []string
}

func (m Meta) Encode(buf []byte) []byte {
	buf = MetaIdentifier.Encode(buf)
	buf = m.CreatedTime.Encode(buf)
	buf = codec.AppendSeq(buf, m.FormatIdentifiers, codec.AppendString)
	return buf
}

// DecodeMeta decodes a Meta record, validating its leading format identifier.
func DecodeMeta(buf []byte) (Meta, int, error) {
	_, n1, err := format.DecodeAndValidate(buf, format.VariantMeta, 1)
	if err != nil {
		return Meta{}, 0, err
	}
	off := n1
	created, n2, err := schema.DecodeAbsTimestamp(buf[off:])
	if err != nil {
		return Meta{}, 0, err
	}
	off += n2
	ids, n3, err := codec.ConsumeSeq(buf[off:], codec.ConsumeString)
	if err != nil {
		return Meta{}, 0, err
	}
	off += n3
	return Meta{CreatedTime: created, FormatIdentifiers: ids}, off, nil
}

// WriteMeta atomically (writer-first into a temp file, then rename) writes
// meta.rfr into dir, following the teacher's tempfile-then-rename pattern
// for crash-safe single-file updates.
func WriteMeta(dir string, m Meta) error {
	return atomicWriteFile(filepath.Join(dir, metaFileName), m.Encode(nil))
}

// DirMetaWriter implements chunk.MetaWriter against a recording directory:
// NewEngine calls WriteMeta exactly once, at construction.
type DirMetaWriter struct {
	Dir string
}

func (w DirMetaWriter) WriteMeta(createdTime schema.AbsTimestamp, formatIdentifiers []string) error {
	return WriteMeta(w.Dir, Meta{CreatedTime: createdTime, FormatIdentifiers: formatIdentifiers})
}

// ReadMeta reads and decodes meta.rfr from dir.
func ReadMeta(dir string) (Meta, error) {
	data, err := os.ReadFile(filepath.Join(dir, metaFileName))
	if err != nil {
		return Meta{}, err
	}
	m, _, err := DecodeMeta(data)
	if err != nil {
		return Meta{}, fmt.Errorf("file: decode %s: %w", metaFileName, err)
	}
	return m, nil
}

// atomicWriteFile writes data to path by creating a temp file in the same
// directory, writing, syncing and closing it, then renaming over path.
// Grounded on the teacher's meta_store.go write path: create-temp, chmod,
// write, close, rename, so a reader never observes a partially written file.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

