package backend

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/btree"
	"github.com/pierrec/lz4/v4"

	"github.com/spaghettifunk/astra/engine/loader"
)

type writerEntry struct {
	path   string
	typeID loader.AssetTypeID
	data   []byte
}

// PackfileWriter builds a packfile archive. Entries are kept ordered by path
// so identical inputs always produce identical archives.
type PackfileWriter struct {
	entries *btree.BTreeG[*writerEntry]
}

func NewPackfileWriter() *PackfileWriter {
	return &PackfileWriter{
		entries: btree.NewG[*writerEntry](8, func(a, b *writerEntry) bool {
			return a.path < b.path
		}),
	}
}

// Add records one asset under its archive path. Adding the same path twice
// replaces the earlier entry.
func (w *PackfileWriter) Add(path string, typeID loader.AssetTypeID, data []byte) {
	w.entries.ReplaceOrInsert(&writerEntry{path: path, typeID: typeID, data: data})
}

// AddDir walks root and adds every file whose extension appears in types,
// keyed by its slash-separated path relative to root.
func (w *PackfileWriter) AddDir(root string, types map[string]loader.AssetTypeID) error {
	return filepath.Walk(root, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		typeID, ok := types[strings.ToLower(filepath.Ext(walkPath))]
		if !ok {
			return nil
		}
		rel, err := filepath.Rel(root, walkPath)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(walkPath)
		if err != nil {
			return err
		}
		w.Add(filepath.ToSlash(rel), typeID, data)
		return nil
	})
}

// Len returns the number of staged entries.
func (w *PackfileWriter) Len() int {
	return w.entries.Len()
}

// WriteTo writes the archive. It satisfies io.WriterTo.
func (w *PackfileWriter) WriteTo(out io.Writer) (int64, error) {
	cw := &countingWriter{w: out}

	header := make([]byte, packHeaderSize)
	copy(header, packMagic)
	binary.LittleEndian.PutUint16(header[4:6], packVersion)
	if _, err := cw.Write(header); err != nil {
		return cw.n, err
	}

	type placed struct {
		entry  *writerEntry
		offset int64
		size   int64
	}
	placements := make([]placed, 0, w.entries.Len())

	var writeErr error
	w.entries.Ascend(func(entry *writerEntry) bool {
		offset := cw.n
		zw := lz4.NewWriter(cw)
		if _, err := zw.Write(entry.data); err != nil {
			writeErr = err
			return false
		}
		if err := zw.Close(); err != nil {
			writeErr = err
			return false
		}
		placements = append(placements, placed{entry: entry, offset: offset, size: cw.n - offset})
		return true
	})
	if writeErr != nil {
		return cw.n, fmt.Errorf("compressing packfile entry: %w", writeErr)
	}

	indexOffset := cw.n
	var scratch [24]byte
	for _, p := range placements {
		if len(p.entry.path) > 0xFFFF {
			return cw.n, fmt.Errorf("packfile path too long: %q", p.entry.path)
		}
		binary.LittleEndian.PutUint16(scratch[0:2], uint16(len(p.entry.path)))
		if _, err := cw.Write(scratch[0:2]); err != nil {
			return cw.n, err
		}
		if _, err := io.WriteString(cw, p.entry.path); err != nil {
			return cw.n, err
		}
		typeID := p.entry.typeID
		if _, err := cw.Write(typeID[:]); err != nil {
			return cw.n, err
		}
		binary.LittleEndian.PutUint64(scratch[0:8], uint64(p.offset))
		binary.LittleEndian.PutUint64(scratch[8:16], uint64(p.size))
		binary.LittleEndian.PutUint64(scratch[16:24], uint64(len(p.entry.data)))
		if _, err := cw.Write(scratch[:]); err != nil {
			return cw.n, err
		}
	}

	trailer := make([]byte, packTrailerSize)
	binary.LittleEndian.PutUint64(trailer[0:8], uint64(indexOffset))
	binary.LittleEndian.PutUint32(trailer[8:12], uint32(len(placements)))
	copy(trailer[12:16], packTrailerMagic)
	if _, err := cw.Write(trailer); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// WriteFile writes the archive to path, replacing any existing file.
func (w *PackfileWriter) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := w.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
