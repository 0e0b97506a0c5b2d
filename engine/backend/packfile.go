package backend

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/google/btree"
	"github.com/google/uuid"
	"github.com/pierrec/lz4/v4"

	"github.com/spaghettifunk/astra/engine/loader"
)

// Archive layout, little-endian throughout:
//
//	header:  "ASTP" | u16 format version | u16 reserved
//	entries: lz4 frames, back to back
//	index:   per entry: u16 path length | path | 16-byte type id |
//	         u64 offset | u64 compressed size | u64 raw size
//	trailer: u64 index offset | u32 entry count | "ASTX"
const (
	packMagic        = "ASTP"
	packTrailerMagic = "ASTX"
	packVersion      = 1
	packHeaderSize   = 8
	packTrailerSize  = 16
)

type packEntry struct {
	path    string
	typeID  loader.AssetTypeID
	offset  int64
	size    int64 // compressed
	rawSize int64
}

func packEntryLess(a, b *packEntry) bool {
	return a.path < b.path
}

// PackfileReader serves assets from a single prebuilt read-only archive. It
// implements loader.BackendIO and is safe for concurrent ReadAsset calls.
type PackfileReader struct {
	f       *os.File
	entries map[string]*packEntry
	index   *btree.BTreeG[*packEntry]
}

func OpenPackfile(path string) (*PackfileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	p := &PackfileReader{
		f:       f,
		entries: make(map[string]*packEntry),
		index:   btree.NewG[*packEntry](8, packEntryLess),
	}
	if err := p.readIndex(); err != nil {
		f.Close()
		return nil, err
	}
	return p, nil
}

// ReadAsset decompresses and returns the entry for locator together with its
// asset type tag.
func (p *PackfileReader) ReadAsset(locator string) (loader.AssetTypeID, []byte, error) {
	entry, ok := p.entries[locator]
	if !ok {
		return loader.AssetTypeID{}, nil, fmt.Errorf("%q: %w", locator, ErrNotFound)
	}
	section := io.NewSectionReader(p.f, entry.offset, entry.size)
	data, err := io.ReadAll(lz4.NewReader(section))
	if err != nil {
		return loader.AssetTypeID{}, nil, fmt.Errorf("reading packfile entry %q: %w", locator, err)
	}
	if int64(len(data)) != entry.rawSize {
		return loader.AssetTypeID{}, nil, fmt.Errorf("packfile entry %q: expected %d bytes, got %d: %w",
			locator, entry.rawSize, len(data), ErrBadPackfile)
	}
	return entry.typeID, data, nil
}

// ListAssets returns every archived path in lexical order.
func (p *PackfileReader) ListAssets() []string {
	paths := make([]string, 0, p.index.Len())
	p.index.Ascend(func(entry *packEntry) bool {
		paths = append(paths, entry.path)
		return true
	})
	return paths
}

// Len returns the number of archived assets.
func (p *PackfileReader) Len() int {
	return p.index.Len()
}

func (p *PackfileReader) Close() error {
	return p.f.Close()
}

func (p *PackfileReader) readIndex() error {
	info, err := p.f.Stat()
	if err != nil {
		return err
	}
	if info.Size() < packHeaderSize+packTrailerSize {
		return fmt.Errorf("%w: file too small", ErrBadPackfile)
	}

	header := make([]byte, packHeaderSize)
	if _, err := p.f.ReadAt(header, 0); err != nil {
		return err
	}
	if string(header[:4]) != packMagic {
		return fmt.Errorf("%w: bad header magic", ErrBadPackfile)
	}
	if v := binary.LittleEndian.Uint16(header[4:6]); v != packVersion {
		return fmt.Errorf("%w: unsupported format version %d", ErrBadPackfile, v)
	}

	trailer := make([]byte, packTrailerSize)
	if _, err := p.f.ReadAt(trailer, info.Size()-packTrailerSize); err != nil {
		return err
	}
	if string(trailer[12:16]) != packTrailerMagic {
		return fmt.Errorf("%w: bad trailer magic", ErrBadPackfile)
	}
	indexOffset := int64(binary.LittleEndian.Uint64(trailer[0:8]))
	entryCount := binary.LittleEndian.Uint32(trailer[8:12])
	if indexOffset < packHeaderSize || indexOffset >= info.Size()-packTrailerSize {
		return fmt.Errorf("%w: index offset out of range", ErrBadPackfile)
	}

	indexSize := info.Size() - packTrailerSize - indexOffset
	buf := make([]byte, indexSize)
	if _, err := p.f.ReadAt(buf, indexOffset); err != nil {
		return err
	}

	for i := uint32(0); i < entryCount; i++ {
		if len(buf) < 2 {
			return fmt.Errorf("%w: truncated index", ErrBadPackfile)
		}
		pathLen := int(binary.LittleEndian.Uint16(buf[0:2]))
		buf = buf[2:]
		if len(buf) < pathLen+16+24 {
			return fmt.Errorf("%w: truncated index entry", ErrBadPackfile)
		}
		entry := &packEntry{
			path: string(buf[:pathLen]),
		}
		buf = buf[pathLen:]
		entry.typeID = uuid.UUID(buf[:16])
		buf = buf[16:]
		entry.offset = int64(binary.LittleEndian.Uint64(buf[0:8]))
		entry.size = int64(binary.LittleEndian.Uint64(buf[8:16]))
		entry.rawSize = int64(binary.LittleEndian.Uint64(buf[16:24]))
		buf = buf[24:]

		p.entries[entry.path] = entry
		p.index.ReplaceOrInsert(entry)
	}
	return nil
}
