package importers

import (
	"github.com/google/uuid"

	"github.com/spaghettifunk/astra/engine/loader"
)

// BinaryAssetType tags raw, undecoded byte blobs.
var BinaryAssetType = uuid.MustParse("2f7b9e54-0c3d-4a88-b1e2-6d5a8f4c9b07")

// BinaryExtensions are the file extensions the binary importer claims.
var BinaryExtensions = []string{".bin", ".spv"}

type BinaryAsset struct {
	Data []byte
}

type BinaryImporter struct{}

func (BinaryImporter) Import(data []byte) (*BinaryAsset, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return &BinaryAsset{Data: out}, nil
}

// DefaultExtensions maps every canonical file extension to its asset type,
// for daemon registration and packfile building.
func DefaultExtensions() map[string]loader.AssetTypeID {
	m := make(map[string]loader.AssetTypeID)
	for _, ext := range ImageExtensions {
		m[ext] = ImageAssetType
	}
	for _, ext := range BitmapFontExtensions {
		m[ext] = BitmapFontAssetType
	}
	for _, ext := range BinaryExtensions {
		m[ext] = BinaryAssetType
	}
	return m
}
