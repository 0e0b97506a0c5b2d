package importers

import (
	"bytes"
	"fmt"

	"github.com/fzipp/bmfont"
	"github.com/google/uuid"
)

// BitmapFontAssetType tags parsed AngelCode bitmap font descriptors.
var BitmapFontAssetType = uuid.MustParse("d4c1f6b2-7a1e-4f0c-8d6e-3b9a5c2e7f18")

// BitmapFontExtensions are the file extensions the font importer claims.
var BitmapFontExtensions = []string{".fnt"}

// BitmapFontAsset carries the parsed descriptor. The page images it refers to
// are separate assets, loaded through the image importer.
type BitmapFontAsset struct {
	Descriptor *bmfont.Descriptor
}

type BitmapFontImporter struct{}

func (BitmapFontImporter) Import(data []byte) (*BitmapFontAsset, error) {
	desc, err := bmfont.ReadDescriptor(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse bitmap font descriptor: %w", err)
	}
	return &BitmapFontAsset{Descriptor: desc}, nil
}
