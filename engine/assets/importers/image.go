package importers

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/google/uuid"
)

// ImageAssetType tags decoded images for storage dispatch. The ID is fixed
// here rather than derived from the type so it stays stable across builds,
// packfiles and the daemon protocol.
var ImageAssetType = uuid.MustParse("8a3f3f2e-9d6a-4d52-9b0e-1f6a0c7c2a31")

// ImageExtensions are the file extensions the image importer claims.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tiff"}

// ImageAsset is a decoded image together with the format it was decoded from.
type ImageAsset struct {
	Image  image.Image
	Format string
}

type ImageImporter struct{}

func (ImageImporter) Import(data []byte) (*ImageAsset, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return &ImageAsset{Image: img, Format: format}, nil
}
