package screenshot

import (
	"bytes"
	"fmt"

	"shopping-agent/internal/domain/entity"

	"github.com/disintegration/imaging"
)

const (
	MaxWidth    = 1024
	JPEGQuality = 75
)

// Downscale decodes a PNG or JPEG image, shrinks it to at most MaxWidth
// pixels wide and re-encodes it as JPEG.
func Downscale(data []byte) (*entity.Screenshot, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > MaxWidth {
		img = imaging.Resize(img, MaxWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}
