// Package thumbnail generates fixed-width scaled variants of uploaded
// images.
package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// Widths are the derived-artifact sizes produced for every image upload.
var Widths = []int{100, 250, 500}

// Generate decodes data, scales it to the given width preserving aspect
// ratio, and re-encodes it in the source format.
//
// PNG, JPEG and GIF are supported (GIF re-encodes first frame only, which is
// what a thumbnail wants). The scaler is Catmull-Rom: slower than
// nearest-neighbor but visibly better on downscaled photos, and thumbnail
// derivation is already an offline path.
func Generate(data []byte, width int) ([]byte, error) {
	if width <= 0 {
		return nil, fmt.Errorf("invalid thumbnail width %d", width)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("image has no pixels")
	}

	height := bounds.Dy() * width / bounds.Dx()
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, dst, nil)
	case "gif":
		err = gif.Encode(&buf, dst, nil)
	default:
		err = png.Encode(&buf, dst)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s thumbnail: %w", format, err)
	}
	return buf.Bytes(), nil
}
