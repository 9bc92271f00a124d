// Package thumbnail produces small, captioned, size-bounded previews of
// image payloads for local caching.
package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/secretshelf/secretshelf/internal/cerrors"
)

const (
	// boxSize is the bounding box the thumbnail must fit within.
	boxSize = 100
	// quality is the fixed JPEG quality used for re-encoding.
	quality = 20
	// MaxEncodedBytes bounds the encoded thumbnail size. A 100×100
	// JPEG at quality 20 stays far below this.
	MaxEncodedBytes = 16 << 10
)

var (
	fontOnce sync.Once
	captionF *opentype.Font
	fontErr  error
)

func captionFont() (*opentype.Font, error) {
	fontOnce.Do(func() {
		captionF, fontErr = opentype.Parse(goregular.TTF)
	})
	return captionF, fontErr
}

// fit scales (w, h) to fit inside (boxSize, boxSize) preserving aspect
// ratio, never upscaling smaller inputs.
func fit(w, h int) (int, int) {
	if w <= boxSize && h <= boxSize {
		return w, h
	}
	if w >= h {
		return boxSize, h * boxSize / w
	}
	return w * boxSize / h, boxSize
}

// Compress downscales the image to fit within a 100×100 box, overlays
// the caption bottom-anchored with a semi-transparent fill, and
// re-encodes as a low-quality JPEG. On any failure the caller must
// treat the entry as an image without thumbnail.
func Compress(imageBytes []byte, caption string) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %v", cerrors.ErrImageProcessing, err)
	}

	srcBounds := src.Bounds()
	w, h := fit(srcBounds.Dx(), srcBounds.Dy())
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: failed to get image dimensions", cerrors.ErrImageProcessing)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, srcBounds, draw.Src, nil)

	if caption != "" {
		if err := overlayCaption(dst, caption); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("%w: encode thumbnail: %v", cerrors.ErrImageProcessing, err)
	}
	return buf.Bytes(), nil
}

// overlayCaption draws the caption centered near the bottom edge, at a
// font size scaled to the image height, semi-transparent so it stays
// legible over arbitrary backgrounds.
func overlayCaption(dst *image.RGBA, caption string) error {
	fnt, err := captionFont()
	if err != nil {
		return fmt.Errorf("%w: load caption font: %v", cerrors.ErrImageProcessing, err)
	}

	h := dst.Bounds().Dy()
	size := float64(h) / 8
	if size < 8 {
		size = 8
	}

	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("%w: build caption face: %v", cerrors.ErrImageProcessing, err)
	}
	defer face.Close()

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: 178}),
		Face: face,
	}

	width := d.MeasureString(caption)
	x := (fixed.I(dst.Bounds().Dx()) - width) / 2
	if x < 0 {
		x = 0
	}
	d.Dot = fixed.Point26_6{X: x, Y: fixed.I(h * 9 / 10)}
	d.DrawString(caption)
	return nil
}
