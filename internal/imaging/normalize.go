// Package imaging converts arbitrary input images to the canonical encoding
// used throughout the refinement pipeline: WebP at fixed quality, alpha
// channel present, bounded dimensions.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/chai2010/webp"
	"github.com/rs/zerolog/log"
	xdraw "golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxInputDimension is the bounding box (width and height) that uploaded
// images are downscaled to fit within. Images are never upscaled.
const MaxInputDimension = 1536

// canonicalQuality is the WebP quality used for all normalized output.
const canonicalQuality = 85

// CanonicalMIMEType is the MIME type of every normalized image.
const CanonicalMIMEType = "image/webp"

// ErrDecode indicates the input bytes are not a decodable image.
var ErrDecode = errors.New("input is not a decodable image")

// Asset is an encoded image together with its MIME type.
// An Asset is immutable once constructed.
type Asset struct {
	Data     []byte
	MIMEType string
}

// Normalize decodes arbitrary image bytes and re-encodes them canonically,
// downscaling to fit within MaxInputDimension while preserving aspect ratio.
// Used for initial uploads.
func Normalize(data []byte) (Asset, error) {
	return normalize(data, MaxInputDimension)
}

// NormalizeCandidate re-encodes a generated candidate canonically without any
// resize constraint. Candidates are assumed already reasonably sized; only
// the alpha channel and encoding are normalized.
func NormalizeCandidate(data []byte) (Asset, error) {
	return normalize(data, 0)
}

func normalize(data []byte, maxDimension int) (Asset, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := img.Bounds()
	origWidth := bounds.Dx()
	origHeight := bounds.Dy()

	width, height := origWidth, origHeight
	if maxDimension > 0 {
		width, height = fitDimensions(origWidth, origHeight, maxDimension)
	}

	// Drawing into a fresh NRGBA forces the alpha channel to be present
	// regardless of the source color model.
	canonical := image.NewNRGBA(image.Rect(0, 0, width, height))
	if width == origWidth && height == origHeight {
		draw.Draw(canonical, canonical.Bounds(), img, bounds.Min, draw.Src)
	} else {
		xdraw.CatmullRom.Scale(canonical, canonical.Bounds(), img, bounds, xdraw.Src, nil)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, canonical, &webp.Options{Quality: canonicalQuality}); err != nil {
		return Asset{}, fmt.Errorf("failed to encode canonical WebP: %w", err)
	}

	log.Debug().
		Str("input_format", format).
		Int("orig_width", origWidth).
		Int("orig_height", origHeight).
		Int("width", width).
		Int("height", height).
		Int("output_size", buf.Len()).
		Msg("Image normalized")

	return Asset{Data: buf.Bytes(), MIMEType: CanonicalMIMEType}, nil
}

// fitDimensions scales (width, height) down to fit within maxDimension,
// preserving aspect ratio. Dimensions already within the box are unchanged.
func fitDimensions(width, height, maxDimension int) (int, int) {
	if width <= maxDimension && height <= maxDimension {
		return width, height
	}

	if width >= height {
		newHeight := height * maxDimension / width
		if newHeight < 1 {
			newHeight = 1
		}
		return maxDimension, newHeight
	}

	newWidth := width * maxDimension / height
	if newWidth < 1 {
		newWidth = 1
	}
	return newWidth, maxDimension
}
