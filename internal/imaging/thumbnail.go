// Package imaging renders downscaled previews of stored request images.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"io"

	_ "golang.org/x/image/bmp" // Register BMP decoder
	xdraw "golang.org/x/image/draw"
)

const (
	// ThumbnailSize bounds the longest edge of a thumbnail.
	ThumbnailSize = 320
	JPEGQuality   = 82
	// MaxSourcePixels guards against decompression bombs.
	MaxSourcePixels = 16_000_000
)

// ErrUndecodable is returned when the source is not a supported image.
var ErrUndecodable = errors.New("image cannot be decoded")

// Thumbnail decodes src and returns a JPEG no larger than maxEdge on either side.
func Thumbnail(src io.Reader, maxEdge int) ([]byte, error) {
	if maxEdge <= 0 {
		maxEdge = ThumbnailSize
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxSourcePixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds pixel limit", ErrUndecodable, cfg.Width, cfg.Height)
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, resizeToFit(decoded, maxEdge, maxEdge), &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}
