package imaging

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	return img
}

func decodeBounds(t *testing.T, data []byte) image.Rectangle {
	t.Helper()
	img, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	return img.Bounds()
}

func TestThumbnailScalesPNG(t *testing.T) {
	var src bytes.Buffer
	require.NoError(t, png.Encode(&src, solid(800, 400)))

	out, err := Thumbnail(&src, 200)
	require.NoError(t, err)

	b := decodeBounds(t, out)
	assert.Equal(t, 200, b.Dx())
	assert.Equal(t, 100, b.Dy())
}

func TestThumbnailDecodesBMP(t *testing.T) {
	var src bytes.Buffer
	require.NoError(t, bmp.Encode(&src, solid(100, 300)))

	out, err := Thumbnail(&src, 150)
	require.NoError(t, err)

	b := decodeBounds(t, out)
	assert.Equal(t, 50, b.Dx())
	assert.Equal(t, 150, b.Dy())
}

func TestThumbnailKeepsSmallImages(t *testing.T) {
	var src bytes.Buffer
	require.NoError(t, png.Encode(&src, solid(40, 30)))

	out, err := Thumbnail(&src, 0)
	require.NoError(t, err)

	b := decodeBounds(t, out)
	assert.Equal(t, 40, b.Dx())
	assert.Equal(t, 30, b.Dy())
}

func TestThumbnailRejectsGarbage(t *testing.T) {
	_, err := Thumbnail(bytes.NewReader([]byte("not an image")), 100)
	assert.ErrorIs(t, err, ErrUndecodable)
}

// pngHeader returns a PNG that declares w x h pixels but carries no image data.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 2 // truecolor

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestThumbnailRejectsOversizedDimensions(t *testing.T) {
	_, err := Thumbnail(bytes.NewReader(pngHeader(5000, 4000)), 100)
	assert.ErrorIs(t, err, ErrUndecodable)
	assert.ErrorContains(t, err, "exceeds pixel limit")
}

func TestThumbnailDoesNotDecodeGIF(t *testing.T) {
	gif := []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff" +
		",\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;")
	_, err := Thumbnail(bytes.NewReader(gif), 100)
	assert.ErrorIs(t, err, ErrUndecodable)
	assert.ErrorContains(t, err, image.ErrFormat.Error())
}
