package images

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/profile-factory/internal/domain"
)

func testImage(t *testing.T, w, h int, encode func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, encode(&buf, img))
	return buf.Bytes()
}

func encodePNG(buf *bytes.Buffer, img image.Image) error { return png.Encode(buf, img) }
func encodeJPEG(buf *bytes.Buffer, img image.Image) error {
	return jpeg.Encode(buf, img, nil)
}

func TestResizer_NeverUpscales(t *testing.T) {
	data := testImage(t, 400, 200, encodePNG)
	r := NewResizer()

	variants, err := r.Resize(context.Background(), domain.ImageInput{AssetInput: domain.AssetInput{
		FileName: "avatar.png",
		Data:     data,
	}}, []int{1800, 1024, 640, 320, 180})
	require.NoError(t, err)

	require.Len(t, variants, 3)
	assert.Equal(t, 400, variants[0].Width)
	assert.Equal(t, 200, variants[0].Height)
	assert.Equal(t, 320, variants[1].Width)
	assert.Equal(t, 160, variants[1].Height)
	assert.Equal(t, 180, variants[2].Width)
	assert.Equal(t, 90, variants[2].Height)

	for _, v := range variants {
		assert.Equal(t, "image/png", v.ContentType)
		cfg, format, err := image.DecodeConfig(bytes.NewReader(v.Data))
		require.NoError(t, err)
		assert.Equal(t, "png", format)
		assert.Equal(t, v.Width, cfg.Width)
		assert.Equal(t, v.Height, cfg.Height)
	}
}

func TestResizer_KeepsJPEG(t *testing.T) {
	data := testImage(t, 64, 48, encodeJPEG)
	variants, err := NewResizer().Resize(context.Background(), domain.ImageInput{AssetInput: domain.AssetInput{
		FileName: "bg.jpg",
		Data:     data,
	}}, []int{32})
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, "image/jpeg", variants[0].ContentType)
	assert.Equal(t, 32, variants[0].Width)
	assert.Equal(t, 24, variants[0].Height)
}

func TestResizer_RejectsGarbage(t *testing.T) {
	_, err := NewResizer().Resize(context.Background(), domain.ImageInput{AssetInput: domain.AssetInput{
		FileName: "fake.png",
		Data:     []byte("not an image"),
	}}, []int{100})
	assert.ErrorIs(t, err, domain.ErrInvalidFileType)
}

func TestTargetWidths(t *testing.T) {
	assert.Equal(t, []int{100, 50}, targetWidths(100, []int{50, 200, 100, 0, -1}))
	assert.Equal(t, []int{80}, targetWidths(80, nil))
}
