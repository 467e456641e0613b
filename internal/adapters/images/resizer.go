package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"sort"

	"github.com/trebuchet-org/profile-factory/internal/domain"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// jpegQuality is used for every JPEG variant
const jpegQuality = 85

// Resizer scales images down to breakpoint widths. Images are never upscaled:
// breakpoints wider than the source collapse into a single original-size variant.
type Resizer struct {
	scaler draw.Scaler
}

// NewResizer creates a resizer using Catmull-Rom interpolation
func NewResizer() *Resizer {
	return &Resizer{scaler: draw.CatmullRom}
}

// Resize returns one variant per distinct target width, widest first
func (r *Resizer) Resize(ctx context.Context, input domain.ImageInput, widths []int) ([]usecase.ResizedImage, error) {
	src, format, err := image.Decode(bytes.NewReader(input.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot decode %s: %v", domain.ErrInvalidFileType, input.FileName, err)
	}
	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("%w: %s has no pixels", domain.ErrInvalidFileType, input.FileName)
	}

	targets := targetWidths(bounds.Dx(), widths)
	out := make([]usecase.ResizedImage, 0, len(targets))
	for _, w := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h := max(1, (bounds.Dy()*w+bounds.Dx()/2)/bounds.Dx())
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		r.scaler.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

		data, contentType, err := encode(dst, format)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %dx%d variant of %s: %w", w, h, input.FileName, err)
		}
		out = append(out, usecase.ResizedImage{Width: w, Height: h, ContentType: contentType, Data: data})
	}
	return out, nil
}

// targetWidths clamps widths to the source width, deduplicates and sorts them descending
func targetWidths(srcWidth int, widths []int) []int {
	seen := make(map[int]bool, len(widths))
	var out []int
	for _, w := range widths {
		if w <= 0 {
			continue
		}
		w = min(w, srcWidth)
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	if len(out) == 0 {
		out = []int{srcWidth}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

func encode(img image.Image, format string) ([]byte, string, error) {
	var buf bytes.Buffer
	switch format {
	case "jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/jpeg", nil
	case "gif":
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/gif", nil
	default:
		// webp has no encoder; variants of webp sources are stored as png
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/png", nil
	}
}

var _ usecase.ImageProcessor = (*Resizer)(nil)
