package tools

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"
)

// InvertTool inverts the colors of a raster image. Whatever the input
// format, the output is always PNG so the alpha channel survives.
type InvertTool struct{}

func NewInvertTool() *InvertTool {
	return &InvertTool{}
}

func (t *InvertTool) Name() string {
	return "invert"
}

func (t *InvertTool) BriefDescription() string {
	return "color inversion"
}

func (t *InvertTool) LongDescription() string {
	return "Inverts the RGB channels of every pixel, preserving alpha. The result is encoded as PNG."
}

func (t *InvertTool) ProcessableContentTypes() []string {
	return []string{"image/png", "image/jpeg", "image/gif"}
}

func (t *InvertTool) ProcessFile(_ context.Context, content []byte, contentType string) ([]byte, string, error) {
	src, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, "", fmt.Errorf("decoding %s image: %w", contentType, err)
	}

	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			dst.SetNRGBA(x, y, color.NRGBA{
				R: 255 - c.R,
				G: 255 - c.G,
				B: 255 - c.B,
				A: c.A,
			})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, "", fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), "image/png", nil
}
