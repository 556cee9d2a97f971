package imagegen

import (
	"bytes"
	"context"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"

	"livewall-backend-go/internal/models"
)

// PlaceholderGenerator renders a deterministic gradient per prompt. It stands in for the
// model when no AI project is configured (local development with the memory store).
type PlaceholderGenerator struct{}

func (PlaceholderGenerator) Generate(_ context.Context, prompt string) (*models.GeneratedImage, error) {
	const w, h = 90, 160

	sum := fnv.New32a()
	sum.Write([]byte(prompt))
	seed := sum.Sum32()
	from := color.RGBA{uint8(seed), uint8(seed >> 8), uint8(seed >> 16), 0xff}
	to := color.RGBA{0xff - from.R, 0xff - from.G, 0xff - from.B, 0xff}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		c := color.RGBA{
			R: lerp(from.R, to.R, y, h),
			G: lerp(from.G, to.G, y, h),
			B: lerp(from.B, to.B, y, h),
			A: 0xff,
		}
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return &models.GeneratedImage{MIMEType: "image/png", Data: buf.Bytes()}, nil
}

func lerp(a, b uint8, i, n int) uint8 {
	return uint8(int(a) + (int(b)-int(a))*i/(n-1))
}
