// Package preprocess turns decoded images into model input tensors.
package preprocess

import (
	"image"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"

	"github.com/Brownie44l1/leaf-diagnose-api/internal/model"
)

// Interpolation is the resampling filter the classifier was exported with.
// Changing it silently shifts accuracy, so it is not configurable.
const Interpolation = resize.Bicubic

// Preprocessor applies the export-time transform to uploaded images.
type Preprocessor struct {
	cfg model.PreprocessConfig
}

// New returns a Preprocessor for cfg.
func New(cfg model.PreprocessConfig) *Preprocessor {
	return &Preprocessor{cfg: cfg}
}

// Prepare converts img to RGB, resizes it to the configured input size,
// scales to [0,1], normalizes per channel and returns the values in
// [1, 3, H, W] order.
func (p *Preprocessor) Prepare(img image.Image) []float32 {
	w, h := p.cfg.InputWidth, p.cfg.InputHeight

	rgb := toRGB(img)
	resized := resize.Resize(uint(w), uint(h), rgb, Interpolation)

	plane := w * h
	out := make([]float32, 3*plane)
	bounds := resized.Bounds()

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			i := y*w + x
			out[i] = normalize(r, p.cfg.Mean[0], p.cfg.Std[0])
			out[plane+i] = normalize(g, p.cfg.Mean[1], p.cfg.Std[1])
			out[2*plane+i] = normalize(b, p.cfg.Mean[2], p.cfg.Std[2])
		}
	}
	return out
}

// normalize quantizes a 16-bit channel to 8 bits first so values match a
// uint8 RGB pipeline.
func normalize(v uint32, mean, std float32) float32 {
	return (float32(v>>8)/255.0 - mean) / std
}

// toRGB drops alpha and any palette or colour model, keeping the stored
// (non-premultiplied) colour of every pixel.
func toRGB(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)

	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}
