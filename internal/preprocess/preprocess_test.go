package preprocess

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/leaf-diagnose-api/internal/model"
)

const tolerance = 0.02

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func gradient(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 11), B: uint8((x + y) * 3), A: 0xff})
		}
	}
	return img
}

func TestPrepareShape(t *testing.T) {
	p := New(model.PreprocessConfig{InputWidth: 6, InputHeight: 4, Std: [3]float32{1, 1, 1}})

	out := p.Prepare(gradient(31, 17))
	assert.Len(t, out, 3*4*6)
}

func TestPrepareNormalizesPerChannel(t *testing.T) {
	p := New(model.PreprocessConfig{
		InputWidth:  5,
		InputHeight: 3,
		Mean:        [3]float32{0.5, 0.5, 0.5},
		Std:         [3]float32{0.5, 0.5, 0.25},
	})

	out := p.Prepare(solid(20, 12, color.RGBA{R: 255, G: 0, B: 51, A: 255}))
	plane := 5 * 3
	require.Len(t, out, 3*plane)

	for i := 0; i < plane; i++ {
		assert.InDelta(t, 1.0, out[i], tolerance)
		assert.InDelta(t, -1.0, out[plane+i], tolerance)
		assert.InDelta(t, (0.2-0.5)/0.25, out[2*plane+i], tolerance)
	}
}

func TestPrepareIsDeterministic(t *testing.T) {
	p := New(model.PreprocessConfig{
		InputWidth:  8,
		InputHeight: 8,
		Mean:        [3]float32{0.485, 0.456, 0.406},
		Std:         [3]float32{0.229, 0.224, 0.225},
	})
	img := gradient(23, 29)

	assert.Equal(t, p.Prepare(img), p.Prepare(img))
}

func TestPrepareGrayscaleFillsAllChannels(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 9, 9))
	for i := range gray.Pix {
		gray.Pix[i] = uint8(i * 3)
	}
	p := New(model.PreprocessConfig{InputWidth: 4, InputHeight: 4, Std: [3]float32{1, 1, 1}})

	out := p.Prepare(gray)
	plane := 16
	for i := 0; i < plane; i++ {
		assert.Equal(t, out[i], out[plane+i])
		assert.Equal(t, out[i], out[2*plane+i])
	}
}

func TestPrepareIgnoresAlpha(t *testing.T) {
	p := New(model.PreprocessConfig{InputWidth: 2, InputHeight: 2, Std: [3]float32{1, 1, 1}})

	translucent := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(translucent.Pix); i += 4 {
		translucent.Pix[i], translucent.Pix[i+1], translucent.Pix[i+2], translucent.Pix[i+3] = 200, 100, 50, 128
	}

	out := p.Prepare(translucent)
	assert.InDelta(t, 200.0/255, out[0], tolerance)
	assert.InDelta(t, 100.0/255, out[4], tolerance)
	assert.InDelta(t, 50.0/255, out[8], tolerance)
}

func TestPrepareHonoursImageOrigin(t *testing.T) {
	p := New(model.PreprocessConfig{InputWidth: 2, InputHeight: 2, Std: [3]float32{1, 1, 1}})

	full := solid(10, 10, color.RGBA{G: 255, A: 255}).(*image.RGBA)
	sub := full.SubImage(image.Rect(3, 3, 8, 8))

	out := p.Prepare(sub)
	assert.InDelta(t, 0.0, out[0], tolerance)
	assert.InDelta(t, 1.0, out[4], tolerance)
}
