package transcode

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/webpify/errors"
)

func opaqueJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: 80, B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func transparentPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Left half fully transparent, right half opaque
			a := uint8(0)
			if x >= w/2 {
				a = 255
			}
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 30, B: 30, A: a})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func opaquePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 10, G: 200, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func animatedGIF(t *testing.T, delays []int, loopCount int) []byte {
	t.Helper()
	palette := []color.Color{
		color.RGBA{A: 255},
		color.RGBA{R: 255, A: 255},
		color.RGBA{G: 255, A: 255},
		color.RGBA{B: 255, A: 255},
	}
	g := &gif.GIF{LoopCount: loopCount}
	for i, delay := range delays {
		frame := image.NewPaletted(image.Rect(0, 0, 32, 32), palette)
		for p := range frame.Pix {
			frame.Pix[p] = uint8(i % len(palette))
		}
		g.Image = append(g.Image, frame)
		g.Delay = append(g.Delay, delay)
		g.Disposal = append(g.Disposal, gif.DisposalNone)
	}
	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, g))
	return buf.Bytes()
}

func TestTranscodeOpaqueJPEG(t *testing.T) {
	res := Transcode(opaqueJPEG(t, 64, 48), 85)

	require.True(t, res.Converted(), "expected conversion, got %+v", res)
	assert.Equal(t, KindOpaque, res.Kind)
	require.NotEmpty(t, res.Data)

	out, err := webp.DecodeRGBA(res.Data)
	require.NoError(t, err, "output must decode as webp")
	assert.Equal(t, 64, out.Bounds().Dx())
	assert.Equal(t, 48, out.Bounds().Dy())
	assert.True(t, out.Opaque(), "opaque input must yield opaque output")
}

func TestTranscodePreservesAlpha(t *testing.T) {
	res := Transcode(transparentPNG(t, 40, 40), 85)

	require.True(t, res.Converted(), "expected conversion, got %+v", res)
	assert.Equal(t, KindAlpha, res.Kind)

	out, err := webp.DecodeRGBA(res.Data)
	require.NoError(t, err)
	assert.False(t, out.Opaque(), "transparency must survive the round trip")

	// The transparent half must stay transparent, not flatten to a background
	_, _, _, a := out.At(2, 20).RGBA()
	assert.Zero(t, a, "transparent pixel flattened to opaque")
}

func TestTranscodeOpaquePNGTakesRGBPath(t *testing.T) {
	res := Transcode(opaquePNG(t, 20, 20), 85)

	require.True(t, res.Converted())
	assert.Equal(t, KindOpaque, res.Kind)
}

func TestTranscodeAnimatedGIF(t *testing.T) {
	// Delays in hundredths of a second: 20, 30, 40 → 200ms, 300ms, 400ms
	data := animatedGIF(t, []int{20, 30, 40}, 0)

	res := Transcode(data, 85)
	require.True(t, res.Converted(), "expected conversion, got %+v", res)
	assert.Equal(t, KindAnimated, res.Kind)

	anim, err := parseAnimation(res.Data)
	require.NoError(t, err)
	assert.Equal(t, 3, anim.frameCount)
	assert.Equal(t, []int{200, 300, 400}, anim.durations)
	assert.Equal(t, 0, anim.loopCount, "infinite loop must stay infinite")
}

func TestTranscodeAnimatedGIFFiniteLoop(t *testing.T) {
	data := animatedGIF(t, []int{10, 10}, 3)

	res := Transcode(data, 85)
	require.True(t, res.Converted())

	anim, err := parseAnimation(res.Data)
	require.NoError(t, err)
	assert.Equal(t, 2, anim.frameCount)
	// GIF loop count n means n+1 plays
	assert.Equal(t, 4, anim.loopCount)
}

func TestTranscodeDefaultFrameDuration(t *testing.T) {
	data := animatedGIF(t, []int{0, 0}, 0)

	res := Transcode(data, 85)
	require.True(t, res.Converted())

	anim, err := parseAnimation(res.Data)
	require.NoError(t, err)
	assert.Equal(t, []int{100, 100}, anim.durations, "zero delays fall back to 100ms")
}

func TestTranscodeSingleFrameGIF(t *testing.T) {
	data := animatedGIF(t, []int{10}, 0)

	res := Transcode(data, 85)
	require.True(t, res.Converted(), "expected conversion, got %+v", res)
	assert.NotEqual(t, KindAnimated, res.Kind, "single frame must not take the animated path")
}

func TestTranscodeUnreadableBytes(t *testing.T) {
	res := Transcode([]byte("definitely not an image"), 85)

	require.True(t, res.Failed())
	assert.True(t, errors.IsUnreadableImageError(res.Err), "want unreadable classification, got %v", res.Err)
	assert.Empty(t, res.Data)
}

func TestTranscodeTruncatedGIF(t *testing.T) {
	data := animatedGIF(t, []int{10, 10}, 0)
	res := Transcode(data[:len(data)/3], 85)

	require.True(t, res.Failed())
	assert.True(t, errors.IsUnreadableImageError(res.Err))
}

func TestTranscodeEmptyInput(t *testing.T) {
	res := Transcode(nil, 85)

	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.False(t, res.Converted())
	assert.False(t, res.Failed())
}

func TestLoopCountMapping(t *testing.T) {
	tests := []struct {
		name string
		gif  int
		webp int
	}{
		{"infinite stays infinite", 0, 0},
		{"play once", -1, 1},
		{"three repeats means four plays", 3, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := loopCount(tt.gif); got != tt.webp {
				t.Errorf("loopCount(%d) = %d, want %d", tt.gif, got, tt.webp)
			}
		})
	}
}
