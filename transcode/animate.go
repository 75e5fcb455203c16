package transcode

import (
	"bytes"
	"image"
	"image/draw"
	"image/gif"

	"github.com/sizeofint/webpanimation"

	"github.com/teranos/webpify/errors"
)

// defaultFrameDuration applies when a frame declares no delay of its own.
const defaultFrameDuration = 100 // milliseconds

// encodeAnimation re-encodes an animated GIF as a lossy animated WebP,
// preserving frame order, per-frame durations, and loop count.
func encodeAnimation(g *gif.GIF, quality int) ([]byte, error) {
	frames, durations := flattenFrames(g)
	if len(frames) == 0 {
		return nil, errors.New("no frames decoded")
	}

	bounds := frames[0].Bounds()
	anim := webpanimation.NewWebpAnimation(bounds.Dx(), bounds.Dy(), loopCount(g.LoopCount))
	defer anim.ReleaseMemory()

	cfg := webpanimation.NewWebpConfig()
	cfg.SetLossless(0)
	cfg.SetQuality(float32(quality))

	// AddFrame takes the cumulative timestamp at which the frame starts;
	// one trailing nil frame closes the timeline so the last frame keeps
	// its duration.
	timeline := 0
	for i, frame := range frames {
		if err := anim.AddFrame(frame, timeline, cfg); err != nil {
			return nil, errors.Wrapf(err, "add frame %d", i)
		}
		timeline += durations[i]
	}
	if err := anim.AddFrame(nil, timeline, cfg); err != nil {
		return nil, errors.Wrap(err, "close timeline")
	}

	var buf bytes.Buffer
	if err := anim.Encode(&buf); err != nil {
		return nil, errors.Wrap(err, "encode animation")
	}
	return buf.Bytes(), nil
}

// flattenFrames composites the possibly-partial paletted GIF frames into
// full RGBA frames, honoring each frame's disposal method, and resolves
// per-frame durations in milliseconds.
func flattenFrames(g *gif.GIF) ([]*image.NRGBA, []int) {
	if len(g.Image) == 0 {
		return nil, nil
	}

	w, h := g.Config.Width, g.Config.Height
	if w == 0 || h == 0 {
		b := g.Image[0].Bounds()
		w, h = b.Max.X, b.Max.Y
	}
	canvasRect := image.Rect(0, 0, w, h)
	canvas := image.NewNRGBA(canvasRect)

	frames := make([]*image.NRGBA, 0, len(g.Image))
	durations := make([]int, 0, len(g.Image))

	for i, src := range g.Image {
		var before *image.NRGBA
		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalPrevious {
			before = cloneNRGBA(canvas)
		}

		draw.Draw(canvas, src.Bounds().Intersect(canvasRect), src, src.Bounds().Min, draw.Over)
		frames = append(frames, cloneNRGBA(canvas))

		duration := 0
		if i < len(g.Delay) {
			duration = g.Delay[i] * 10 // GIF delays are hundredths of a second
		}
		if duration <= 0 {
			duration = defaultFrameDuration
		}
		durations = append(durations, duration)

		if i < len(g.Disposal) {
			switch g.Disposal[i] {
			case gif.DisposalBackground:
				clearRect(canvas, src.Bounds().Intersect(canvasRect))
			case gif.DisposalPrevious:
				canvas = before
			}
		}
	}

	return frames, durations
}

// loopCount maps GIF loop semantics onto WebP's ANIM loop field.
// GIF: 0 loops forever, -1 plays once, n repeats n+1 times.
// WebP: 0 loops forever, n plays n times.
func loopCount(gifLoops int) int {
	switch {
	case gifLoops == 0:
		return 0
	case gifLoops < 0:
		return 1
	default:
		return gifLoops + 1
	}
}

func cloneNRGBA(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

func clearRect(img *image.NRGBA, r image.Rectangle) {
	draw.Draw(img, r, image.Transparent, image.Point{}, draw.Src)
}
