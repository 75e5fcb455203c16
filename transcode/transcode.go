// Package transcode converts raw image bytes to lossy WebP.
//
// Three encode paths exist, chosen by what the source actually needs:
// animated multi-frame sources keep their frames, per-frame durations,
// and loop count; sources with transparency keep their alpha channel;
// everything else takes the plain RGB path. There is deliberately no
// lossless path — this is a lossy migration encoder, and quality is the
// only tunable.
package transcode

import (
	"bytes"
	"image"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/teranos/webpify/errors"
)

// Extension is the filename extension for converted output.
const Extension = ".webp"

// MIMEType is the declared content type for converted output.
const MIMEType = "image/webp"

// Transcode converts one image to lossy WebP at the given quality (0-100).
// It never panics and never returns a raw error: decode and encode
// failures come back as a Failed result carrying the cause.
func Transcode(data []byte, quality int) Result {
	if len(data) == 0 {
		return skipped("no data")
	}

	// Animated sources are detected before the generic decode, which
	// would silently flatten them to their first frame.
	if isGIF(data) {
		g, err := gif.DecodeAll(bytes.NewReader(data))
		if err != nil {
			return failed("gif decode", errors.Wrap(errors.ErrUnreadableImage, err.Error()))
		}
		if len(g.Image) > 1 {
			out, err := encodeAnimation(g, quality)
			if err != nil {
				return failed("animated webp encode", errors.Wrap(errors.ErrEncodeFailed, err.Error()))
			}
			return converted(out, KindAnimated)
		}
		// Single-frame GIF degrades to the still paths below
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return failed("image decode", errors.Wrap(errors.ErrUnreadableImage, err.Error()))
	}

	if isOpaque(img) {
		out, err := webp.EncodeRGB(img, float32(quality))
		if err != nil {
			return failed("webp encode", errors.Wrap(errors.ErrEncodeFailed, err.Error()))
		}
		return converted(out, KindOpaque)
	}

	// Transparency present: normalize to an NRGBA canvas and keep the
	// alpha channel through the lossy encode
	rgba := imaging.Clone(img)
	out, err := webp.EncodeRGBA(rgba, float32(quality))
	if err != nil {
		return failed("webp encode", errors.Wrap(errors.ErrEncodeFailed, err.Error()))
	}
	return converted(out, KindAlpha)
}

// isGIF sniffs the GIF87a/GIF89a signature.
func isGIF(data []byte) bool {
	return len(data) >= 6 && string(data[:3]) == "GIF"
}

// isOpaque reports whether the image carries no usable transparency.
// All stdlib and imaging image types implement Opaque; anything exotic
// is treated as potentially transparent so alpha is never dropped by
// accident.
func isOpaque(img image.Image) bool {
	if op, ok := img.(interface{ Opaque() bool }); ok {
		return op.Opaque()
	}
	return false
}
