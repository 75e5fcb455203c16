package transcode

import (
	"encoding/binary"

	"github.com/teranos/webpify/errors"
)

// animationInfo is what the tests need out of an animated WebP container.
type animationInfo struct {
	frameCount int
	durations  []int // milliseconds, one per ANMF chunk
	loopCount  int
}

// parseAnimation walks the RIFF chunks of an animated WebP. No Go decoder
// reads animated WebP, so verifying frame structure means reading the
// ANIM and ANMF chunks directly (ANIM carries the loop count at payload
// offset 4, ANMF carries the frame duration at payload offset 12, both
// little-endian).
func parseAnimation(data []byte) (*animationInfo, error) {
	if len(data) < 12 || string(data[:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		return nil, errors.New("not a RIFF WebP container")
	}

	info := &animationInfo{}
	off := 12
	for off+8 <= len(data) {
		fourCC := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		payload := off + 8
		if payload+size > len(data) {
			return nil, errors.Newf("chunk %s overruns container", fourCC)
		}

		switch fourCC {
		case "ANIM":
			if size < 6 {
				return nil, errors.New("short ANIM chunk")
			}
			info.loopCount = int(binary.LittleEndian.Uint16(data[payload+4 : payload+6]))
		case "ANMF":
			if size < 16 {
				return nil, errors.New("short ANMF chunk")
			}
			d := data[payload+12 : payload+15]
			info.durations = append(info.durations, int(d[0])|int(d[1])<<8|int(d[2])<<16)
			info.frameCount++
		}

		off = payload + size
		if size%2 == 1 {
			off++ // chunks are padded to even sizes
		}
	}

	if info.frameCount == 0 {
		return nil, errors.New("no ANMF chunks found")
	}
	return info, nil
}
