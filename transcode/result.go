package transcode

import "fmt"

// Outcome is the conversion outcome tag. Exactly one of the Result
// payloads is meaningful for each outcome.
type Outcome int

const (
	// OutcomeConverted means Data holds the encoded WebP bytes
	OutcomeConverted Outcome = iota
	// OutcomeSkipped means the input needed no work; Reason says why
	OutcomeSkipped
	// OutcomeFailed means decode or encode failed; Reason and Err say why
	OutcomeFailed
)

// Kind classifies which encode path produced the output.
type Kind int

const (
	// KindOpaque is the alpha-free RGB path
	KindOpaque Kind = iota
	// KindAlpha preserves a transparency channel
	KindAlpha
	// KindAnimated preserves frames, durations, and loop count
	KindAnimated
)

func (k Kind) String() string {
	switch k {
	case KindOpaque:
		return "opaque"
	case KindAlpha:
		return "alpha"
	case KindAnimated:
		return "animated"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Result is the tagged outcome of one conversion. Construct through
// converted, skipped, or failed so success and failure never coexist.
type Result struct {
	Outcome Outcome

	// Data holds the WebP bytes when Outcome is OutcomeConverted
	Data []byte
	// Kind reports the encode path when Outcome is OutcomeConverted
	Kind Kind

	// Reason describes a skip or failure in one short phrase
	Reason string
	// Err carries the underlying decode/encode error for failures
	Err error
}

// Converted reports whether the result carries encoded output.
func (r Result) Converted() bool { return r.Outcome == OutcomeConverted }

// Failed reports whether decode or encode failed.
func (r Result) Failed() bool { return r.Outcome == OutcomeFailed }

func converted(data []byte, kind Kind) Result {
	return Result{Outcome: OutcomeConverted, Data: data, Kind: kind}
}

func skipped(reason string) Result {
	return Result{Outcome: OutcomeSkipped, Reason: reason}
}

func failed(reason string, err error) Result {
	return Result{Outcome: OutcomeFailed, Reason: reason, Err: err}
}
