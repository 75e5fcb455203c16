// Package progress renders the live status line for a batch run and
// throttles its persistence into the log.
package progress

import (
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
)

// barWidth is the number of cells in the filled/unfilled bar.
const barWidth = 30

// Render formats one status line: a fixed-width bar, percent complete,
// current/total counts, and the ETA extrapolated from elapsed time.
// Returns the empty string when total is not positive — there is no
// meaningful progress over an empty set.
func Render(current, total int, start time.Time) string {
	if total <= 0 {
		return ""
	}

	percent := float64(current) / float64(total)
	filled := int(barWidth * percent)
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	// ETA is undefined before any work has completed
	var eta float64
	if current > 0 {
		elapsed := time.Since(start).Seconds()
		eta = elapsed / float64(current) * float64(total-current)
	}

	return fmt.Sprintf("[%s] %5.1f%%  %d/%d  ETA %5.1fs", bar, percent*100, current, total, eta)
}

// Reporter emits the status line on every step: always to an
// overwritable terminal line, and into the log on the first object, the
// last object, and every LogEvery-th object so long runs do not flood
// the log file.
type Reporter struct {
	out      io.Writer
	log      *zap.SugaredLogger
	logEvery int
	start    time.Time
}

// NewReporter creates a reporter writing the live line to out.
func NewReporter(out io.Writer, log *zap.SugaredLogger, logEvery int, start time.Time) *Reporter {
	if logEvery <= 0 {
		logEvery = 50
	}
	return &Reporter{out: out, log: log, logEvery: logEvery, start: start}
}

// Step reports progress after advancing to the given object index.
func (r *Reporter) Step(current, total int) {
	line := Render(current, total, r.start)
	if line == "" {
		return
	}

	fmt.Fprint(r.out, "\r"+line)

	if current == 1 || current == total || current%r.logEvery == 0 {
		r.log.Info(line)
	}
}

// Finish moves the terminal past the overwritten status line.
func (r *Reporter) Finish(total int) {
	if total > 0 {
		fmt.Fprintln(r.out)
	}
}
