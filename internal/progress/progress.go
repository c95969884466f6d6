// Package progress renders stage progress on stderr while an assessment
// runs.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Tracker wraps a progress bar. A nil *Tracker is a no-op, so callers can
// pass one around without checking whether progress is shown.
type Tracker struct {
	bar   *progressbar.ProgressBar
	label string
	out   io.Writer
}

// NewSpinner creates a spinner for work with no known total, such as the
// initial tree walk.
func NewSpinner(label string) *Tracker {
	return newSpinner(label, os.Stderr)
}

func newSpinner(label string, out io.Writer) *Tracker {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return &Tracker{bar: bar, label: label, out: out}
}

// NewTracker creates a bar with a known number of steps on stderr.
func NewTracker(label string, total int) *Tracker {
	return New(label, total, os.Stderr)
}

// New creates a bar writing to out.
func New(label string, total int, out io.Writer) *Tracker {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Tracker{bar: bar, label: label, out: out}
}

// Tick advances the bar by one step. Safe for concurrent use.
func (t *Tracker) Tick() {
	if t == nil {
		return
	}
	_ = t.bar.Add(1)
}

// Describe replaces the label shown next to the bar.
func (t *Tracker) Describe(label string) {
	if t == nil {
		return
	}
	t.bar.Describe(label)
}

// FinishSuccess clears the bar.
func (t *Tracker) FinishSuccess() {
	if t == nil {
		return
	}
	_ = t.bar.Finish()
	_ = t.bar.Clear()
}

// FinishError clears the bar and reports err under the tracker's label.
func (t *Tracker) FinishError(err error) {
	if t == nil {
		return
	}
	_ = t.bar.Finish()
	_ = t.bar.Clear()
	fmt.Fprintf(t.out, "  %s error: %v\n", t.label, err)
}
