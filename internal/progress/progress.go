// Package progress provides progress indicators for unattended synchronization runs.
package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/klauern/tmxsync/internal/logging"
	"github.com/klauern/tmxsync/internal/sync"
	"github.com/klauern/tmxsync/internal/ui"
)

// Bar wraps progressbar functionality with integration to tmxsync's UI and logging.
type Bar struct {
	bar     *progressbar.ProgressBar
	enabled bool
	desc    string
}

// Options configures the progress bar behavior.
type Options struct {
	// Max is the maximum value for the progress bar (total steps).
	Max int64
	// Description is the prefix text shown before the progress bar.
	Description string
	// Writer is the output destination. Defaults to os.Stderr.
	Writer io.Writer
}

// New creates a new progress bar with the given options.
// The bar is only shown if:
//   - Colors are enabled (respects NO_COLOR and --no-color)
//   - Output is a terminal
//   - Not in debug mode (to avoid interfering with logs)
func New(opts Options) *Bar {
	if opts.Writer == nil {
		opts.Writer = os.Stderr
	}

	b := &Bar{
		enabled: shouldShowProgress(opts.Writer),
		desc:    opts.Description,
	}

	if !b.enabled {
		logging.Debug(fmt.Sprintf("%s started", opts.Description),
			logging.Count(int(opts.Max)))
		return b
	}

	b.bar = progressbar.NewOptions64(
		opts.Max,
		progressbar.OptionSetDescription(opts.Description),
		progressbar.OptionSetWriter(opts.Writer),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(15),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprint(opts.Writer, "\n")
		}),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionEnableColorCodes(ui.IsColorEnabled()),
	)

	return b
}

// Enabled reports whether the bar renders anything.
func (b *Bar) Enabled() bool {
	return b.enabled
}

// Set sets the progress bar to a specific value.
func (b *Bar) Set(n int) error {
	if !b.enabled {
		return nil
	}
	return b.bar.Set(n)
}

// Describe updates the progress bar description.
func (b *Bar) Describe(desc string) {
	b.desc = desc
	if !b.enabled {
		return
	}
	b.bar.Describe(desc)
}

// Finish completes the progress bar and logs completion.
func (b *Bar) Finish() error {
	if !b.enabled {
		logging.Debug(fmt.Sprintf("%s completed", b.desc))
		return nil
	}
	return b.bar.Finish()
}

// Tracker turns synchronizer progress events into one bar per tileset.
type Tracker struct {
	w   io.Writer
	bar *Bar
}

// NewTracker returns a Tracker writing to w (os.Stderr when nil).
func NewTracker(w io.Writer) *Tracker {
	if w == nil {
		w = os.Stderr
	}
	return &Tracker{w: w}
}

// Callback returns the function to pass as sync.Options.Progress.
func (t *Tracker) Callback() sync.ProgressCallback {
	return t.Handle
}

// Handle processes a single progress event.
func (t *Tracker) Handle(event sync.ProgressEvent) {
	switch event.Type {
	case sync.ProgressEventTilesetStart:
		t.finish()
		t.bar = New(Options{
			Max:         int64(event.Total),
			Description: fmt.Sprintf("tileset %s", event.Tileset),
			Writer:      t.w,
		})
	case sync.ProgressEventTile:
		if t.bar != nil {
			_ = t.bar.Set(event.Current)
		}
	case sync.ProgressEventTilesetComplete:
		t.finish()
	}
}

// Close finishes any bar left open by an interrupted run.
func (t *Tracker) Close() {
	t.finish()
}

func (t *Tracker) finish() {
	if t.bar == nil {
		return
	}
	_ = t.bar.Finish()
	t.bar = nil
}

// shouldShowProgress determines if progress bars should be displayed.
func shouldShowProgress(w io.Writer) bool {
	if !ui.IsColorEnabled() {
		return false
	}

	if f, ok := w.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		return false
	}

	// debug logs would tear the bar apart
	if logging.Default().Enabled(context.Background(), logging.LevelDebug) {
		return false
	}

	return true
}
