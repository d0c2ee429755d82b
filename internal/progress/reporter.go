package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Reporter shows how far an offline cache install has come.
type Reporter interface {
	Start(total int, label string)
	Cached(asset string)
	Finish()
}

// NewReporter returns a LineReporter if the CI environment variable is set,
// or a TerminalReporter otherwise.
func NewReporter() Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return NewLineReporter(os.Stderr)
	}
	return &TerminalReporter{out: os.Stderr}
}

// TerminalReporter draws a progress bar.
type TerminalReporter struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

func (r *TerminalReporter) Start(total int, label string) {
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *TerminalReporter) Cached(asset string) {
	if r.bar != nil {
		r.bar.Describe(asset)
		_ = r.bar.Add(1)
	}
}

func (r *TerminalReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// LineReporter prints one line per cached asset, suitable for CI logs.
type LineReporter struct {
	mu    sync.Mutex
	out   io.Writer
	total int
	done  int
	label string
}

// NewLineReporter returns a LineReporter writing to w.
func NewLineReporter(w io.Writer) *LineReporter {
	return &LineReporter{out: w}
}

func (r *LineReporter) Start(total int, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total, r.done, r.label = total, 0, label
	fmt.Fprintf(r.out, "%s: %d assets\n", label, total)
}

func (r *LineReporter) Cached(asset string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done++
	fmt.Fprintf(r.out, "[%d/%d] %s\n", r.done, r.total, asset)
}

func (r *LineReporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "%s: done\n", r.label)
}
