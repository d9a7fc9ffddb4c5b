package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"

	"randscan/scanner"
)

// redrawInterval throttles redraws when neither percent nor open count moved.
const redrawInterval = 50 * time.Millisecond

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ProgressLine redraws a single status line in place for every progress
// event. It implements scanner.ProgressSink.
type ProgressLine struct {
	w    io.Writer
	now  func() time.Time
	mu   sync.Mutex
	last scanner.Progress
	at   time.Time
}

// NewProgressLine writes progress to w.
func NewProgressLine(w io.Writer) *ProgressLine {
	return &ProgressLine{w: w, now: time.Now}
}

// OnProgress implements scanner.ProgressSink.
func (pl *ProgressLine) OnProgress(p scanner.Progress) {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	now := pl.now()
	changed := p.Percent != pl.last.Percent || p.Open != pl.last.Open
	if !changed && now.Sub(pl.at) < redrawInterval {
		return
	}
	pl.last, pl.at = p, now
	pl.draw(fmt.Sprintf(" Scanning Random Port:%6d (%3d%%)", p.Port, p.Percent), p.Open)
}

// Finish replaces the status line with the final summary line.
func (pl *ProgressLine) Finish(res scanner.Result) {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	pct := 100
	if res.Total > 0 {
		pct = res.Probed * 100 / res.Total
	}
	label := " Random Scan Complete"
	if res.Canceled {
		label = " Random Scan Aborted "
	}
	pl.draw(fmt.Sprintf("%s  (%3d%%)", label, pct), res.Open)
	fmt.Fprintln(pl.w)
}

func (pl *ProgressLine) draw(left string, open int) {
	right := fmt.Sprintf("Number Open: %d ", open)
	pad := max(ruleWidth-len(left)-len(right), 1)
	fmt.Fprint(pl.w, "\r"+left+strings.Repeat(" ", pad)+right)
}
