package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
)

// ProgressBar redraws a single terminal line as messages are read. It is
// driven directly rather than through a bubbletea program because the work
// runs synchronously on the caller's goroutine.
type ProgressBar struct {
	w     io.Writer
	bar   progress.Model
	label string
	last  int // last drawn permille, -1 before the first draw
}

func NewProgressBar(w io.Writer, label string) *ProgressBar {
	return &ProgressBar{
		w: w,
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(40),
		),
		label: label,
		last:  -1,
	}
}

// Update has the signature of calls.ProgressFunc.
func (p *ProgressBar) Update(done, total int) {
	if total <= 0 {
		return
	}
	permille := done * 1000 / total
	if permille == p.last {
		return
	}
	p.last = permille
	fmt.Fprintf(p.w, "\r%s %s %d/%d", styleDim.Render(p.label), p.bar.ViewAs(float64(done)/float64(total)), done, total)
}

// Done ends the progress line.
func (p *ProgressBar) Done() {
	if p.last >= 0 {
		fmt.Fprintln(p.w)
	}
}
