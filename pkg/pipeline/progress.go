package pipeline

import (
	"fmt"
	"io"
)

// Progress writes the user-facing progress lines of a run
type Progress struct {
	w io.Writer
}

// NewProgress returns a Progress writing to w; nil discards
func NewProgress(w io.Writer) *Progress {
	if w == nil {
		w = io.Discard
	}
	return &Progress{w: w}
}

// Banner announces the mode
func (p *Progress) Banner(m Mode) {
	fmt.Fprintln(p.w, m.Banner())
}

// Snapshot reports that snapshot k (zero-based) of n is done
func (p *Progress) Snapshot(k, n int) {
	fmt.Fprintf(p.w, "Simulation %d out of %d done\n", k+1, n)
}

// Done reports the end of the clouds run
func (p *Progress) Done() {
	fmt.Fprintln(p.w, "DIAGNOSE and CUTS done")
}
