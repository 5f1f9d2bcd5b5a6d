package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/morozRed/capibara/internal/loader"
	"github.com/morozRed/capibara/internal/logging"
)

// passProgressReporter draws a one-line spinner on stderr. Passes may report
// concurrently.
type passProgressReporter struct {
	mu      sync.Mutex
	enabled bool
	out     io.Writer
	start   time.Time
	spinner int
	lastLen int
	seen    int
}

func newPassProgressReporter(asJSON bool) *passProgressReporter {
	return &passProgressReporter{
		enabled: logging.IsTerminal(os.Stderr) && !asJSON,
		out:     os.Stderr,
		start:   time.Now(),
	}
}

func (r *passProgressReporter) Update(kind loader.Kind, ref string, done, total int) {
	if !r.enabled {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := [4]string{"-", "\\", "|", "/"}
	frame := frames[r.spinner%len(frames)]
	r.spinner++
	r.seen++
	if len(ref) > 72 {
		ref = "..." + ref[len(ref)-69:]
	}
	r.printStatus(fmt.Sprintf("%s %s %d/%d %s", frame, kind, done, total, ref))
}

func (r *passProgressReporter) Done() {
	if !r.enabled {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seen == 0 {
		return
	}
	elapsed := time.Since(r.start).Round(time.Millisecond)
	r.printStatus(fmt.Sprintf("passes complete in %s", elapsed))
	fmt.Fprintln(r.out)
}

func (r *passProgressReporter) printStatus(status string) {
	if r.lastLen > len(status) {
		status = status + strings.Repeat(" ", r.lastLen-len(status))
	}
	r.lastLen = len(status)
	fmt.Fprintf(r.out, "\r%s", status)
}
