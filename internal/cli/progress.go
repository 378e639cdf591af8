package cli

import (
	"os"
	"time"

	"github.com/briandowns/spinner"

	"github.com/cryptusers/cryptusers/pkg/cryptusers/rotate"
)

// progress shows the rotation step in progress on a terminal.
type progress struct {
	s       *spinner.Spinner
	running bool
}

func newProgress(f *os.File) *progress {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriterFile(f))
	// Ignore color errors - continue without colored spinner if it fails.
	_ = s.Color("cyan")
	return &progress{s: s}
}

// Update replaces the message, starting the spinner if needed.
func (p *progress) Update(message string) {
	p.s.Lock()
	p.s.Suffix = " " + message
	p.s.Unlock()
	if !p.running {
		p.s.Start()
		p.running = true
	}
}

// Stop clears the spinner line. It is safe to call more than once.
func (p *progress) Stop() {
	if p.running {
		p.s.Stop()
		p.running = false
	}
}

// stepMessages describe the work that follows each state.
var stepMessages = map[rotate.State]string{
	rotate.StatePrechecked:     "copying encrypted files to a snapshot",
	rotate.StateSnapshotted:    "deleting encrypted files",
	rotate.StateFilesDeleted:   "tearing down the vault",
	rotate.StateVaultTeardown:  "creating a new vault",
	rotate.StateVaultRecreated: "restoring files",
}

// onTransition drives the spinner. It stops before re-authorization so the
// per-identity lines are not interleaved with it.
func (c *CLI) onTransition(s rotate.State) {
	if c.progress == nil {
		return
	}
	if msg, ok := stepMessages[s]; ok {
		c.progress.Update(msg)
		return
	}
	c.progress.Stop()
}
