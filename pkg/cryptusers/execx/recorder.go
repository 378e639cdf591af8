package execx

import (
	"context"
	"io"
	"strings"
	"sync"
)

// Recorder is a scripted Runner for tests. Responses are matched by the longest
// registered prefix of the rendered command line; unmatched commands succeed with
// empty output.
type Recorder struct {
	mu        sync.Mutex
	responses map[string]Response
	Calls     []Command
	Stdins    []string
}

// Response is a canned outcome for Recorder.
type Response struct {
	Result Result
	Err    error
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{responses: make(map[string]Response)}
}

// On registers a response for commands whose rendered form starts with prefix.
func (r *Recorder) On(prefix string, res Result) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[prefix] = Response{Result: res}
	return r
}

// OnError registers a start failure for commands starting with prefix.
func (r *Recorder) OnError(prefix string, err error) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[prefix] = Response{Err: err}
	return r
}

// Run implements Runner.
func (r *Recorder) Run(_ context.Context, cmd Command) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Calls = append(r.Calls, cmd)
	stdin := ""
	if cmd.Stdin != nil {
		b, _ := io.ReadAll(cmd.Stdin)
		stdin = string(b)
	}
	r.Stdins = append(r.Stdins, stdin)

	line := cmd.String()
	best := ""
	found := false
	for prefix := range r.responses {
		if strings.HasPrefix(line, prefix) && len(prefix) >= len(best) {
			best = prefix
			found = true
		}
	}
	if !found {
		return &Result{}, nil
	}
	resp := r.responses[best]
	if resp.Err != nil {
		return nil, resp.Err
	}
	res := resp.Result
	return &res, nil
}

// Commands returns the rendered command lines seen so far.
func (r *Recorder) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		out[i] = c.String()
	}
	return out
}
