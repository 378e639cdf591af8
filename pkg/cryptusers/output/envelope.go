package output

import (
	"encoding/json"
	"io"
)

// Envelope is the JSON document written by --json commands.
type Envelope struct {
	Data     any        `json:"data,omitempty"`
	Warnings []*Warning `json:"warnings"`
	Error    *Error     `json:"error,omitempty"`
}

// WriteTo encodes the envelope as indented JSON.
func (e *Envelope) WriteTo(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
