package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestReadConfirm(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    bool
		wantErr bool
	}{
		{"yes", "y", true, false},
		{"upper yes", "Y", true, false},
		{"no", "n", false, false},
		{"enter defaults to no", "\r", false, false},
		{"other keys ignored", "xq y", true, false},
		{"ctrl-c", "\x03", false, true},
		{"escape", "\x1b", false, true},
		{"eof", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			got, err := readConfirm(strings.NewReader(tt.input), &stderr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
