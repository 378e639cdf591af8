package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func newTestHandler(opts ...HandlerOption) (*Handler, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	opts = append([]HandlerOption{WithColor(false)}, opts...)
	return NewHandler(&stdout, &stderr, opts...), &stdout, &stderr
}

func TestHandler_Warn(t *testing.T) {
	tests := []struct {
		name       string
		opts       []HandlerOption
		wantErr    bool
		wantStderr string
	}{
		{"text", nil, false, "warning: key not found\n"},
		{"silent", []HandlerOption{WithSilent(true)}, false, ""},
		{"json", []HandlerOption{WithJSON(true)}, false, ""},
		{"strict", []HandlerOption{WithStrict(true)}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, stderr := newTestHandler(tt.opts...)

			err := h.Warnf(CodeWarnKeyNotFound, "key %s", "not found")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Warnf() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := stderr.String(); got != tt.wantStderr {
				t.Errorf("stderr = %q, want %q", got, tt.wantStderr)
			}
			if len(h.Warnings()) != 1 {
				t.Errorf("collected %d warnings, want 1", len(h.Warnings()))
			}
		})
	}
}

func TestHandler_TextOutput(t *testing.T) {
	h, stdout, stderr := newTestHandler()

	h.Successf("%s imported", "ABCD")
	h.WriteLine("line")
	h.Infof("step %d", 1)
	h.Error(NewError(CodeRepoLocked, "repository is locked"))

	if got := stdout.String(); got != "ABCD imported\nline\n" {
		t.Errorf("stdout = %q", got)
	}
	if got := stderr.String(); got != "step 1\nerror: repository is locked\n" {
		t.Errorf("stderr = %q", got)
	}
	if got := h.Alert("REVOKED!"); got != "REVOKED!" {
		t.Errorf("Alert() without color = %q", got)
	}
}

func TestHandler_WriteJSON(t *testing.T) {
	h, stdout, stderr := newTestHandler(WithJSON(true))

	h.Success("hidden")
	_ = h.Warnf(CodeWarnRevoked, "key revoked")
	if err := h.WriteJSON(map[string]int{"count": 2}, NewError(CodeQuorumNotMet, "quorum")); err != nil {
		t.Fatal(err)
	}
	if stderr.Len() != 0 {
		t.Errorf("stderr = %q, want empty", stderr.String())
	}

	var env struct {
		Data     map[string]int `json:"data"`
		Warnings []Warning      `json:"warnings"`
		Error    struct {
			Code     Code `json:"code"`
			ExitCode int  `json:"exit_code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &env); err != nil {
		t.Fatalf("invalid JSON %q: %v", stdout.String(), err)
	}
	if env.Data["count"] != 2 {
		t.Errorf("data = %v", env.Data)
	}
	if len(env.Warnings) != 1 || env.Warnings[0].Code != CodeWarnRevoked {
		t.Errorf("warnings = %+v", env.Warnings)
	}
	if env.Error.Code != CodeQuorumNotMet || env.Error.ExitCode != int(ExitPreconditionError) {
		t.Errorf("error = %+v", env.Error)
	}
	if strings.Contains(stdout.String(), "hidden") {
		t.Error("text output leaked into JSON mode")
	}
}

func TestError_IsAndExitCode(t *testing.T) {
	cause := errors.New("boom")
	err := NewErrorf(CodeIntegrityError, "copy of %s truncated", "a").WithCause(cause).WithDetail("path", "a")

	if !errors.Is(err, NewError(CodeIntegrityError, "")) {
		t.Error("errors.Is should match by code")
	}
	if errors.Is(err, NewError(CodeRepoDirty, "")) {
		t.Error("errors.Is matched a different code")
	}
	if !errors.Is(err, cause) {
		t.Error("cause not unwrapped")
	}
	if err.ExitCode() != ExitIntegrityError {
		t.Errorf("ExitCode() = %d", err.ExitCode())
	}
	if Code("UNKNOWN").GetExitCode() != ExitGeneralError {
		t.Error("unknown codes should map to ExitGeneralError")
	}
	if !CodeWarnReauthFailed.IsWarning() || CodeRotationFailed.IsWarning() {
		t.Error("IsWarning misclassified a code")
	}
}
