package cli

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/cryptusers/cryptusers/pkg/cryptusers/output"
)

// PromptConfirm asks the user for a y/n confirmation.
// Returns true if confirmed, false if declined, or an error on cancellation.
// Opens /dev/tty directly to work even when stdin is piped.
func PromptConfirm(prompt string, stderr io.Writer) (bool, *Error) {
	tty, err := os.Open("/dev/tty")
	if err != nil {
		return false, NewError(output.CodeUsageError, "no terminal available for confirmation; use --yes")
	}
	defer func() { _ = tty.Close() }()

	fd := int(tty.Fd())
	if !term.IsTerminal(fd) {
		return false, NewError(output.CodeUsageError, "no terminal available for confirmation; use --yes")
	}

	_, _ = fmt.Fprintf(stderr, "%s [y/N]: ", prompt)

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return false, NewErrorf(output.CodeGeneralError, "failed to set raw mode: %v", err)
	}
	defer func() { _ = term.Restore(fd, oldState) }()

	return readConfirm(tty, stderr)
}

// readConfirm reads single key presses until one of them answers the prompt.
func readConfirm(r io.Reader, stderr io.Writer) (bool, *Error) {
	buf := make([]byte, 1)
	for {
		_, err := r.Read(buf)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "\r\n")
			return false, NewErrorf(output.CodeGeneralError, "failed to read input: %v", err)
		}

		switch buf[0] {
		case 'y', 'Y':
			_, _ = fmt.Fprintf(stderr, "y\r\n")
			return true, nil
		case 'n', 'N', '\r', '\n':
			_, _ = fmt.Fprintf(stderr, "n\r\n")
			return false, nil
		case 3, 27: // Ctrl-C or Escape
			_, _ = fmt.Fprintf(stderr, "\r\nCancelled.\r\n")
			return false, NewError(output.CodeGeneralError, "")
		}
	}
}
