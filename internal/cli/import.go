package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/cryptusers/cryptusers/pkg/cryptusers/gpg"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/identity"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/output"
)

// Import outcomes.
const (
	ImportKnown    = "known"
	ImportImported = "imported"
	ImportNotFound = "not found"
	ImportRejected = "rejected"
)

// ImportResult is the outcome for one trusted fingerprint.
type ImportResult struct {
	Fingerprint string `json:"fingerprint"`
	Status      string `json:"status"`
}

// Import fetches the public keys of trusted identities missing from the local
// keyring. Keys nobody serves are reported and skipped.
func (c *CLI) Import(ctx context.Context) *Error {
	version, err := c.keyring.Version(ctx)
	if err != nil {
		return c.fail(err)
	}
	c.output.Infof("%s", firstLine(version))

	trust, err := c.repo.TrustedIdentities()
	if err != nil {
		return c.fail(err)
	}
	entries, err := c.keyring.ListKeys(ctx)
	if err != nil {
		return c.fail(err)
	}
	known := make([]string, 0, len(entries))
	for _, e := range entries {
		known = append(known, e.Fingerprint)
	}

	results := make([]ImportResult, 0, len(trust))
	for _, fp := range identity.Unique(trust) {
		status, cliErr := c.importOne(ctx, fp, known)
		if cliErr != nil {
			if c.output.IsJSON() {
				_ = c.output.WriteJSON(results, cliErr)
			}
			return cliErr
		}
		results = append(results, ImportResult{Fingerprint: fp, Status: status})
		c.output.WriteLine(fmt.Sprintf("%s %s", fp, status))
	}

	if c.output.IsJSON() {
		if err := c.output.WriteJSON(results, nil); err != nil {
			return NewErrorf(output.CodeGeneralError, "failed to write JSON: %v", err)
		}
	}
	return nil
}

func (c *CLI) importOne(ctx context.Context, fp string, known []string) (string, *Error) {
	if identity.ContainsFingerprint(known, fp) {
		return ImportKnown, nil
	}

	armored, err := c.keyservers.Lookup(ctx, fp)
	if err != nil {
		if werr := c.output.Warnf(output.CodeWarnKeyserver, "%v", err); werr != nil {
			return "", FromError(werr)
		}
	}
	if armored == "" {
		return ImportNotFound, nil
	}

	if err := gpg.VerifyArmoredFingerprint(armored, fp); err != nil {
		w := output.NewWarningf(output.CodeFingerprintMismatch, "refusing key served for %s: %v", fp, err).
			WithDetail("fingerprint", fp)
		if werr := c.output.Warn(w); werr != nil {
			return "", FromError(werr)
		}
		return ImportRejected, nil
	}

	if err := c.keyring.Import(ctx, armored); err != nil {
		return "", FromError(err)
	}
	return ImportImported, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
