package cli

import (
	"context"
	"fmt"

	"github.com/cryptusers/cryptusers/pkg/cryptusers/identity"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/output"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/rotate"
)

// ListEntry is one trusted identity as reported by List.
type ListEntry struct {
	Fingerprint string `json:"fingerprint"`
	Known       bool   `json:"known"`
	Usernames   string `json:"usernames,omitempty"`
	Revoked     bool   `json:"revoked"`
}

// List prints every identity the repository trusts, resolved against the local keyring.
func (c *CLI) List(ctx context.Context) *Error {
	trust, err := c.repo.TrustedIdentities()
	if err != nil {
		return c.fail(err)
	}

	candidates, err := rotate.Resolve(ctx, c.keyring, identity.Unique(trust))
	if err != nil {
		return c.fail(err)
	}

	entries := make([]ListEntry, 0, len(candidates))
	for _, cand := range candidates {
		entry := ListEntry{
			Fingerprint: cand.Fingerprint,
			Known:       cand.Known,
			Usernames:   cand.Usernames,
			Revoked:     cand.Revoked,
		}
		entries = append(entries, entry)

		if !cand.Known {
			c.output.WriteLine(fmt.Sprintf("%s not in local keychain :( try \"import\"", cand.Fingerprint))
			continue
		}
		if cand.Problem != "" {
			if werr := c.output.Warnf(output.CodeWarnGeneric, "unreadable key %s: %s", cand.Fingerprint, cand.Problem); werr != nil {
				return c.fail(werr)
			}
		}

		line := cand.Fingerprint
		if cand.Usernames != "" {
			line += " " + cand.Usernames
		}
		if cand.Revoked {
			line += " " + c.output.Alert("REVOKED!")
		}
		c.output.WriteLine(line)
	}

	if c.output.IsJSON() {
		if err := c.output.WriteJSON(entries, nil); err != nil {
			return NewErrorf(output.CodeGeneralError, "failed to write JSON: %v", err)
		}
	}
	return nil
}

// fail classifies err and, in JSON mode, reports it in the envelope as well.
func (c *CLI) fail(err error) *Error {
	e := FromError(err)
	if c.output.IsJSON() {
		_ = c.output.WriteJSON(nil, e)
	}
	return e
}
