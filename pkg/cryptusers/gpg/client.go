package gpg

import (
	"context"
	"fmt"
	"strings"

	"github.com/cryptusers/cryptusers/pkg/cryptusers/execx"
)

// Client wraps the gpg executable.
type Client struct {
	Runner  execx.Runner
	Program string
}

// NewClient creates a client running program through runner.
func NewClient(runner execx.Runner, program string) *Client {
	if program == "" {
		program = "gpg"
	}
	return &Client{Runner: runner, Program: program}
}

func (c *Client) command(args ...string) execx.Command {
	return execx.Command{Name: c.Program, Args: args}
}

// Version returns the output of `gpg --version`.
func (c *Client) Version(ctx context.Context) (string, error) {
	res, err := execx.RunChecked(ctx, c.Runner, c.command("--version"))
	if err != nil {
		return "", fmt.Errorf("gpg --version failed, possibly not in PATH: %w", err)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// ListKeys lists the public keys in the local keyring.
func (c *Client) ListKeys(ctx context.Context) ([]KeyEntry, error) {
	res, err := execx.RunChecked(ctx, c.Runner, c.command("--list-public-keys", "--with-fingerprint"))
	if err != nil {
		return nil, fmt.Errorf("failed to list public keys: %w", err)
	}
	return ParseEntries(res.Stdout), nil
}

// ListKnownIdentities returns the unique fingerprints in the local keyring, in listing order.
func (c *Client) ListKnownIdentities(ctx context.Context) ([]string, error) {
	res, err := execx.RunChecked(ctx, c.Runner, c.command("--list-public-keys", "--with-fingerprint"))
	if err != nil {
		return nil, fmt.Errorf("failed to list public keys: %w", err)
	}
	return KnownFingerprints(res.Stdout), nil
}

// ExportArmored exports the ASCII-armored public key for fingerprint.
// It returns an empty string when the key is not in the keyring.
func (c *Client) ExportArmored(ctx context.Context, fingerprint string) (string, error) {
	res, err := execx.RunChecked(ctx, c.Runner, c.command("--export", "--armor", fingerprint))
	if err != nil {
		return "", fmt.Errorf("failed to export public key %s: %w", fingerprint, err)
	}
	if !strings.Contains(res.Stdout, publicKeyBlockHeader) {
		return "", nil
	}
	return res.Stdout, nil
}

// Record exports and parses the key for fingerprint. It returns nil, nil when the key is
// not in the keyring.
func (c *Client) Record(ctx context.Context, fingerprint string) (*KeyRecord, error) {
	armored, err := c.ExportArmored(ctx, fingerprint)
	if err != nil || armored == "" {
		return nil, err
	}
	return ParseIdentityRecord(armored)
}

// Usernames returns the user ids of a key in the keyring joined by ", ".
func (c *Client) Usernames(ctx context.Context, fingerprint string) (string, error) {
	rec, err := c.Record(ctx, fingerprint)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", nil
	}
	return rec.Usernames(), nil
}

// Import adds an armored public key to the keyring.
func (c *Client) Import(ctx context.Context, armored string) error {
	cmd := c.command("--batch", "--import")
	cmd.Stdin = strings.NewReader(armored)
	if _, err := execx.RunChecked(ctx, c.Runner, cmd); err != nil {
		return fmt.Errorf("failed to import public key: %w", err)
	}
	return nil
}
