package cli

import (
	"context"

	"github.com/cryptusers/cryptusers/pkg/cryptusers/rotate"
)

// Keyring is the keyring tool surface used by the commands.
// *gpg.Client is the production implementation.
type Keyring interface {
	rotate.Keyring
	Version(ctx context.Context) (string, error)
	Import(ctx context.Context, armored string) error
}

// Repository is the read-only git-crypt surface used outside of rotations.
// *gitcrypt.Repo is the production implementation.
type Repository interface {
	Version(ctx context.Context) (string, error)
	TrustedIdentities() ([]string, error)
}

// Rotator checks and runs key rotations.
// *rotate.Orchestrator is the production implementation.
type Rotator interface {
	Plan(ctx context.Context) (*rotate.Plan, error)
	Rotate(ctx context.Context, opts rotate.Options) (*rotate.Report, error)
}
