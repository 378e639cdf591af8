package main

import (
	clilib "github.com/cryptusers/cryptusers/internal/cli"
	"github.com/spf13/cobra"
)

var rotateOpts struct {
	DryRun bool
	Yes    bool
	JSON   bool
}

var rotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Rotate the git-crypt key",
	Long: `Replace the repository's git-crypt key and re-add every trusted identity
whose public key is in the local keyring and not revoked.

The repository must be unlocked and clean, and enough trusted identities must
be reachable. Encrypted files are copied to a private snapshot, deleted,
re-encrypted under the new key and committed back.

Options:
  --dry-run  Check preconditions and show the plan without changing anything
  --yes      Skip confirmation prompt
  --json     Output as JSON`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cli := createCLI(cmd.Context(), rotateOpts.JSON)
		exitErr := cli.Rotate(cmd.Context(), clilib.RotateOptions{DryRun: rotateOpts.DryRun, Yes: rotateOpts.Yes})
		_ = cli.Close()
		exitWithError(exitErr)
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove FINGERPRINT...",
	Short: "Remove identities by rotating the git-crypt key without them",
	Long: `Rotate the git-crypt key and re-add every reachable trusted identity except
the given fingerprints. Fingerprints the repository does not trust are reported
with a warning.

Options:
  --dry-run  Check preconditions and show the plan without changing anything
  --yes      Skip confirmation prompt
  --json     Output as JSON`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cli := createCLI(cmd.Context(), rotateOpts.JSON)
		exitErr := cli.Remove(cmd.Context(), args, clilib.RotateOptions{DryRun: rotateOpts.DryRun, Yes: rotateOpts.Yes})
		_ = cli.Close()
		exitWithError(exitErr)
	},
}

func init() {
	for _, c := range []*cobra.Command{rotateCmd, removeCmd} {
		c.Flags().BoolVar(&rotateOpts.DryRun, "dry-run", false, "Show the plan without changing anything")
		c.Flags().BoolVarP(&rotateOpts.Yes, "yes", "y", false, "Skip confirmation prompt")
		c.Flags().BoolVar(&rotateOpts.JSON, "json", false, "Output as JSON")
	}
}
