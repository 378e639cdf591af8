package main

import (
	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the identities trusted by the repository",
	Long: `List every OpenPGP identity that can decrypt the repository.

Identities whose key is missing from the local keyring are flagged so they can
be fetched with "cryptusers import". Revoked keys are marked REVOKED!.

Options:
  --json  Output as JSON`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cli := createCLI(cmd.Context(), listJSON)
		exitErr := cli.List(cmd.Context())
		_ = cli.Close()
		exitWithError(exitErr)
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
}
