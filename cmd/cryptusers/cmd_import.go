package main

import (
	"github.com/spf13/cobra"
)

var importJSON bool

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the public keys of trusted identities",
	Long: `Fetch the public key of every trusted identity missing from the local
keyring from the configured keyservers and import it with gpg.

Keys are only imported when their fingerprint matches the trusted one. Keys no
keyserver knows are reported as "not found".

Options:
  --json  Output as JSON`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cli := createCLI(cmd.Context(), importJSON)
		exitErr := cli.Import(cmd.Context())
		_ = cli.Close()
		exitWithError(exitErr)
	},
}

func init() {
	importCmd.Flags().BoolVar(&importJSON, "json", false, "Output as JSON")
}
