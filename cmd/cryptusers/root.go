package main

import (
	"github.com/spf13/cobra"
)

var (
	version = "unknown"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "cryptusers",
	Short: "Manage who can decrypt a git-crypt repository",
	Long: `cryptusers: manage the users of a git-crypt repository.

Lists the OpenPGP identities trusted by the repository, imports their public
keys, and rotates the shared git-crypt key to drop users. Rotation keeps file
contents and history and re-adds every remaining identity.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand, show help
		_ = cmd.Help()
	},
}

func init() {
	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&globalOpts.ConfigPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringVarP(&globalOpts.RepoDir, "repo", "C", "", "Run in the git repository containing this directory (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.Silent, "silent", "s", false, "Silent mode (suppress warnings)")

	// Add subcommands
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(rotateCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}
