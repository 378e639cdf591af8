package main

import (
	"fmt"
	"os"

	clilib "github.com/cryptusers/cryptusers/internal/cli"
	"github.com/spf13/cobra"
)

// pathValue is a custom pflag.Value that rejects flag-like values
type pathValue struct {
	value *string
}

func (p *pathValue) String() string {
	if p.value == nil {
		return ""
	}
	return *p.value
}

func (p *pathValue) Set(s string) error {
	if len(s) > 0 && s[0] == '-' {
		return fmt.Errorf("--gpg-program requires a path argument")
	}
	*p.value = s
	return nil
}

func (p *pathValue) Type() string {
	return "string"
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
	Long:  `Create or inspect the cryptusers configuration file.`,
}

var configInitOpts struct {
	GPGProgram string
	Force      bool
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Long: `Write a configuration file with the default settings.

By default, creates the file at the XDG config location
($XDG_CONFIG_HOME/cryptusers/config). Use -c to specify a custom path.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		target := clilib.ResolveConfigPath(globalOpts.ConfigPath, globalOpts.Silent, os.Stderr)
		exitWithError(clilib.InitConfig(target, configInitOpts.GPGProgram, configInitOpts.Force, os.Stdout, os.Stderr))
	},
}

var configShowJSON bool

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Print the configuration in effect: the file, defaults for unset settings,
and CRYPTUSERS_* environment overrides.

Options:
  --json  Output as JSON`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		target := clilib.ResolveConfigPath(globalOpts.ConfigPath, globalOpts.Silent, os.Stderr)
		exitWithError(clilib.ShowConfig(target, configShowJSON, os.Stdout, os.Stderr))
	},
}

func init() {
	configInitCmd.Flags().Var(&pathValue{value: &configInitOpts.GPGProgram}, "gpg-program", "Path to the gpg executable (default: detected)")
	configInitCmd.Flags().BoolVar(&configInitOpts.Force, "force", false, "Overwrite an existing config file")
	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "Output as JSON")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
