package cli

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cryptusers/cryptusers/pkg/cryptusers/config"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/gpg"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/output"
)

// InitConfig writes a configuration file with the default settings.
// The detected gpg program is recorded unless gpgProgram is given.
func InitConfig(configPath, gpgProgram string, force bool, stdout, stderr io.Writer) *Error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return NewErrorf(output.CodeConfigSaveError, "config file already exists: %s", configPath)
	}

	cfg := config.DefaultConfig()
	switch {
	case gpgProgram != "":
		cfg.GPGProgram = gpgProgram
		_, _ = fmt.Fprintf(stderr, "Using GPG program: %s\n", gpgProgram)
	default:
		if detected := gpg.DetectGPGPath(); detected != "" {
			cfg.GPGProgram = detected
			_, _ = fmt.Fprintf(stderr, "Using GPG: %s\n", detected)
		} else {
			_, _ = fmt.Fprintf(stderr, "warning: GPG not found; gpg_program left empty\n")
		}
	}

	if err := cfg.Validate(); err != nil {
		return NewErrorf(output.CodeConfigInvalid, "%v", err)
	}
	if err := config.Save(configPath, cfg); err != nil {
		return NewErrorf(output.CodeConfigSaveError, "failed to save config: %v", err)
	}
	_, _ = fmt.Fprintf(stdout, "Initialized config file: %s\n", configPath)
	return nil
}

// ShowConfig prints the effective configuration: the file, the defaults it
// leaves unset and the CRYPTUSERS_* overrides.
func ShowConfig(configPath string, jsonOutput bool, stdout, stderr io.Writer) *Error {
	out := output.NewHandler(stdout, stderr, output.WithJSON(jsonOutput))

	if _, err := os.Stat(configPath); err != nil {
		_ = out.Warnf(output.CodeWarnConfigMissing, "no config file at %s, showing defaults", configPath)
	}

	cfg, cliErr := loadConfig(configPath)
	if cliErr != nil {
		if jsonOutput {
			_ = out.WriteJSON(nil, cliErr)
		}
		return cliErr
	}

	if jsonOutput {
		if err := out.WriteJSON(cfg, nil); err != nil {
			return NewErrorf(output.CodeGeneralError, "failed to write JSON: %v", err)
		}
		return nil
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return NewErrorf(output.CodeGeneralError, "failed to marshal config: %v", err)
	}
	_, _ = fmt.Fprintf(stdout, "# %s\n%s", configPath, data)
	return nil
}
