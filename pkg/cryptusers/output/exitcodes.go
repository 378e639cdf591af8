package output

// ExitCode is the process exit status for a Code.
type ExitCode int

const (
	ExitSuccess           ExitCode = 0
	ExitGeneralError      ExitCode = 1
	ExitConfigError       ExitCode = 2
	ExitPreconditionError ExitCode = 3
	ExitToolError         ExitCode = 4
	ExitIntegrityError    ExitCode = 5
	ExitValidationError   ExitCode = 6
	ExitRotationFailed    ExitCode = 7
)

var codeToExitCode = map[Code]ExitCode{
	CodeGeneralError:    ExitGeneralError,
	CodeInvalidInput:    ExitGeneralError,
	CodeOperationFailed: ExitGeneralError,
	CodeUsageError:      ExitGeneralError,

	CodeConfigInvalid:    ExitConfigError,
	CodeConfigParseError: ExitConfigError,
	CodeConfigSaveError:  ExitConfigError,

	CodeRepoLocked:     ExitPreconditionError,
	CodeRepoDirty:      ExitPreconditionError,
	CodeQuorumNotMet:   ExitPreconditionError,
	CodeRepoNotFound:   ExitPreconditionError,
	CodeNotInitialized: ExitPreconditionError,

	CodeExternalToolError: ExitToolError,
	CodeGPGError:          ExitToolError,
	CodeKeyserverError:    ExitToolError,

	CodeIntegrityError: ExitIntegrityError,

	CodeValidationError:     ExitValidationError,
	CodeFingerprintMismatch: ExitValidationError,

	CodeRotationFailed: ExitRotationFailed,
}

// GetExitCode returns the exit status for c. Unknown codes map to ExitGeneralError.
func (c Code) GetExitCode() ExitCode {
	if exit, ok := codeToExitCode[c]; ok {
		return exit
	}
	return ExitGeneralError
}

// Int returns the exit status as an int for os.Exit.
func (e ExitCode) Int() int {
	return int(e)
}
