package output

// Code is a stable, machine-readable identifier for an error or warning.
type Code string

// Error codes, grouped by exit status.
const (
	// exit 1
	CodeGeneralError    Code = "GENERAL_ERROR"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeOperationFailed Code = "OPERATION_FAILED"
	CodeUsageError      Code = "USAGE_ERROR"

	// exit 2
	CodeConfigInvalid    Code = "CONFIG_INVALID"
	CodeConfigParseError Code = "CONFIG_PARSE_ERROR"
	CodeConfigSaveError  Code = "CONFIG_SAVE_ERROR"

	// exit 3: the repository is not in a state that allows the operation
	CodeRepoLocked     Code = "REPO_LOCKED"
	CodeRepoDirty      Code = "REPO_DIRTY"
	CodeQuorumNotMet   Code = "QUORUM_NOT_MET"
	CodeRepoNotFound   Code = "REPO_NOT_FOUND"
	CodeNotInitialized Code = "VAULT_NOT_INITIALIZED"

	// exit 4
	CodeExternalToolError Code = "EXTERNAL_TOOL_ERROR"
	CodeGPGError          Code = "GPG_ERROR"
	CodeKeyserverError    Code = "KEYSERVER_ERROR"

	// exit 5
	CodeIntegrityError Code = "INTEGRITY_ERROR"

	// exit 6
	CodeValidationError     Code = "VALIDATION_ERROR"
	CodeFingerprintMismatch Code = "FINGERPRINT_MISMATCH"

	// exit 7
	CodeRotationFailed Code = "ROTATION_FAILED"
)

// Warning codes.
const (
	CodeWarnGeneric       Code = "WARN_GENERIC"
	CodeWarnReauthFailed  Code = "WARN_REAUTH_FAILED"
	CodeWarnKeyNotFound   Code = "WARN_KEY_NOT_FOUND"
	CodeWarnKeyserver     Code = "WARN_KEYSERVER_UNREACHABLE"
	CodeWarnNotTrusted    Code = "WARN_NOT_TRUSTED"
	CodeWarnRevoked       Code = "WARN_REVOKED"
	CodeWarnConfigMissing Code = "WARN_CONFIG_MISSING"
)

// IsWarning reports whether c is a warning code.
func (c Code) IsWarning() bool {
	switch c {
	case CodeWarnGeneric, CodeWarnReauthFailed, CodeWarnKeyNotFound, CodeWarnKeyserver,
		CodeWarnNotTrusted, CodeWarnRevoked, CodeWarnConfigMissing:
		return true
	}
	return false
}

func (c Code) String() string {
	return string(c)
}
