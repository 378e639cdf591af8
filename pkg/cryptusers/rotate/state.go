package rotate

// State is a step of the rotation state machine.
type State int

const (
	StateStart State = iota
	StatePrechecked
	StateSnapshotted
	StateFilesDeleted
	StateVaultTeardown
	StateVaultRecreated
	StateFilesRestored
	StateReauthorized
	StateDone
	StateFailed
	StateCleanedUp
)

var stateNames = map[State]string{
	StateStart:          "START",
	StatePrechecked:     "PRECHECKED",
	StateSnapshotted:    "SNAPSHOTTED",
	StateFilesDeleted:   "FILES_DELETED",
	StateVaultTeardown:  "VAULT_TEARDOWN",
	StateVaultRecreated: "VAULT_RECREATED",
	StateFilesRestored:  "FILES_RESTORED",
	StateReauthorized:   "REAUTHORIZED",
	StateDone:           "DONE",
	StateFailed:         "FAILED",
	StateCleanedUp:      "CLEANED_UP",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalText renders the state name in JSON reports.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// reached describes what a state leaves behind in the repository, for error messages.
func (s State) reached() string {
	switch s {
	case StateStart:
		return "nothing changed"
	case StatePrechecked:
		return "preconditions passed, nothing changed"
	case StateSnapshotted:
		return "snapshot taken, nothing committed"
	case StateFilesDeleted:
		return "encrypted files deleted and committed"
	case StateVaultTeardown:
		return "vault torn down and committed"
	case StateVaultRecreated:
		return "vault recreated"
	case StateFilesRestored:
		return "files restored and committed"
	case StateReauthorized:
		return "identities re-authorized"
	default:
		return s.String()
	}
}
