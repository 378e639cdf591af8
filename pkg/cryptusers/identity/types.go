package identity

import "strings"

// Identity is an OpenPGP key authorized (or candidate to be authorized) to decrypt a
// repository. Fingerprint is the unique key; UIDs are descriptive only.
type Identity struct {
	Fingerprint string   `json:"fingerprint"`
	UIDs        []string `json:"uids,omitempty"`
	Revoked     bool     `json:"revoked,omitempty"`
}

// DisplayName joins the user ids for log lines.
func (i Identity) DisplayName() string {
	if len(i.UIDs) == 0 {
		return i.Fingerprint
	}
	return strings.Join(i.UIDs, ", ")
}
