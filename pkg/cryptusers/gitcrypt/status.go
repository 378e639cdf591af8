package gitcrypt

import "strings"

// Status partitions tracked paths by encryption state. It is derived fresh on
// every query.
type Status struct {
	Encrypted   []string `json:"encrypted"`
	Unencrypted []string `json:"unencrypted"`
}

const encryptedToken = "encrypted"

// ParseStatus parses `git crypt status` output. Each non-empty line is
// "<token>: <path>"; any token other than "encrypted" counts as unencrypted.
// Lines without a separator are ignored.
func ParseStatus(text string) Status {
	var s Status
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		token, path, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		token = strings.TrimSpace(token)
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if token == encryptedToken {
			s.Encrypted = append(s.Encrypted, path)
		} else {
			s.Unencrypted = append(s.Unencrypted, path)
		}
	}
	return s
}
