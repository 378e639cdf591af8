package gpg

import (
	"regexp"
	"strings"

	"github.com/cryptusers/cryptusers/pkg/cryptusers/identity"
)

// KeyEntry is one key parsed from a keyring listing. It is recomputed on every listing
// and never persisted.
type KeyEntry struct {
	Fingerprint string `json:"fingerprint"`
	Email       string `json:"email,omitempty"`
	Revoked     bool   `json:"revoked,omitempty"`
}

var (
	// anyFingerprint finds a fingerprint anywhere in a blank-line separated entry.
	anyFingerprint = regexp.MustCompile(`(?i)\b[0-9A-F]{40}\b`)
	emailPattern   = regexp.MustCompile(`<([^<>\s]+)>`)
)

// ParseListing parses the line-oriented output of `gpg --list-public-keys --with-fingerprint`.
//
// A line starting with "pub" or "sec" opens an entry. The fingerprint is the first line
// of the entry that is exactly 40 hex characters once a "Key fingerprint =" label and
// all whitespace are removed; fingerprints printed after a "sub"/"ssb" line belong to
// subkeys and are ignored. The email comes from the first "uid" line. An entry is only
// emitted if a fingerprint was found before the next "pub"/"sec" line or end of input.
//
// Both the GnuPG 2.1 layout (labelled, spaced fingerprint) and the 2.2+ layout (bare
// fingerprint, blank line between entries) are accepted.
func ParseListing(listing string) []KeyEntry {
	var entries []KeyEntry
	var current *KeyEntry
	inSubkey := false

	flush := func() {
		if current != nil && current.Fingerprint != "" {
			entries = append(entries, *current)
		}
		current = nil
	}

	for _, raw := range splitLines(listing) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch recordMarker(line) {
		case "pub", "sec":
			flush()
			current = &KeyEntry{Revoked: hasRevocationMarker(line)}
			inSubkey = false
			continue
		}

		if current == nil {
			// keyring path and separator header
			continue
		}

		switch recordMarker(line) {
		case "uid":
			if current.Email == "" {
				current.Email = extractEmail(line)
			}
			if hasRevocationMarker(line) {
				current.Revoked = true
			}
		case "sub", "ssb":
			inSubkey = true
		default:
			if inSubkey || current.Fingerprint != "" {
				continue
			}
			if fp := fingerprintFromLine(line); fp != "" {
				current.Fingerprint = fp
			}
		}
	}
	flush()

	return entries
}

// parseBlocks parses listings whose entries are separated by a blank line, taking the
// first 40-hex-character run of each entry as its fingerprint.
func parseBlocks(listing string) []KeyEntry {
	normalized := strings.Join(splitLines(listing), "\n")
	var entries []KeyEntry
	for _, block := range strings.Split(normalized, "\n\n") {
		fp := anyFingerprint.FindString(block)
		if fp == "" {
			continue
		}
		entries = append(entries, KeyEntry{
			Fingerprint: identity.NormalizeFingerprint(fp),
			Email:       extractEmail(block),
			Revoked:     hasRevocationMarker(block),
		})
	}
	return entries
}

// ParseEntries parses a listing in either known format.
func ParseEntries(listing string) []KeyEntry {
	entries := ParseListing(listing)
	if len(entries) == 0 {
		entries = parseBlocks(listing)
	}
	return entries
}

// KnownFingerprints returns the unique fingerprints of a listing in listing order.
// Empty or unparseable input yields an empty slice.
func KnownFingerprints(listing string) []string {
	entries := ParseEntries(listing)
	fps := make([]string, 0, len(entries))
	for _, e := range entries {
		fps = append(fps, e.Fingerprint)
	}
	return identity.Unique(fps)
}

func splitLines(s string) []string {
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}

// recordMarker returns the leading record token ("pub", "sec#" -> "sec", ...).
func recordMarker(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimRight(fields[0], "#>")
}

func fingerprintFromLine(line string) string {
	if idx := strings.Index(line, "="); idx >= 0 {
		line = line[idx+1:]
	}
	if !identity.IsFingerprint(line) {
		return ""
	}
	return identity.NormalizeFingerprint(line)
}

func extractEmail(text string) string {
	m := emailPattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func hasRevocationMarker(line string) bool {
	return strings.Contains(strings.ToLower(line), "revoked")
}
