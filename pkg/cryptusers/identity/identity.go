package identity

import (
	"regexp"
	"strings"
)

// FingerprintLength is the number of hex characters in a v4 OpenPGP fingerprint.
const FingerprintLength = 40

var fingerprintPattern = regexp.MustCompile(`^[0-9A-F]{40}$`)

// NormalizeFingerprint normalizes a GPG fingerprint to uppercase without whitespace.
func NormalizeFingerprint(fingerprint string) string {
	return strings.ToUpper(strings.Join(strings.Fields(fingerprint), ""))
}

// IsFingerprint reports whether s is a fingerprint once normalized.
func IsFingerprint(s string) bool {
	return fingerprintPattern.MatchString(NormalizeFingerprint(s))
}

// CompareFingerprints compares two fingerprints for equality, ignoring case and spaces.
func CompareFingerprints(fp1, fp2 string) bool {
	return NormalizeFingerprint(fp1) == NormalizeFingerprint(fp2)
}

// ContainsFingerprint reports whether fp is in list, comparing normalized forms.
func ContainsFingerprint(list []string, fp string) bool {
	for _, candidate := range list {
		if CompareFingerprints(candidate, fp) {
			return true
		}
	}
	return false
}

// Unique returns normalized fingerprints in first-seen order with duplicates removed.
func Unique(fingerprints []string) []string {
	seen := make(map[string]bool, len(fingerprints))
	out := make([]string, 0, len(fingerprints))
	for _, fp := range fingerprints {
		n := NormalizeFingerprint(fp)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
