package gpg

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/ProtonMail/gopenpgp/v3/crypto"

	"github.com/cryptusers/cryptusers/pkg/cryptusers/identity"
)

// publicKeyBlockHeader marks an ASCII-armored public key export.
const publicKeyBlockHeader = "-----BEGIN PGP PUBLIC KEY BLOCK-----"

// ValidationError reports input that does not hold exactly what an operation expects.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// UserID is one user identity packet of a key.
type UserID struct {
	Name        string `json:"name,omitempty"`
	Revocations int    `json:"revocations,omitempty"`
}

// KeyRecord is the parsed form of one armored public key.
type KeyRecord struct {
	Fingerprint string
	Users       []UserID
	// Revocation is the key's own revocation signature, nil if the key is not revoked.
	Revocation *packet.Signature
}

// IsRevoked reports whether the key or any of its user ids carries a revocation.
func (r *KeyRecord) IsRevoked() bool {
	if r.Revocation != nil {
		return true
	}
	for _, u := range r.Users {
		if u.Revocations > 0 {
			return true
		}
	}
	return false
}

// Usernames joins the user id strings, using "unknown" for ids without a name.
func (r *KeyRecord) Usernames() string {
	names := make([]string, 0, len(r.Users))
	for _, u := range r.Users {
		if u.Name == "" {
			names = append(names, "unknown")
			continue
		}
		names = append(names, u.Name)
	}
	return strings.Join(names, ", ")
}

// Identity converts the record into an identity.Identity.
func (r *KeyRecord) Identity() identity.Identity {
	id := identity.Identity{Fingerprint: r.Fingerprint, Revoked: r.IsRevoked()}
	for _, u := range r.Users {
		if u.Name != "" {
			id.UIDs = append(id.UIDs, u.Name)
		}
	}
	return id
}

// ParseIdentityRecord parses an ASCII-armored block holding exactly one public key.
// Zero keys or more than one key is a *ValidationError.
func ParseIdentityRecord(armored string) (*KeyRecord, error) {
	entities, err := openpgp.ReadArmoredKeyRing(strings.NewReader(armored))
	if err != nil {
		return nil, &ValidationError{Reason: "expected a single armored public key", Err: err}
	}
	if len(entities) != 1 {
		return nil, &ValidationError{Reason: fmt.Sprintf("expected a single armored public key, found %d", len(entities))}
	}
	return recordFromEntity(entities[0]), nil
}

func recordFromEntity(e *openpgp.Entity) *KeyRecord {
	rec := &KeyRecord{}
	if e.PrimaryKey != nil {
		rec.Fingerprint = identity.NormalizeFingerprint(hex.EncodeToString(e.PrimaryKey.Fingerprint))
	}
	if len(e.Revocations) > 0 {
		rec.Revocation = e.Revocations[0]
	}

	// Identities is a map; sort for stable output.
	names := make([]string, 0, len(e.Identities))
	for name := range e.Identities {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		id := e.Identities[name]
		if id == nil {
			continue
		}
		rec.Users = append(rec.Users, UserID{Name: id.Name, Revocations: len(id.Revocations)})
	}
	return rec
}

// VerifyArmoredFingerprint checks that armored holds the key with the given fingerprint.
// Keyserver responses are checked with it before being imported.
func VerifyArmoredFingerprint(armored, fingerprint string) error {
	key, err := crypto.NewKeyFromArmored(armored)
	if err != nil {
		return &ValidationError{Reason: "failed to parse public key", Err: err}
	}
	if !identity.CompareFingerprints(key.GetFingerprint(), fingerprint) {
		return &ValidationError{Reason: fmt.Sprintf("fingerprint mismatch: got %s, want %s",
			identity.NormalizeFingerprint(key.GetFingerprint()), identity.NormalizeFingerprint(fingerprint))}
	}
	return nil
}
