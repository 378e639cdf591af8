package cli

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"

	"github.com/cryptusers/cryptusers/pkg/cryptusers/gpg"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/output"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/rotate"
)

type mockKeyring struct {
	entries   []gpg.KeyEntry
	armored   map[string]string
	imported  []string
	importErr error
}

func (m *mockKeyring) Version(context.Context) (string, error) {
	return "gpg (GnuPG) 2.4.5\nlibgcrypt 1.10.3", nil
}

func (m *mockKeyring) ListKeys(context.Context) ([]gpg.KeyEntry, error) {
	return m.entries, nil
}

func (m *mockKeyring) ExportArmored(_ context.Context, fp string) (string, error) {
	return m.armored[fp], nil
}

func (m *mockKeyring) Import(_ context.Context, armored string) error {
	if m.importErr != nil {
		return m.importErr
	}
	m.imported = append(m.imported, armored)
	return nil
}

type mockRepository struct {
	trust    []string
	trustErr error
}

func (m *mockRepository) Version(context.Context) (string, error) {
	return "git-crypt 0.7.0", nil
}

func (m *mockRepository) TrustedIdentities() ([]string, error) {
	return m.trust, m.trustErr
}

type mockLookuper struct {
	keys  map[string]string
	err   error
	calls []string
}

func (m *mockLookuper) Lookup(_ context.Context, fp string) (string, error) {
	m.calls = append(m.calls, fp)
	if k, ok := m.keys[fp]; ok {
		return k, nil
	}
	return "", m.err
}

type mockRotator struct {
	plan      *rotate.Plan
	planErr   error
	report    *rotate.Report
	rotateErr error
	rotated   []rotate.Options
}

func (m *mockRotator) Plan(context.Context) (*rotate.Plan, error) {
	return m.plan, m.planErr
}

func (m *mockRotator) Rotate(_ context.Context, opts rotate.Options) (*rotate.Report, error) {
	m.rotated = append(m.rotated, opts)
	return m.report, m.rotateErr
}

// testKey is a generated public key known by fingerprint.
type testKey struct {
	fingerprint string
	uid         string
	armored     string
}

func newTestKey(t *testing.T, name string) testKey {
	t.Helper()
	email := strings.ToLower(name) + "@example.local"
	e, err := openpgp.NewEntity(name, "", email, &packet.Config{Algorithm: packet.PubKeyAlgoEdDSA})
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Serialize(w); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	return testKey{
		fingerprint: strings.ToUpper(hex.EncodeToString(e.PrimaryKey.Fingerprint)),
		uid:         name + " <" + email + ">",
		armored:     buf.String(),
	}
}

type testCLI struct {
	*CLI
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	keyring *mockKeyring
	repo    *mockRepository
	lookup  *mockLookuper
	rotator *mockRotator
}

func newTestCLI(opts ...output.HandlerOption) *testCLI {
	tc := &testCLI{
		stdout:  &bytes.Buffer{},
		stderr:  &bytes.Buffer{},
		keyring: &mockKeyring{armored: map[string]string{}},
		repo:    &mockRepository{},
		lookup:  &mockLookuper{keys: map[string]string{}},
		rotator: &mockRotator{},
	}
	opts = append([]output.HandlerOption{output.WithColor(false)}, opts...)
	tc.CLI = &CLI{
		root:       "/work/repo",
		keyring:    tc.keyring,
		repo:       tc.repo,
		keyservers: tc.lookup,
		rotator:    tc.rotator,
		output:     output.NewHandler(tc.stdout, tc.stderr, opts...),
	}
	return tc
}

// know adds k to the mock keyring.
func (tc *testCLI) know(k testKey, revoked bool) {
	tc.keyring.entries = append(tc.keyring.entries, gpg.KeyEntry{Fingerprint: k.fingerprint, Revoked: revoked})
	tc.keyring.armored[k.fingerprint] = k.armored
}

func (tc *testCLI) lines() []string {
	return strings.Split(strings.TrimRight(tc.stdout.String(), "\n"), "\n")
}

type envelope struct {
	Data     json.RawMessage `json:"data"`
	Warnings []struct {
		Code string `json:"code"`
	} `json:"warnings"`
	Error *struct {
		Code     string         `json:"code"`
		Message  string         `json:"message"`
		Details  map[string]any `json:"details"`
		ExitCode int            `json:"exit_code"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, data []byte) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, data)
	}
	return env
}
