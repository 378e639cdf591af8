package rotate

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"

	"github.com/cryptusers/cryptusers/pkg/cryptusers/execx"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/gitcrypt"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/gpg"
)

// callLog is shared by the mocks so tests can assert on global ordering.
type callLog struct {
	calls []string
}

func (l *callLog) add(call string) {
	l.calls = append(l.calls, call)
}

func (l *callLog) count(prefix string) int {
	n := 0
	for _, c := range l.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

type mockInspector struct {
	log      *callLog
	locked   bool
	status   gitcrypt.Status
	trust    []string
	lockErr  error
	trustErr error
}

func (m *mockInspector) IsLocked(context.Context) (bool, error) {
	m.log.add("IsLocked")
	return m.locked, m.lockErr
}

func (m *mockInspector) Status(context.Context) (gitcrypt.Status, error) {
	m.log.add("Status")
	return m.status, nil
}

func (m *mockInspector) TrustedIdentities() ([]string, error) {
	m.log.add("TrustedIdentities")
	return m.trust, m.trustErr
}

type mockVCS struct {
	log       *callLog
	dirty     bool
	commitErr map[string]error
	ctxErrs   []error
	detached  []bool
}

func (m *mockVCS) IsClean(context.Context) (bool, error) {
	m.log.add("IsClean")
	return !m.dirty, nil
}

func (m *mockVCS) Stage(_ context.Context, path string) error {
	m.log.add("Stage " + path)
	return nil
}

func (m *mockVCS) Commit(ctx context.Context, message string) error {
	m.log.add("Commit " + message)
	m.ctxErrs = append(m.ctxErrs, ctx.Err())
	m.detached = append(m.detached, execx.Detached(ctx))
	return m.commitErr[message]
}

type mockVault struct {
	log        *callLog
	initErr    error
	addErr     map[string]error
	discardErr error
}

func (m *mockVault) RemoveHooks(context.Context) error {
	m.log.add("RemoveHooks")
	return nil
}

func (m *mockVault) DestroyState() error {
	m.log.add("DestroyState")
	return nil
}

func (m *mockVault) Init(context.Context) error {
	m.log.add("Init")
	return m.initErr
}

func (m *mockVault) InstallHooks(context.Context) error {
	m.log.add("InstallHooks")
	return nil
}

func (m *mockVault) AddUser(_ context.Context, fp string) error {
	m.log.add("AddUser " + fp)
	return m.addErr[fp]
}

func (m *mockVault) DiscardUser(_ context.Context, fp string) error {
	m.log.add("DiscardUser " + fp)
	return m.discardErr
}

type mockKeyring struct {
	log     *callLog
	entries []gpg.KeyEntry
	armored map[string]string
}

func (m *mockKeyring) ListKeys(context.Context) ([]gpg.KeyEntry, error) {
	m.log.add("ListKeys")
	return m.entries, nil
}

func (m *mockKeyring) ExportArmored(_ context.Context, fp string) (string, error) {
	m.log.add("ExportArmored " + fp)
	return m.armored[fp], nil
}

type mockBackups struct {
	log         *callLog
	snapshotErr error
	restoreErr  error
	onSnapshot  func()
	released    []string
}

func (m *mockBackups) Snapshot(string, []string) (string, error) {
	m.log.add("Snapshot")
	if m.onSnapshot != nil {
		m.onSnapshot()
	}
	if m.snapshotErr != nil {
		return "", m.snapshotErr
	}
	return "/tmp/git-crypt-backup-test", nil
}

func (m *mockBackups) Restore(string, string, []string) error {
	m.log.add("Restore")
	return m.restoreErr
}

func (m *mockBackups) Release(snapshot string) error {
	if snapshot != "" {
		m.log.add("Release")
		m.released = append(m.released, snapshot)
	}
	return nil
}

// testKey is a generated public key known by fingerprint.
type testKey struct {
	fingerprint string
	armored     string
}

func newTestKey(t *testing.T, name string) testKey {
	t.Helper()
	e, err := openpgp.NewEntity(name, "", strings.ToLower(name)+"@example.local",
		&packet.Config{Algorithm: packet.PubKeyAlgoEdDSA})
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return testKey{
		fingerprint: strings.ToUpper(hex.EncodeToString(e.PrimaryKey.Fingerprint)),
		armored:     armorEntity(t, e),
	}
}

func armorEntity(t *testing.T, e *openpgp.Entity) string {
	t.Helper()
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
	return buf.String()
}

type fixture struct {
	log       *callLog
	inspector *mockInspector
	vcs       *mockVCS
	vault     *mockVault
	keyring   *mockKeyring
	backups   *mockBackups
	keys      []testKey
	states    []State
	removed   []string
	orch      *Orchestrator
}

// newFixture builds an orchestrator whose trust set has total identities, the first
// known of which are in the local keyring.
func newFixture(t *testing.T, total, known int) *fixture {
	t.Helper()
	log := &callLog{}
	f := &fixture{
		log:       log,
		inspector: &mockInspector{log: log, status: gitcrypt.Status{Encrypted: []string{"secret.env", "certs/tls.key"}, Unencrypted: []string{"README.md"}}},
		vcs:       &mockVCS{log: log, commitErr: map[string]error{}},
		vault:     &mockVault{log: log, addErr: map[string]error{}},
		keyring:   &mockKeyring{log: log, armored: map[string]string{}},
		backups:   &mockBackups{log: log},
	}

	names := []string{"Alice", "Bob", "Carol", "Dave", "Erin", "Frank"}
	for i := 0; i < total; i++ {
		if i < known {
			k := newTestKey(t, names[i])
			f.keys = append(f.keys, k)
			f.inspector.trust = append(f.inspector.trust, k.fingerprint)
			f.keyring.entries = append(f.keyring.entries, gpg.KeyEntry{Fingerprint: k.fingerprint})
			f.keyring.armored[k.fingerprint] = k.armored
			continue
		}
		f.inspector.trust = append(f.inspector.trust, strings.Repeat(string(rune('A'+i)), 40))
	}

	f.orch = &Orchestrator{
		Root:         "/repo",
		Inspector:    f.inspector,
		VCS:          f.vcs,
		Vault:        f.vault,
		Keyring:      f.keyring,
		Backups:      f.backups,
		OnTransition: func(s State) { f.states = append(f.states, s) },
		removeFile: func(path string) error {
			log.add("Remove " + path)
			f.removed = append(f.removed, path)
			return nil
		},
	}
	return f
}

var errTool = errors.New("tool failed")
