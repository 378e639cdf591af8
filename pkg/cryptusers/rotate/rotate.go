// Package rotate replaces the shared git-crypt key of a repository and
// re-authorizes the trusted identities that are still reachable.
//
// A rotation runs, in order: status, snapshot, delete and commit the encrypted
// files, remove hooks, destroy the vault state and commit, init a new vault,
// restore and commit the files, install hooks, then re-add every reachable
// identity with one commit each. The snapshot is released on every exit path.
package rotate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/cryptusers/cryptusers/pkg/cryptusers/backup"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/execx"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/gitcrypt"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/gpg"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/identity"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/output"
)

// Commit messages of the discrete rotation commits.
const (
	MsgFilesDeleted  = "git-crypt: deleted encrypted files"
	MsgVaultDestroy  = "`rm -rf .git-crypt .git/git-crypt`"
	MsgFilesRestored = "git-crypt: restore encrypted files"
	msgAddUserPrefix = "`git crypt add-gpg-user`: "
)

// Inspector reads repository state.
type Inspector interface {
	IsLocked(ctx context.Context) (bool, error)
	Status(ctx context.Context) (gitcrypt.Status, error)
	TrustedIdentities() ([]string, error)
}

// VCS records changes.
type VCS interface {
	IsClean(ctx context.Context) (bool, error)
	Stage(ctx context.Context, path string) error
	Commit(ctx context.Context, message string) error
}

// Vault drives the encryption tool.
type Vault interface {
	RemoveHooks(ctx context.Context) error
	DestroyState() error
	Init(ctx context.Context) error
	InstallHooks(ctx context.Context) error
	AddUser(ctx context.Context, fingerprint string) error
	DiscardUser(ctx context.Context, fingerprint string) error
}

// Keyring reads the local keyring.
type Keyring interface {
	ListKeys(ctx context.Context) ([]gpg.KeyEntry, error)
	ExportArmored(ctx context.Context, fingerprint string) (string, error)
}

// Backups holds plaintext copies while the vault is rebuilt.
type Backups interface {
	Snapshot(sourceRoot string, paths []string) (string, error)
	Restore(snapshot, targetRoot string, paths []string) error
	Release(snapshot string) error
}

// Orchestrator runs rotations for one repository. It assumes it is the only writer.
type Orchestrator struct {
	Root      string
	Inspector Inspector
	VCS       VCS
	Vault     Vault
	Keyring   Keyring
	Backups   Backups
	Policy    QuorumPolicy
	Output    *output.Handler

	// OnTransition, if set, is called on every state change.
	OnTransition func(State)

	removeFile func(path string) error
}

// Candidate is a trusted fingerprint resolved against the local keyring.
type Candidate struct {
	Fingerprint string         `json:"fingerprint"`
	Known       bool           `json:"known"`
	Revoked     bool           `json:"revoked"`
	Usernames   string         `json:"usernames,omitempty"`
	Problem     string         `json:"problem,omitempty"`
	Record      *gpg.KeyRecord `json:"-"`
}

// Reachable reports whether the candidate can be re-authorized.
func (c Candidate) Reachable() bool {
	return c.Known && !c.Revoked && c.Record != nil
}

// Plan is the outcome of the precondition checks.
type Plan struct {
	TrustSet   []string    `json:"trust_set"`
	Candidates []Candidate `json:"candidates"`
	Reachable  []Candidate `json:"reachable"`
	Required   int         `json:"required"`
}

// Options tune a single rotation.
type Options struct {
	// Exclude lists fingerprints that are not re-authorized.
	Exclude []string
}

// Failure is a re-authorization that did not succeed.
type Failure struct {
	Fingerprint string `json:"fingerprint"`
	Usernames   string `json:"usernames,omitempty"`
	Message     string `json:"error"`
	Err         error  `json:"-"`
}

// Report summarizes a rotation.
type Report struct {
	RunID        string    `json:"run_id"`
	State        State     `json:"state"`
	Scope        []string  `json:"scope"`
	Reauthorized []string  `json:"reauthorized"`
	Skipped      []string  `json:"skipped,omitempty"`
	Failures     []Failure `json:"failures,omitempty"`
	CleanedUp    bool      `json:"cleaned_up"`
}

// Plan checks the preconditions in order (locked, dirty, quorum) without
// modifying anything.
func (o *Orchestrator) Plan(ctx context.Context) (*Plan, error) {
	locked, err := o.Inspector.IsLocked(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check lock state: %w", err)
	}
	if locked {
		return nil, &PreconditionError{Reason: ReasonLocked}
	}

	clean, err := o.VCS.IsClean(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check working tree: %w", err)
	}
	if !clean {
		return nil, &PreconditionError{Reason: ReasonDirty}
	}

	trust, err := o.Inspector.TrustedIdentities()
	if err != nil {
		return nil, err
	}
	trust = identity.Unique(trust)

	candidates, err := Resolve(ctx, o.Keyring, trust)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		TrustSet:   trust,
		Candidates: candidates,
		Required:   o.Policy.Required(len(trust)),
	}
	for _, c := range candidates {
		if c.Reachable() {
			plan.Reachable = append(plan.Reachable, c)
		}
	}

	if !o.Policy.Met(len(plan.Reachable), len(trust)) {
		detail := fmt.Sprintf("%d of %d reachable, need %d", len(plan.Reachable), len(trust), plan.Required)
		if len(plan.Reachable) == 0 {
			detail = "no matching keys in the local keyring"
		}
		return plan, &PreconditionError{Reason: ReasonQuorum, Detail: detail}
	}
	return plan, nil
}

// Resolve looks up every trusted fingerprint in the keyring. Nothing is filtered:
// callers decide what to do with unknown, revoked or unparsable keys.
func Resolve(ctx context.Context, keyring Keyring, trust []string) ([]Candidate, error) {
	entries, err := keyring.ListKeys(ctx)
	if err != nil {
		return nil, err
	}
	listed := make(map[string]gpg.KeyEntry, len(entries))
	for _, e := range entries {
		listed[e.Fingerprint] = e
	}

	candidates := make([]Candidate, 0, len(trust))
	for _, fp := range trust {
		c := Candidate{Fingerprint: fp}
		entry, ok := listed[identity.NormalizeFingerprint(fp)]
		if !ok {
			candidates = append(candidates, c)
			continue
		}
		c.Known = true
		c.Revoked = entry.Revoked

		armored, err := keyring.ExportArmored(ctx, fp)
		if err != nil {
			return nil, err
		}
		if armored != "" {
			rec, err := gpg.ParseIdentityRecord(armored)
			if err != nil {
				c.Problem = err.Error()
				candidates = append(candidates, c)
				continue
			}
			c.Record = rec
			c.Usernames = rec.Usernames()
			c.Revoked = c.Revoked || rec.IsRevoked()
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// Rotate replaces the vault key and re-authorizes the reachable identities not in
// opts.Exclude. Failures before re-authorization abort with a *StepError; failed
// re-authorizations are collected in the report. The snapshot is released before
// Rotate returns, whatever the outcome.
func (o *Orchestrator) Rotate(ctx context.Context, opts Options) (report *Report, err error) {
	report = &Report{RunID: uuid.NewString(), State: StateStart}
	snapshot := ""

	defer func() {
		if rerr := o.Backups.Release(snapshot); rerr != nil {
			err = errors.Join(err, fmt.Errorf("plaintext snapshot %s was not removed: %w", snapshot, rerr))
		} else {
			report.CleanedUp = true
		}
		if err != nil {
			o.transition(report, StateFailed)
		} else {
			o.transition(report, StateDone)
		}
		o.notify(StateCleanedUp)
	}()

	plan, err := o.Plan(ctx)
	if err != nil {
		return report, err
	}
	o.transition(report, StatePrechecked)

	status, err := o.Inspector.Status(ctx)
	if err != nil {
		return report, o.abort(report, "status", err)
	}
	report.Scope = append([]string{}, status.Encrypted...)

	snapshot, err = o.Backups.Snapshot(o.Root, report.Scope)
	if err != nil {
		return report, o.abort(report, "snapshot", err)
	}
	o.transition(report, StateSnapshotted)

	return report, o.rebuild(execx.Detach(context.WithoutCancel(ctx)), report, plan, snapshot, opts)
}

// rebuild runs the destructive steps. It is not cancellable, and the tools it
// starts do not receive terminal interrupts. With no encrypted files the delete
// and restore commits would be empty and are skipped.
func (o *Orchestrator) rebuild(ctx context.Context, report *Report, plan *Plan, snapshot string, opts Options) error {
	remove := o.removeFile
	if remove == nil {
		remove = backup.RemoveIfExists
	}

	for _, rel := range report.Scope {
		if err := remove(filepath.Join(o.Root, filepath.FromSlash(rel))); err != nil {
			return o.abort(report, "delete", err)
		}
	}
	if len(report.Scope) == 0 {
		o.info("no encrypted files, skipping the delete and restore commits")
	} else if err := o.VCS.Commit(ctx, MsgFilesDeleted); err != nil {
		return o.abort(report, "delete commit", err)
	}
	o.transition(report, StateFilesDeleted)

	if err := o.Vault.RemoveHooks(ctx); err != nil {
		return o.abort(report, "hook removal", err)
	}
	if err := o.Vault.DestroyState(); err != nil {
		return o.abort(report, "vault teardown", err)
	}
	if err := o.VCS.Commit(ctx, MsgVaultDestroy); err != nil {
		return o.abort(report, "teardown commit", err)
	}
	o.transition(report, StateVaultTeardown)

	if err := o.Vault.Init(ctx); err != nil {
		return o.abort(report, "vault init", err)
	}
	o.transition(report, StateVaultRecreated)

	if err := o.Backups.Restore(snapshot, o.Root, report.Scope); err != nil {
		return o.abort(report, "restore", err)
	}
	for _, rel := range report.Scope {
		if err := o.VCS.Stage(ctx, rel); err != nil {
			return o.abort(report, "restore", err)
		}
	}
	if len(report.Scope) > 0 {
		if err := o.VCS.Commit(ctx, MsgFilesRestored); err != nil {
			return o.abort(report, "restore commit", err)
		}
	}
	o.transition(report, StateFilesRestored)

	if err := o.Vault.InstallHooks(ctx); err != nil {
		return o.abort(report, "hook install", err)
	}

	o.reauthorize(ctx, report, plan.Reachable, opts.Exclude)
	o.transition(report, StateReauthorized)
	return nil
}

// reauthorize adds each identity in turn. add-gpg-user commits are serialized and a
// failure never stops the loop. A failed identity's key file is discarded so the
// next commit does not pick it up.
func (o *Orchestrator) reauthorize(ctx context.Context, report *Report, reachable []Candidate, exclude []string) {
	report.Reauthorized = make([]string, 0, len(reachable))
	for _, c := range reachable {
		if identity.ContainsFingerprint(exclude, c.Fingerprint) {
			report.Skipped = append(report.Skipped, c.Fingerprint)
			o.info("skipping %s %s as requested", c.Fingerprint, c.Usernames)
			continue
		}

		err := o.Vault.AddUser(ctx, c.Fingerprint)
		if err == nil {
			err = o.VCS.Commit(ctx, msgAddUserPrefix+c.Usernames)
		}
		if err != nil {
			if derr := o.Vault.DiscardUser(ctx, c.Fingerprint); derr != nil {
				err = errors.Join(err, derr)
			}
			report.Failures = append(report.Failures, Failure{
				Fingerprint: c.Fingerprint,
				Usernames:   c.Usernames,
				Message:     err.Error(),
				Err:         err,
			})
			o.warn("unable to add user %s (%s): %v", c.Usernames, c.Fingerprint, err)
			continue
		}
		report.Reauthorized = append(report.Reauthorized, c.Fingerprint)
	}
}

func (o *Orchestrator) abort(report *Report, step string, err error) error {
	return &StepError{Reached: report.State, Step: step, Err: err}
}

func (o *Orchestrator) transition(report *Report, s State) {
	report.State = s
	o.notify(s)
}

func (o *Orchestrator) notify(s State) {
	if o.OnTransition != nil {
		o.OnTransition(s)
	}
}

func (o *Orchestrator) info(format string, args ...any) {
	if o.Output != nil {
		o.Output.Infof(format, args...)
	}
}

// warn reports a re-authorization failure. Strict mode is ignored here: the loop
// must finish.
func (o *Orchestrator) warn(format string, args ...any) {
	if o.Output != nil {
		_ = o.Output.Warnf(output.CodeWarnReauthFailed, format, args...)
	}
}
