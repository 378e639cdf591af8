package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/cryptusers/cryptusers/pkg/cryptusers/identity"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/output"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/rotate"
)

// RotateOptions are the flags shared by rotate and remove.
type RotateOptions struct {
	DryRun bool
	Yes    bool
}

// Rotate replaces the repository's git-crypt key and re-adds every reachable
// trusted identity.
func (c *CLI) Rotate(ctx context.Context, opts RotateOptions) *Error {
	return c.runRotation(ctx, nil, opts)
}

// Remove rotates the key without re-adding the given fingerprints.
func (c *CLI) Remove(ctx context.Context, fingerprints []string, opts RotateOptions) *Error {
	exclude := make([]string, 0, len(fingerprints))
	for _, fp := range fingerprints {
		norm := identity.NormalizeFingerprint(fp)
		if !identity.IsFingerprint(norm) {
			return c.fail(NewErrorf(output.CodeInvalidInput, "invalid fingerprint %q: expected 40 hex characters", fp))
		}
		exclude = append(exclude, norm)
	}

	trust, err := c.repo.TrustedIdentities()
	if err != nil {
		return c.fail(err)
	}
	for _, fp := range identity.Unique(exclude) {
		if identity.ContainsFingerprint(trust, fp) {
			continue
		}
		if werr := c.output.Warnf(output.CodeWarnNotTrusted, "%s is not a trusted identity of this repository", fp); werr != nil {
			return c.fail(werr)
		}
	}
	return c.runRotation(ctx, identity.Unique(exclude), opts)
}

func (c *CLI) runRotation(ctx context.Context, exclude []string, opts RotateOptions) *Error {
	version, err := c.repo.Version(ctx)
	if err != nil {
		return c.fail(err)
	}
	c.output.Infof("%s", firstLine(version))

	plan, err := c.rotator.Plan(ctx)
	if err != nil {
		if plan != nil {
			c.printPlan(plan, exclude)
		}
		return c.fail(err)
	}
	c.printPlan(plan, exclude)

	if opts.DryRun {
		if c.output.IsJSON() {
			if err := c.output.WriteJSON(plan, nil); err != nil {
				return NewErrorf(output.CodeGeneralError, "failed to write JSON: %v", err)
			}
		}
		return nil
	}

	if !opts.Yes {
		prompt := fmt.Sprintf("Rotate the git-crypt key of %s? This adds %d commits.", c.root, 3+len(plan.Reachable))
		confirmed, confirmErr := PromptConfirm(prompt, c.output.Stderr())
		if confirmErr != nil {
			return confirmErr
		}
		if !confirmed {
			c.output.Infof("Rotation cancelled.")
			return nil
		}
	}

	report, err := c.rotator.Rotate(ctx, rotate.Options{Exclude: exclude})
	if c.progress != nil {
		c.progress.Stop()
	}
	if err != nil {
		e := FromError(err)
		if report != nil {
			e.WithDetail("run_id", report.RunID)
		}
		if c.output.IsJSON() {
			_ = c.output.WriteJSON(report, e)
		}
		return e
	}

	if c.output.IsJSON() {
		if err := c.output.WriteJSON(report, nil); err != nil {
			return NewErrorf(output.CodeGeneralError, "failed to write JSON: %v", err)
		}
	} else {
		c.output.Successf("%s rotated git-crypt key: %d re-added, %d removed, %d failed",
			c.output.OK("✓"), len(report.Reauthorized), len(report.Skipped), len(report.Failures))
	}

	if len(report.Failures) > 0 && c.output.IsStrict() {
		fps := make([]string, 0, len(report.Failures))
		for _, f := range report.Failures {
			fps = append(fps, f.Fingerprint)
		}
		return NewErrorf(output.CodeRotationFailed, "strict mode: failed to re-add %s", strings.Join(fps, ", ")).
			WithDetail("run_id", report.RunID)
	}
	return nil
}

// printPlan shows what a rotation will do with each trusted identity.
func (c *CLI) printPlan(plan *rotate.Plan, exclude []string) {
	for _, cand := range plan.Candidates {
		var status string
		switch {
		case !cand.Known:
			status = "not in local keychain, will be dropped"
		case cand.Problem != "":
			status = "unreadable key, will be dropped"
		case cand.Revoked:
			status = c.output.Alert("REVOKED!") + " will be dropped"
		case !cand.Reachable():
			status = "not exportable, will be dropped"
		case identity.ContainsFingerprint(exclude, cand.Fingerprint):
			status = "will be removed"
		default:
			status = "will be re-added"
		}
		name := cand.Fingerprint
		if cand.Usernames != "" {
			name += " " + cand.Usernames
		}
		c.output.WriteLine(fmt.Sprintf("%s: %s", name, status))
	}
	c.output.WriteLine(fmt.Sprintf("%d of %d trusted identities reachable, %d required",
		len(plan.Reachable), len(plan.TrustSet), plan.Required))
}
