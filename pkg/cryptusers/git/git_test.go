package git

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/cryptusers/cryptusers/pkg/cryptusers/execx"
)

func TestRepo_IsClean(t *testing.T) {
	tests := []struct {
		name    string
		exit    int
		want    bool
		wantErr bool
	}{
		{"clean", 0, true, false},
		{"dirty", 1, false, false},
		{"no HEAD", 128, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := execx.NewRecorder().On("git diff-index --quiet HEAD --", execx.Result{ExitCode: tt.exit})
			repo := NewRepo(r, "", "/repo")

			got, err := repo.IsClean(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("IsClean() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("IsClean() = %v, want %v", got, tt.want)
			}
			if r.Calls[0].Dir != "/repo" {
				t.Errorf("command ran in %q, want /repo", r.Calls[0].Dir)
			}
		})
	}
}

func TestRepo_ConfigUnsetSkipsAbsentKeys(t *testing.T) {
	r := execx.NewRecorder().On("git config --local --list", execx.Result{
		Stdout: "core.bare\nfilter.git-crypt.smudge\n",
	})
	repo := NewRepo(r, "git", "/repo")

	if err := repo.ConfigUnset(context.Background(), "diff.git-crypt.textconv"); err != nil {
		t.Fatalf("ConfigUnset(absent) error = %v", err)
	}
	if err := repo.ConfigUnset(context.Background(), "filter.git-crypt.smudge"); err != nil {
		t.Fatalf("ConfigUnset(present) error = %v", err)
	}

	want := []string{
		"git config --local --list --name-only",
		"git config --local --list --name-only",
		"git config --local --unset filter.git-crypt.smudge",
	}
	if got := r.Commands(); !reflect.DeepEqual(got, want) {
		t.Errorf("commands = %v, want %v", got, want)
	}
}

func TestRepo_ListLocalConfigKeysEmpty(t *testing.T) {
	r := execx.NewRecorder().On("git config --local --list", execx.Result{ExitCode: 1})
	repo := NewRepo(r, "git", "/repo")

	keys, err := repo.ListLocalConfigKeys(context.Background())
	if err != nil || len(keys) != 0 {
		t.Errorf("ListLocalConfigKeys() = %v, %v; want empty, nil", keys, err)
	}
}

func TestRepo_Commands(t *testing.T) {
	r := execx.NewRecorder().On("git ls-tree", execx.Result{Stdout: "a.txt\x00secret/b.key\x00"})
	repo := NewRepo(r, "git", "/repo")
	ctx := context.Background()

	files, err := repo.ListTrackedFiles(ctx, "main")
	if err != nil {
		t.Fatalf("ListTrackedFiles() error = %v", err)
	}
	if !reflect.DeepEqual(files, []string{"a.txt", "secret/b.key"}) {
		t.Errorf("ListTrackedFiles() = %v", files)
	}
	if err := repo.Stage(ctx, "secret/b.key"); err != nil {
		t.Fatal(err)
	}
	if err := repo.Commit(ctx, "git-crypt: restore encrypted files"); err != nil {
		t.Fatal(err)
	}
	if err := repo.ConfigSetBool(ctx, "filter.git-crypt.required", true); err != nil {
		t.Fatal(err)
	}
	if err := repo.Unstage(ctx, ".git-crypt/keys/default/0/AB.gpg"); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"git ls-tree -r -z --name-only main",
		"git add -- secret/b.key",
		"git commit -a -m git-crypt: restore encrypted files",
		"git config --local --bool filter.git-crypt.required true",
		"git rm --cached -q --ignore-unmatch -- .git-crypt/keys/default/0/AB.gpg",
	}
	if got := r.Commands(); !reflect.DeepEqual(got, want) {
		t.Errorf("commands = %v, want %v", got, want)
	}
}

func TestRepo_ListTrackedFilesKeepsUnquotedPaths(t *testing.T) {
	r := execx.NewRecorder().On("git ls-tree", execx.Result{
		Stdout: "g\u00e9heim.txt\x00dir with space/a\tb.env\x00line\nbreak\x00",
	})
	repo := NewRepo(r, "git", "/repo")

	files, err := repo.ListTrackedFiles(context.Background(), "master")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"g\u00e9heim.txt", "dir with space/a\tb.env", "line\nbreak"}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("ListTrackedFiles() = %q, want %q", files, want)
	}
}

func TestRepo_CommitFailure(t *testing.T) {
	r := execx.NewRecorder().On("git commit", execx.Result{ExitCode: 1, Stderr: "nothing to commit"})
	repo := NewRepo(r, "git", "/repo")

	err := repo.Commit(context.Background(), "msg")
	var toolErr *execx.ExternalToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("Commit() error = %v, want *execx.ExternalToolError", err)
	}
}

func TestTopLevel(t *testing.T) {
	r := execx.NewRecorder().On("git rev-parse --show-toplevel", execx.Result{Stdout: "/home/me/repo\n"})
	got, err := TopLevel(context.Background(), r, "", "/home/me/repo/sub")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/home/me/repo" {
		t.Errorf("TopLevel() = %q", got)
	}
}
