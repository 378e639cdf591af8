package keyserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const testFingerprint = "1D5F7BFE54E5C2E978AF88FF6BC3D9B3589EF98F"

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pks/lookup" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("op") != "get" || q.Get("options") != "mr" || q.Get("search") != "0x"+testFingerprint {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHKP_Lookup(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{"found", http.StatusOK, "-----BEGIN PGP PUBLIC KEY BLOCK-----\n...\n", "-----BEGIN PGP PUBLIC KEY BLOCK-----\n...", false},
		{"not found", http.StatusNotFound, "No results found", "", false},
		{"bad request", http.StatusBadRequest, "nope", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, tt.status, tt.body)
			h := NewHKP(srv.URL+"/", Options{})

			got, err := h.Lookup(context.Background(), strings.ToLower(testFingerprint))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Lookup() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Lookup() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHKP_LookupURL(t *testing.T) {
	h := NewHKP("https://pgp.mit.edu/", Options{})
	got := h.LookupURL("1d5f 7bfe 54e5 c2e9 78af 88ff 6bc3 d9b3 589e f98f")
	want := "https://pgp.mit.edu/pks/lookup?op=get&options=mr&search=0x" + testFingerprint
	if got != want {
		t.Errorf("LookupURL() = %q, want %q", got, want)
	}
}

type fakeLookuper struct {
	result string
	err    error
	calls  int
}

func (f *fakeLookuper) Lookup(context.Context, string) (string, error) {
	f.calls++
	return f.result, f.err
}

func TestPool_Lookup(t *testing.T) {
	t.Run("first non-empty wins", func(t *testing.T) {
		down := &fakeLookuper{err: errors.New("connection refused")}
		empty := &fakeLookuper{}
		hit := &fakeLookuper{result: "KEY"}
		never := &fakeLookuper{result: "OTHER"}
		p := &Pool{Servers: []Lookuper{down, empty, hit, never}}

		got, err := p.Lookup(context.Background(), testFingerprint)
		if err != nil {
			t.Fatalf("Lookup() error = %v", err)
		}
		if got != "KEY" {
			t.Errorf("Lookup() = %q, want KEY", got)
		}
		if never.calls != 0 {
			t.Error("servers after the first hit should not be queried")
		}
	})

	t.Run("all unreachable", func(t *testing.T) {
		p := &Pool{Servers: []Lookuper{
			&fakeLookuper{err: errors.New("timeout")},
			&fakeLookuper{err: errors.New("connection refused")},
		}}

		_, err := p.Lookup(context.Background(), testFingerprint)
		var lookupErrs *LookupErrors
		if !errors.As(err, &lookupErrs) {
			t.Fatalf("error = %v, want *LookupErrors", err)
		}
		if len(lookupErrs.Errs) != 2 {
			t.Errorf("collected %d errors, want 2", len(lookupErrs.Errs))
		}
	})

	t.Run("unknown everywhere", func(t *testing.T) {
		p := &Pool{Servers: []Lookuper{&fakeLookuper{}, &fakeLookuper{}}}
		got, err := p.Lookup(context.Background(), testFingerprint)
		if err != nil || got != "" {
			t.Errorf("Lookup() = %q, %v; want empty, nil", got, err)
		}
	})
}

func TestNewPool_Defaults(t *testing.T) {
	p := NewPool(nil, Options{})
	if len(p.Servers) != len(DefaultServers) {
		t.Fatalf("NewPool(nil) has %d servers, want %d", len(p.Servers), len(DefaultServers))
	}
	for i, s := range p.Servers {
		if s.(*HKP).BaseURL != DefaultServers[i] {
			t.Errorf("server %d = %s, want %s", i, s.(*HKP).BaseURL, DefaultServers[i])
		}
	}
}
