// Package keyserver looks up public keys on HKP keyservers.
package keyserver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/cryptusers/cryptusers/pkg/cryptusers/identity"
)

// DefaultServers are queried when no keyservers are configured.
var DefaultServers = []string{
	"https://pgp.mit.edu",
	"https://keyserver.pgp.com",
}

const lookupPath = "/pks/lookup"

// Lookuper fetches the armored public key for a fingerprint.
// An empty result with a nil error means the server does not know the key.
type Lookuper interface {
	Lookup(ctx context.Context, fingerprint string) (string, error)
}

// HKP queries one keyserver over the HKP lookup endpoint.
type HKP struct {
	BaseURL string
	client  *retryablehttp.Client
}

// Options tune the HTTP client shared by the HKP lookups.
type Options struct {
	Timeout  time.Duration
	RetryMax int
}

// NewHKP returns a lookup client for baseURL.
func NewHKP(baseURL string, opts Options) *HKP {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = opts.RetryMax
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	if opts.Timeout > 0 {
		client.HTTPClient.Timeout = opts.Timeout
	}
	return &HKP{BaseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// LookupURL returns the machine-readable lookup URL for fingerprint.
func (h *HKP) LookupURL(fingerprint string) string {
	q := url.Values{}
	q.Set("op", "get")
	q.Set("options", "mr")
	q.Set("search", "0x"+identity.NormalizeFingerprint(fingerprint))
	return h.BaseURL + lookupPath + "?" + q.Encode()
}

// Lookup implements Lookuper.
func (h *HKP) Lookup(ctx context.Context, fingerprint string) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, h.LookupURL(fingerprint), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", h.BaseURL, err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("lookup on %s failed: %w", h.BaseURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lookup on %s failed: unexpected status %s", h.BaseURL, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response from %s: %w", h.BaseURL, err)
	}
	return strings.TrimSpace(string(body)), nil
}

// String returns the base URL.
func (h *HKP) String() string {
	return h.BaseURL
}

// LookupErrors collects the per-server failures of a Pool lookup.
type LookupErrors struct {
	Fingerprint string
	Errs        []error
}

func (e *LookupErrors) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("lookup of %s failed: %s", e.Fingerprint, strings.Join(msgs, "; "))
}

// Unwrap supports errors.Is and errors.As on the individual failures.
func (e *LookupErrors) Unwrap() []error {
	return e.Errs
}

// Pool queries its servers in order and returns the first non-empty key.
type Pool struct {
	Servers []Lookuper
}

// NewPool builds a Pool of HKP clients, falling back to DefaultServers.
func NewPool(urls []string, opts Options) *Pool {
	if len(urls) == 0 {
		urls = DefaultServers
	}
	p := &Pool{}
	for _, u := range urls {
		p.Servers = append(p.Servers, NewHKP(u, opts))
	}
	return p
}

// Lookup returns the first non-empty result. Unreachable servers do not stop the search;
// their errors are returned as *LookupErrors only when no server produced a key.
// An empty result with a nil error means every server answered without the key.
func (p *Pool) Lookup(ctx context.Context, fingerprint string) (string, error) {
	var errs []error
	for _, s := range p.Servers {
		armored, err := s.Lookup(ctx, fingerprint)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if armored != "" {
			return armored, nil
		}
	}
	if len(errs) > 0 {
		return "", &LookupErrors{Fingerprint: fingerprint, Errs: errs}
	}
	return "", nil
}
