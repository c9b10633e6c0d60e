package attest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/AvinasiLabs/delong-datasets/internal/config"
)

// maxResponseBody bounds attestor and verifier response bodies.
const maxResponseBody = 1 << 20

// Resolver obtains and caches the attestation cipher. The zero value
// is not usable; construct with NewResolver. Safe for concurrent use.
type Resolver struct {
	cfg config.AttestationConfig

	// local talks HTTP to the attestor over its unix socket.
	local *http.Client

	// remote talks to the verification service.
	remote *http.Client

	mu       sync.Mutex
	cipher   string
	resolved bool
}

// NewResolver creates a resolver for the given attestation settings.
func NewResolver(cfg config.AttestationConfig) *Resolver {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	socketPath := strings.TrimPrefix(cfg.SocketPath, "unix://")

	return &Resolver{
		cfg: cfg,
		local: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", socketPath)
				},
			},
			Timeout: cfg.Timeout,
		},
		remote: &http.Client{Timeout: cfg.Timeout},
	}
}

// Cipher returns the attestation cipher to use as the runtime key, or
// an empty string when attestation is unavailable. The first call
// resolves and caches; later calls return the cached value without
// re-probing, even when the cached value is empty.
func (r *Resolver) Cipher(ctx context.Context) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved {
		return r.cipher
	}

	r.cipher = r.resolve(ctx)
	r.resolved = true
	return r.cipher
}

// Reset discards the cached cipher so the next Cipher call re-attests.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cipher = ""
	r.resolved = false
}

func (r *Resolver) resolve(ctx context.Context) string {
	token, err := r.fetchLocalToken(ctx)
	if err != nil || token == "" {
		// Not in a TEE, or the attestor is unavailable.
		return ""
	}

	cipher, err := r.verifyToken(ctx, token)
	if err != nil {
		return ""
	}
	return cipher
}

// fetchLocalToken requests an attestation token from the local attestor.
func (r *Resolver) fetchLocalToken(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]string{"audience": r.cfg.Audience})
	if err != nil {
		return "", err
	}

	// The host is ignored; the transport dials the unix socket.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://localhost/token", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.local.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("attestor returned status %d", resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// verifyToken exchanges the local token for a cipher at the remote
// verification service.
func (r *Resolver) verifyToken(ctx context.Context, token string) (string, error) {
	if r.cfg.Endpoint == "" {
		return "", fmt.Errorf("no verification endpoint configured")
	}

	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.remote.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("verification service returned status %d", resp.StatusCode)
	}

	// Current deployments return {"cipher": ...}; older ones {"token": ...}.
	var out struct {
		Cipher string `json:"cipher"`
		Token  string `json:"token"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&out); err != nil {
		return "", err
	}
	if out.Cipher != "" {
		return out.Cipher, nil
	}
	return out.Token, nil
}
