package attest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AvinasiLabs/delong-datasets/internal/config"
	"github.com/AvinasiLabs/delong-datasets/internal/testutil"
)

func startVerifier(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func testConfig(socketPath, endpoint string) config.AttestationConfig {
	return config.AttestationConfig{
		SocketPath: socketPath,
		Audience:   "https://delongapi.internal",
		Endpoint:   endpoint,
		Timeout:    2 * time.Second,
	}
}

func TestCipherHappyPath(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "att.sock")
	attestor, err := testutil.StartAttestor(socketPath, "local-token")
	require.NoError(t, err)
	t.Cleanup(func() { attestor.Close() })

	verifier := startVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "local-token", body.Token)
		json.NewEncoder(w).Encode(map[string]string{"cipher": "the-cipher"})
	})

	r := NewResolver(testConfig(socketPath, verifier.URL))
	assert.Equal(t, "the-cipher", r.Cipher(context.Background()))
}

func TestCipherLegacyTokenField(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "att.sock")
	attestor, err := testutil.StartAttestor(socketPath, "local-token")
	require.NoError(t, err)
	t.Cleanup(func() { attestor.Close() })

	verifier := startVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": "legacy-cipher"})
	})

	r := NewResolver(testConfig(socketPath, verifier.URL))
	assert.Equal(t, "legacy-cipher", r.Cipher(context.Background()))
}

func TestCipherNoSocket(t *testing.T) {
	verifier := startVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("verifier must not be called without a local token")
	})

	r := NewResolver(testConfig(filepath.Join(t.TempDir(), "missing.sock"), verifier.URL))
	assert.Equal(t, "", r.Cipher(context.Background()))
}

func TestCipherVerificationFailure(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "att.sock")
	attestor, err := testutil.StartAttestor(socketPath, "local-token")
	require.NoError(t, err)
	t.Cleanup(func() { attestor.Close() })

	verifier := startVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	r := NewResolver(testConfig(socketPath, verifier.URL))
	assert.Equal(t, "", r.Cipher(context.Background()))
}

func TestCipherMalformedVerifierBody(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "att.sock")
	attestor, err := testutil.StartAttestor(socketPath, "local-token")
	require.NoError(t, err)
	t.Cleanup(func() { attestor.Close() })

	verifier := startVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	r := NewResolver(testConfig(socketPath, verifier.URL))
	assert.Equal(t, "", r.Cipher(context.Background()))
}

func TestCipherCachesSuccess(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "att.sock")
	attestor, err := testutil.StartAttestor(socketPath, "local-token")
	require.NoError(t, err)
	t.Cleanup(func() { attestor.Close() })

	var verifyCalls atomic.Int32
	verifier := startVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		verifyCalls.Add(1)
		json.NewEncoder(w).Encode(map[string]string{"cipher": "c"})
	})

	r := NewResolver(testConfig(socketPath, verifier.URL))
	ctx := context.Background()

	assert.Equal(t, "c", r.Cipher(ctx))
	assert.Equal(t, "c", r.Cipher(ctx))
	assert.Equal(t, int32(1), verifyCalls.Load())
}

func TestCipherCachesEmptyResult(t *testing.T) {
	// No attestor socket at all: the empty result must be cached and
	// later probes must not happen, so starting an attestor afterwards
	// changes nothing.
	socketPath := filepath.Join(t.TempDir(), "att.sock")

	verifier := startVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"cipher": "late"})
	})

	r := NewResolver(testConfig(socketPath, verifier.URL))
	ctx := context.Background()
	assert.Equal(t, "", r.Cipher(ctx))

	attestor, err := testutil.StartAttestor(socketPath, "local-token")
	require.NoError(t, err)
	t.Cleanup(func() { attestor.Close() })

	assert.Equal(t, "", r.Cipher(ctx), "cached empty result must not re-probe")
}

func TestReset(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "att.sock")

	verifier := startVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"cipher": "fresh"})
	})

	r := NewResolver(testConfig(socketPath, verifier.URL))
	ctx := context.Background()
	require.Equal(t, "", r.Cipher(ctx))

	attestor, err := testutil.StartAttestor(socketPath, "local-token")
	require.NoError(t, err)
	t.Cleanup(func() { attestor.Close() })

	r.Reset()
	assert.Equal(t, "fresh", r.Cipher(ctx))
}
