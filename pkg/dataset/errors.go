package dataset

import (
	"errors"

	dshttp "github.com/AvinasiLabs/delong-datasets/internal/http"
)

// Error taxonomy. Transport-level members are shared with the HTTP
// layer so errors.Is matches regardless of which layer produced them.
var (
	// ErrAuth indicates the bearer token was rejected (401/403).
	ErrAuth = dshttp.ErrAuth

	// ErrNotFound indicates the dataset identifier is unknown (404).
	ErrNotFound = dshttp.ErrNotFound

	// ErrRateLimit indicates the backend rate limited the request (429).
	ErrRateLimit = dshttp.ErrRateLimit

	// ErrRemoteServer indicates a 5xx response or a malformed or
	// incomplete response body.
	ErrRemoteServer = dshttp.ErrRemoteServer

	// ErrNetwork indicates a connection-level failure.
	ErrNetwork = dshttp.ErrNetwork

	// ErrParse indicates a response fragment that could not be parsed.
	ErrParse = dshttp.ErrParse

	// ErrPolicyViolation indicates an export was refused by the local
	// export policy before any output was written.
	ErrPolicyViolation = errors.New("dataset: export policy violation")
)
