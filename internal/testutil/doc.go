// Package testutil provides in-process mock services for the dataset
// backend: the decrypt endpoint, the attestation verification service,
// and a unix-socket attestor. Tests run them via httptest; the
// mock-backend command serves them on real listeners.
//
// The mock decrypt endpoint applies the real gating rule: an empty
// runtime key yields the fixed 3-row sample table, any non-empty key
// yields the full dataset. A real deployment verifies the cipher
// cryptographically; here presence is enough.
package testutil
