// Package config defines configuration for the delong-datasets client.
//
// Configuration can be provided via:
//   - Environment variables (DS_ prefix)
//   - YAML configuration file
//   - Programmatic overrides (Merge)
//
// # Structure
//
//	type Config struct {
//	    BaseURL            string
//	    DecryptEndpoint    string
//	    Timeout            time.Duration
//	    DefaultLimit       int
//	    MaxLimit           int
//	    MaxLocalExportRows int
//	    Attestation        AttestationConfig
//	    Retry              RetryConfig
//	}
//
//	type RetryConfig struct {
//	    Attempts   int
//	    Backoff    time.Duration
//	    MaxBackoff time.Duration
//	}
package config
