// Package dataset provides the client API for fetching tabular datasets
// from the delong backend.
//
// The backend gates access to real versus sample data based on a
// server-verified attestation cipher: every decrypt request carries a
// runtime key obtained from the attestation resolver, and the backend
// decides whether to return the full dataset or the sample table. The
// client never decides locally whether it runs inside a trusted
// execution environment.
//
// # Fetching
//
// Use [Client.Fetch] to materialize a dataset into a [Table]:
//
//	client, err := dataset.NewClient(cfg)
//	table, err := client.Fetch(ctx, "demo-dataset-001", token, dataset.FetchOptions{
//	    Columns: []string{"patient_id", "diagnosis"},
//	    Limit:   100,
//	})
//
// Fetch pages through the decrypt endpoint until the backend reports no
// more data or the row limit is reached, whichever comes first.
//
// # Streaming
//
// Use [Client.Stream] for a lazy pull iterator that requests pages on
// demand:
//
//	it := client.Stream("demo-dataset-001", token, dataset.FetchOptions{})
//	for it.Next(ctx) {
//	    row := it.Row()
//	    ...
//	}
//	if err := it.Err(); err != nil {
//	    ...
//	}
//
// An iterator is not resumable mid-stream; restart by calling Stream
// again with a new offset.
//
// # Errors
//
// All failures map onto a fixed taxonomy ([ErrAuth], [ErrNotFound],
// [ErrRateLimit], [ErrRemoteServer], [ErrNetwork], [ErrParse],
// [ErrPolicyViolation]) matched with errors.Is. Transient failures are
// retried with bounded exponential backoff before surfacing.
package dataset
