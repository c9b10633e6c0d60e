// Package attest resolves the attestation cipher used as the runtime
// key on dataset requests.
//
// Resolution has two steps:
//  1. Fetch a local attestation token from the attestor process over a
//     unix domain socket (POST /token with the configured audience).
//  2. Exchange the token at the remote verification service for an
//     opaque cipher.
//
// Any failure at either step yields an empty cipher. Callers cannot
// distinguish "not in a trusted execution environment" from
// "verification failed"; the backend treats both as unattested and
// serves sample data.
//
// The result is cached in the Resolver for its lifetime, including the
// empty result. Reset discards the cache for embedders that need to
// re-attest.
package attest
