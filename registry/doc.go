// Package registry implements the gateway's client for the IAM registry: a
// combination of the on-chain ERC1056 DID registry (read via an Ethereum
// RPC endpoint) and the claims cache server (read and written over HTTP).
//
// The package exposes a single Client satisfying interfaces.ClaimsRegistry.
// DID resolution consults the cache server first and falls back to the
// on-chain registry; claim listing and claim request submission always go
// through the cache server. Claim submission is not idempotent, so the
// enrolment coordinator must never submit for a role that already has a
// pending or approved claim.
package registry
