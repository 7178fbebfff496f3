package interfaces

import "context"

// ClaimsRegistry abstracts the remote IAM registry: DID resolution, claim
// listing, and claim request submission. Implementations are network-bound;
// every call can block for as long as the caller's context allows.
type ClaimsRegistry interface {
	// ResolveDID looks up the DID bound to a wallet address. Returns the
	// empty string with a nil error when no DID exists yet; that condition
	// is the caller's to handle, not a transport failure.
	ResolveDID(ctx context.Context, address string) (string, error)

	// FetchClaims lists all claims held by the DID under the registry's
	// configured parent namespace. On error no partial claim list is
	// returned.
	FetchClaims(ctx context.Context, did string) ([]Claim, error)

	// SubmitClaim creates a claim request of the given type, registered for
	// both on-chain and off-chain verification. Not idempotent at the
	// registry: submitting twice for a pending claim creates a duplicate
	// request, so callers must only submit for roles with no claim at all.
	SubmitClaim(ctx context.Context, did string, claimType string) error
}
