package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/dsbgw/dsb-client-gateway/interfaces"
)

// Config holds the registry connection parameters. All values are passed
// explicitly so several independently configured clients can coexist in one
// process.
type Config struct {
	// RPCURL is the Ethereum JSON-RPC endpoint of the chain hosting the DID
	// registry.
	RPCURL string

	// ChainID is the expected chain; connecting to a different chain fails
	// client construction.
	ChainID int64

	// DIDRegistryAddress is the ERC1056 registry contract address.
	DIDRegistryAddress string

	// CacheServerURL is the claims cache server base URL.
	CacheServerURL string

	// ParentNamespace scopes the roles tracked by this gateway.
	ParentNamespace string
}

// Client implements interfaces.ClaimsRegistry against the on-chain DID
// registry and the claims cache server.
type Client struct {
	cache       *CacheServerClient
	didRegistry *DIDRegistryClient
	roles       interfaces.RoleSet
	log         *slog.Logger
}

// NewClient dials the RPC endpoint, verifies the chain ID, and wires up the
// cache server client. Any failure here maps to IAM_INIT_ERROR: without a
// working registry connection the gateway identity cannot be established.
func NewClient(ctx context.Context, cfg Config, log *slog.Logger) (*Client, error) {
	ethClient, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, interfaces.Internal(interfaces.ErrCodeIAMInit, fmt.Errorf("dial RPC %s: %w", cfg.RPCURL, err))
	}

	chainID, err := ethClient.ChainID(ctx)
	if err != nil {
		return nil, interfaces.Internal(interfaces.ErrCodeIAMInit, fmt.Errorf("query chain ID: %w", err))
	}
	if chainID.Cmp(big.NewInt(cfg.ChainID)) != 0 {
		return nil, interfaces.Internal(interfaces.ErrCodeIAMInit,
			fmt.Errorf("connected to chain %s, expected %d", chainID, cfg.ChainID))
	}

	didRegistry, err := NewDIDRegistryClient(ethClient, common.HexToAddress(cfg.DIDRegistryAddress))
	if err != nil {
		return nil, interfaces.Internal(interfaces.ErrCodeIAMInit, err)
	}

	return &Client{
		cache:       NewCacheServerClient(cfg.CacheServerURL, log),
		didRegistry: didRegistry,
		roles:       interfaces.RoleSet{ParentNamespace: cfg.ParentNamespace},
		log:         log,
	}, nil
}

// Roles returns the role set tracked under the configured parent namespace.
func (c *Client) Roles() interfaces.RoleSet {
	return c.roles
}

// DIDFor formats the DID bound to a wallet address.
func DIDFor(address string) string {
	return "did:ethr:" + address
}

// ResolveDID looks up the DID for a wallet address. The cache server is
// authoritative; when it has no document the on-chain registry is consulted
// as a fallback, since cache indexing lags the chain. Returns "" with a nil
// error when neither side knows the identity.
func (c *Client) ResolveDID(ctx context.Context, address string) (string, error) {
	did := DIDFor(address)

	_, err := c.cache.GetDIDDocument(ctx, did)
	if err == nil {
		return did, nil
	}
	if !errors.Is(err, ErrDIDNotFound) {
		return "", interfaces.Internal(interfaces.ErrCodeIAMInit, fmt.Errorf("resolve DID %s: %w", did, err))
	}

	changed, err := c.didRegistry.Changed(ctx, common.HexToAddress(address))
	if err != nil {
		return "", interfaces.Internal(interfaces.ErrCodeIAMInit, fmt.Errorf("resolve DID %s on chain: %w", did, err))
	}
	if changed.Sign() == 0 {
		c.log.Debug("No DID registered for address", "address", address)
		return "", nil
	}
	return did, nil
}

// FetchClaims lists the DID's claims under the parent namespace. On any
// network or parse error the result is fully discarded.
func (c *Client) FetchClaims(ctx context.Context, did string) ([]interfaces.Claim, error) {
	claims, err := c.cache.GetClaimsBySubject(ctx, did, c.roles.ParentNamespace)
	if err != nil {
		c.log.Error("Failed to fetch claims", "did", did, "err", err)
		return nil, interfaces.Internal(interfaces.ErrCodeFetchClaimsFailed, err)
	}
	return claims, nil
}

// SubmitClaim creates a claim request for the DID. The role-specific error
// code is attached by the enrolment coordinator, which knows which role it
// is submitting for.
func (c *Client) SubmitClaim(ctx context.Context, did string, claimType string) error {
	if err := c.cache.CreateClaimRequest(ctx, did, claimType); err != nil {
		c.log.Error("Failed to create claim", "claimType", claimType, "err", err)
		return err
	}
	return nil
}
