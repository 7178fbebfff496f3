package registry

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Minimal ERC1056 surface: enough to tell whether an address has an
// on-chain identity without generated bindings.
const didRegistryABI = `[
  {"constant":true,"inputs":[{"name":"identity","type":"address"}],"name":"identityOwner","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
  {"constant":true,"inputs":[{"name":"","type":"address"}],"name":"changed","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

var (
	parsedDIDRegistryABI abi.ABI
	parseABIOnce         sync.Once
	errParseABI          error
)

func loadDIDRegistryABI() (abi.ABI, error) {
	parseABIOnce.Do(func() {
		parsedDIDRegistryABI, errParseABI = abi.JSON(strings.NewReader(didRegistryABI))
	})
	return parsedDIDRegistryABI, errParseABI
}

// DIDRegistryClient reads the ERC1056 DID registry contract.
type DIDRegistryClient struct {
	contract *bind.BoundContract
	address  common.Address
}

// NewDIDRegistryClient creates a read-only client for the DID registry
// contract at the specified address.
func NewDIDRegistryClient(backend bind.ContractBackend, address common.Address) (*DIDRegistryClient, error) {
	contractABI, err := loadDIDRegistryABI()
	if err != nil {
		return nil, fmt.Errorf("parse DID registry ABI: %w", err)
	}

	return &DIDRegistryClient{
		contract: bind.NewBoundContract(address, contractABI, backend, backend, backend),
		address:  address,
	}, nil
}

// IdentityOwner returns the current owner of an identity address. Per
// ERC1056 every address owns itself until ownership is transferred.
func (c *DIDRegistryClient) IdentityOwner(ctx context.Context, identity common.Address) (common.Address, error) {
	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "identityOwner", identity)
	if err != nil {
		return common.Address{}, fmt.Errorf("call identityOwner: %w", err)
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// Changed returns the block number of the identity's last registry event,
// zero when the identity has never touched the registry.
func (c *DIDRegistryClient) Changed(ctx context.Context, identity common.Address) (*big.Int, error) {
	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "changed", identity)
	if err != nil {
		return nil, fmt.Errorf("call changed: %w", err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}
