package registry

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dsbgw/dsb-client-gateway/interfaces"
)

// MockClaimsRegistry mocks the interfaces.ClaimsRegistry interface.
type MockClaimsRegistry struct {
	mock.Mock
}

// ResolveDID mocks the ResolveDID method.
func (m *MockClaimsRegistry) ResolveDID(ctx context.Context, address string) (string, error) {
	args := m.Called(ctx, address)
	return args.String(0), args.Error(1)
}

// FetchClaims mocks the FetchClaims method.
func (m *MockClaimsRegistry) FetchClaims(ctx context.Context, did string) ([]interfaces.Claim, error) {
	args := m.Called(ctx, did)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interfaces.Claim), args.Error(1)
}

// SubmitClaim mocks the SubmitClaim method.
func (m *MockClaimsRegistry) SubmitClaim(ctx context.Context, did string, claimType string) error {
	args := m.Called(ctx, did, claimType)
	return args.Error(0)
}
