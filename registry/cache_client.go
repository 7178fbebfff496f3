package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dsbgw/dsb-client-gateway/interfaces"
)

// ErrDIDNotFound is returned by GetDIDDocument when the cache server has no
// document for the DID.
var ErrDIDNotFound = errors.New("DID document not found")

// CacheServerClient talks to the claims cache server over HTTP. The cache
// server mirrors on-chain and off-chain claim state and accepts new claim
// requests.
type CacheServerClient struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewCacheServerClient creates a client for the cache server at baseURL.
func NewCacheServerClient(baseURL string, log *slog.Logger) *CacheServerClient {
	return &CacheServerClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

// GetDIDDocument fetches the DID document, or ErrDIDNotFound on 404.
func (c *CacheServerClient) GetDIDDocument(ctx context.Context, did string) (json.RawMessage, error) {
	reqURL := fmt.Sprintf("%s/DID/%s", c.baseURL, url.PathEscape(did))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not request DID document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrDIDNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpStatusError("DID document", resp)
	}

	doc, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read DID document: %w", err)
	}
	return json.RawMessage(doc), nil
}

// GetClaimsBySubject lists the subject's claims under a parent namespace.
func (c *CacheServerClient) GetClaimsBySubject(ctx context.Context, did, parentNamespace string) ([]interfaces.Claim, error) {
	reqURL := fmt.Sprintf("%s/claim?subject=%s&parentNamespace=%s",
		c.baseURL, url.QueryEscape(did), url.QueryEscape(parentNamespace))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not request claims: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpStatusError("claims", resp)
	}

	var claims []interfaces.Claim
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, fmt.Errorf("could not parse claims response: %w", err)
	}
	return claims, nil
}

// claimRequest is the cache server's claim creation payload.
type claimRequest struct {
	DID               string                        `json:"did"`
	Claim             claimBody                     `json:"claim"`
	RegistrationTypes []interfaces.RegistrationType `json:"registrationTypes"`
}

type claimBody struct {
	ClaimType        string   `json:"claimType"`
	ClaimTypeVersion int      `json:"claimTypeVersion"`
	Fields           []string `json:"fields"`
}

// CreateClaimRequest submits a claim request of the given type, registered
// for both on-chain and off-chain verification.
func (c *CacheServerClient) CreateClaimRequest(ctx context.Context, did, claimType string) error {
	payload, err := json.Marshal(claimRequest{
		DID: did,
		Claim: claimBody{
			ClaimType:        claimType,
			ClaimTypeVersion: 1,
			Fields:           []string{},
		},
		RegistrationTypes: []interfaces.RegistrationType{
			interfaces.RegistrationOnChain,
			interfaces.RegistrationOffChain,
		},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/claim", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not request claim creation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return httpStatusError("claim creation", resp)
	}

	c.log.Debug("Submitted claim request", "claimType", claimType)
	return nil
}

func httpStatusError(endpoint string, resp *http.Response) error {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil || len(bodyBytes) == 0 {
		return fmt.Errorf("%s endpoint returned non-200 response: %d", endpoint, resp.StatusCode)
	}
	return fmt.Errorf("%s endpoint returned error %d: %s", endpoint, resp.StatusCode, string(bodyBytes))
}
