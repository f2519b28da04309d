package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// HTTPClient is a thin client for the contract-state HTTP endpoint (spec.md
// §6, supplemented per §4.7 — the distilled spec names the endpoint but not
// a consuming client).
type HTTPClient struct {
	baseURL string
	version string
	hc      *http.Client
}

// NewHTTPClient builds an HTTPClient against baseURL (scheme://host[:port])
// using the given API version segment (e.g. "v1").
func NewHTTPClient(baseURL, version string, hc *http.Client) *HTTPClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPClient{baseURL: baseURL, version: version, hc: hc}
}

// ContractState POSTs a contract-state request and decodes the response.
func (c *HTTPClient) ContractState(ctx context.Context, params StateRequestParameters, body StateRequestBody) (*StateRequestResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "marshal contract state request body")
	}

	url := fmt.Sprintf("%s/%s/contract_state?%s", c.baseURL, c.version, params.ToQueryString())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "build contract state request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "contract state request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read contract state response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("contract state request failed: status %d: %s", resp.StatusCode, string(respBody))
	}

	var out StateRequestResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, errors.Wrap(err, "decode contract state response")
	}
	return &out, nil
}
