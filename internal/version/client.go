package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mullvad/talpid-daemon/internal/taperr"
)

// Client performs the version-check REST call (§6 "Version check
// endpoint"): GET with product_version and platform as query parameters,
// returning the {supported, latest, latest_stable?, latest_beta} body.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient builds a Client against endpoint using httpClient. A nil
// httpClient gets a default with the caller expected to set its own
// Timeout (the updater sets DownloadTimeout).
func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{endpoint: endpoint, httpClient: httpClient}
}

// Check performs one version-check request.
func (c *Client) Check(ctx context.Context, productVersion string, platform Platform) (CheckResponse, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return CheckResponse{}, taperr.New(taperr.KindTransient, "parse version-check endpoint", err)
	}
	q := u.Query()
	q.Set("product_version", productVersion)
	q.Set("platform", string(platform))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return CheckResponse{}, taperr.New(taperr.KindTransient, "build version-check request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CheckResponse{}, taperr.New(taperr.KindTransient, "fetch version info", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return CheckResponse{}, taperr.New(taperr.KindTransient, "fetch version info",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var out CheckResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return CheckResponse{}, taperr.New(taperr.KindTransient, "decode version-check response", err)
	}
	return out, nil
}
