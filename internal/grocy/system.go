package grocy

import (
	"context"
	"fmt"
	"net/http"

	"github.com/roach88/barcodebuddy/internal/catalog"
)

// SystemVersion returns the version Grocy reports.
func (c *Client) SystemVersion(ctx context.Context) (string, error) {
	var info systemInfoJSON
	if err := c.do(ctx, "system info", http.MethodGet, "system/info", nil, &info); err != nil {
		return "", err
	}
	if info.GrocyVersion.Version == "" {
		return "", catalog.NewError(catalog.ErrCodeMalformedResponse, "system info",
			"no version in response, the API key may be incorrect", nil)
	}
	return info.GrocyVersion.Version, nil
}

// CheckConnection verifies that the instance is reachable, accepts the
// credentials and runs at least catalog.MinVersion. It returns the version.
func (c *Client) CheckConnection(ctx context.Context) (string, error) {
	version, err := c.SystemVersion(ctx)
	if err != nil {
		return "", err
	}
	if !catalog.IsSupportedVersion(version) {
		return version, catalog.NewError(catalog.ErrCodeUnsupportedVersion, "check connection",
			fmt.Sprintf("Grocy %s or newer required, running %s", catalog.MinVersion, version), nil)
	}
	return version, nil
}
