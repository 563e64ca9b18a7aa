// Package lookup names barcodes through the public Open Food Facts catalog.
//
// A name found here only labels an unknown barcode and feeds tag matching.
// It never creates or changes inventory.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultURL is the public Open Food Facts instance.
const DefaultURL = "https://world.openfoodfacts.org"

// DefaultTimeout bounds a single lookup.
const DefaultTimeout = 5 * time.Second

const maxResponseBytes = 4 << 20

// notFoundMarker appears in the body of a lookup for an unknown barcode.
const notFoundMarker = "product not found"

// ErrUnavailable wraps every lookup failure other than "no entry".
var ErrUnavailable = errors.New("lookup unavailable")

// Client queries an Open Food Facts compatible API.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// New creates a Client for baseURL. An empty baseURL uses DefaultURL and a
// non-positive timeout uses DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: timeout,
	}
}

type productResponse struct {
	Status  int `json:"status"`
	Product *struct {
		GenericName string `json:"generic_name"`
		ProductName string `json:"product_name"`
	} `json:"product"`
}

// LookupDescriptiveName returns a display name for barcode. ok is false when
// the catalog has no entry or the entry has no name.
func (c *Client) LookupDescriptiveName(ctx context.Context, barcode string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := fmt.Sprintf("%s/api/v0/product/%s.json", c.baseURL, url.PathEscape(barcode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", false, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode == http.StatusNotFound || strings.Contains(string(raw), notFoundMarker) {
		return "", false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", false, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var pr productResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return "", false, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if pr.Product == nil {
		return "", false, nil
	}
	if name := strings.TrimSpace(pr.Product.GenericName); name != "" {
		return name, true, nil
	}
	if name := strings.TrimSpace(pr.Product.ProductName); name != "" {
		return name, true, nil
	}
	return "", false, nil
}

// Disabled is a lookup that never finds anything.
type Disabled struct{}

// LookupDescriptiveName implements the lookup contract with no result.
func (Disabled) LookupDescriptiveName(context.Context, string) (string, bool, error) {
	return "", false, nil
}
