package lookup

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLookup(t *testing.T, status int, body string) (*Client, chan string) {
	t.Helper()
	paths := make(chan string, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.Path
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", time.Second), paths
}

func TestLookup_PrefersGenericName(t *testing.T) {
	c, paths := newTestLookup(t, http.StatusOK,
		`{"status": 1, "product": {"generic_name": "Whole milk", "product_name": "Farm Fresh 3.5%"}}`)

	name, ok, err := c.LookupDescriptiveName(context.Background(), "4001")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Whole milk", name)
	assert.Equal(t, "/api/v0/product/4001.json", <-paths)
}

func TestLookup_FallsBackToProductName(t *testing.T) {
	c, _ := newTestLookup(t, http.StatusOK,
		`{"status": 1, "product": {"generic_name": " ", "product_name": "Oat Drink"}}`)

	name, ok, err := c.LookupDescriptiveName(context.Background(), "4001")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Oat Drink", name)
}

func TestLookup_NotFound(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"marker", http.StatusOK, `{"status": 0, "status_verbose": "product not found"}`},
		{"http 404", http.StatusNotFound, ``},
		{"no names", http.StatusOK, `{"status": 1, "product": {}}`},
		{"no product", http.StatusOK, `{"status": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestLookup(t, tt.status, tt.body)
			_, ok, err := c.LookupDescriptiveName(context.Background(), "0000111122223")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestLookup_Failures(t *testing.T) {
	c, _ := newTestLookup(t, http.StatusBadGateway, `oops`)
	_, _, err := c.LookupDescriptiveName(context.Background(), "1")
	assert.True(t, errors.Is(err, ErrUnavailable))

	c, _ = newTestLookup(t, http.StatusOK, `{`)
	_, _, err = c.LookupDescriptiveName(context.Background(), "1")
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestDisabled(t *testing.T) {
	_, ok, err := Disabled{}.LookupDescriptiveName(context.Background(), "1")
	require.NoError(t, err)
	assert.False(t, ok)
}
