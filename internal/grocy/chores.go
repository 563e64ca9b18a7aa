package grocy

import (
	"context"
	"fmt"
	"net/http"

	"github.com/roach88/barcodebuddy/internal/catalog"
)

// GetChore returns one chore.
func (c *Client) GetChore(ctx context.Context, id int64) (catalog.Chore, error) {
	var ch choreJSON
	if err := c.do(ctx, "get chore", http.MethodGet, fmt.Sprintf("objects/chores/%d", id), nil, &ch); err != nil {
		return catalog.Chore{}, err
	}
	if ch.ID == 0 {
		return catalog.Chore{}, catalog.NewError(catalog.ErrCodeNotFound, "get chore",
			fmt.Sprintf("chore %d does not exist", id), nil)
	}
	return catalog.Chore{ID: int64(ch.ID), Name: ch.Name}, nil
}

// GetChores returns every chore.
func (c *Client) GetChores(ctx context.Context) ([]catalog.Chore, error) {
	var chs []choreJSON
	if err := c.do(ctx, "get chores", http.MethodGet, "objects/chores", nil, &chs); err != nil {
		return nil, err
	}
	chores := make([]catalog.Chore, 0, len(chs))
	for _, ch := range chs {
		chores = append(chores, catalog.Chore{ID: int64(ch.ID), Name: ch.Name})
	}
	return chores, nil
}

// ExecuteChore records the chore as done now.
func (c *Client) ExecuteChore(ctx context.Context, id int64) error {
	body := map[string]any{"tracked_time": "", "done_by": ""}
	return c.do(ctx, "execute chore", http.MethodPost, fmt.Sprintf("chores/%d/execute", id), body, nil)
}
