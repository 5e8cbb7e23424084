package api

import (
	"context"
	"net/http"

	"github.com/comigor/dermachat-go/internal/catalog"
	"github.com/comigor/dermachat-go/internal/profile"
)

// CompleteProfile fetches the account with every filled profile section.
func (c *Client) CompleteProfile(ctx context.Context) (*profile.Complete, error) {
	body, err := c.do(ctx, http.MethodGet, "/profile/complete", nil, nil)
	if err != nil {
		return nil, err
	}
	var p profile.Complete
	if _, err := catalog.Decode(body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Section loads one profile section into out, which should point at the matching
// profile type (for example *profile.Skin).
func (c *Client) Section(ctx context.Context, id profile.SectionID, out any) error {
	body, err := c.do(ctx, http.MethodGet, "/profile/"+string(id), nil, nil)
	if err != nil {
		return err
	}
	_, err = catalog.Decode(body, out)
	return err
}

// UpdateSection saves one profile section. The stored copy the backend returns is
// decoded back into in.
func (c *Client) UpdateSection(ctx context.Context, id profile.SectionID, in any) error {
	body, err := c.do(ctx, http.MethodPut, "/profile/"+string(id), nil, in)
	if err != nil {
		return err
	}
	_, err = catalog.Decode(body, in)
	return err
}
