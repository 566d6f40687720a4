package gog

import (
	"context"
	"fmt"
	"strconv"
)

// UserData is the subset of the account-data endpoint this tool needs.
type UserData struct {
	Username   string `json:"username"`
	UserID     string `json:"userId"`
	Email      string `json:"email"`
	IsLoggedIn bool   `json:"isLoggedIn"`
}

// UserData fetches the authenticated account's profile.
func (c *Client) UserData(ctx context.Context) (*UserData, error) {
	var data UserData
	if err := c.getJSON(ctx, c.embedURL+"/userData.json", &data); err != nil {
		return nil, err
	}
	return &data, nil
}

type ownedGamesResponse struct {
	Owned []int64 `json:"owned"`
}

// OwnedProducts fetches the ids of all products the account owns.
func (c *Client) OwnedProducts(ctx context.Context) ([]int64, error) {
	var resp ownedGamesResponse
	key := "owned"
	err := c.cached(ctx, key, &resp, func() error {
		return c.getJSON(ctx, c.embedURL+"/user/data/games", &resp)
	})
	if err != nil {
		return nil, err
	}
	return resp.Owned, nil
}

// OwnsProduct reports whether the account owns productID.
//
// The check fails open: when ownership cannot be determined (network
// failure, unparsable id) the product is reported as owned and a warning
// is logged. The content system is the real authority and will still
// refuse secure links for unowned products; failing closed here would
// only lock users out during transient API failures.
func (c *Client) OwnsProduct(ctx context.Context, productID string) bool {
	id, err := strconv.ParseInt(productID, 10, 64)
	if err != nil {
		c.log.Warn("ownership undeterminable, assuming owned", "product", productID, "err", err)
		return true
	}

	owned, err := c.OwnedProducts(ctx)
	if err != nil {
		c.log.Warn("ownership undeterminable, assuming owned", "product", productID, "err", err)
		return true
	}
	for _, o := range owned {
		if o == id {
			return true
		}
	}
	return false
}

// ProductDetails is the api.gog.com product record, presentation-level
// metadata only.
type ProductDetails struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// Product fetches presentation metadata for one product.
func (c *Client) Product(ctx context.Context, productID string) (*ProductDetails, error) {
	var details ProductDetails
	key := "product:" + productID
	err := c.cached(ctx, key, &details, func() error {
		return c.getJSON(ctx, fmt.Sprintf("%s/products/%s", c.apiURL, productID), &details)
	})
	if err != nil {
		return nil, err
	}
	return &details, nil
}
