package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ostendo-io/wawagardenbar-app-sub002/models"
)

// CatalogResolver maps an order line item to its stock-tracked menu item
// id. The menu catalog itself is owned by another service.
type CatalogResolver interface {
	// StockItemID returns the inventory key for a line item and whether
	// the item is stock-tracked at all.
	StockItemID(ctx context.Context, item models.OrderItem) (string, bool, error)
}

// HTTPCatalogResolver resolves items against the catalog service.
type HTTPCatalogResolver struct {
	baseURL string
	client  *http.Client
}

func NewHTTPCatalogResolver(baseURL string) *HTTPCatalogResolver {
	return &HTTPCatalogResolver{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (r *HTTPCatalogResolver) StockItemID(ctx context.Context, item models.OrderItem) (string, bool, error) {
	// Line items placed through the current checkout already carry the
	// menu item id; only legacy orders need a catalog round trip.
	if item.MenuItemID != "" {
		return item.MenuItemID, true, nil
	}

	url := fmt.Sprintf("%s/menu/internal/resolve?name=%s", r.baseURL, item.Name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("catalog service returned %d", resp.StatusCode)
	}

	var body struct {
		MenuItemID   string `json:"menu_item_id"`
		StockTracked bool   `json:"stock_tracked"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", false, err
	}
	return body.MenuItemID, body.StockTracked, nil
}
