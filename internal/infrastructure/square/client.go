package square

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"commerce-core-square-layer/internal/domain"
	"commerce-core-square-layer/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	productionBaseURL = "https://connect.squareup.com"
	sandboxBaseURL    = "https://connect.squareupsandbox.com"

	defaultCallTimeout = 30 * time.Second
)

// Config holds the Square application credentials and environment.
type Config struct {
	ApplicationID string
	Secret        string
	Environment   domain.Environment
	RedirectURI   string
}

// BaseURL returns the connect endpoint for the configured environment.
func (c Config) BaseURL() string {
	if c.Environment == domain.EnvironmentProduction {
		return productionBaseURL
	}
	return sandboxBaseURL
}

type client struct {
	cfg    Config
	http   *http.Client
	logger zerolog.Logger
}

// NewClient creates a Square API adapter. The returned client owns transport
// concerns only; rate limiting and retry are applied by the batch layer.
func NewClient(cfg Config, logger zerolog.Logger) ports.ProviderClient {
	return &client{
		cfg:    cfg,
		http:   &http.Client{Timeout: defaultCallTimeout},
		logger: logger,
	}
}

// OAuth

// AuthorizationURL builds the Square authorization URL for the configured
// environment. The state value arrives pre-encoded by the connection
// manager.
func (c *client) AuthorizationURL(scopes []string, state string) string {
	params := url.Values{}
	params.Set("client_id", c.cfg.ApplicationID)
	params.Set("scope", strings.Join(scopes, " "))
	params.Set("session", "false")
	params.Set("state", state)
	return c.cfg.BaseURL() + "/oauth2/authorize?" + params.Encode()
}

type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresAt    string   `json:"expires_at"`
	MerchantID   string   `json:"merchant_id"`
	ShortLived   bool     `json:"short_lived"`
	Scopes       []string `json:"scopes"`
}

func (c *client) ExchangeCode(ctx context.Context, code string) (*ports.TokenPair, error) {
	return c.obtainToken(ctx, map[string]string{
		"client_id":     c.cfg.ApplicationID,
		"client_secret": c.cfg.Secret,
		"grant_type":    "authorization_code",
		"code":          code,
		"redirect_uri":  c.cfg.RedirectURI,
	})
}

func (c *client) RefreshToken(ctx context.Context, refreshToken string) (*ports.TokenPair, error) {
	return c.obtainToken(ctx, map[string]string{
		"client_id":     c.cfg.ApplicationID,
		"client_secret": c.cfg.Secret,
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	})
}

func (c *client) obtainToken(ctx context.Context, body map[string]string) (*ports.TokenPair, error) {
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/oauth2/token", "", body, &resp); err != nil {
		return nil, fmt.Errorf("failed to obtain token: %w", err)
	}

	pair := &ports.TokenPair{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		MerchantID:   resp.MerchantID,
		Scopes:       resp.Scopes,
	}
	if resp.ExpiresAt != "" {
		expiresAt, err := time.Parse(time.RFC3339, resp.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse token expiry %q: %w", resp.ExpiresAt, err)
		}
		pair.ExpiresAt = expiresAt
	}
	return pair, nil
}

func (c *client) RevokeToken(ctx context.Context, accessToken string) error {
	body := map[string]string{
		"client_id":    c.cfg.ApplicationID,
		"access_token": accessToken,
	}
	if err := c.do(ctx, http.MethodPost, "/oauth2/revoke", "Client "+c.cfg.Secret, body, nil); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// Catalog

type catalogObject struct {
	Type      string       `json:"type"`
	ID        string       `json:"id"`
	Version   int64        `json:"version,omitempty"`
	UpdatedAt string       `json:"updated_at,omitempty"`
	ItemData  *catalogItem `json:"item_data,omitempty"`

	ItemVariationData *catalogVariation `json:"item_variation_data,omitempty"`
}

type catalogItem struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Variations  []catalogObject `json:"variations,omitempty"`
}

type catalogVariation struct {
	SKU        string `json:"sku,omitempty"`
	PriceMoney *money `json:"price_money,omitempty"`
}

type money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func (c *client) ListCatalogItems(ctx context.Context, accessToken string) ([]domain.ProviderCatalogItem, error) {
	var items []domain.ProviderCatalogItem
	cursor := ""
	for {
		path := "/v2/catalog/list?types=ITEM"
		if cursor != "" {
			path += "&cursor=" + cursor
		}
		var resp struct {
			Objects []catalogObject `json:"objects"`
			Cursor  string          `json:"cursor"`
		}
		if err := c.do(ctx, http.MethodGet, path, bearer(accessToken), nil, &resp); err != nil {
			return nil, fmt.Errorf("failed to list catalog items: %w", err)
		}
		for i := range resp.Objects {
			items = append(items, toDomainItem(&resp.Objects[i]))
		}
		if resp.Cursor == "" {
			return items, nil
		}
		cursor = resp.Cursor
	}
}

func (c *client) UpsertCatalogItem(ctx context.Context, accessToken string, item *domain.ProviderCatalogItem) (*domain.ProviderCatalogItem, error) {
	body := map[string]any{
		"idempotency_key": uuid.NewString(),
		"object":          fromDomainItem(item),
	}
	var resp struct {
		CatalogObject catalogObject `json:"catalog_object"`
	}
	if err := c.do(ctx, http.MethodPost, "/v2/catalog/object", bearer(accessToken), body, &resp); err != nil {
		return nil, fmt.Errorf("failed to upsert catalog item: %w", err)
	}
	upserted := toDomainItem(&resp.CatalogObject)
	return &upserted, nil
}

func toDomainItem(obj *catalogObject) domain.ProviderCatalogItem {
	item := domain.ProviderCatalogItem{
		ID:        obj.ID,
		Version:   obj.Version,
		UpdatedAt: obj.UpdatedAt,
	}
	if obj.ItemData == nil {
		return item
	}
	item.Name = obj.ItemData.Name
	item.Description = obj.ItemData.Description
	for _, v := range obj.ItemData.Variations {
		if v.ItemVariationData == nil {
			continue
		}
		variation := domain.ProviderVariation{
			ID:  v.ID,
			SKU: v.ItemVariationData.SKU,
		}
		if pm := v.ItemVariationData.PriceMoney; pm != nil {
			variation.PriceMinor = pm.Amount
			variation.Currency = pm.Currency
		}
		item.Variations = append(item.Variations, variation)
	}
	return item
}

func fromDomainItem(item *domain.ProviderCatalogItem) catalogObject {
	obj := catalogObject{
		Type:    "ITEM",
		ID:      item.ID,
		Version: item.Version,
		ItemData: &catalogItem{
			Name:        item.Name,
			Description: item.Description,
		},
	}
	for _, v := range item.Variations {
		obj.ItemData.Variations = append(obj.ItemData.Variations, catalogObject{
			Type: "ITEM_VARIATION",
			ID:   v.ID,
			ItemVariationData: &catalogVariation{
				SKU: v.SKU,
				PriceMoney: &money{
					Amount:   v.PriceMinor,
					Currency: v.Currency,
				},
			},
		})
	}
	return obj
}

// Inventory

func (c *client) ListInventoryCounts(ctx context.Context, accessToken, locationID string) ([]domain.ProviderInventoryCount, error) {
	body := map[string]any{
		"location_ids": []string{locationID},
	}
	var counts []domain.ProviderInventoryCount
	cursor := ""
	for {
		if cursor != "" {
			body["cursor"] = cursor
		}
		var resp struct {
			Counts []struct {
				CatalogObjectID string `json:"catalog_object_id"`
				LocationID      string `json:"location_id"`
				State           string `json:"state"`
				Quantity        string `json:"quantity"`
				CalculatedAt    string `json:"calculated_at"`
			} `json:"counts"`
			Cursor string `json:"cursor"`
		}
		if err := c.do(ctx, http.MethodPost, "/v2/inventory/counts/batch-retrieve", bearer(accessToken), body, &resp); err != nil {
			return nil, fmt.Errorf("failed to list inventory counts: %w", err)
		}
		for _, count := range resp.Counts {
			counts = append(counts, domain.ProviderInventoryCount{
				CatalogObjectID: count.CatalogObjectID,
				LocationID:      count.LocationID,
				State:           count.State,
				Quantity:        count.Quantity,
				CalculatedAt:    count.CalculatedAt,
			})
		}
		if resp.Cursor == "" {
			return counts, nil
		}
		cursor = resp.Cursor
	}
}

func (c *client) SetInventoryCount(ctx context.Context, accessToken, locationID, catalogObjectID string, quantity int) error {
	body := map[string]any{
		"idempotency_key": uuid.NewString(),
		"changes": []map[string]any{
			{
				"type": "PHYSICAL_COUNT",
				"physical_count": map[string]any{
					"catalog_object_id": catalogObjectID,
					"location_id":       locationID,
					"state":             "IN_STOCK",
					"quantity":          strconv.Itoa(quantity),
					"occurred_at":       time.Now().UTC().Format(time.RFC3339),
				},
			},
		},
	}
	if err := c.do(ctx, http.MethodPost, "/v2/inventory/changes/batch-create", bearer(accessToken), body, nil); err != nil {
		return fmt.Errorf("failed to set inventory count: %w", err)
	}
	return nil
}

func (c *client) ListLocations(ctx context.Context, accessToken string) ([]string, error) {
	var resp struct {
		Locations []struct {
			ID string `json:"id"`
		} `json:"locations"`
	}
	if err := c.do(ctx, http.MethodGet, "/v2/locations", bearer(accessToken), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	ids := make([]string, 0, len(resp.Locations))
	for _, loc := range resp.Locations {
		ids = append(ids, loc.ID)
	}
	return ids, nil
}

// do issues one request against the configured environment and decodes the
// response into out (when non-nil). Non-2xx responses become *APIError so the
// retry layer can classify them by status code.
func (c *client) do(ctx context.Context, method, path, authorization string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL()+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("method", method).
			Str("path", path).
			Msg("Square API request failed")
		return &APIError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(respBody))}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func bearer(accessToken string) string {
	return "Bearer " + accessToken
}
