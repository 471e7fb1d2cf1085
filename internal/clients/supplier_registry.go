package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/dbaltunis/interio-ai-canvas-sub011/config"
	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/cache"
	"github.com/dbaltunis/interio-ai-canvas-sub011/internal/services"
)

const supplierCacheTTL = 10 * time.Minute

// SupplierRegistryClient fetches supplier records from the supplier registry
// HTTP API, with a Redis cache in front of it.
type SupplierRegistryClient struct {
	baseURL    string
	httpClient *http.Client
	cache      *cache.RedisCache
}

// NewSupplierRegistryClient creates a supplier registry client
func NewSupplierRegistryClient(cfg config.SupplierRegistryConfig, redisCache *cache.RedisCache) *SupplierRegistryClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &SupplierRegistryClient{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		cache:      redisCache,
	}
}

// Get returns the supplier record for the given id
func (c *SupplierRegistryClient) Get(ctx context.Context, supplierID uuid.UUID) (*services.SupplierInfo, error) {
	cacheKey := cache.SupplierCacheKey(supplierID)

	if c.cache != nil {
		var cached services.SupplierInfo
		if err := c.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	url := fmt.Sprintf("%s/api/suppliers/%s", c.baseURL, supplierID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create supplier registry request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to call supplier registry")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.Errorf("supplier %s not found in registry", supplierID)
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Errorf("supplier registry returned status %d", resp.StatusCode)
	}

	var supplier services.SupplierInfo
	if err := json.NewDecoder(resp.Body).Decode(&supplier); err != nil {
		return nil, errors.Wrap(err, "failed to decode supplier registry response")
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, supplier, supplierCacheTTL); err != nil {
			log.Warn().Err(err).Str("supplier_id", supplierID.String()).Msg("Failed to cache supplier record")
		}
	}

	return &supplier, nil
}
