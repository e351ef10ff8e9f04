package sentinel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/forest-guardian/water-guardian-cli/internal/cache"
	"github.com/forest-guardian/water-guardian-cli/internal/properties"
	"golang.org/x/oauth2/clientcredentials"
)

// Client talks to the Sentinel Hub catalog and process APIs.
type Client struct {
	cfg        *properties.Config
	httpClient *http.Client
	catalog    *cache.FileCache[[]time.Time]
	scenes     *cache.FileCache[string]
}

func NewClient(ctx context.Context, cfg *properties.Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.TokenURL == "" {
		return nil, fmt.Errorf("missing required configuration: SH_CLIENT_ID, SH_CLIENT_SECRET or SH_TOKEN_URL")
	}
	oauth := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}
	return &Client{
		cfg:        cfg,
		httpClient: oauth.Client(ctx),
		catalog:    cache.NewFileCache[[]time.Time](filepath.Join(cfg.CacheFolder, "catalog")),
		scenes:     cache.NewFileCache[string](filepath.Join(cfg.CacheFolder, "scenes")),
	}, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, accept string) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, fmt.Errorf("unauthorized access, check your client ID and secret: %s", content)
		}
		return nil, fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, content)
	}
	return content, nil
}
