// Package modelcache implements cache.Client over the model provider's
// REST cachedContents endpoint, the remote collaborator
// internal/cache.Manager serializes and deduplicates calls to.
package modelcache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
)

// Client talks to the model provider's cachedContents REST API.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func New(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type createCacheRequest struct {
	Model    string        `json:"model"`
	Contents []cacheContent `json:"contents"`
	TTL      string        `json:"ttl"`
}

type cacheContent struct {
	Role  string       `json:"role"`
	Parts []cachePart  `json:"parts"`
}

type cachePart struct {
	Text string `json:"text"`
}

type createCacheResponse struct {
	Name string `json:"name"`
}

// CreateCache implements cache.Client.
func (c *Client) CreateCache(ctx context.Context, content string, ttl time.Duration) (string, error) {
	body, err := json.Marshal(createCacheRequest{
		Model: c.model,
		Contents: []cacheContent{
			{Role: "user", Parts: []cachePart{{Text: content}}},
		},
		TTL: fmt.Sprintf("%ds", int(ttl.Seconds())),
	})
	if err != nil {
		return "", domain.NewDomainError(err, domain.KindProtocol, "marshal cache create request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1beta/cachedContents?key="+c.apiKey, bytes.NewReader(body))
	if err != nil {
		return "", domain.NewDomainError(err, domain.KindTransport, "build cache create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", domain.NewDomainError(err, domain.KindTransport, "cache create request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", domain.NewDomainError(fmt.Errorf("status %d: %s", resp.StatusCode, string(b)), domain.KindResource, "cache create")
	}

	var out createCacheResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", domain.NewDomainError(err, domain.KindProtocol, "decode cache create response")
	}

	return out.Name, nil
}

type refreshCacheRequest struct {
	TTL string `json:"ttl"`
}

// RefreshCacheTTL implements cache.Client.
func (c *Client) RefreshCacheTTL(ctx context.Context, handle string, ttl time.Duration) error {
	body, err := json.Marshal(refreshCacheRequest{TTL: fmt.Sprintf("%ds", int(ttl.Seconds()))})
	if err != nil {
		return domain.NewDomainError(err, domain.KindProtocol, "marshal cache refresh request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+"/v1beta/"+handle+"?key="+c.apiKey, bytes.NewReader(body))
	if err != nil {
		return domain.NewDomainError(err, domain.KindTransport, "build cache refresh request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.NewDomainError(err, domain.KindTransport, "cache refresh request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return domain.NewDomainError(fmt.Errorf("status %d: %s", resp.StatusCode, string(b)), domain.KindResource, "cache refresh")
	}

	return nil
}
