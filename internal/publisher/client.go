package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"rental-booking/internal/models"
)

// CatalogClient reads equipment from the rental API.
type CatalogClient struct {
	baseURL string
	client  *http.Client
}

func NewCatalogClient(baseURL string) *CatalogClient {
	return &CatalogClient{baseURL: baseURL, client: &http.Client{Timeout: 10 * time.Second}}
}

func (c *CatalogClient) ListEquipment(ctx context.Context) ([]models.Equipment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/equipment", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch equipment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch equipment: status %d", resp.StatusCode)
	}

	var equipment []models.Equipment
	if err := json.NewDecoder(resp.Body).Decode(&equipment); err != nil {
		return nil, fmt.Errorf("decode equipment: %w", err)
	}
	return equipment, nil
}

// ErrNotConfigured means the account id or access token is missing.
var ErrNotConfigured = errors.New("instagram account id or access token not configured")

// GraphPublisher publishes an image post in two steps: create a media
// container, then publish it.
type GraphPublisher struct {
	baseURL     string
	accountID   string
	accessToken string
	client      *http.Client
}

func NewGraphPublisher(baseURL, accountID, accessToken string) *GraphPublisher {
	return &GraphPublisher{
		baseURL:     baseURL,
		accountID:   accountID,
		accessToken: accessToken,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *GraphPublisher) Configured() bool {
	return p.accountID != "" && p.accessToken != ""
}

// CreateContainer uploads imageURL and caption and returns the container id.
func (p *GraphPublisher) CreateContainer(ctx context.Context, imageURL, caption string) (string, error) {
	return p.post(ctx, "/media", map[string]string{
		"image_url":    imageURL,
		"caption":      caption,
		"access_token": p.accessToken,
	})
}

// PublishContainer publishes a container and returns the media id.
func (p *GraphPublisher) PublishContainer(ctx context.Context, creationID string) (string, error) {
	return p.post(ctx, "/media_publish", map[string]string{
		"creation_id":  creationID,
		"access_token": p.accessToken,
	})
}

func (p *GraphPublisher) post(ctx context.Context, path string, payload map[string]string) (string, error) {
	if !p.Configured() {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	endpoint := p.baseURL + "/" + p.accountID + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, respBody)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("response without id: %s", respBody)
	}
	return out.ID, nil
}
