package favorites

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"imovelmap/pkg/apierr"
	"imovelmap/pkg/models"
)

// Client talks to the authenticated favorites API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	// Token returns the current bearer token, empty when logged out.
	Token func() string
}

func NewClient(baseURL string, token func() string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		Token:   token,
	}
}

type favoritesResponse struct {
	Favoritos []models.Listing `json:"favoritos"`
}

// ListFavorites fetches the full favorite listing list for the session user.
func (c *Client) ListFavorites(ctx context.Context) ([]models.Listing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/usuarios/favoritos", nil)
	if err != nil {
		return nil, fmt.Errorf("build favorites request: %w", err)
	}
	c.authorize(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, apierr.Network(err)
	}
	defer resp.Body.Close()

	if ae := apierr.FromStatus(resp.StatusCode, "list favorites"); ae != nil {
		return nil, ae
	}

	var body favoritesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode favorites: %w", err)
	}
	return body.Favoritos, nil
}

// ToggleFavorite flips the favorite status of one listing on the server.
func (c *Client) ToggleFavorite(ctx context.Context, code string) (models.ToggleResult, error) {
	url := fmt.Sprintf("%s/usuarios/favoritos/%s", c.BaseURL, code)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader([]byte("{}")))
	if err != nil {
		return models.ToggleResult{}, fmt.Errorf("build toggle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return models.ToggleResult{}, apierr.Network(err)
	}
	defer resp.Body.Close()

	if ae := apierr.FromStatus(resp.StatusCode, "toggle favorite"); ae != nil {
		return models.ToggleResult{}, ae
	}

	var out models.ToggleResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.ToggleResult{}, fmt.Errorf("decode toggle result: %w", err)
	}
	return out, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.Token == nil {
		return
	}
	if t := c.Token(); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}
}
