// Package listings serves and fetches the property catalog. The server side
// (Repo, Handler) exposes the filterable API; Client is the engine side,
// routing every read through the request cache so repeated filter queries
// within the TTL cost no network call.
package listings

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"imovelmap/internal/requestcache"
	"imovelmap/pkg/apierr"
	"imovelmap/pkg/models"
)

// Client reads the listings API through a shared request cache.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Cache   *requestcache.Cache
}

func NewClient(baseURL string, cache *requestcache.Cache) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		Cache:   cache,
	}
}

// FetchPage returns one page of the filtered catalog.
func (c *Client) FetchPage(ctx context.Context, filters models.ListingFilters, page, pageSize int) (models.ListingPage, error) {
	params := filters.Values()
	if page > 1 {
		params.Set("page", fmt.Sprint(page))
	}
	if pageSize > 0 {
		params.Set("page_size", fmt.Sprint(pageSize))
	}
	key := requestcache.Key("propriedades", params)

	v, err := c.Cache.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		var out models.ListingPage
		if err := c.getJSON(ctx, "/propriedades", params, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return models.ListingPage{}, err
	}
	return v.(models.ListingPage), nil
}

// FetchMap returns the full filtered set with usable coordinates, for the
// batch loader. An empty filter set is an unfiltered fetch.
func (c *Client) FetchMap(ctx context.Context, filters models.ListingFilters) ([]models.Listing, error) {
	params := filters.Values()
	key := requestcache.Key("mapa", params)

	v, err := c.Cache.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		var out models.ListingPage
		if err := c.getJSON(ctx, "/mapa", params, &out); err != nil {
			return nil, err
		}
		return out.Results, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Listing), nil
}

// FetchListing returns one listing by code, uncached: the detail overlay
// always shows the latest row.
func (c *Client) FetchListing(ctx context.Context, codigo string) (models.Listing, error) {
	var out models.Listing
	if err := c.getJSON(ctx, "/propriedades/"+codigo, nil, &out); err != nil {
		return models.Listing{}, err
	}
	return out, nil
}

// Estados returns the available state filter options.
func (c *Client) Estados(ctx context.Context) ([]string, error) {
	return c.options(ctx, "/estados", "estados")
}

func (c *Client) Cidades(ctx context.Context, estado string) ([]string, error) {
	return c.options(ctx, "/cidades/"+estado, "cidades")
}

func (c *Client) Bairros(ctx context.Context, cidade string) ([]string, error) {
	return c.options(ctx, "/bairros/"+cidade, "bairros")
}

func (c *Client) Tipos(ctx context.Context) ([]string, error) {
	return c.options(ctx, "/tipos-imovel", "tipos_imovel")
}

func (c *Client) options(ctx context.Context, path, field string) ([]string, error) {
	key := requestcache.Key(path, nil)
	v, err := c.Cache.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		var body map[string][]string
		if err := c.getJSON(ctx, path, nil, &body); err != nil {
			return nil, err
		}
		return body[field], nil
	})
	if err != nil {
		return nil, err
	}
	out, _ := v.([]string)
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	target := c.BaseURL + path
	if qs := params.Encode(); qs != "" {
		target += "?" + qs
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return apierr.Network(err)
	}
	defer resp.Body.Close()

	if ae := apierr.FromStatus(resp.StatusCode, "GET "+path); ae != nil {
		return ae
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
