package listings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"imovelmap/internal/requestcache"
	"imovelmap/pkg/apierr"
	"imovelmap/pkg/models"
)

func mapServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/mapa":
			out := models.ListingPage{
				Count: 2,
				Results: []models.Listing{
					{Codigo: "AA0001", Estado: r.URL.Query().Get("estado"), Latitude: -23.5, Longitude: -46.6},
					{Codigo: "BB0002", Estado: r.URL.Query().Get("estado"), Latitude: -23.6, Longitude: -46.7},
				},
			}
			_ = json.NewEncoder(w).Encode(out)
		case "/estados":
			_ = json.NewEncoder(w).Encode(map[string][]string{"estados": {"RJ", "SP"}})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestFetchMapCachesWithinTTL(t *testing.T) {
	var hits atomic.Int64
	srv := mapServer(t, &hits)
	defer srv.Close()

	c := NewClient(srv.URL, requestcache.New(time.Minute))
	filters := models.ListingFilters{Estado: "SP"}

	first, err := c.FetchMap(context.Background(), filters)
	if err != nil {
		t.Fatalf("first FetchMap: %v", err)
	}
	if len(first) != 2 || first[0].Codigo != "AA0001" {
		t.Fatalf("results = %+v", first)
	}

	second, err := c.FetchMap(context.Background(), filters)
	if err != nil {
		t.Fatalf("second FetchMap: %v", err)
	}
	if len(second) != 2 {
		t.Fatalf("cached results = %+v", second)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server hits = %d, want 1 (second read served from cache)", got)
	}
}

func TestFetchMapDistinctFiltersDistinctEntries(t *testing.T) {
	var hits atomic.Int64
	srv := mapServer(t, &hits)
	defer srv.Close()

	c := NewClient(srv.URL, requestcache.New(time.Minute))

	if _, err := c.FetchMap(context.Background(), models.ListingFilters{Estado: "SP"}); err != nil {
		t.Fatalf("SP fetch: %v", err)
	}
	if _, err := c.FetchMap(context.Background(), models.ListingFilters{Estado: "RJ"}); err != nil {
		t.Fatalf("RJ fetch: %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("server hits = %d, want 2", got)
	}
}

func TestFetchPageSendsPagination(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(models.ListingPage{Count: 0, Results: nil})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, requestcache.New(time.Minute))
	if _, err := c.FetchPage(context.Background(), models.ListingFilters{Cidade: "Campinas"}, 3, 50); err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if gotQuery != "cidade=Campinas&page=3&page_size=50" {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestFetchListingNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, requestcache.New(time.Minute))
	_, err := c.FetchListing(context.Background(), "ZZ9999")
	if !apierr.IsKind(err, apierr.KindNotFound) {
		t.Errorf("err = %v, want not-found kind", err)
	}
}

func TestServerErrorSurfacesAfterRetry(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, requestcache.New(time.Minute))
	_, err := c.FetchMap(context.Background(), models.ListingFilters{})
	if !apierr.IsKind(err, apierr.KindServer) {
		t.Fatalf("err = %v, want server kind", err)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("server hits = %d, want 2 (one retry)", got)
	}
}

func TestEstadosOptions(t *testing.T) {
	var hits atomic.Int64
	srv := mapServer(t, &hits)
	defer srv.Close()

	c := NewClient(srv.URL, requestcache.New(time.Minute))
	estados, err := c.Estados(context.Background())
	if err != nil {
		t.Fatalf("Estados: %v", err)
	}
	if len(estados) != 2 || estados[0] != "RJ" || estados[1] != "SP" {
		t.Errorf("estados = %v", estados)
	}
}
