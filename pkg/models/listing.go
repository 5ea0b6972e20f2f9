package models

import (
	"net/url"
	"strconv"
	"time"
)

// Listing is the normalized form of a single real-estate property as served
// by the listings API. Within a session a Listing is immutable once fetched;
// re-fetches replace it wholesale.
type Listing struct {
	Codigo         string  `json:"codigo"`
	TipoImovel     string  `json:"tipo_imovel"`
	Endereco       string  `json:"endereco"`
	Bairro         string  `json:"bairro"`
	Cidade         string  `json:"cidade"`
	Estado         string  `json:"estado"`
	Valor          float64 `json:"valor"`
	ValorAvaliacao float64 `json:"valor_avaliacao,omitempty"`
	Desconto       float64 `json:"desconto"`
	Area           float64 `json:"area,omitempty"`
	Quartos        int     `json:"quartos,omitempty"`
	ImagemURL      string  `json:"imagem_url,omitempty"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`

	CreatedAt time.Time `json:"data_criacao,omitzero"`
	UpdatedAt time.Time `json:"data_atualizacao,omitzero"`
}

// ListingPage is the paged envelope returned by the listings endpoints.
type ListingPage struct {
	Count   int       `json:"count"`
	Results []Listing `json:"results"`
}

// ListingFilters are the search criteria the map and list views share.
// Zero values mean "not filtered on". An entirely empty filter set means
// an unfiltered fetch.
type ListingFilters struct {
	Estado      string
	Cidade      string
	Bairro      string
	TipoImovel  string
	ValorMin    float64
	ValorMax    float64
	DescontoMin float64
}

// Empty reports whether no criterion is set.
func (f ListingFilters) Empty() bool {
	return f == ListingFilters{}
}

// Values encodes the filters as query parameters. url.Values.Encode sorts by
// key, so two filter sets with the same criteria always encode identically
// regardless of how they were built.
func (f ListingFilters) Values() url.Values {
	v := url.Values{}
	if f.Estado != "" {
		v.Set("estado", f.Estado)
	}
	if f.Cidade != "" {
		v.Set("cidade", f.Cidade)
	}
	if f.Bairro != "" {
		v.Set("bairro", f.Bairro)
	}
	if f.TipoImovel != "" {
		v.Set("tipo_imovel", f.TipoImovel)
	}
	if f.ValorMin > 0 {
		v.Set("valor_min", strconv.FormatFloat(f.ValorMin, 'f', -1, 64))
	}
	if f.ValorMax > 0 {
		v.Set("valor_max", strconv.FormatFloat(f.ValorMax, 'f', -1, 64))
	}
	if f.DescontoMin > 0 {
		v.Set("desconto_min", strconv.FormatFloat(f.DescontoMin, 'f', -1, 64))
	}
	return v
}

// ToggleResult is the favorites API response for a toggle request.
type ToggleResult struct {
	Status string `json:"status"`
	Action string `json:"action"` // "added" or "removed"
}
