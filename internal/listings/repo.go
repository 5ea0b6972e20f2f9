package listings

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"imovelmap/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

// ListQuery mirrors the public filter surface plus pagination. Zero values
// mean "not filtered on"; an all-zero query lists everything.
type ListQuery struct {
	Estado      string
	Cidade      string
	Bairro      string
	TipoImovel  string
	ValorMin    float64
	ValorMax    float64
	DescontoMin float64
	Page        int
	PageSize    int
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

const listingColumns = `codigo, tipo_imovel, endereco, bairro, cidade, estado,
	valor, valor_avaliacao, desconto, area, quartos,
	imagem_url, latitude, longitude, created_at, updated_at`

func (r *Repo) GetByCodigo(ctx context.Context, codigo string) (*models.Listing, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+listingColumns+`
		FROM properties
		WHERE codigo = ?
	`, codigo)
	if err != nil {
		return nil, fmt.Errorf("get property: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get property: %w", err)
		}
		return nil, nil
	}
	l, err := scanListing(rows)
	if err != nil {
		return nil, fmt.Errorf("scan property: %w", err)
	}
	return &l, nil
}

func (r *Repo) Count(ctx context.Context, q ListQuery) (int, error) {
	sqlStr, args := buildListSQL(q, true, false)
	var total int
	if err := r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count properties: %w", err)
	}
	return total, nil
}

func (r *Repo) List(ctx context.Context, q ListQuery) ([]models.Listing, error) {
	sqlStr, args := buildListSQL(q, false, false)
	return r.queryListings(ctx, sqlStr, args)
}

// MapListings returns every match with a usable coordinate, unpaged: the
// batch loader owns its own release pacing, so the map endpoint hands over
// the full filtered set. Rows without coordinates, and the importer's (0,0)
// placeholder, never reach the map.
func (r *Repo) MapListings(ctx context.Context, q ListQuery) ([]models.Listing, error) {
	sqlStr, args := buildListSQL(q, false, true)
	return r.queryListings(ctx, sqlStr, args)
}

func (r *Repo) queryListings(ctx context.Context, sqlStr string, args []any) ([]models.Listing, error) {
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	out := make([]models.Listing, 0, 64)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// Estados lists the distinct states present in the data, sorted.
func (r *Repo) Estados(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `
		SELECT DISTINCT estado FROM properties
		WHERE estado <> '' ORDER BY estado
	`)
}

func (r *Repo) Cidades(ctx context.Context, estado string) ([]string, error) {
	return r.distinct(ctx, `
		SELECT DISTINCT cidade FROM properties
		WHERE estado = ? AND cidade <> '' ORDER BY cidade
	`, estado)
}

func (r *Repo) Bairros(ctx context.Context, cidade string) ([]string, error) {
	return r.distinct(ctx, `
		SELECT DISTINCT bairro FROM properties
		WHERE cidade = ? AND bairro IS NOT NULL AND bairro <> '' ORDER BY bairro
	`, cidade)
}

func (r *Repo) Tipos(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `
		SELECT DISTINCT tipo_imovel FROM properties
		WHERE tipo_imovel <> '' ORDER BY tipo_imovel
	`)
}

func (r *Repo) distinct(ctx context.Context, sqlStr string, args ...any) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("distinct query: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0, 32)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("distinct scan: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// buildListSQL builds COUNT(*) or SELECT over properties. mapOnly restricts
// to rows with usable coordinates and drops pagination.
func buildListSQL(q ListQuery, countOnly, mapOnly bool) (string, []any) {
	baseSelect := `SELECT ` + listingColumns + ` FROM properties`
	if countOnly {
		baseSelect = `SELECT COUNT(*) FROM properties`
	}

	var where []string
	var args []any

	if strings.TrimSpace(q.Estado) != "" {
		where = append(where, "estado = ?")
		args = append(args, strings.TrimSpace(q.Estado))
	}
	if strings.TrimSpace(q.Cidade) != "" {
		where = append(where, "cidade = ?")
		args = append(args, strings.TrimSpace(q.Cidade))
	}
	if strings.TrimSpace(q.Bairro) != "" {
		where = append(where, "bairro = ?")
		args = append(args, strings.TrimSpace(q.Bairro))
	}
	if strings.TrimSpace(q.TipoImovel) != "" {
		where = append(where, "tipo_imovel = ?")
		args = append(args, strings.TrimSpace(q.TipoImovel))
	}
	if q.ValorMin > 0 {
		where = append(where, "valor >= ?")
		args = append(args, q.ValorMin)
	}
	if q.ValorMax > 0 {
		where = append(where, "valor <= ?")
		args = append(args, q.ValorMax)
	}
	if q.DescontoMin > 0 {
		where = append(where, "desconto >= ?")
		args = append(args, q.DescontoMin)
	}
	if mapOnly {
		where = append(where, "latitude IS NOT NULL AND longitude IS NOT NULL")
		where = append(where, "NOT (latitude = 0 AND longitude = 0)")
	}

	sqlStr := baseSelect
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}

	if !countOnly {
		sqlStr += " ORDER BY codigo ASC"
		if !mapOnly {
			page := q.Page
			if page < 1 {
				page = 1
			}
			size := q.PageSize
			if size <= 0 {
				size = 100
			}
			if size > 500 {
				size = 500
			}
			sqlStr += " LIMIT ? OFFSET ?"
			args = append(args, size, (page-1)*size)
		}
	}

	return sqlStr, args
}

func scanListing(rows *sql.Rows) (models.Listing, error) {
	var l models.Listing
	var endereco, bairro, imagem sql.NullString
	var avaliacao, desconto, area, lat, lng sql.NullFloat64
	var quartos sql.NullInt64

	err := rows.Scan(
		&l.Codigo, &l.TipoImovel, &endereco, &bairro, &l.Cidade, &l.Estado,
		&l.Valor, &avaliacao, &desconto, &area, &quartos,
		&imagem, &lat, &lng, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return l, err
	}
	l.Endereco = endereco.String
	l.Bairro = bairro.String
	l.ImagemURL = imagem.String
	l.ValorAvaliacao = avaliacao.Float64
	l.Desconto = desconto.Float64
	l.Area = area.Float64
	l.Quartos = int(quartos.Int64)
	l.Latitude = lat.Float64
	l.Longitude = lng.Float64
	return l, nil
}
