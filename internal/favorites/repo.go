package favorites

import (
	"context"
	"database/sql"
	"fmt"

	"imovelmap/pkg/models"
)

// Repo is the server-side favorites store: one row per (user, listing) pair.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Toggle flips the favorite row for userID and codigo and reports the action
// taken. The existence check and the write run in one transaction so two
// racing toggles cannot both insert.
func (r *Repo) Toggle(ctx context.Context, userID, codigo string) (string, error) {
	var exists int
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM properties WHERE codigo = ?
	`, codigo).Scan(&exists)
	if err != nil {
		return "", fmt.Errorf("check property: %w", err)
	}
	if exists == 0 {
		return "", sql.ErrNoRows
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin toggle: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM favorites WHERE user_id = ? AND codigo = ?
	`, userID, codigo)
	if err != nil {
		return "", fmt.Errorf("toggle delete: %w", err)
	}

	action := ActionRemoved
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO favorites (user_id, codigo, created_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
		`, userID, codigo); err != nil {
			return "", fmt.Errorf("toggle insert: %w", err)
		}
		action = ActionAdded
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("commit toggle: %w", err)
	}
	return action, nil
}

// ListForUser returns the full listing rows the user has favorited, newest
// favorite first.
func (r *Repo) ListForUser(ctx context.Context, userID string) ([]models.Listing, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT p.codigo, p.tipo_imovel, p.endereco, p.bairro, p.cidade, p.estado,
		       p.valor, p.valor_avaliacao, p.desconto, p.area, p.quartos,
		       p.imagem_url, p.latitude, p.longitude, p.created_at, p.updated_at
		FROM favorites f
		JOIN properties p ON p.codigo = f.codigo
		WHERE f.user_id = ?
		ORDER BY f.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	out := make([]models.Listing, 0, 16)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// IsFavorite reports whether the user has favorited codigo.
func (r *Repo) IsFavorite(ctx context.Context, userID, codigo string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM favorites WHERE user_id = ? AND codigo = ?
	`, userID, codigo).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return n > 0, nil
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
