package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"imovelmap/pkg/database"
)

func main() {
	var (
		propertiesIn = flag.String("properties", "data/imoveis.csv", "input CSV path for properties")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	n, err := importProperties(ctx, db, *propertiesIn)
	if err != nil {
		log.Fatalf("import properties failed: %v", err)
	}

	log.Printf("imported %d properties from %s", n, *propertiesIn)
}

func importProperties(ctx context.Context, db *sql.DB, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.Comma = detectDelimiter(path)

	header, err := readHeader(r)
	if err != nil {
		return 0, err
	}

	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO properties (codigo, tipo_imovel, endereco, bairro, cidade, estado,
			valor, valor_avaliacao, desconto, area, quartos, imagem_url,
			latitude, longitude, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(codigo) DO UPDATE SET
		  tipo_imovel = excluded.tipo_imovel,
		  endereco = excluded.endereco,
		  bairro = excluded.bairro,
		  cidade = excluded.cidade,
		  estado = excluded.estado,
		  valor = excluded.valor,
		  valor_avaliacao = excluded.valor_avaliacao,
		  desconto = excluded.desconto,
		  area = excluded.area,
		  quartos = excluded.quartos,
		  imagem_url = excluded.imagem_url,
		  latitude = excluded.latitude,
		  longitude = excluded.longitude,
		  updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	count := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, err
		}
		if len(row) == 0 {
			continue
		}

		codigo := valueAt(header, row, "codigo")
		estado := valueAt(header, row, "estado")
		cidade := valueAt(header, row, "cidade")
		if codigo == "" || estado == "" || cidade == "" {
			continue
		}

		valor, err := parseMoney(valueAt(header, row, "valor"))
		if err != nil {
			return count, fmt.Errorf("parse valor for %s: %w", codigo, err)
		}

		avaliacao, _ := parseNullMoney(valueAt(header, row, "valor_avaliacao"))
		desconto, _ := parseNullMoney(valueAt(header, row, "desconto"))
		area, _ := parseNullMoney(valueAt(header, row, "area"))
		quartos, _ := parseNullInt(valueAt(header, row, "quartos"))
		lat, _ := parseNullFloat(valueAt(header, row, "latitude"))
		lng, _ := parseNullFloat(valueAt(header, row, "longitude"))

		if _, err := stmt.ExecContext(
			ctx,
			codigo,
			valueAt(header, row, "tipo_imovel"),
			nullString(valueAt(header, row, "endereco")),
			nullString(valueAt(header, row, "bairro")),
			cidade,
			estado,
			valor,
			avaliacao,
			desconto,
			area,
			quartos,
			nullString(valueAt(header, row, "imagem_url")),
			lat,
			lng,
		); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

// detectDelimiter picks semicolon for the raw Caixa exports, comma otherwise.
func detectDelimiter(path string) rune {
	f, err := os.Open(path)
	if err != nil {
		return ','
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	if strings.Count(string(buf[:n]), ";") > strings.Count(string(buf[:n]), ",") {
		return ';'
	}
	return ','
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseMoney handles both plain floats and Brazilian formatting
// ("R$ 123.456,78").
func parseMoney(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	s := strings.TrimSpace(strings.TrimPrefix(raw, "R$"))
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func parseNullMoney(raw string) (sql.NullFloat64, error) {
	if raw == "" {
		return sql.NullFloat64{}, nil
	}
	v, err := parseMoney(raw)
	if err != nil {
		return sql.NullFloat64{}, err
	}
	return sql.NullFloat64{Float64: v, Valid: true}, nil
}

func parseNullFloat(raw string) (sql.NullFloat64, error) {
	if raw == "" {
		return sql.NullFloat64{}, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return sql.NullFloat64{}, err
	}
	return sql.NullFloat64{Float64: v, Valid: true}, nil
}

func parseNullInt(raw string) (sql.NullInt64, error) {
	if raw == "" {
		return sql.NullInt64{}, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return sql.NullInt64{}, err
	}
	return sql.NullInt64{Int64: n, Valid: true}, nil
}

func nullString(raw string) sql.NullString {
	if raw == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: raw, Valid: true}
}
