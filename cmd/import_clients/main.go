// import_clients genera un script SQL para poblar clients y active_clients a partir de la
// exportación CSV de la planilla anterior de la agencia.
//
// Uso: go run ./cmd/import_clients [-encoding latin1|utf8] [-comma ';'] [-out archivo.sql] clientes.csv
// Columnas esperadas (con encabezado): nombre, porcentaje_vendas, valor_mensal, data_entrada,
// produtos (separados por |), vencimento_contrato (opcional).
// Por defecto escribe internal/infrastructure/postgres/migrations/002_seed_clients.sql
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/lifecycle"
)

// legacyClient fila válida de la planilla.
type legacyClient struct {
	ID                string
	Name              string
	SalesPercentage   decimal.Decimal
	MonthlyValue      decimal.Decimal
	EntryDate         time.Time
	Products          []entity.ProductSlug
	ContractExpiresAt *time.Time
}

func main() {
	encoding := flag.String("encoding", "latin1", "codificación del CSV: latin1 | utf8")
	comma := flag.String("comma", ";", "separador de columnas")
	outPath := flag.String("out", "", "archivo SQL de salida")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Uso: import_clients [-encoding latin1|utf8] [-comma ';'] [-out archivo.sql] clientes.csv")
		os.Exit(2)
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	var in io.Reader = f
	if strings.EqualFold(*encoding, "latin1") || strings.EqualFold(*encoding, "ISO-8859-1") {
		in = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
	}
	sep := []rune(*comma)
	if len(sep) != 1 {
		fmt.Fprintln(os.Stderr, "El separador debe ser un único carácter")
		os.Exit(2)
	}

	rows, skipped, err := parseClients(in, sep[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}
	for _, s := range skipped {
		fmt.Fprintf(os.Stderr, "omitida: %s\n", s)
	}

	path := *outPath
	if path == "" {
		path = filepath.Join(findModuleRoot(), "internal", "infrastructure", "postgres", "migrations", "002_seed_clients.sql")
	}
	out, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := writeSeed(out, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d clientes, %d filas omitidas\n", path, len(rows), len(skipped))
}

// parseClients lee el CSV con encabezado. Las filas inválidas se devuelven como motivos en skipped.
func parseClients(r io.Reader, comma rune) (rows []legacyClient, skipped []string, err error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("encabezado: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range []string{"nombre", "porcentaje_vendas", "valor_mensal", "data_entrada"} {
		if _, ok := idx[col]; !ok {
			return nil, nil, fmt.Errorf("falta la columna %q", col)
		}
	}
	get := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, nil, fmt.Errorf("línea %d: %w", line, err)
		}
		c, reason := parseRow(rec, get)
		if reason != "" {
			skipped = append(skipped, fmt.Sprintf("línea %d: %s", line, reason))
			continue
		}
		rows = append(rows, c)
	}
	return rows, skipped, nil
}

func parseRow(rec []string, get func([]string, string) string) (legacyClient, string) {
	c := legacyClient{ID: uuid.New().String(), Name: get(rec, "nombre")}
	if c.Name == "" {
		return c, "nombre vacío"
	}
	pct, err := parseAmount(get(rec, "porcentaje_vendas"))
	if err != nil {
		return c, "porcentaje_vendas inválido"
	}
	if err := lifecycle.ValidatePercentage(pct); err != nil {
		return c, "porcentaje_vendas fuera de rango"
	}
	c.SalesPercentage = pct
	if c.MonthlyValue, err = parseAmount(get(rec, "valor_mensal")); err != nil || c.MonthlyValue.IsNegative() ||
		lifecycle.ValidateMoney("valor_mensal", c.MonthlyValue) != nil {
		return c, "valor_mensal inválido"
	}
	if c.EntryDate, err = parseLegacyDate(get(rec, "data_entrada")); err != nil {
		return c, "data_entrada inválida"
	}
	seen := map[entity.ProductSlug]bool{}
	for _, p := range strings.Split(get(rec, "produtos"), "|") {
		slug := entity.NewProductSlug(p)
		if slug != "" && !seen[slug] {
			seen[slug] = true
			c.Products = append(c.Products, slug)
		}
	}
	if v := get(rec, "vencimento_contrato"); v != "" {
		exp, err := parseLegacyDate(v)
		if err != nil {
			return c, "vencimento_contrato inválido"
		}
		c.ContractExpiresAt = &exp
	}
	return c, ""
}

// parseAmount acepta "1500.50", "1500,50" y "1.500,50".
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(s, "R$"), "%"))
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return decimal.NewFromString(strings.TrimSpace(s))
}

// parseLegacyDate acepta DD/MM/YYYY (planilla) y YYYY-MM-DD.
func parseLegacyDate(s string) (time.Time, error) {
	for _, layout := range []string{"02/01/2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("fecha %q", s)
}

func writeSeed(w io.Writer, rows []legacyClient) error {
	var b strings.Builder
	b.WriteString("-- Clientes importados desde la planilla anterior\n")
	b.WriteString("-- Generado por cmd/import_clients\n\n")
	for _, c := range rows {
		fmt.Fprintf(&b, "INSERT INTO clients (id, name, status, contracted_products, sales_percentage, monthly_value, entry_date)\n")
		fmt.Fprintf(&b, "VALUES ('%s', '%s', '%s', %s, %s, %s, '%s')\nON CONFLICT (id) DO NOTHING;\n",
			c.ID, escapeSQL(c.Name), entity.ClientStatusNew, slugArray(c.Products),
			c.SalesPercentage.String(), c.MonthlyValue.StringFixed(2), c.EntryDate.Format("2006-01-02"))
		expires := "NULL"
		if c.ContractExpiresAt != nil {
			expires = "'" + c.ContractExpiresAt.Format("2006-01-02") + "'"
		}
		fmt.Fprintf(&b, "INSERT INTO active_clients (client_id, contract_expires_at, monthly_value)\n")
		fmt.Fprintf(&b, "VALUES ('%s', %s, %s)\nON CONFLICT (client_id) DO NOTHING;\n\n",
			c.ID, expires, c.MonthlyValue.StringFixed(2))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func slugArray(slugs []entity.ProductSlug) string {
	if len(slugs) == 0 {
		return "'{}'"
	}
	parts := make([]string, 0, len(slugs))
	for _, s := range slugs {
		parts = append(parts, escapeSQL(string(s)))
	}
	return "ARRAY['" + strings.Join(parts, "', '") + "']::TEXT[]"
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
