package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
)

const sample = `nombre;porcentaje_vendas;valor_mensal;data_entrada;produtos;vencimento_contrato
Clínica Saúde;30;1.500,00;05/02/2024;Tráfego Pago|SEO|trafego pago;31/12/2024
Padaria;10%;800;2024-01-15;;
;20;100;01/01/2024;;
Loja X;150;100;01/01/2024;;
`

func TestParseClients_Latin1NormalizaProductosYOmiteInvalidas(t *testing.T) {
	encoded, err := charmap.ISO8859_1.NewEncoder().String(sample)
	require.NoError(t, err)

	r := transform.NewReader(strings.NewReader(encoded), charmap.ISO8859_1.NewDecoder())
	rows, skipped, err := parseClients(r, ';')
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Len(t, skipped, 2)

	c := rows[0]
	assert.Equal(t, "Clínica Saúde", c.Name)
	assert.Equal(t, "30", c.SalesPercentage.String())
	assert.Equal(t, "1500", c.MonthlyValue.String())
	assert.Equal(t, "2024-02-05", c.EntryDate.Format("2006-01-02"))
	assert.Equal(t, []entity.ProductSlug{"trafego-pago", "seo"}, c.Products)
	require.NotNil(t, c.ContractExpiresAt)
	assert.Equal(t, "2024-12-31", c.ContractExpiresAt.Format("2006-01-02"))

	assert.Equal(t, "10", rows[1].SalesPercentage.String())
	assert.Nil(t, rows[1].ContractExpiresAt)
	assert.Empty(t, rows[1].Products)
}

func TestParseClients_FaltaColumna(t *testing.T) {
	_, _, err := parseClients(strings.NewReader("nombre;valor_mensal\nAcme;10\n"), ';')
	assert.Error(t, err)
}

func TestWriteSeed_EscapaComillasYContrato(t *testing.T) {
	rows, _, err := parseClients(strings.NewReader(
		"nombre,porcentaje_vendas,valor_mensal,data_entrada,produtos\nD'Ávila,5,200,2024-03-01,seo\n"), ',')
	require.NoError(t, err)
	require.Len(t, rows, 1)

	var buf bytes.Buffer
	require.NoError(t, writeSeed(&buf, rows))
	sql := buf.String()
	assert.Contains(t, sql, "'D''Ávila'")
	assert.Contains(t, sql, "ARRAY['seo']::TEXT[]")
	assert.Contains(t, sql, "'new_client'")
	assert.Contains(t, sql, "VALUES ('"+rows[0].ID+"', NULL, 200.00)")
}
