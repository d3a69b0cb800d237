package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taquilla-cli/model"
	"taquilla-cli/seating"
)

func TestRenderSections(t *testing.T) {
	platea, err := seating.NewSection("Platea", decimal.NewFromInt(3000), 2, 3, []seating.Seat{{Row: 0, Col: 1}})
	require.NoError(t, err)
	palco, err := seating.NewSection("Palco", decimal.NewFromInt(2800), 1, 2, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	substituted := renderSections(&buf, map[string]*seating.Section{platea.Key: platea, palco.Key: palco})
	out := buf.String()

	assert.Zero(t, substituted)
	assert.Contains(t, out, "servidor")
	assert.NotContains(t, out, "respaldo")

	assert.Contains(t, out, "Platea")
	assert.Contains(t, out, "$3000.00")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Palco")), bytes.Index(buf.Bytes(), []byte("Platea")))
	assert.Contains(t, out, "TOTAL")
}

func TestRenderSections_MarksSubstitutes(t *testing.T) {
	theater := seating.VenueFor(seating.Theater)
	sections := map[string]*seating.Section{"platea": theater.SubstituteSection("platea")}

	var buf bytes.Buffer
	substituted := renderSections(&buf, sections)
	assert.Equal(t, 1, substituted)
	assert.Contains(t, buf.String(), "respaldo")
}

func TestRenderPlaces_HidesUnlessAll(t *testing.T) {
	places := []model.Place{
		{ID: "1", Name: "Teatro Solís", Location: "Montevideo"},
		{ID: "2", Name: "Teatro El Galpón", Location: "Montevideo"},
	}
	hidden := map[string]bool{"2": true}

	var buf bytes.Buffer
	renderPlaces(&buf, places, hidden, false)
	assert.Contains(t, buf.String(), "Teatro Solís")
	assert.NotContains(t, buf.String(), "Galpón")

	buf.Reset()
	renderPlaces(&buf, places, hidden, true)
	assert.Contains(t, buf.String(), "Galpón")
	assert.Contains(t, buf.String(), "oculto")
}

func TestRenderHistory(t *testing.T) {
	var tx model.TransactionInfo
	require.NoError(t, json.Unmarshal([]byte(`{
		"id_transaccion": 42,
		"estado": "completada",
		"total_pagado": "6000",
		"fecha_transaccion": "2026-03-01",
		"nombre_evento": "Hamlet",
		"metodo_pago": "tarjeta"
	}`), &tx))

	var buf bytes.Buffer
	renderHistory(&buf, []model.TransactionInfo{tx})
	out := buf.String()
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "Hamlet")
	assert.Contains(t, out, "$6000.00")
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ana <ana>", displayName("Ana", "ana"))
	assert.Equal(t, "ana", displayName("", "ana"))
	assert.Equal(t, "Ana", displayName("Ana", ""))
}

func TestRequiredValue(t *testing.T) {
	assert.Error(t, requiredValue("  "))
	assert.NoError(t, requiredValue("demo"))
}
