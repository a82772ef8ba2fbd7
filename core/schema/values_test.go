// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package schema_test

import (
	"bytes"
	"encoding/json"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/contaconmigo/core/schema"
)

func TestFieldTypeAccepts(t *testing.T) {
	tests := []struct {
		name     string
		t        schema.FieldType
		value    interface{}
		accepted bool
	}{
		{"string", schema.FieldTypeString, "hola", true},
		{"empty string", schema.FieldTypeString, "", true},
		{"number as string", schema.FieldTypeString, json.Number("12"), false},
		{"bool as string", schema.FieldTypeString, true, false},

		{"int literal", schema.FieldTypeInt, json.Number("123"), true},
		{"negative int literal", schema.FieldTypeInt, json.Number("-7"), true},
		{"huge int literal", schema.FieldTypeInt, json.Number("123456789012345678901234567890"), true},
		{"go int", schema.FieldTypeInt, 42, true},
		{"int text", schema.FieldTypeInt, "123", true},
		{"int text with spaces", schema.FieldTypeInt, " 123 ", true},
		{"decimal text", schema.FieldTypeInt, "12.3", false},
		{"decimal literal", schema.FieldTypeInt, json.Number("12.3"), false},
		{"bool as int", schema.FieldTypeInt, true, false},
		{"go float as int", schema.FieldTypeInt, 1.0, false},
		{"word as int", schema.FieldTypeInt, "doce", false},

		{"float literal", schema.FieldTypeFloat, json.Number("10.5"), true},
		{"integral literal as float", schema.FieldTypeFloat, json.Number("10"), false},
		{"negative integral literal as float", schema.FieldTypeFloat, json.Number("-3"), false},
		{"exponent literal", schema.FieldTypeFloat, json.Number("1e3"), true},
		{"integral text as float", schema.FieldTypeFloat, "10", true},
		{"go int as float", schema.FieldTypeFloat, 10, false},
		{"go float", schema.FieldTypeFloat, 3.14, true},
		{"float text", schema.FieldTypeFloat, "10.5", true},
		{"exponent text", schema.FieldTypeFloat, "1e3", true},
		{"word as float", schema.FieldTypeFloat, "diez", false},
		{"hex text as float", schema.FieldTypeFloat, "0x10", false},
		{"bool as float", schema.FieldTypeFloat, false, false},

		{"true", schema.FieldTypeBoolean, true, true},
		{"false", schema.FieldTypeBoolean, false, true},
		{"true as text", schema.FieldTypeBoolean, "true", false},
		{"one as bool", schema.FieldTypeBoolean, json.Number("1"), false},

		{"date", schema.FieldTypeDate, "2024-01-15", true},
		{"date time", schema.FieldTypeDate, "2024-01-15T10:30:00", true},
		{"date time minutes", schema.FieldTypeDate, "2024-01-15T10:30", true},
		{"date time hour", schema.FieldTypeDate, "2024-01-15T10", true},
		{"date time hour zone", schema.FieldTypeDate, "2024-01-15T10+01:00", true},
		{"date time bad hour", schema.FieldTypeDate, "2024-01-15T25", false},
		{"date time space", schema.FieldTypeDate, "2024-01-15 10:30:00", true},
		{"date time fraction", schema.FieldTypeDate, "2024-01-15T10:30:00.123456", true},
		{"date time zone", schema.FieldTypeDate, "2024-01-15T10:30:00+02:00", true},
		{"date time utc", schema.FieldTypeDate, "2024-01-15T10:30:00Z", true},
		{"not a date", schema.FieldTypeDate, "not-a-date", false},
		{"impossible date", schema.FieldTypeDate, "2024-02-30", false},
		{"number as date", schema.FieldTypeDate, json.Number("20240115"), false},

		{"unknown accepts anything", schema.FieldTypeUnknown, map[string]interface{}{"a": 1}, true},
		{"unknown accepts nil", schema.FieldTypeUnknown, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.accepted, tt.t.Accepts(tt.value))
		})
	}
}

func TestValidateValues(t *testing.T) {
	fields := schema.Fields{
		{Name: "Fecha", Type: "date"},
		{Name: "Cantidad", Type: "float"},
		{Name: "Unidades", Type: "int"},
		{Name: "Pagado", Type: "boolean"},
	}

	t.Run("valid with extra key", func(t *testing.T) {
		err := schema.ValidateValues(fields, map[string]interface{}{
			"Fecha":    "2024-01-15",
			"Cantidad": "10.5",
			"Unidades": "123",
			"Pagado":   true,
			"Nota":     "no declarada",
		})
		assert.NoError(t, err)
	})

	t.Run("missing fields are not required", func(t *testing.T) {
		assert.NoError(t, schema.ValidateValues(fields, map[string]interface{}{}))
		assert.NoError(t, schema.ValidateValues(fields, nil))
	})

	t.Run("all failures in field order", func(t *testing.T) {
		err := schema.ValidateValues(fields, map[string]interface{}{
			"Pagado":   "true",
			"Unidades": "12.3",
			"Fecha":    "not-a-date",
			"Cantidad": json.Number("7.25"),
		})
		var ferrs schema.FieldErrors
		require.ErrorAs(t, err, &ferrs)
		assert.Equal(t, schema.FieldErrors{
			{Field: "Fecha", Type: "date"},
			{Field: "Unidades", Type: "int"},
			{Field: "Pagado", Type: "boolean"},
		}, ferrs)
		assert.Equal(t, []string{
			"El valor para el campo 'Fecha' no es del tipo esperado: date",
			"El valor para el campo 'Unidades' no es del tipo esperado: int",
			"El valor para el campo 'Pagado' no es del tipo esperado: boolean",
		}, ferrs.Messages())
	})

	t.Run("decoded integral number is not a float", func(t *testing.T) {
		var values map[string]interface{}
		dec := gojson.NewDecoder(bytes.NewReader([]byte(`{"Cantidad":10,"Unidades":10}`)))
		dec.UseNumber()
		require.NoError(t, dec.Decode(&values))

		err := schema.ValidateValues(fields, values)
		var ferrs schema.FieldErrors
		require.ErrorAs(t, err, &ferrs)
		assert.Equal(t, schema.FieldErrors{{Field: "Cantidad", Type: "float"}}, ferrs)

		dec = gojson.NewDecoder(bytes.NewReader([]byte(`{"Cantidad":10.0}`)))
		dec.UseNumber()
		require.NoError(t, dec.Decode(&values))
		assert.NoError(t, schema.ValidateValues(fields, values))
	})

	t.Run("unknown declared type accepts anything", func(t *testing.T) {
		err := schema.ValidateValues(schema.Fields{{Name: "Libre", Type: "money"}}, map[string]interface{}{
			"Libre": []interface{}{1, "dos"},
		})
		assert.NoError(t, err)
	})
}
