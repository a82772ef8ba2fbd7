// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/contaconmigo/core/pointers"
	"github.com/relabs-tech/contaconmigo/core/schema"
)

func TestParseFieldType(t *testing.T) {
	for _, label := range []string{"string", "int", "float", "boolean", "date"} {
		ft := schema.ParseFieldType(label)
		assert.NotEqual(t, schema.FieldTypeUnknown, ft, label)
		assert.Equal(t, label, ft.String())
	}
	assert.Equal(t, schema.FieldTypeUnknown, schema.ParseFieldType("Integer"))
	assert.Equal(t, schema.FieldTypeUnknown, schema.ParseFieldType(""))
	assert.Equal(t, "unknown", schema.FieldTypeUnknown.String())
}

func TestFieldsEqual(t *testing.T) {
	base := schema.Fields{{Name: "Monto", Type: "float", DisplayUnit: pointers.String("EUR")}, {Name: "Fecha", Type: "date"}}

	same := schema.Fields{{Name: "Monto", Type: "float", DisplayUnit: pointers.String("EUR")}, {Name: "Fecha", Type: "date"}}
	assert.True(t, base.Equal(same))

	assert.False(t, base.Equal(base[:1]))
	assert.False(t, base.Equal(schema.Fields{base[1], base[0]}))
	assert.False(t, base.Equal(schema.Fields{{Name: "Monto", Type: "float", DisplayUnit: pointers.String("USD")}, base[1]}))
	assert.False(t, base.Equal(schema.Fields{{Name: "Monto", Type: "float"}, base[1]}))
	assert.False(t, base.Equal(schema.Fields{{Name: "Monto", Type: "int", DisplayUnit: pointers.String("EUR")}, base[1]}))
	assert.True(t, schema.Fields{}.Equal(nil))
}

func TestFieldsCheck(t *testing.T) {
	assert.Empty(t, schema.Fields{{Name: "Monto", Type: "float"}, {Name: "Fecha", Type: "date"}}.Check())

	problems := schema.Fields{
		{Name: "", Type: "string"},
		{Name: "Monto", Type: "float"},
		{Name: "Monto", Type: "int"},
		{Name: "Divisa", Type: "money"},
	}.Check()
	assert.Len(t, problems, 3)
}
