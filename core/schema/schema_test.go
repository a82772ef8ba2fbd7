// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/contaconmigo/core/schema"
)

const (
	ref1 = `{ "type" : "string" ,
		      "$id" : "http://some_host.com/string.json"}`
	ref2 = `{ "$id" : "http://some_host.com/maxlength.json",
	 		  "maxLength" : 5 }`

	topLevel1 = `
	{ "$id" : "http://some_host.com/top1.json",
	  "allOf" : [
		{ "$ref" : "http://some_host.com/string.json" },
		{ "$ref" : "http://some_host.com/maxlength.json" }
		]
	}`
	topLevel2 = `
	{ "$id" : "http://some_host.com/top2.json",
	  "allOf" : [
 		{ "$ref" : "http://some_host.com/string.json" },
 		{ "type": "string", "minlength": 3 }
	  ]
	}`
)

func TestValidateBytesWithRefs(t *testing.T) {
	v, err := schema.NewValidator([]string{topLevel1, topLevel2}, []string{ref1, ref2})
	require.NoError(t, err)

	schemaID1 := "http://some_host.com/top1.json"
	schemaID2 := "http://some_host.com/top2.json"

	assert.NoError(t, v.ValidateBytes([]byte(`"short"`), schemaID1))

	err = v.ValidateBytes([]byte(`"a very long string"`), schemaID1)
	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Errors)

	assert.NoError(t, v.ValidateBytes([]byte(`"a very long string"`), schemaID2))

	assert.Error(t, v.ValidateBytes([]byte(`"short"`), "http://some_host.com/unknown.json"))
}

func TestNewValidatorRequiresID(t *testing.T) {
	_, err := schema.NewValidator([]string{`{"type":"string"}`}, nil)
	assert.Error(t, err)

	_, err = schema.NewValidator([]string{`{"type":`}, nil)
	assert.Error(t, err)
}

func TestValidateStruct(t *testing.T) {
	v, err := schema.NewRequestValidator()
	require.NoError(t, err)

	type credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	assert.NoError(t, v.ValidateStruct(credentials{Email: "ana@example.com", Password: "secret"}, schema.CredentialsRequestID))

	type wrongCredentials struct {
		Mail string `json:"mail"`
	}
	assert.Error(t, v.ValidateStruct(wrongCredentials{Mail: "ana@example.com"}, schema.CredentialsRequestID))
}

func TestHasSchema(t *testing.T) {
	v, err := schema.NewRequestValidator()
	require.NoError(t, err)

	for _, id := range []string{
		schema.TemplateRequestID,
		schema.TemplateDataRequestID,
		schema.CredentialsRequestID,
		schema.RecoveryRequestID,
	} {
		assert.True(t, v.HasSchema(id), id)
	}
	assert.False(t, v.HasSchema("http://some_host.com/unknownschema.json"))
}

func TestTemplateRequestSchema(t *testing.T) {
	v, err := schema.NewRequestValidator()
	require.NoError(t, err)

	tests := []struct {
		name  string
		body  string
		valid bool
	}{
		{"complete", `{"name":"Gastos","fields":[{"name":"Monto","type":"float","display_unit":"EUR"}]}`, true},
		{"null unit", `{"name":"Gastos","fields":[{"name":"Monto","type":"float","display_unit":null}]}`, true},
		{"no fields", `{"name":"Vacío","fields":[]}`, true},
		{"missing name", `{"fields":[]}`, false},
		{"empty name", `{"name":"","fields":[]}`, false},
		{"missing fields", `{"name":"Gastos"}`, false},
		{"unsupported type", `{"name":"Gastos","fields":[{"name":"Monto","type":"money"}]}`, false},
		{"unknown field property", `{"name":"Gastos","fields":[{"name":"Monto","type":"float","unit":"EUR"}]}`, false},
		{"not an object", `[]`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateBytes([]byte(tt.body), schema.TemplateRequestID)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestTemplateDataRequestSchema(t *testing.T) {
	v, err := schema.NewRequestValidator()
	require.NoError(t, err)

	assert.NoError(t, v.ValidateBytes([]byte(`{"values":{"Monto":10}}`), schema.TemplateDataRequestID))
	assert.NoError(t, v.ValidateBytes([]byte(`{"values":{}}`), schema.TemplateDataRequestID))
	assert.Error(t, v.ValidateBytes([]byte(`{"values":[1,2]}`), schema.TemplateDataRequestID))
	assert.Error(t, v.ValidateBytes([]byte(`{}`), schema.TemplateDataRequestID))
}
