// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package main

import (
	"os"
	"testing"

	"github.com/joeshaw/envdecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, splitList(" a:9092, ,b:9092 "))
}

func TestConfigurationDefaults(t *testing.T) {
	t.Setenv("POSTGRES", "host=localhost")
	t.Setenv("JWT_SECRET", "secret")

	service := &Service{}
	require.NoError(t, envdecode.StrictDecode(service))
	assert.Equal(t, "contaconmigo", service.PostgresSchema)
	assert.Equal(t, "authenticated", service.JWTAudience)
	assert.Equal(t, "contaconmigo.events", service.KafkaTopic)
	assert.Equal(t, "info", service.LogLevel)
	assert.Equal(t, "3000", service.Port)
}

func TestConfigurationRequiresSecret(t *testing.T) {
	t.Setenv("POSTGRES", "host=localhost")
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")

	service := &Service{}
	assert.Error(t, envdecode.StrictDecode(service))
}
