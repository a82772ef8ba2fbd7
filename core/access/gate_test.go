// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package access_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/contaconmigo/core/access"
	"github.com/relabs-tech/contaconmigo/core/logger"
)

func gatedRouter(t *testing.T, handler http.HandlerFunc) *mux.Router {
	t.Helper()
	router := mux.NewRouter()
	logger.AddRequestID(router)
	router.Use(access.Gate(newVerifier(t)))
	router.HandleFunc("/protected", handler)
	return router
}

func serve(router http.Handler, header string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)
	return rec
}

func detailOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Detail
}

func TestGateInjectsClaims(t *testing.T) {
	var (
		principal string
		identity  string
	)
	router := gatedRouter(t, func(w http.ResponseWriter, r *http.Request) {
		claims, ok := access.ClaimsFromContext(r.Context())
		require.True(t, ok)
		principal = access.PrincipalFromContext(r.Context())
		identity = logger.IdentityFromContext(r.Context())
		assert.Equal(t, "ana@example.com", claims.Email)
		w.WriteHeader(http.StatusNoContent)
	})

	token := sign(t, jwt.SigningMethodHS256, testSecret, validClaims())
	rec := serve(router, "Bearer "+token)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "8b1f3c9e-2d7a-4c55-9e0a-7f6d1b2c3a4d", principal)
	assert.Equal(t, principal, identity)

	// verification is side effect free, the same token works again
	rec = serve(router, "Bearer "+token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestGateRejects(t *testing.T) {
	called := false
	router := gatedRouter(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	expired := validClaims()
	expired["exp"] = testNow.Unix()
	wrongAudience := validClaims()
	wrongAudience["aud"] = "anon"
	noEmail := validClaims()
	delete(noEmail, "email")

	tests := []struct {
		name   string
		header string
		detail string
	}{
		{"missing header", "", "Authorization header is missing"},
		{"basic auth", "Basic dXNlcjpwYXNz", "Invalid authorization scheme"},
		{"no token", "Bearer ", "Bearer token is missing"},
		{"wrong secret", "Bearer " + sign(t, jwt.SigningMethodHS256, "another", validClaims()), "Invalid token"},
		{"wrong audience", "Bearer " + sign(t, jwt.SigningMethodHS256, testSecret, wrongAudience), "Invalid token audience"},
		{"expired", "Bearer " + sign(t, jwt.SigningMethodHS256, testSecret, expired), "Token expired"},
		{"malformed claims", "Bearer " + sign(t, jwt.SigningMethodHS256, testSecret, noEmail), "Invalid token claims"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.detail, detailOf(t, rec))
			assert.NotContains(t, rec.Body.String(), testSecret)
		})
	}
	assert.False(t, called, "handler must not run for rejected requests")
}

func TestGateRecoversFromPanic(t *testing.T) {
	router := gatedRouter(t, func(w http.ResponseWriter, r *http.Request) {
		panic("database exploded")
	})

	rec := serve(router, "Bearer "+sign(t, jwt.SigningMethodHS256, testSecret, validClaims()))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Error: database exploded", detailOf(t, rec))
}

func TestGatePanicAfterResponseStarted(t *testing.T) {
	router := gatedRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"templates":[`))
		panic("connection lost")
	})

	rec := serve(router, "Bearer "+sign(t, jwt.SigningMethodHS256, testSecret, validClaims()))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"templates":[`, rec.Body.String())
}
