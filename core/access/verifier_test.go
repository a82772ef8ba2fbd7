// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package access_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/contaconmigo/core/access"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

var testNow = time.Unix(1700000000, 0)

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"iss":   "https://project.supabase.co/auth/v1",
		"sub":   "8b1f3c9e-2d7a-4c55-9e0a-7f6d1b2c3a4d",
		"aud":   "authenticated",
		"exp":   testNow.Add(time.Hour).Unix(),
		"iat":   testNow.Add(-time.Minute).Unix(),
		"email": "ana@example.com",
	}
}

func sign(t *testing.T, method jwt.SigningMethod, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newVerifier(t *testing.T) *access.TokenVerifier {
	t.Helper()
	v, err := access.NewTokenVerifier(testSecret, "")
	require.NoError(t, err)
	return v.WithClock(func() time.Time { return testNow })
}

func TestNewTokenVerifierRequiresSecret(t *testing.T) {
	_, err := access.NewTokenVerifier("", "authenticated")
	assert.ErrorIs(t, err, access.ErrMissingSecret)
}

func TestVerifyRoundTrip(t *testing.T) {
	v := newVerifier(t)
	claims := validClaims()

	got, err := v.Verify(sign(t, jwt.SigningMethodHS256, testSecret, claims))
	require.NoError(t, err)
	assert.Equal(t, access.Claims{
		Issuer:    "https://project.supabase.co/auth/v1",
		Subject:   "8b1f3c9e-2d7a-4c55-9e0a-7f6d1b2c3a4d",
		Audience:  "authenticated",
		ExpiresAt: testNow.Add(time.Hour).Unix(),
		IssuedAt:  testNow.Add(-time.Minute).Unix(),
		Email:     "ana@example.com",
		Phone:     "",
	}, got)
	assert.True(t, got.Expiry().Equal(time.Unix(testNow.Add(time.Hour).Unix(), 0)))
	assert.True(t, got.Issued().Equal(time.Unix(testNow.Add(-time.Minute).Unix(), 0)))
	assert.True(t, got.Issued().Before(got.Expiry()))

	claims["phone"] = "+34600000000"
	got, err = v.Verify(sign(t, jwt.SigningMethodHS256, testSecret, claims))
	require.NoError(t, err)
	assert.Equal(t, "+34600000000", got.Phone)
}

func TestVerifyFailures(t *testing.T) {
	v := newVerifier(t)

	with := func(mutate func(c jwt.MapClaims)) jwt.MapClaims {
		c := validClaims()
		mutate(c)
		return c
	}

	tests := []struct {
		name  string
		token func(t *testing.T) string
		want  error
	}{
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, "another-secret", validClaims())
			},
			want: access.ErrInvalidSignature,
		},
		{
			name: "wrong secret wins over broken claims",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, "another-secret", jwt.MapClaims{"aud": 17})
			},
			want: access.ErrInvalidSignature,
		},
		{
			name: "other hmac algorithm",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS384, testSecret, validClaims())
			},
			want: access.ErrInvalidSignature,
		},
		{
			name:  "not a token",
			token: func(t *testing.T) string { return "not-a-token" },
			want:  access.ErrInvalidSignature,
		},
		{
			name: "wrong audience",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, testSecret, with(func(c jwt.MapClaims) { c["aud"] = "anon" }))
			},
			want: access.ErrInvalidAudience,
		},
		{
			name: "audience is checked before expiry",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, testSecret, with(func(c jwt.MapClaims) {
					c["aud"] = "anon"
					c["exp"] = testNow.Add(-time.Hour).Unix()
				}))
			},
			want: access.ErrInvalidAudience,
		},
		{
			name: "missing audience",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, testSecret, with(func(c jwt.MapClaims) { delete(c, "aud") }))
			},
			want: access.ErrInvalidAudience,
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, testSecret, with(func(c jwt.MapClaims) {
					c["exp"] = testNow.Add(-time.Second).Unix()
					c["iat"] = testNow.Add(-time.Hour).Unix()
				}))
			},
			want: access.ErrExpired,
		},
		{
			name: "expiring right now",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, testSecret, with(func(c jwt.MapClaims) { c["exp"] = testNow.Unix() }))
			},
			want: access.ErrExpired,
		},
		{
			name: "expiry is checked before claim shape",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, testSecret, with(func(c jwt.MapClaims) {
					c["exp"] = testNow.Add(-time.Second).Unix()
					delete(c, "email")
				}))
			},
			want: access.ErrExpired,
		},
		{
			name: "missing email",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, testSecret, with(func(c jwt.MapClaims) { delete(c, "email") }))
			},
			want: access.ErrMalformedClaims,
		},
		{
			name: "missing subject",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, testSecret, with(func(c jwt.MapClaims) { delete(c, "sub") }))
			},
			want: access.ErrMalformedClaims,
		},
		{
			name: "missing expiry",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, testSecret, with(func(c jwt.MapClaims) { delete(c, "exp") }))
			},
			want: access.ErrMalformedClaims,
		},
		{
			name: "textual expiry",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, testSecret, with(func(c jwt.MapClaims) { c["exp"] = "tomorrow" }))
			},
			want: access.ErrMalformedClaims,
		},
		{
			name: "numeric phone",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, testSecret, with(func(c jwt.MapClaims) { c["phone"] = 600000000 }))
			},
			want: access.ErrMalformedClaims,
		},
		{
			name: "audience list",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, testSecret, with(func(c jwt.MapClaims) {
					c["aud"] = []string{"authenticated", "other"}
				}))
			},
			want: access.ErrMalformedClaims,
		},
		{
			name: "issued after expiry",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, testSecret, with(func(c jwt.MapClaims) {
					c["iat"] = testNow.Add(2 * time.Hour).Unix()
				}))
			},
			want: access.ErrMalformedClaims,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := v.Verify(tt.token(t))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, access.ErrUnauthenticated)
			assert.Equal(t, access.Claims{}, claims)
			for _, other := range []error{
				access.ErrInvalidSignature, access.ErrInvalidAudience, access.ErrExpired, access.ErrMalformedClaims,
			} {
				if other != tt.want {
					assert.False(t, errors.Is(err, other), "%v must not match %v", err, other)
				}
			}
		})
	}
}

func TestVerifyCustomAudience(t *testing.T) {
	v, err := access.NewTokenVerifier(testSecret, "service")
	require.NoError(t, err)
	v = v.WithClock(func() time.Time { return testNow })
	assert.Equal(t, "service", v.Audience())

	_, err = v.Verify(sign(t, jwt.SigningMethodHS256, testSecret, validClaims()))
	assert.ErrorIs(t, err, access.ErrInvalidAudience)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		detail string
	}{
		{header: "Bearer abc.def.ghi", token: "abc.def.ghi"},
		{header: "bearer abc", token: "abc"},
		{header: "", detail: "Authorization header is missing"},
		{header: "Basic dXNlcjpwYXNz", detail: "Invalid authorization scheme"},
		{header: "abc.def.ghi", detail: "Invalid authorization scheme"},
		{header: "Bearer", detail: "Bearer token is missing"},
		{header: "Bearer   ", detail: "Bearer token is missing"},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			token, err := access.BearerToken(tt.header)
			if tt.detail == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.token, token)
				return
			}
			assert.ErrorIs(t, err, access.ErrMalformedHeader)
			assert.Equal(t, tt.detail, access.UnauthenticatedDetail(err))
		})
	}
}
