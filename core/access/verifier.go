// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package access

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// DefaultAudience is the audience the identity provider puts into tokens of signed-in users
const DefaultAudience = "authenticated"

// signingMethod is the only accepted signing algorithm
var signingMethod = jwt.SigningMethodHS256

// TokenVerifier verifies bearer tokens signed with a pre-shared secret.
//
// A verifier holds no mutable state and is safe for concurrent use.
type TokenVerifier struct {
	secret   []byte
	audience string
	now      func() time.Time
	parser   *jwt.Parser
}

// NewTokenVerifier returns a verifier for tokens signed with secret and issued for
// audience. An empty audience selects DefaultAudience. It returns ErrMissingSecret if
// secret is empty.
func NewTokenVerifier(secret, audience string) (*TokenVerifier, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	if audience == "" {
		audience = DefaultAudience
	}
	return &TokenVerifier{
		secret:   []byte(secret),
		audience: audience,
		now:      time.Now,
		// claims are validated by us, in a fixed order and only after the signature
		// has been verified
		parser: &jwt.Parser{
			ValidMethods:         []string{signingMethod.Alg()},
			UseJSONNumber:        true,
			SkipClaimsValidation: true,
		},
	}, nil
}

// WithClock returns a copy of the verifier which reads the current time from now
func (v *TokenVerifier) WithClock(now func() time.Time) *TokenVerifier {
	c := *v
	c.now = now
	return &c
}

// Audience returns the expected audience
func (v *TokenVerifier) Audience() string {
	return v.audience
}

// BearerToken extracts the credential from the value of an Authorization header.
// A missing header, a scheme other than "Bearer" or a missing credential fail with
// ErrMalformedHeader.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errHeaderMissing
	}
	scheme, token, _ := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, "bearer") {
		return "", errInvalidScheme
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errTokenMissing
	}
	return token, nil
}

// Verify checks raw and returns its claims.
//
// The checks run in this order: signature, audience, expiry, claim shape. The first
// failing check determines the error, which always wraps ErrUnauthenticated.
func (v *TokenVerifier) Verify(raw string) (Claims, error) {
	token, err := v.parser.ParseWithClaims(raw, jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != signingMethod.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", token.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !token.Valid {
		return Claims{}, ErrInvalidSignature
	}
	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrMalformedClaims
	}

	if !hasAudience(mapClaims["aud"], v.audience) {
		return Claims{}, ErrInvalidAudience
	}

	exp, err := integerClaim(mapClaims, "exp")
	if err != nil {
		return Claims{}, err
	}
	if !v.now().Before(time.Unix(exp, 0)) {
		return Claims{}, ErrExpired
	}

	return shapeClaims(mapClaims, exp)
}

func hasAudience(value interface{}, audience string) bool {
	switch aud := value.(type) {
	case string:
		return aud == audience
	case []interface{}:
		for _, a := range aud {
			if s, ok := a.(string); ok && s == audience {
				return true
			}
		}
	}
	return false
}

// shapeClaims checks that every required claim is present with the right type
func shapeClaims(m jwt.MapClaims, exp int64) (Claims, error) {
	var (
		claims Claims
		err    error
	)
	claims.ExpiresAt = exp
	if claims.IssuedAt, err = integerClaim(m, "iat"); err != nil {
		return Claims{}, err
	}
	if claims.Issuer, err = stringClaim(m, "iss"); err != nil {
		return Claims{}, err
	}
	if claims.Subject, err = stringClaim(m, "sub"); err != nil {
		return Claims{}, err
	}
	if claims.Subject == "" {
		return Claims{}, &claimsError{claim: "sub", reason: "is empty"}
	}
	if claims.Audience, err = stringClaim(m, "aud"); err != nil {
		return Claims{}, err
	}
	if claims.Email, err = stringClaim(m, "email"); err != nil {
		return Claims{}, err
	}
	switch phone := m["phone"].(type) {
	case nil:
	case string:
		claims.Phone = phone
	default:
		return Claims{}, &claimsError{claim: "phone", reason: "is not a string"}
	}
	if claims.ExpiresAt <= claims.IssuedAt {
		return Claims{}, &claimsError{claim: "exp", reason: "is not after iat"}
	}
	return claims, nil
}

func stringClaim(m jwt.MapClaims, name string) (string, error) {
	value, ok := m[name]
	if !ok {
		return "", &claimsError{claim: name, reason: "is missing"}
	}
	s, ok := value.(string)
	if !ok {
		return "", &claimsError{claim: name, reason: "is not a string"}
	}
	return s, nil
}

func integerClaim(m jwt.MapClaims, name string) (int64, error) {
	value, ok := m[name]
	if !ok {
		return 0, &claimsError{claim: name, reason: "is missing"}
	}
	// jwt decodes with encoding/json, numbers arrive as json.Number
	number, ok := value.(json.Number)
	if !ok {
		return 0, &claimsError{claim: name, reason: "is not a number"}
	}
	if i, err := number.Int64(); err == nil {
		return i, nil
	}
	f, err := number.Float64()
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, &claimsError{claim: name, reason: "is not an integer"}
	}
	return int64(f), nil
}
