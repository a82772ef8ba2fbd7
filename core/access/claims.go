// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package access provides authentication and access control.

A bearer token is verified by a TokenVerifier, which produces Claims. The Gate
middleware runs the verifier for every protected request and adds the claims to
the request context:

	ctx = ContextWithClaims(ctx, claims)

and handlers retrieve them with

	claims, ok := ClaimsFromContext(ctx)

The subject of the claims is the ownership key of every stored resource. Authorize
compares a resource owner with the requesting principal.
*/
package access

import (
	"context"
	"time"
)

// contextKey is the type for context keys. Go linter does not like plain strings
type contextKey string

const (
	contextKeyClaims contextKey = "_claims_"
)

// Claims is the verified payload of a bearer token. A Claims value is only ever
// produced by a successful verification and is never modified afterwards.
type Claims struct {
	Issuer    string `json:"iss"`
	Subject   string `json:"sub"`
	Audience  string `json:"aud"`
	ExpiresAt int64  `json:"exp"`
	IssuedAt  int64  `json:"iat"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Expiry returns the expiry as time
func (c Claims) Expiry() time.Time {
	return time.Unix(c.ExpiresAt, 0)
}

// Issued returns the issued-at timestamp as time
func (c Claims) Issued() time.Time {
	return time.Unix(c.IssuedAt, 0)
}

// ContextWithClaims returns a new context with the claims added to it
func ContextWithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, contextKeyClaims, claims)
}

// ClaimsFromContext retrieves the claims of the authenticated principal from the context
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(contextKeyClaims).(Claims)
	return claims, ok
}

// PrincipalFromContext returns the subject of the authenticated principal, or an
// empty string if the request was not authenticated.
func PrincipalFromContext(ctx context.Context) string {
	claims, _ := ClaimsFromContext(ctx)
	return claims.Subject
}
