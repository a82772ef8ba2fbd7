// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package access

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/contaconmigo/core/logger"
)

// Verifier verifies a raw bearer token. It is implemented by TokenVerifier.
type Verifier interface {
	Verify(raw string) (Claims, error)
}

// the response detail for each failure. The texts never contain token content.
var unauthenticatedDetails = []struct {
	err    error
	detail string
}{
	{errHeaderMissing, "Authorization header is missing"},
	{errInvalidScheme, "Invalid authorization scheme"},
	{errTokenMissing, "Bearer token is missing"},
	{ErrInvalidSignature, "Invalid token"},
	{ErrInvalidAudience, "Invalid token audience"},
	{ErrExpired, "Token expired"},
	{ErrMalformedClaims, "Invalid token claims"},
}

// UnauthenticatedDetail returns the client facing description of a verification failure
func UnauthenticatedDetail(err error) string {
	for _, d := range unauthenticatedDetails {
		if errors.Is(err, d.err) {
			return d.detail
		}
	}
	return "Unauthenticated"
}

// Gate returns a middleware which verifies the bearer token of every request.
//
// Requests without a valid token are answered with http.StatusUnauthorized and
// never reach the wrapped handler. On success the claims are added to the request
// context, see ClaimsFromContext. A panic in the wrapped handler is answered with
// http.StatusInternalServerError, unless the handler had already started its response.
func Gate(verifier Verifier) mux.MiddlewareFunc {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rlog := logger.FromContext(r.Context())

			token, err := BearerToken(r.Header.Get("Authorization"))
			if err == nil {
				var claims Claims
				claims, err = verifier.Verify(token)
				if err == nil {
					ctx := ContextWithClaims(r.Context(), claims)
					ctx, rlog = logger.ContextWithLoggerIdentity(ctx, claims.Subject)
					rlog.Debugf("token issued %s valid until %s",
						claims.Issued().UTC().Format(time.RFC3339), claims.Expiry().UTC().Format(time.RFC3339))
					tw := &trackingWriter{ResponseWriter: w}
					defer func() {
						if p := recover(); p != nil {
							rlog.Errorf("Error 4790: recovered from panic: %v", p)
							if tw.written {
								// the response is already under way, it cannot become an error anymore
								return
							}
							WriteDetail(w, http.StatusInternalServerError, fmt.Sprintf("Error: %v", p))
						}
					}()
					h.ServeHTTP(tw, r.WithContext(ctx))
					return
				}
			}

			rlog.WithError(err).Debugln("rejected request for", r.URL.Path)
			WriteDetail(w, http.StatusUnauthorized, UnauthenticatedDetail(err))
		})
	}
}

// trackingWriter remembers whether the wrapped handler started its response
type trackingWriter struct {
	http.ResponseWriter
	written bool
}

func (t *trackingWriter) WriteHeader(status int) {
	t.written = true
	t.ResponseWriter.WriteHeader(status)
}

func (t *trackingWriter) Write(b []byte) (int, error) {
	t.written = true
	return t.ResponseWriter.Write(b)
}

// Unwrap gives http.ResponseController access to the underlying writer
func (t *trackingWriter) Unwrap() http.ResponseWriter {
	return t.ResponseWriter
}

// WriteDetail writes the JSON body {"detail": detail} with status
func WriteDetail(w http.ResponseWriter, status int, detail interface{}) {
	body, err := json.Marshal(struct {
		Detail interface{} `json:"detail"`
	}{Detail: detail})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}
