// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/relabs-tech/contaconmigo/core/access"
	"github.com/relabs-tech/contaconmigo/core/identity"
	"github.com/relabs-tech/contaconmigo/core/logger"
	"github.com/relabs-tech/contaconmigo/core/schema"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id,omitempty"`
}

type loginResponse struct {
	Message      string `json:"message"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// handleAuth forwards the account flows to the identity provider. Only logout requires
// a valid bearer token, which is passed on to the provider.
func (b *Backend) handleAuth(router *mux.Router) {
	rlog := logger.Default()
	rlog.Debugln("authentication")
	rlog.Debugln("  handle route: /auth/signup POST")
	rlog.Debugln("  handle route: /auth/login POST")
	rlog.Debugln("  handle route: /auth/logout POST")
	rlog.Debugln("  handle route: /auth/recover POST")

	router.HandleFunc("/auth/signup", func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := b.readBody(w, r, schema.CredentialsRequestID, msgInvalidBody, &req); err != nil {
			writeError(w, r, err)
			return
		}
		user, err := b.identity.SignUp(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, signUpResponse{Message: msgSignedUp, UserID: user.ID})
	}).Methods(http.MethodOptions, http.MethodPost)

	router.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := b.readBody(w, r, schema.CredentialsRequestID, msgInvalidBody, &req); err != nil {
			writeError(w, r, err)
			return
		}
		session, err := b.identity.Login(r.Context(), req.Email, req.Password)
		var perr *identity.ProviderError
		if errors.As(err, &perr) {
			detail := perr.Message
			if detail == "" {
				detail = msgLoginRejected
			}
			access.WriteDetail(w, http.StatusUnauthorized, detail)
			return
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, loginResponse{
			Message:      msgLoggedIn,
			AccessToken:  session.AccessToken,
			RefreshToken: session.RefreshToken,
		})
	}).Methods(http.MethodOptions, http.MethodPost)

	router.Handle("/auth/logout", access.Gate(b.verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the gate has verified the token already
		token, _ := access.BearerToken(r.Header.Get("Authorization"))
		if err := b.identity.Logout(r.Context(), token); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))).Methods(http.MethodOptions, http.MethodPost)

	router.HandleFunc("/auth/recover", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
		}
		if err := b.readBody(w, r, schema.RecoveryRequestID, msgInvalidBody, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := b.identity.Recover(r.Context(), req.Email); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": msgRecoverySent})
	}).Methods(http.MethodOptions, http.MethodPost)
}
