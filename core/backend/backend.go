// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/contaconmigo/core"
	"github.com/relabs-tech/contaconmigo/core/access"
	"github.com/relabs-tech/contaconmigo/core/identity"
	"github.com/relabs-tech/contaconmigo/core/logger"
	"github.com/relabs-tech/contaconmigo/core/schema"
	"github.com/relabs-tech/contaconmigo/core/store"
	"github.com/relabs-tech/contaconmigo/core/templates"
)

// maxBodySize is the maximum accepted size of a request body
const maxBodySize = 1 << 20

// Backend is the REST backend of templates and template data
type Backend struct {
	router    *mux.Router
	templates *templates.Service
	identity  *identity.Client
	verifier  access.Verifier
	validator *schema.Validator
}

// Builder is a builder helper for the Backend
type Builder struct {
	// Router is a mux router. This is mandatory.
	Router *mux.Router
	// Store is the datastore of templates and data. This is mandatory.
	Store store.Store
	// Verifier verifies the bearer tokens of protected requests. This is mandatory.
	Verifier access.Verifier
	// Identity is the client of the identity provider for the /auth routes. This is optional,
	// without it the /auth routes answer with http.StatusServiceUnavailable.
	Identity *identity.Client
	// Notifier receives change events after every successful write. This is optional.
	Notifier core.Notifier
}

// New realizes the actual backend and adds the routes to the router
func New(bb *Builder) *Backend {
	if bb.Router == nil {
		panic("Router is missing")
	}
	if bb.Store == nil {
		panic("Store is missing")
	}
	if bb.Verifier == nil {
		panic("Verifier is missing")
	}
	validator, err := schema.NewRequestValidator()
	if err != nil {
		panic(err)
	}
	identityClient := bb.Identity
	if identityClient == nil {
		identityClient = identity.New("", "")
	}

	b := &Backend{
		router:    bb.Router,
		templates: templates.New(bb.Store, bb.Notifier),
		identity:  identityClient,
		verifier:  bb.Verifier,
		validator: validator,
	}

	logger.AddRequestID(b.router)
	b.handleCORS()
	b.handleCompression()
	b.handleHealth(b.router)
	b.handleVersion(b.router)
	b.handleAuth(b.router)

	protected := b.router.PathPrefix("/templates").Subrouter()
	protected.Use(access.Gate(b.verifier))
	b.handleTemplates(protected)
	b.handleTemplateData(protected)
	return b
}

// Router returns the router of the backend
func (b *Backend) Router() *mux.Router {
	return b.router
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.MarshalWithOption(v, json.DisableHTMLEscape())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}

// readBody validates the request body against schemaID and decodes it into v. JSON
// numbers are decoded as json.Number. Violations are reported as *requestError with
// message.
func (b *Backend) readBody(w http.ResponseWriter, r *http.Request, schemaID, message string, v interface{}) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &requestError{message: msgInvalidBody, errors: []string{"request body too large"}}
		}
		return err
	}
	if err := b.validator.ValidateBytes(body, schemaID); err != nil {
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			return &requestError{message: message, errors: verr.Errors}
		}
		return &requestError{message: msgInvalidBody, errors: []string{err.Error()}}
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return &requestError{message: msgInvalidBody, errors: []string{err.Error()}}
	}
	return nil
}

// pathID parses the uuid path variable name. A malformed id cannot address any
// record and is reported like a missing one.
func pathID(r *http.Request, name, resource string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, &access.NotFoundOrForbiddenError{Resource: resource}
	}
	return id, nil
}
