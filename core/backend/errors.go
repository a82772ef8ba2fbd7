// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"errors"
	"net/http"

	"github.com/relabs-tech/contaconmigo/core"
	"github.com/relabs-tech/contaconmigo/core/access"
	"github.com/relabs-tech/contaconmigo/core/identity"
	"github.com/relabs-tech/contaconmigo/core/logger"
	"github.com/relabs-tech/contaconmigo/core/schema"
	"github.com/relabs-tech/contaconmigo/core/templates"
)

// response messages
const (
	msgTemplateCreated  = "Template creado exitosamente"
	msgDataCreated      = "Datos guardados exitosamente"
	msgValidationFailed = "Error de validación"
	msgInvalidTemplate  = "Template inválido"
	msgInvalidBody      = "Cuerpo de la solicitud inválido"
	msgTemplateNotFound = "Template no encontrado o no autorizado"
	msgDataNotFound     = "Registro no encontrado o no autorizado"
	msgHasDependents    = "El template tiene registros asociados, use cascade=true para eliminarlos"
	msgSchemaLocked     = "Los campos de un template con registros no se pueden modificar"
	msgSignedUp         = "Signup successful. Please check your email for verification if enabled."
	msgLoggedIn         = "Login successful"
	msgRecoverySent     = "Password recovery email sent"
	msgLoginRejected    = "Invalid login credentials"
	msgIdentityDisabled = "Identity provider is not configured"
	msgHealthy          = "API is running"
	msgNotFoundResource = "Recurso no encontrado o no autorizado"
)

// requestError is a request body which is not acceptable
type requestError struct {
	message string
	errors  []string
}

func (e *requestError) Error() string {
	return e.message
}

type validationDetail struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// errorDispatch maps errors to the status and the detail of the response. The first
// matching entry wins, errors which match no entry are answered with
// http.StatusInternalServerError and their description.
var errorDispatch = []struct {
	match  func(err error) bool
	status int
	detail func(err error) interface{}
}{
	{
		match:  func(err error) bool { return errors.Is(err, access.ErrUnauthenticated) },
		status: http.StatusUnauthorized,
		detail: func(err error) interface{} { return access.UnauthenticatedDetail(err) },
	},
	{
		match:  func(err error) bool { return errors.Is(err, access.ErrNotFoundOrForbidden) },
		status: http.StatusNotFound,
		detail: func(err error) interface{} {
			var nf *access.NotFoundOrForbiddenError
			if errors.As(err, &nf) {
				switch nf.Resource {
				case core.ResourceTemplate:
					return msgTemplateNotFound
				case core.ResourceTemplateData:
					return msgDataNotFound
				}
			}
			return msgNotFoundResource
		},
	},
	{
		match:  func(err error) bool { var fe schema.FieldErrors; return errors.As(err, &fe) },
		status: http.StatusBadRequest,
		detail: func(err error) interface{} {
			var fe schema.FieldErrors
			errors.As(err, &fe)
			return validationDetail{Message: msgValidationFailed, Errors: fe.Messages()}
		},
	},
	{
		match:  func(err error) bool { return errors.Is(err, templates.ErrInvalidTemplate) },
		status: http.StatusBadRequest,
		detail: func(err error) interface{} {
			reasons := []string{}
			var it *templates.InvalidTemplateError
			if errors.As(err, &it) {
				reasons = it.Reasons
			}
			return validationDetail{Message: msgInvalidTemplate, Errors: reasons}
		},
	},
	{
		match:  func(err error) bool { var re *requestError; return errors.As(err, &re) },
		status: http.StatusBadRequest,
		detail: func(err error) interface{} {
			var re *requestError
			errors.As(err, &re)
			if re.errors == nil {
				return re.message
			}
			return validationDetail{Message: re.message, Errors: re.errors}
		},
	},
	{
		match:  func(err error) bool { return errors.Is(err, templates.ErrHasDependents) },
		status: http.StatusBadRequest,
		detail: func(err error) interface{} { return msgHasDependents },
	},
	{
		match:  func(err error) bool { return errors.Is(err, templates.ErrSchemaLocked) },
		status: http.StatusBadRequest,
		detail: func(err error) interface{} { return msgSchemaLocked },
	},
	{
		match:  func(err error) bool { return errors.Is(err, identity.ErrNotConfigured) },
		status: http.StatusServiceUnavailable,
		detail: func(err error) interface{} { return msgIdentityDisabled },
	},
	{
		match:  func(err error) bool { var pe *identity.ProviderError; return errors.As(err, &pe) },
		status: http.StatusBadRequest,
		detail: func(err error) interface{} {
			var pe *identity.ProviderError
			errors.As(err, &pe)
			return pe.Message
		},
	},
}

// writeError answers the request with the response for err
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, d := range errorDispatch {
		if d.match(err) {
			access.WriteDetail(w, d.status, d.detail(err))
			return
		}
	}
	logger.FromContext(r.Context()).WithError(err).Errorf("Error 4801: %s %s", r.Method, r.URL.Path)
	access.WriteDetail(w, http.StatusInternalServerError, err.Error())
}
