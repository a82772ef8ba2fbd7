// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/contaconmigo/core"
	"github.com/relabs-tech/contaconmigo/core/logger"
	"github.com/relabs-tech/contaconmigo/core/schema"
	"github.com/relabs-tech/contaconmigo/core/store"
)

type templateRequest struct {
	Name   string        `json:"name"`
	Fields schema.Fields `json:"fields"`
}

type templateCreated struct {
	Message    string    `json:"message"`
	TemplateID uuid.UUID `json:"template_id"`
}

type templateList struct {
	Templates []store.Template `json:"templates"`
}

type templateDetails struct {
	TemplateID uuid.UUID     `json:"template_id"`
	Name       string        `json:"name"`
	Fields     schema.Fields `json:"fields"`
}

func (b *Backend) handleTemplates(router *mux.Router) {
	rlog := logger.Default()
	rlog.Debugln("templates")
	rlog.Debugln("  handle route: /templates GET,POST")
	rlog.Debugln("  handle route: /templates/{template_id} GET,PUT,DELETE")

	router.HandleFunc("", func(w http.ResponseWriter, r *http.Request) {
		var req templateRequest
		if err := b.readBody(w, r, schema.TemplateRequestID, msgInvalidTemplate, &req); err != nil {
			writeError(w, r, err)
			return
		}
		t, err := b.templates.CreateTemplate(r.Context(), req.Name, req.Fields)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, templateCreated{Message: msgTemplateCreated, TemplateID: t.ID})
	}).Methods(http.MethodOptions, http.MethodPost)

	router.HandleFunc("", func(w http.ResponseWriter, r *http.Request) {
		list, err := b.templates.ListTemplates(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, templateList{Templates: list})
	}).Methods(http.MethodOptions, http.MethodGet)

	router.HandleFunc("/{template_id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "template_id", core.ResourceTemplate)
		if err != nil {
			writeError(w, r, err)
			return
		}
		t, err := b.templates.GetTemplate(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, templateDetails{TemplateID: t.ID, Name: t.Name, Fields: t.Fields})
	}).Methods(http.MethodOptions, http.MethodGet)

	router.HandleFunc("/{template_id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "template_id", core.ResourceTemplate)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req templateRequest
		if err := b.readBody(w, r, schema.TemplateRequestID, msgInvalidTemplate, &req); err != nil {
			writeError(w, r, err)
			return
		}
		t, err := b.templates.UpdateTemplate(r.Context(), id, req.Name, req.Fields)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}).Methods(http.MethodOptions, http.MethodPut)

	router.HandleFunc("/{template_id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "template_id", core.ResourceTemplate)
		if err != nil {
			writeError(w, r, err)
			return
		}
		cascade := r.URL.Query().Get("cascade") == "true"
		if err := b.templates.DeleteTemplate(r.Context(), id, cascade); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodOptions, http.MethodDelete)
}
