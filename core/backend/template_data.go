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

type dataRequest struct {
	Values map[string]interface{} `json:"values"`
}

type dataCreated struct {
	Message string    `json:"message"`
	DataID  uuid.UUID `json:"data_id"`
}

type dataList struct {
	Data []store.TemplateData `json:"data"`
}

// dataIDs parses the template and the data record id of the path
func dataIDs(r *http.Request) (templateID, dataID uuid.UUID, err error) {
	if templateID, err = pathID(r, "template_id", core.ResourceTemplate); err != nil {
		return
	}
	dataID, err = pathID(r, "data_id", core.ResourceTemplateData)
	return
}

func (b *Backend) handleTemplateData(router *mux.Router) {
	rlog := logger.Default()
	rlog.Debugln("template data")
	rlog.Debugln("  handle route: /templates/{template_id}/data GET,POST")
	rlog.Debugln("  handle route: /templates/{template_id}/data/{data_id} GET,PUT,DELETE")

	router.HandleFunc("/{template_id}/data", func(w http.ResponseWriter, r *http.Request) {
		templateID, err := pathID(r, "template_id", core.ResourceTemplate)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req dataRequest
		if err := b.readBody(w, r, schema.TemplateDataRequestID, msgValidationFailed, &req); err != nil {
			writeError(w, r, err)
			return
		}
		d, err := b.templates.CreateData(r.Context(), templateID, req.Values)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, dataCreated{Message: msgDataCreated, DataID: d.ID})
	}).Methods(http.MethodOptions, http.MethodPost)

	router.HandleFunc("/{template_id}/data", func(w http.ResponseWriter, r *http.Request) {
		templateID, err := pathID(r, "template_id", core.ResourceTemplate)
		if err != nil {
			writeError(w, r, err)
			return
		}
		list, err := b.templates.ListData(r.Context(), templateID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, dataList{Data: list})
	}).Methods(http.MethodOptions, http.MethodGet)

	router.HandleFunc("/{template_id}/data/{data_id}", func(w http.ResponseWriter, r *http.Request) {
		templateID, dataID, err := dataIDs(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		d, err := b.templates.GetData(r.Context(), templateID, dataID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}).Methods(http.MethodOptions, http.MethodGet)

	router.HandleFunc("/{template_id}/data/{data_id}", func(w http.ResponseWriter, r *http.Request) {
		templateID, dataID, err := dataIDs(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req dataRequest
		if err := b.readBody(w, r, schema.TemplateDataRequestID, msgValidationFailed, &req); err != nil {
			writeError(w, r, err)
			return
		}
		d, err := b.templates.UpdateData(r.Context(), templateID, dataID, req.Values)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}).Methods(http.MethodOptions, http.MethodPut)

	router.HandleFunc("/{template_id}/data/{data_id}", func(w http.ResponseWriter, r *http.Request) {
		templateID, dataID, err := dataIDs(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := b.templates.DeleteData(r.Context(), templateID, dataID); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodOptions, http.MethodDelete)
}
