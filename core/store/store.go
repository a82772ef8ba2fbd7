// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package store is the datastore of templates and their data records.
//
// Every read and write is scoped by the id of the record and the id of its owner.
// A record which does not exist and a record of another owner are indistinguishable,
// both produce ErrNotFound.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/contaconmigo/core/schema"
)

// ErrNotFound is returned when no record with the given id exists for the given owner
var ErrNotFound = errors.New("not found")

// Template is a named, user defined list of typed fields
type Template struct {
	ID        uuid.UUID     `json:"template_id"`
	UserID    string        `json:"user_id"`
	Name      string        `json:"name"`
	Fields    schema.Fields `json:"fields"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// TemplateData is a data record conforming to a template
type TemplateData struct {
	ID         uuid.UUID              `json:"data_id"`
	TemplateID uuid.UUID              `json:"template_id"`
	UserID     string                 `json:"user_id"`
	Values     map[string]interface{} `json:"values"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// Store is the contract with the datastore.
//
// Create functions assign the id and the timestamps. Update functions identify the
// record by its id and owner and return the stored record. Lists are ordered newest first.
type Store interface {
	CreateTemplate(ctx context.Context, t Template) (Template, error)
	ListTemplates(ctx context.Context, userID string) ([]Template, error)
	GetTemplate(ctx context.Context, id uuid.UUID, userID string) (Template, error)
	UpdateTemplate(ctx context.Context, t Template) (Template, error)
	DeleteTemplate(ctx context.Context, id uuid.UUID, userID string) error

	// CountData returns the number of data records of a template
	CountData(ctx context.Context, templateID uuid.UUID, userID string) (int, error)
	// DeleteDataForTemplate deletes all data records of a template and returns their number
	DeleteDataForTemplate(ctx context.Context, templateID uuid.UUID, userID string) (int, error)

	CreateData(ctx context.Context, d TemplateData) (TemplateData, error)
	ListData(ctx context.Context, templateID uuid.UUID, userID string) ([]TemplateData, error)
	GetData(ctx context.Context, templateID, id uuid.UUID, userID string) (TemplateData, error)
	UpdateData(ctx context.Context, d TemplateData) (TemplateData, error)
	DeleteData(ctx context.Context, templateID, id uuid.UUID, userID string) error
}
