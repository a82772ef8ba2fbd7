// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*Package templates implements the operations on templates and template data of the
authenticated principal.

Every operation first loads the addressed records scoped to the principal taken from
the request context, see access.PrincipalFromContext. Records of other users and
missing records are reported identically as access.ErrNotFoundOrForbidden. Only
then are values validated, and only validated values are written to the store.

After a successful write a change event is passed to the notifier. A failing
notification is logged, the write is not undone.
*/
package templates

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/contaconmigo/core"
	"github.com/relabs-tech/contaconmigo/core/access"
	"github.com/relabs-tech/contaconmigo/core/logger"
	"github.com/relabs-tech/contaconmigo/core/notify"
	"github.com/relabs-tech/contaconmigo/core/schema"
	"github.com/relabs-tech/contaconmigo/core/store"
)

var (
	// ErrHasDependents is returned when a template with data shall be deleted without cascade
	ErrHasDependents = errors.New("template has dependent data")
	// ErrSchemaLocked is returned when the fields of a template with data shall change
	ErrSchemaLocked = errors.New("fields of a template with data cannot change")
	// ErrInvalidTemplate is matched by InvalidTemplateError
	ErrInvalidTemplate = errors.New("invalid template")
)

// InvalidTemplateError lists the reasons why a template definition was rejected
type InvalidTemplateError struct {
	Reasons []string
}

func (e *InvalidTemplateError) Error() string {
	return ErrInvalidTemplate.Error() + ": " + strings.Join(e.Reasons, "; ")
}

// Is makes the error match ErrInvalidTemplate
func (e *InvalidTemplateError) Is(target error) bool {
	return target == ErrInvalidTemplate
}

// Service implements the template operations on top of a store
type Service struct {
	store    store.Store
	notifier core.Notifier
	now      func() time.Time
}

// New returns a service. The notifier is optional.
func New(s store.Store, notifier core.Notifier) *Service {
	return &Service{
		store:    s,
		notifier: notifier,
		now:      time.Now,
	}
}

// ownedTemplate is the ownership guard for templates
func (s *Service) ownedTemplate(ctx context.Context, id uuid.UUID) (store.Template, error) {
	principal := access.PrincipalFromContext(ctx)
	t, err := s.store.GetTemplate(ctx, id, principal)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return store.Template{}, err
	}
	if err := access.Authorize(core.ResourceTemplate, t.UserID, principal); err != nil {
		return store.Template{}, err
	}
	return t, nil
}

// ownedData is the ownership guard for data records. The template must be owned first.
func (s *Service) ownedData(ctx context.Context, templateID, id uuid.UUID) (store.TemplateData, error) {
	principal := access.PrincipalFromContext(ctx)
	d, err := s.store.GetData(ctx, templateID, id, principal)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return store.TemplateData{}, err
	}
	if err := access.Authorize(core.ResourceTemplateData, d.UserID, principal); err != nil {
		return store.TemplateData{}, err
	}
	return d, nil
}

func checkTemplate(name string, fields schema.Fields) error {
	var reasons []string
	if strings.TrimSpace(name) == "" {
		reasons = append(reasons, "template has no name")
	}
	reasons = append(reasons, fields.Check()...)
	if len(reasons) > 0 {
		return &InvalidTemplateError{Reasons: reasons}
	}
	return nil
}

func (s *Service) notify(ctx context.Context, resource string, operation core.Operation, id uuid.UUID, userID string) {
	if s.notifier == nil {
		return
	}
	rlog := logger.FromContext(ctx)
	payload, err := notify.Event{
		Resource:  resource,
		Operation: operation,
		ID:        id,
		UserID:    userID,
		Timestamp: s.now().UTC(),
	}.Payload()
	if err == nil {
		err = s.notifier.Notify(ctx, resource, operation, payload)
	}
	if err != nil {
		rlog.WithError(err).Warnf("could not notify %s %s %s", operation, resource, id)
	}
}

// CreateTemplate creates a template owned by the principal
func (s *Service) CreateTemplate(ctx context.Context, name string, fields schema.Fields) (store.Template, error) {
	principal := access.PrincipalFromContext(ctx)
	if principal == "" {
		return store.Template{}, access.ErrUnauthenticated
	}
	if err := checkTemplate(name, fields); err != nil {
		return store.Template{}, err
	}
	t, err := s.store.CreateTemplate(ctx, store.Template{
		UserID: principal,
		Name:   name,
		Fields: fields,
	})
	if err != nil {
		return store.Template{}, err
	}
	s.notify(ctx, core.ResourceTemplate, core.OperationCreate, t.ID, t.UserID)
	return t, nil
}

// ListTemplates returns all templates of the principal, newest first
func (s *Service) ListTemplates(ctx context.Context) ([]store.Template, error) {
	principal := access.PrincipalFromContext(ctx)
	if principal == "" {
		return nil, access.ErrUnauthenticated
	}
	return s.store.ListTemplates(ctx, principal)
}

// GetTemplate returns a template of the principal
func (s *Service) GetTemplate(ctx context.Context, id uuid.UUID) (store.Template, error) {
	return s.ownedTemplate(ctx, id)
}

// UpdateTemplate replaces name and fields of a template. Once data records exist
// for the template, only the name can change and a different field list fails
// with ErrSchemaLocked.
func (s *Service) UpdateTemplate(ctx context.Context, id uuid.UUID, name string, fields schema.Fields) (store.Template, error) {
	current, err := s.ownedTemplate(ctx, id)
	if err != nil {
		return store.Template{}, err
	}
	if err := checkTemplate(name, fields); err != nil {
		return store.Template{}, err
	}
	if !current.Fields.Equal(fields) {
		count, err := s.store.CountData(ctx, id, current.UserID)
		if err != nil {
			return store.Template{}, err
		}
		if count > 0 {
			return store.Template{}, ErrSchemaLocked
		}
	}
	current.Name = name
	current.Fields = fields
	updated, err := s.store.UpdateTemplate(ctx, current)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Template{}, &access.NotFoundOrForbiddenError{Resource: core.ResourceTemplate}
		}
		return store.Template{}, err
	}
	s.notify(ctx, core.ResourceTemplate, core.OperationUpdate, updated.ID, updated.UserID)
	return updated, nil
}

// DeleteTemplate deletes a template. A template with data records is only deleted
// with cascade, which deletes the data records first and then the template. The two
// steps are not atomic: if the second fails, the data records are gone while the
// template remains.
func (s *Service) DeleteTemplate(ctx context.Context, id uuid.UUID, cascade bool) error {
	t, err := s.ownedTemplate(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.store.CountData(ctx, id, t.UserID)
	if err != nil {
		return err
	}
	if count > 0 {
		if !cascade {
			return ErrHasDependents
		}
		deleted, err := s.store.DeleteDataForTemplate(ctx, id, t.UserID)
		if err != nil {
			return err
		}
		logger.FromContext(ctx).Infof("cascade deleted %d data records of template %s", deleted, id)
	}
	err = s.store.DeleteTemplate(ctx, id, t.UserID)
	switch {
	case errors.Is(err, store.ErrInUse):
		return ErrHasDependents
	case errors.Is(err, store.ErrNotFound):
		return &access.NotFoundOrForbiddenError{Resource: core.ResourceTemplate}
	case err != nil:
		return err
	}
	s.notify(ctx, core.ResourceTemplate, core.OperationDelete, id, t.UserID)
	return nil
}

// CreateData validates values against the fields of the template and stores them as
// a new data record
func (s *Service) CreateData(ctx context.Context, templateID uuid.UUID, values map[string]interface{}) (store.TemplateData, error) {
	t, err := s.ownedTemplate(ctx, templateID)
	if err != nil {
		return store.TemplateData{}, err
	}
	if err := schema.ValidateValues(t.Fields, values); err != nil {
		return store.TemplateData{}, err
	}
	d, err := s.store.CreateData(ctx, store.TemplateData{
		TemplateID: t.ID,
		UserID:     t.UserID,
		Values:     values,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.TemplateData{}, &access.NotFoundOrForbiddenError{Resource: core.ResourceTemplate}
		}
		return store.TemplateData{}, err
	}
	s.notify(ctx, core.ResourceTemplateData, core.OperationCreate, d.ID, d.UserID)
	return d, nil
}

// ListData returns all data records of a template, newest first
func (s *Service) ListData(ctx context.Context, templateID uuid.UUID) ([]store.TemplateData, error) {
	t, err := s.ownedTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return s.store.ListData(ctx, t.ID, t.UserID)
}

// GetData returns one data record of a template
func (s *Service) GetData(ctx context.Context, templateID, id uuid.UUID) (store.TemplateData, error) {
	if _, err := s.ownedTemplate(ctx, templateID); err != nil {
		return store.TemplateData{}, err
	}
	return s.ownedData(ctx, templateID, id)
}

// UpdateData validates values against the fields of the template and replaces the
// values of the data record
func (s *Service) UpdateData(ctx context.Context, templateID, id uuid.UUID, values map[string]interface{}) (store.TemplateData, error) {
	t, err := s.ownedTemplate(ctx, templateID)
	if err != nil {
		return store.TemplateData{}, err
	}
	current, err := s.ownedData(ctx, templateID, id)
	if err != nil {
		return store.TemplateData{}, err
	}
	if err := schema.ValidateValues(t.Fields, values); err != nil {
		return store.TemplateData{}, err
	}
	current.Values = values
	updated, err := s.store.UpdateData(ctx, current)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.TemplateData{}, &access.NotFoundOrForbiddenError{Resource: core.ResourceTemplateData}
		}
		return store.TemplateData{}, err
	}
	s.notify(ctx, core.ResourceTemplateData, core.OperationUpdate, updated.ID, updated.UserID)
	return updated, nil
}

// DeleteData deletes one data record of a template
func (s *Service) DeleteData(ctx context.Context, templateID, id uuid.UUID) error {
	if _, err := s.ownedTemplate(ctx, templateID); err != nil {
		return err
	}
	d, err := s.ownedData(ctx, templateID, id)
	if err != nil {
		return err
	}
	err = s.store.DeleteData(ctx, templateID, id, d.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return &access.NotFoundOrForbiddenError{Resource: core.ResourceTemplateData}
	}
	if err != nil {
		return err
	}
	s.notify(ctx, core.ResourceTemplateData, core.OperationDelete, id, d.UserID)
	return nil
}
