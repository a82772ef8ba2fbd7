// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package storetest provides a Store test double
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/contaconmigo/core/schema"
	"github.com/relabs-tech/contaconmigo/core/store"
)

// Store is a Store test double which keeps records in maps. It mimics the
// ownership scoping and the referential rules of the postgres store.
//
// Failures can be injected per method name with Fail, e.g. Fail("DeleteTemplate", err).
type Store struct {
	mutex     sync.Mutex
	templates map[uuid.UUID]store.Template
	data      map[uuid.UUID]store.TemplateData
	failures  map[string]error
	clock     time.Time
	// Calls records the names of all called methods in order
	Calls []string
}

var _ store.Store = (*Store)(nil)

// New returns an empty store
func New() *Store {
	return &Store{
		templates: make(map[uuid.UUID]store.Template),
		data:      make(map[uuid.UUID]store.TemplateData),
		failures:  make(map[string]error),
		clock:     time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

// Fail makes every subsequent call of method return err. A nil err removes the failure.
func (s *Store) Fail(method string, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

// DataCount returns the number of data records of all owners
func (s *Store) DataCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.data)
}

// TemplateCount returns the number of templates of all owners
func (s *Store) TemplateCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.templates)
}

// call records the call and returns an injected failure. Must be called with the mutex held.
func (s *Store) call(method string) error {
	s.Calls = append(s.Calls, method)
	return s.failures[method]
}

// tick returns strictly increasing timestamps so that newest first ordering is stable
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func copyFields(fields schema.Fields) schema.Fields {
	return append(schema.Fields{}, fields...)
}

func copyValues(values map[string]interface{}) map[string]interface{} {
	c := make(map[string]interface{}, len(values))
	for k, v := range values {
		c[k] = v
	}
	return c
}

// CreateTemplate implements store.Store
func (s *Store) CreateTemplate(ctx context.Context, t store.Template) (store.Template, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := s.call("CreateTemplate"); err != nil {
		return t, err
	}
	t.ID = uuid.New()
	t.Fields = copyFields(t.Fields)
	t.CreatedAt = s.tick()
	t.UpdatedAt = t.CreatedAt
	s.templates[t.ID] = t
	return t, nil
}

// ListTemplates implements store.Store
func (s *Store) ListTemplates(ctx context.Context, userID string) ([]store.Template, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := s.call("ListTemplates"); err != nil {
		return nil, err
	}
	templates := []store.Template{}
	for _, t := range s.templates {
		if t.UserID == userID {
			templates = append(templates, t)
		}
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].CreatedAt.After(templates[j].CreatedAt) })
	return templates, nil
}

// GetTemplate implements store.Store
func (s *Store) GetTemplate(ctx context.Context, id uuid.UUID, userID string) (store.Template, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := s.call("GetTemplate"); err != nil {
		return store.Template{}, err
	}
	t, ok := s.templates[id]
	if !ok || t.UserID != userID {
		return store.Template{}, store.ErrNotFound
	}
	return t, nil
}

// UpdateTemplate implements store.Store
func (s *Store) UpdateTemplate(ctx context.Context, t store.Template) (store.Template, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := s.call("UpdateTemplate"); err != nil {
		return t, err
	}
	current, ok := s.templates[t.ID]
	if !ok || current.UserID != t.UserID {
		return t, store.ErrNotFound
	}
	current.Name = t.Name
	current.Fields = copyFields(t.Fields)
	current.UpdatedAt = s.tick()
	s.templates[t.ID] = current
	return current, nil
}

// DeleteTemplate implements store.Store
func (s *Store) DeleteTemplate(ctx context.Context, id uuid.UUID, userID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := s.call("DeleteTemplate"); err != nil {
		return err
	}
	t, ok := s.templates[id]
	if !ok || t.UserID != userID {
		return store.ErrNotFound
	}
	for _, d := range s.data {
		if d.TemplateID == id {
			return store.ErrInUse
		}
	}
	delete(s.templates, id)
	return nil
}

// CountData implements store.Store
func (s *Store) CountData(ctx context.Context, templateID uuid.UUID, userID string) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := s.call("CountData"); err != nil {
		return 0, err
	}
	count := 0
	for _, d := range s.data {
		if d.TemplateID == templateID && d.UserID == userID {
			count++
		}
	}
	return count, nil
}

// DeleteDataForTemplate implements store.Store
func (s *Store) DeleteDataForTemplate(ctx context.Context, templateID uuid.UUID, userID string) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := s.call("DeleteDataForTemplate"); err != nil {
		return 0, err
	}
	count := 0
	for id, d := range s.data {
		if d.TemplateID == templateID && d.UserID == userID {
			delete(s.data, id)
			count++
		}
	}
	return count, nil
}

// CreateData implements store.Store
func (s *Store) CreateData(ctx context.Context, d store.TemplateData) (store.TemplateData, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := s.call("CreateData"); err != nil {
		return d, err
	}
	if _, ok := s.templates[d.TemplateID]; !ok {
		return d, store.ErrNotFound
	}
	d.ID = uuid.New()
	d.Values = copyValues(d.Values)
	d.CreatedAt = s.tick()
	d.UpdatedAt = d.CreatedAt
	s.data[d.ID] = d
	return d, nil
}

// ListData implements store.Store
func (s *Store) ListData(ctx context.Context, templateID uuid.UUID, userID string) ([]store.TemplateData, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := s.call("ListData"); err != nil {
		return nil, err
	}
	data := []store.TemplateData{}
	for _, d := range s.data {
		if d.TemplateID == templateID && d.UserID == userID {
			data = append(data, d)
		}
	}
	sort.Slice(data, func(i, j int) bool { return data[i].CreatedAt.After(data[j].CreatedAt) })
	return data, nil
}

// GetData implements store.Store
func (s *Store) GetData(ctx context.Context, templateID, id uuid.UUID, userID string) (store.TemplateData, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := s.call("GetData"); err != nil {
		return store.TemplateData{}, err
	}
	d, ok := s.data[id]
	if !ok || d.TemplateID != templateID || d.UserID != userID {
		return store.TemplateData{}, store.ErrNotFound
	}
	return d, nil
}

// UpdateData implements store.Store
func (s *Store) UpdateData(ctx context.Context, d store.TemplateData) (store.TemplateData, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := s.call("UpdateData"); err != nil {
		return d, err
	}
	current, ok := s.data[d.ID]
	if !ok || current.TemplateID != d.TemplateID || current.UserID != d.UserID {
		return d, store.ErrNotFound
	}
	current.Values = copyValues(d.Values)
	current.UpdatedAt = s.tick()
	s.data[d.ID] = current
	return current, nil
}

// DeleteData implements store.Store
func (s *Store) DeleteData(ctx context.Context, templateID, id uuid.UUID, userID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := s.call("DeleteData"); err != nil {
		return err
	}
	d, ok := s.data[id]
	if !ok || d.TemplateID != templateID || d.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.data, id)
	return nil
}
