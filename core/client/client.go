// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package client provides easy and fast in-process access to the REST api

Instead of marshalling HTTP, the client talks directly to the mux router. It is
perfectly suited for unit tests. The same client also talks to a remote service,
see NewWithURL.
*/
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Client provides easy access to the REST API.
type Client struct {
	router     *mux.Router
	httpClient *http.Client
	url        string
	token      string
	ctx        context.Context

	defaultHeaders map[string]string
}

// StatusError is returned when the service answers with an unexpected status
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned wrong status code %d. Error: %s", e.Method, e.Path, e.Status, e.Body)
}

// NewWithRouter creates a client to make pseudo-REST requests to the backend,
// through the mux router
func NewWithRouter(router *mux.Router) Client {
	return Client{
		router:         router,
		defaultHeaders: map[string]string{},
	}
}

// NewWithURL creates a client to make REST requests to the backend at url
func NewWithURL(url string) Client {
	return Client{
		url:            strings.TrimSuffix(url, "/"),
		httpClient:     &http.Client{Timeout: 20 * time.Second},
		defaultHeaders: map[string]string{},
	}
}

// WithHeader returns a new client with a default header added
func (c Client) WithHeader(key string, value string) Client {
	headers := make(map[string]string, len(c.defaultHeaders)+1)
	for k, v := range c.defaultHeaders {
		headers[k] = v
	}
	headers[key] = value
	c.defaultHeaders = headers
	return c
}

// WithToken returns a new client which sends token as bearer token
func (c Client) WithToken(token string) Client {
	c.token = token
	return c
}

// WithContext returns a new client with specific request context
func (c Client) WithContext(ctx context.Context) Client {
	c.ctx = ctx
	return c
}

// Context returns the request context of the client
func (c Client) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// RawDo sends a request with an optional JSON body and decodes the response into result,
// whatever the status. A body of type []byte is sent as is, a result of type *[]byte
// receives the raw response. Only transport failures are returned as error.
func (c Client) RawDo(method, path string, body interface{}, result interface{}) (int, error) {
	status, resBody, err := c.do(method, path, body)
	if err != nil {
		return status, err
	}
	return status, decode(resBody, result)
}

func (c Client) do(method, path string, body interface{}) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		j, ok := body.([]byte)
		if !ok {
			var err error
			j, err = json.Marshal(body)
			if err != nil {
				return http.StatusBadRequest, nil, fmt.Errorf("%s to %s: %w", method, path, err)
			}
		}
		reader = bytes.NewBuffer(j)
	}

	r, err := http.NewRequestWithContext(c.Context(), method, c.url+path, reader)
	if err != nil {
		return http.StatusBadRequest, nil, err
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.defaultHeaders {
		r.Header.Add(key, value)
	}
	if c.token != "" {
		r.Header.Set("Authorization", "Bearer "+c.token)
	}

	if c.router != nil {
		rec := httptest.NewRecorder()
		c.router.ServeHTTP(rec, r)
		res := rec.Result()
		return res.StatusCode, rec.Body.Bytes(), nil
	}

	res, err := c.httpClient.Do(r)
	if err != nil {
		return http.StatusInternalServerError, nil, err
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	return res.StatusCode, resBody, err
}

func decode(resBody []byte, result interface{}) error {
	if len(resBody) == 0 || result == nil {
		return nil
	}
	if raw, ok := result.(*[]byte); ok {
		*raw = resBody
		return nil
	}
	return json.Unmarshal(resBody, result)
}

func (c Client) expect(method, path string, body interface{}, result interface{}, expected ...int) (int, error) {
	status, resBody, err := c.do(method, path, body)
	if err != nil {
		return status, err
	}
	for _, e := range expected {
		if status == e {
			return status, decode(resBody, result)
		}
	}
	return status, &StatusError{Method: method, Path: path, Status: status, Body: strings.TrimSpace(string(resBody))}
}

// RawGet gets path and expects http.StatusOK
func (c Client) RawGet(path string, result interface{}) (int, error) {
	return c.expect(http.MethodGet, path, nil, result, http.StatusOK)
}

// RawPost posts body to path and expects http.StatusCreated or http.StatusOK
func (c Client) RawPost(path string, body interface{}, result interface{}) (int, error) {
	return c.expect(http.MethodPost, path, body, result, http.StatusCreated, http.StatusOK, http.StatusNoContent)
}

// RawPut puts body to path and expects http.StatusOK
func (c Client) RawPut(path string, body interface{}, result interface{}) (int, error) {
	return c.expect(http.MethodPut, path, body, result, http.StatusOK, http.StatusNoContent)
}

// RawDelete deletes path and expects http.StatusNoContent
func (c Client) RawDelete(path string) (int, error) {
	return c.expect(http.MethodDelete, path, nil, nil, http.StatusNoContent)
}

// Templates returns a client for the templates of the principal
func (c Client) Templates() Templates {
	return Templates{client: c}
}

// Templates is the collection of templates
type Templates struct {
	client Client
}

// Path returns the path of the collection
func (t Templates) Path() string {
	return "/templates"
}

// Create creates a template
func (t Templates) Create(body interface{}, result interface{}) (int, error) {
	return t.client.RawPost(t.Path(), body, result)
}

// List lists all templates
func (t Templates) List(result interface{}) (int, error) {
	return t.client.RawGet(t.Path(), result)
}

// Item returns a client for one template
func (t Templates) Item(id uuid.UUID) Template {
	return Template{client: t.client, id: id}
}

// Template is a single template
type Template struct {
	client Client
	id     uuid.UUID
}

// Path returns the path of the template
func (t Template) Path() string {
	return "/templates/" + t.id.String()
}

// Read reads the template
func (t Template) Read(result interface{}) (int, error) {
	return t.client.RawGet(t.Path(), result)
}

// Update replaces name and fields of the template
func (t Template) Update(body interface{}, result interface{}) (int, error) {
	return t.client.RawPut(t.Path(), body, result)
}

// Delete deletes the template, cascade deletes its data first
func (t Template) Delete(cascade bool) (int, error) {
	path := t.Path()
	if cascade {
		path += "?cascade=true"
	}
	return t.client.RawDelete(path)
}

// Data returns the collection of data records of the template
func (t Template) Data() Data {
	return Data{template: t}
}

// Data is the collection of data records of a template
type Data struct {
	template Template
}

// Path returns the path of the collection
func (d Data) Path() string {
	return d.template.Path() + "/data"
}

// Create creates a data record
func (d Data) Create(body interface{}, result interface{}) (int, error) {
	return d.template.client.RawPost(d.Path(), body, result)
}

// List lists all data records
func (d Data) List(result interface{}) (int, error) {
	return d.template.client.RawGet(d.Path(), result)
}

// Item returns a client for one data record
func (d Data) Item(id uuid.UUID) Record {
	return Record{data: d, id: id}
}

// Record is a single data record
type Record struct {
	data Data
	id   uuid.UUID
}

// Path returns the path of the record
func (r Record) Path() string {
	return r.data.Path() + "/" + r.id.String()
}

// Read reads the record
func (r Record) Read(result interface{}) (int, error) {
	return r.data.template.client.RawGet(r.Path(), result)
}

// Update replaces the values of the record
func (r Record) Update(body interface{}, result interface{}) (int, error) {
	return r.data.template.client.RawPut(r.Path(), body, result)
}

// Delete deletes the record
func (r Record) Delete() (int, error) {
	return r.data.template.client.RawDelete(r.Path())
}
