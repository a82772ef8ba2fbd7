// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package schema

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/goccy/go-json"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var requestSchemas embed.FS

// IDs of the embedded request body schemas
const (
	TemplateRequestID     = "https://contaconmigo.app/schemas/template.json"
	TemplateDataRequestID = "https://contaconmigo.app/schemas/template_data.json"
	CredentialsRequestID  = "https://contaconmigo.app/schemas/credentials.json"
	RecoveryRequestID     = "https://contaconmigo.app/schemas/recovery.json"
)

// ValidationError lists all violations of a JSON schema
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "the document is not valid: " + strings.Join(e.Errors, "; ")
}

// Validator is a utility to validate JSON object against a given schema
type Validator struct {
	schemaValidators map[string]*gojsonschema.Schema
}

// NewRequestValidator returns a validator for all embedded request body schemas
func NewRequestValidator() (*Validator, error) {
	return NewValidatorFromFS(requestSchemas, "schemas")
}

// NewValidatorFromFS creates a new Validator using schemas from dir in fsys. Json files
// from dir will be used as toplevel schemas, while json files in dir/refs will be used
// as references. The refs directory is optional.
func NewValidatorFromFS(fsys fs.FS, dir string) (*Validator, error) {

	readDir := func(dir string) ([]string, error) {
		var strs []string
		files, err := fs.ReadDir(fsys, dir)
		if err != nil {
			return nil, fmt.Errorf("cannot read dir %w", err)
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
				continue
			}
			str, err := fs.ReadFile(fsys, path.Join(dir, f.Name()))
			if err != nil {
				return nil, fmt.Errorf("cannot read file '%s' %w", f.Name(), err)
			}
			strs = append(strs, string(str))
		}
		return strs, nil
	}

	schemasString, err := readDir(dir)
	if err != nil {
		return nil, err
	}

	var refsString []string
	if _, err := fs.Stat(fsys, path.Join(dir, "refs")); err == nil {
		if refsString, err = readDir(path.Join(dir, "refs")); err != nil {
			return nil, err
		}
	}

	return NewValidator(schemasString, refsString)
}

// NewValidator creates a new Validator using schemas for the top level JSON schemas and refs
// for refs that may be referenced in the top level schemas. Top level schemas cannot reference each
// others. If a reference is mentioned, it can only be in the list of refs
func NewValidator(schemas []string, refs []string) (*Validator, error) {
	type schema struct {
		ID string `json:"$id"`
	}
	validator := Validator{schemaValidators: make(map[string]*gojsonschema.Schema)}
	for _, str := range schemas {
		s := schema{}
		err := json.Unmarshal([]byte(str), &s)
		if err != nil {
			return nil, fmt.Errorf("parse error '%v' in schema: '%s'", err, str)
		}
		if s.ID == "" {
			return nil, fmt.Errorf("schema does not contain $id: '%s'", str)
		}
		sl := gojsonschema.NewSchemaLoader()

		for _, ref := range refs {
			if err := sl.AddSchemas(gojsonschema.NewStringLoader(ref)); err != nil {
				return nil, fmt.Errorf("cannot add ref %s %s", ref, err)
			}
		}
		compiled, err := sl.Compile(gojsonschema.NewStringLoader(str))
		if err != nil {
			return nil, fmt.Errorf("cannot compile schema %s %s", s.ID, err)
		}
		validator.schemaValidators[s.ID] = compiled
	}

	return &validator, nil
}

// HasSchema returns true if schemaID is known
func (v *Validator) HasSchema(schemaID string) bool {
	_, ok := v.schemaValidators[schemaID]
	return ok
}

// ValidateBytes validates the given raw json against schemaID. Violations are reported
// as *ValidationError, a body which is not JSON at all as a plain error.
func (v *Validator) ValidateBytes(body []byte, schemaID string) error {
	return v.validate(gojsonschema.NewBytesLoader(body), schemaID)
}

// ValidateStruct validates the given json as a struct against schemaID. If no error is returned,
// then the passed json is valid
func (v *Validator) ValidateStruct(json interface{}, schemaID string) error {
	return v.validate(gojsonschema.NewGoLoader(json), schemaID)
}

func (v *Validator) validate(loader gojsonschema.JSONLoader, schemaID string) error {

	schema, ok := v.schemaValidators[schemaID]
	if !ok {
		return fmt.Errorf("there is no schema %s ", schemaID)
	}

	result, err := schema.Validate(loader)
	if err != nil {
		return fmt.Errorf("cannot validate with schema %s: %w", schemaID, err)
	}

	if !result.Valid() {
		verr := &ValidationError{}
		for _, e := range result.Errors() {
			verr.Errors = append(verr.Errors, e.String())
		}
		return verr
	}
	return nil
}
