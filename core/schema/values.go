// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package schema

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// FieldError reports a value which does not match the declared type of its field
type FieldError struct {
	Field string
	Type  string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("El valor para el campo '%s' no es del tipo esperado: %s", e.Field, e.Type)
}

// FieldErrors is the list of all field errors of one validation, in field order
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	return strings.Join(e.Messages(), "; ")
}

// Messages returns the human readable message of every field error
func (e FieldErrors) Messages() []string {
	messages := make([]string, len(e))
	for i, fe := range e {
		messages[i] = fe.Error()
	}
	return messages
}

// ValidateValues checks values against fields.
//
// Fields without a value are skipped, no field is mandatory. Values whose key does not
// name a field are neither checked nor rejected. All mismatches are collected; the
// result is nil if there are none, otherwise FieldErrors.
func ValidateValues(fields Fields, values map[string]interface{}) error {
	var errs FieldErrors
	for _, f := range fields {
		value, ok := values[f.Name]
		if !ok {
			continue
		}
		if !f.FieldType().Accepts(value) {
			errs = append(errs, FieldError{Field: f.Name, Type: f.Type})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Accepts reports whether value conforms to the field type.
//
// int and float also accept text which parses as such a number. A float literal must
// carry a fraction or an exponent. boolean accepts only real booleans, date accepts
// only ISO-8601 text.
func (t FieldType) Accepts(value interface{}) bool {
	switch t {
	case FieldTypeString:
		_, ok := value.(string)
		return ok
	case FieldTypeInt:
		if s, ok := value.(string); ok {
			return isIntegerText(s)
		}
		return isInteger(value)
	case FieldTypeFloat:
		if s, ok := value.(string); ok {
			return isFloatText(s)
		}
		return isFloat(value)
	case FieldTypeBoolean:
		_, ok := value.(bool)
		return ok
	case FieldTypeDate:
		s, ok := value.(string)
		return ok && isISODate(s)
	case FieldTypeUnknown:
		return true
	}
	return true
}

// number is a JSON number literal as produced by a decoder with UseNumber
type number interface {
	String() string
	Int64() (int64, error)
	Float64() (float64, error)
}

func isInteger(value interface{}) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case *big.Int:
		return v != nil
	case number:
		_, err := v.Int64()
		return err == nil || isIntegerText(v.String())
	}
	return false
}

func isFloat(value interface{}) bool {
	switch v := value.(type) {
	case float32, float64:
		return true
	case number:
		// an integral literal is an int, not a float
		if !strings.ContainsAny(v.String(), ".eE") {
			return false
		}
		_, err := v.Float64()
		return err == nil || errors.Is(err, strconv.ErrRange)
	}
	return false
}

// isIntegerText accepts decimal digits with an optional sign, of any magnitude
func isIntegerText(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "_") {
		return false
	}
	_, ok := new(big.Int).SetString(s, 10)
	return ok
}

func isFloatText(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "_") || strings.HasPrefix(strings.ToLower(strings.TrimLeft(s, "+-")), "0x") {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil || errors.Is(err, strconv.ErrRange)
}

var isoLayouts = func() []string {
	layouts := []string{"2006-01-02"}
	for _, sep := range []string{"T", " "} {
		for _, clock := range []string{"15", "15:04", "15:04:05"} {
			layouts = append(layouts,
				"2006-01-02"+sep+clock,
				"2006-01-02"+sep+clock+"Z07:00",
			)
		}
	}
	return layouts
}()

// isISODate accepts ISO-8601 calendar dates, optionally followed by a time of day given
// as hour, hour and minute, or hour minute and second with optional fractional seconds,
// and an optional zone offset
func isISODate(s string) bool {
	for _, layout := range isoLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
