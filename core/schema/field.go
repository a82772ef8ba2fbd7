// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package schema

import (
	"fmt"

	"github.com/relabs-tech/contaconmigo/core/pointers"
)

// FieldType is the closed set of declared field types
type FieldType int

// all field types. FieldTypeUnknown stands for any label outside the closed set and
// accepts every value.
const (
	FieldTypeUnknown FieldType = iota
	FieldTypeString
	FieldTypeInt
	FieldTypeFloat
	FieldTypeBoolean
	FieldTypeDate
)

var fieldTypeLabels = map[FieldType]string{
	FieldTypeString:  "string",
	FieldTypeInt:     "int",
	FieldTypeFloat:   "float",
	FieldTypeBoolean: "boolean",
	FieldTypeDate:    "date",
}

// ParseFieldType maps a declared type label to its FieldType
func ParseFieldType(label string) FieldType {
	for t, l := range fieldTypeLabels {
		if l == label {
			return t
		}
	}
	return FieldTypeUnknown
}

func (t FieldType) String() string {
	if l, ok := fieldTypeLabels[t]; ok {
		return l
	}
	return "unknown"
}

// Field is one named, typed slot of a template
type Field struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	DisplayUnit *string `json:"display_unit"`
}

// FieldType returns the parsed declared type
func (f Field) FieldType() FieldType {
	return ParseFieldType(f.Type)
}

// Fields is the ordered field list of a template
type Fields []Field

// Equal reports whether both lists have the same fields in the same order, including
// their display units
func (fs Fields) Equal(other Fields) bool {
	if len(fs) != len(other) {
		return false
	}
	for i := range fs {
		a, b := fs[i], other[i]
		if a.Name != b.Name || a.Type != b.Type || !pointers.EqualString(a.DisplayUnit, b.DisplayUnit) {
			return false
		}
	}
	return true
}

// Check returns the reasons why the list cannot be stored as a template definition:
// empty or duplicate names and types outside the closed set.
func (fs Fields) Check() []string {
	var problems []string
	seen := make(map[string]bool, len(fs))
	for i, f := range fs {
		if f.Name == "" {
			problems = append(problems, fmt.Sprintf("field %d has no name", i))
			continue
		}
		if seen[f.Name] {
			problems = append(problems, fmt.Sprintf("field name '%s' is used more than once", f.Name))
		}
		seen[f.Name] = true
		if f.FieldType() == FieldTypeUnknown {
			problems = append(problems, fmt.Sprintf("field '%s' has unsupported type '%s'", f.Name, f.Type))
		}
	}
	return problems
}
