// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package core

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
)

// Operation represents a modifying storage operation, one of Create, Update, Delete
type Operation string

// all operations which produce change events
const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// UnmarshalJSON is a custom JSON unmarshaller
func (o *Operation) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*o = Operation(s)
	switch *o {
	case OperationCreate, OperationUpdate, OperationDelete:
		return nil
	default:
		return fmt.Errorf("%s is not valid Operation", s)
	}
}

// Resource names used in change events
const (
	ResourceTemplate     = "template"
	ResourceTemplateData = "template_data"
)

// Notifier is an interface to receive change notifications after a successful write
// to the store. Implementations must not block the caller for long; the write has
// already happened when Notify is called.
type Notifier interface {
	Notify(ctx context.Context, resource string, operation Operation, payload []byte) error
}
