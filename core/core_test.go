// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package core

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestOperations_JSON_Unmarshalling(t *testing.T) {

	type Object struct {
		Operations []Operation `json:"operations"`
	}
	var object Object
	jsonRead := `{"operations":["create","update","delete"]}`
	err := json.Unmarshal([]byte(jsonRead), &object)
	if err != nil {
		t.Fatal(err)
	}
	if len(object.Operations) != 3 || object.Operations[2] != OperationDelete {
		t.Fatalf("unexpected operations %v", object.Operations)
	}

	jsonRead = `{"operations":["list"]}`
	err = json.Unmarshal([]byte(jsonRead), &object)
	if err == nil {
		t.Fatal("list is not a change operation and must be rejected")
	}
}
