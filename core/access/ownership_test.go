// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/contaconmigo/core/access"
)

func TestAuthorize(t *testing.T) {
	assert.NoError(t, access.Authorize("template", "user-a", "user-a"))

	foreign := access.Authorize("template", "user-a", "user-b")
	missing := access.Authorize("template", "", "user-b")

	assert.ErrorIs(t, foreign, access.ErrNotFoundOrForbidden)
	assert.ErrorIs(t, missing, access.ErrNotFoundOrForbidden)
	// a foreign resource is indistinguishable from a missing one
	assert.Equal(t, missing, foreign)
	assert.Equal(t, missing.Error(), foreign.Error())

	assert.ErrorIs(t, access.Authorize("template", "user-a", ""), access.ErrNotFoundOrForbidden)
}

func TestNotFoundOrForbiddenError(t *testing.T) {
	var err error = &access.NotFoundOrForbiddenError{Resource: "template_data"}
	assert.ErrorIs(t, err, access.ErrNotFoundOrForbidden)
	assert.Equal(t, "template_data: not found or forbidden", err.Error())
}
