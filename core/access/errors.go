// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package access

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is the common ancestor of all token verification failures.
// Every failure wrapping it is answered with http.StatusUnauthorized.
var ErrUnauthenticated = errors.New("unauthenticated")

// Classified token verification failures.
var (
	ErrMalformedHeader  = fmt.Errorf("%w: malformed authorization header", ErrUnauthenticated)
	ErrInvalidSignature = fmt.Errorf("%w: invalid token signature", ErrUnauthenticated)
	ErrInvalidAudience  = fmt.Errorf("%w: invalid token audience", ErrUnauthenticated)
	ErrExpired          = fmt.Errorf("%w: token expired", ErrUnauthenticated)
	ErrMalformedClaims  = fmt.Errorf("%w: malformed token claims", ErrUnauthenticated)
)

// the three ways an Authorization header can be malformed
var (
	errHeaderMissing = fmt.Errorf("%w: header is missing", ErrMalformedHeader)
	errInvalidScheme = fmt.Errorf("%w: invalid scheme", ErrMalformedHeader)
	errTokenMissing  = fmt.Errorf("%w: token is missing", ErrMalformedHeader)
)

// ErrMissingSecret is returned when a verifier is constructed without a signing secret.
// A process must not start without one.
var ErrMissingSecret = errors.New("token signing secret is not configured")

// ErrNotFoundOrForbidden means a resource either does not exist or belongs to somebody
// else. The two cases are deliberately indistinguishable.
var ErrNotFoundOrForbidden = errors.New("not found or forbidden")

// NotFoundOrForbiddenError names the kind of resource which was not accessible.
// It matches ErrNotFoundOrForbidden with errors.Is.
type NotFoundOrForbiddenError struct {
	Resource string
}

func (e *NotFoundOrForbiddenError) Error() string {
	return e.Resource + ": " + ErrNotFoundOrForbidden.Error()
}

// Is makes the error match ErrNotFoundOrForbidden
func (e *NotFoundOrForbiddenError) Is(target error) bool {
	return target == ErrNotFoundOrForbidden
}

// claimsError is a MalformedClaims failure with the offending claim attached. The
// claim name is for logs only, the client never sees it.
type claimsError struct {
	claim  string
	reason string
}

func (e *claimsError) Error() string {
	return fmt.Sprintf("%s: claim '%s' %s", ErrMalformedClaims, e.claim, e.reason)
}

func (e *claimsError) Unwrap() error {
	return ErrMalformedClaims
}
