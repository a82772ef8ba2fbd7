// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package access

// Authorize checks that a resource owned by ownerID may be accessed by principalID.
//
// An empty ownerID stands for a resource which does not exist. Missing resources and
// resources of other owners produce the same NotFoundOrForbiddenError, so a caller can
// never learn about resources of somebody else.
func Authorize(resource, ownerID, principalID string) error {
	if ownerID == "" || principalID == "" || ownerID != principalID {
		return &NotFoundOrForbiddenError{Resource: resource}
	}
	return nil
}
