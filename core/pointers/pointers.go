// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package pointers has helpers for optional values such as the display unit of a field
package pointers

// String returns a pointer to s
func String(s string) *string {
	return &s
}

// SafeString returns the value from ptr or "" if the pointer is nil
func SafeString(ptr *string) string {
	if ptr != nil {
		return *ptr
	}
	return ""
}

// EqualString reports whether both pointers are nil or point to equal strings
func EqualString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
