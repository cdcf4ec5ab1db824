/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sas

import (
	"fmt"
	"time"

	"github.com/suparena/tablestore/errors"
)

// MaxStoredPolicies is the number of stored access policies one table may hold.
const MaxStoredPolicies = 5

// Permissions is the set of operations a shared access signature grants.
type Permissions struct {
	Query  bool
	Add    bool
	Update bool
	Delete bool
}

// String renders the permission set in canonical order: r, a, u, d.
// The order is part of the signed string and must not vary.
func (p Permissions) String() string {
	var s []byte
	if p.Query {
		s = append(s, 'r')
	}
	if p.Add {
		s = append(s, 'a')
	}
	if p.Update {
		s = append(s, 'u')
	}
	if p.Delete {
		s = append(s, 'd')
	}
	return string(s)
}

// ParsePermissions parses a canonical permission string.
func ParsePermissions(s string) (Permissions, error) {
	var p Permissions
	for _, c := range s {
		switch c {
		case 'r':
			p.Query = true
		case 'a':
			p.Add = true
		case 'u':
			p.Update = true
		case 'd':
			p.Delete = true
		default:
			return Permissions{}, errors.NewValidationError("permissions",
				fmt.Sprintf("unknown permission %q", c))
		}
	}
	return p, nil
}

// SharedAccessPolicy describes what a signature grants and when it is valid.
// Zero Start or Expiry times mean the field is absent; an absent field is
// emitted as an empty string in the signed string, never omitted.
type SharedAccessPolicy struct {
	Permissions Permissions
	Start       time.Time
	Expiry      time.Time
}

// StoredPolicies is a table's named server-side access policies.
type StoredPolicies map[string]SharedAccessPolicy

// Validate enforces the stored-policy count limit.
func (sp StoredPolicies) Validate() error {
	if len(sp) > MaxStoredPolicies {
		return errors.NewValidationError("policies",
			fmt.Sprintf("a table supports at most %d stored access policies", MaxStoredPolicies))
	}
	return nil
}

// Get returns the policy stored under the identifier.
func (sp StoredPolicies) Get(identifier string) (SharedAccessPolicy, bool) {
	p, ok := sp[identifier]
	return p, ok
}
