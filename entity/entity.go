/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entity

import (
	"fmt"
	"sort"
	"time"

	"github.com/suparena/tablestore/errors"
)

// Fixed service limits for a single entity.
const (
	// MaxUserProperties is the number of user properties an entity may carry
	// (255 including PartitionKey, RowKey and Timestamp).
	MaxUserProperties = 252

	// MaxEntitySize is the maximum serialized payload size of one entity.
	MaxEntitySize = 1024 * 1024

	// MaxPropertySize is the maximum serialized size of one property value.
	MaxPropertySize = 64 * 1024
)

// ETagAny is the wildcard ETag that bypasses optimistic concurrency checks.
const ETagAny = "*"

// reserved property names that collide with system properties.
var reservedNames = map[string]bool{
	"PartitionKey": true,
	"RowKey":       true,
	"Timestamp":    true,
}

// Entity is a mapping from property name to typed value, addressed by its
// (PartitionKey, RowKey) primary key. Timestamp and ETag are server-assigned.
type Entity struct {
	partitionKey string
	rowKey       string

	// Timestamp is assigned by the service and read-only for callers.
	Timestamp time.Time

	// ETag is the opaque concurrency token. Merge, replace and delete
	// require it; ETagAny bypasses the check.
	ETag string

	props map[string]Property
}

// New creates an entity with the given keys. Key characters are validated
// here, not at request time; the empty string is a valid key.
func New(partitionKey, rowKey string) (*Entity, error) {
	if err := ValidateKey(partitionKey); err != nil {
		return nil, errors.NewValidationError("PartitionKey", err.Error())
	}
	if err := ValidateKey(rowKey); err != nil {
		return nil, errors.NewValidationError("RowKey", err.Error())
	}
	return &Entity{
		partitionKey: partitionKey,
		rowKey:       rowKey,
		props:        make(map[string]Property),
	}, nil
}

// PartitionKey returns the entity's partition key.
func (e *Entity) PartitionKey() string { return e.partitionKey }

// RowKey returns the entity's row key.
func (e *Entity) RowKey() string { return e.rowKey }

// Set stores a user property. Reserved system property names are rejected,
// as is exceeding the per-entity property limit.
func (e *Entity) Set(name string, p Property) error {
	if reservedNames[name] {
		return errors.NewValidationError(name, "reserved system property name")
	}
	if name == "" {
		return errors.NewValidationError("property", "property name must not be empty")
	}
	if _, exists := e.props[name]; !exists && len(e.props) >= MaxUserProperties {
		return errors.NewValidationError(name, fmt.Sprintf("entity exceeds %d user properties", MaxUserProperties))
	}
	e.props[name] = p
	return nil
}

// Get returns the named user property.
func (e *Entity) Get(name string) (Property, bool) {
	p, ok := e.props[name]
	return p, ok
}

// Remove deletes a user property.
func (e *Entity) Remove(name string) {
	delete(e.props, name)
}

// Len returns the number of user properties.
func (e *Entity) Len() int { return len(e.props) }

// Names returns the user property names in lexical order.
func (e *Entity) Names() []string {
	names := make([]string, 0, len(e.props))
	for n := range e.props {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the entity.
func (e *Entity) Clone() *Entity {
	c := &Entity{
		partitionKey: e.partitionKey,
		rowKey:       e.rowKey,
		Timestamp:    e.Timestamp,
		ETag:         e.ETag,
		props:        make(map[string]Property, len(e.props)),
	}
	for n, p := range e.props {
		c.props[n] = p
	}
	return c
}

// Equal reports whether two entities have the same keys and the same user
// properties. Server-assigned Timestamp and ETag are not compared.
func (e *Entity) Equal(o *Entity) bool {
	if e == nil || o == nil {
		return e == o
	}
	if e.partitionKey != o.partitionKey || e.rowKey != o.rowKey || len(e.props) != len(o.props) {
		return false
	}
	for n, p := range e.props {
		op, ok := o.props[n]
		if !ok || !p.Equal(op) {
			return false
		}
	}
	return true
}
