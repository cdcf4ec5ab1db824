/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"sync"

	"github.com/suparena/tablestore/entity"
)

// resolverRegistry holds named property resolvers keyed by table name, used
// when deserializing NoMetadata payloads for tables with known shapes.
var (
	resolverRegistry = make(map[string]entity.PropertyResolver)
	resolverMu       sync.RWMutex
)

// RegisterResolver registers a property resolver for a table name.
// It panics if a resolver is already registered, to prevent accidental overrides.
func RegisterResolver(table string, r entity.PropertyResolver) {
	resolverMu.Lock()
	defer resolverMu.Unlock()
	if _, exists := resolverRegistry[table]; exists {
		panic(fmt.Sprintf("resolver registry: resolver for table %q already registered", table))
	}
	resolverRegistry[table] = r
}

// GetResolver returns the registered resolver for a table, if any.
func GetResolver(table string) (entity.PropertyResolver, bool) {
	resolverMu.RLock()
	defer resolverMu.RUnlock()
	r, ok := resolverRegistry[table]
	return r, ok
}

// UnregisterResolver removes a registered resolver. Intended for tests.
func UnregisterResolver(table string) {
	resolverMu.Lock()
	defer resolverMu.Unlock()
	delete(resolverRegistry, table)
}
