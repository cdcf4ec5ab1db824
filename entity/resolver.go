/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entity

// PropertyResolver classifies a raw string value into a property kind when a
// payload carries no type annotation. It is invoked only for NoMetadata
// payloads and only for properties without static type information.
//
// Returning EdmUnknown with a nil error means the resolver has no opinion and
// the codec falls back to JSON-native inference. A non-nil error aborts the
// deserialization and is surfaced as a ResolverError with the original error
// retained as its cause.
type PropertyResolver func(partitionKey, rowKey, propertyName, rawValue string) (EdmType, error)

// ChainResolvers combines resolvers into one that consults them in order and
// returns the first definite kind. Nil entries are skipped. This implements
// the precedence contract: static type information first, then the caller's
// resolver, then raw JSON inference (by returning EdmUnknown).
func ChainResolvers(resolvers ...PropertyResolver) PropertyResolver {
	return func(partitionKey, rowKey, propertyName, rawValue string) (EdmType, error) {
		for _, r := range resolvers {
			if r == nil {
				continue
			}
			kind, err := r(partitionKey, rowKey, propertyName, rawValue)
			if err != nil {
				return EdmUnknown, err
			}
			if kind != EdmUnknown {
				return kind, nil
			}
		}
		return EdmUnknown, nil
	}
}
