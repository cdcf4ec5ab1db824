/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entity

// PayloadFormat selects the JSON metadata verbosity level for entity payloads.
type PayloadFormat int

const (
	// NoMetadata omits all type annotations. Non-native kinds need a
	// PropertyResolver or a typed target on the read side.
	NoMetadata PayloadFormat = iota

	// MinimalMetadata annotates properties whose kind is not recoverable
	// from JSON alone. This is the default.
	MinimalMetadata

	// FullMetadata adds entity-level odata metadata on top of the
	// MinimalMetadata annotations.
	FullMetadata
)

func (f PayloadFormat) String() string {
	switch f {
	case NoMetadata:
		return "nometadata"
	case FullMetadata:
		return "fullmetadata"
	default:
		return "minimalmetadata"
	}
}

// ContentType returns the Accept / Content-Type value for the format.
func (f PayloadFormat) ContentType() string {
	return "application/json;odata=" + f.String()
}
