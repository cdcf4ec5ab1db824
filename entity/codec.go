/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/suparena/tablestore/errors"
)

const annotationSuffix = "@odata.type"

// Marshal serializes an entity into the JSON wire payload for the given
// format. Output is deterministic: properties are emitted in lexical order,
// so the same entity and format always produce the same bytes.
func Marshal(e *Entity, format PayloadFormat) ([]byte, error) {
	m := make(map[string]any, len(e.props)*2+4)
	m["PartitionKey"] = e.partitionKey
	m["RowKey"] = e.rowKey

	if format == FullMetadata && e.ETag != "" {
		m["odata.etag"] = e.ETag
	}
	if !e.Timestamp.IsZero() {
		m["Timestamp"] = e.Timestamp.UTC().Format(dateTimeLayout)
		if format != NoMetadata {
			m["Timestamp"+annotationSuffix] = EdmDateTime.String()
		}
	}

	for name, p := range e.props {
		wire := p.wireValue()
		encoded, err := json.Marshal(wire)
		if err != nil {
			return nil, errors.NewPropertyParseError(name, fmt.Sprintf("%v", p.Interface()), p.kind.String(), err)
		}
		if len(encoded) > MaxPropertySize {
			return nil, errors.NewValidationError(name,
				fmt.Sprintf("property exceeds %d bytes serialized", MaxPropertySize))
		}
		m[name] = wire
		if format != NoMetadata && p.annotated() {
			m[name+annotationSuffix] = p.kind.String()
		}
	}

	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	if len(data) > MaxEntitySize {
		return nil, errors.NewValidationError("entity",
			fmt.Sprintf("entity exceeds %d bytes serialized", MaxEntitySize))
	}
	return data, nil
}

// Unmarshal deserializes a JSON wire payload into an entity.
//
// Type annotations, when present, determine the property kind unconditionally.
// For unannotated properties in NoMetadata payloads the resolvers are
// consulted in order; the first one returning a kind wins. When no resolver
// has an opinion the kind is inferred from the JSON value itself: boolean,
// integral number in 32-bit range, other number, or string.
func Unmarshal(data []byte, format PayloadFormat, resolvers ...PropertyResolver) (*Entity, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse entity payload: %w", err)
	}

	pk, _ := m["PartitionKey"].(string)
	rk, _ := m["RowKey"].(string)
	e, err := New(pk, rk)
	if err != nil {
		return nil, err
	}
	if etag, ok := m["odata.etag"].(string); ok {
		e.ETag = etag
	}
	if ts, ok := m["Timestamp"].(string); ok {
		t, err := parseDateTime(ts)
		if err != nil {
			return nil, errors.NewPropertyParseError("Timestamp", ts, EdmDateTime.String(), err)
		}
		e.Timestamp = t
	}

	annotations := make(map[string]string)
	names := make([]string, 0, len(m))
	for key := range m {
		if prop, ok := strings.CutSuffix(key, annotationSuffix); ok {
			if s, isStr := m[key].(string); isStr {
				annotations[prop] = s
			}
			continue
		}
		if key == "PartitionKey" || key == "RowKey" || key == "Timestamp" || strings.HasPrefix(key, "odata.") {
			continue
		}
		names = append(names, key)
	}
	sort.Strings(names)

	for _, name := range names {
		value := m[name]
		if value == nil {
			continue
		}
		raw, native, err := rawString(value)
		if err != nil {
			return nil, errors.NewPropertyParseError(name, fmt.Sprintf("%v", value), "scalar", err)
		}

		kind := EdmUnknown
		if ann, ok := annotations[name]; ok {
			kind, ok = ParseEdmType(ann)
			if !ok {
				return nil, errors.NewPropertyParseError(name, raw, ann, fmt.Errorf("unknown type annotation"))
			}
		} else if format == NoMetadata {
			for _, r := range resolvers {
				if r == nil {
					continue
				}
				k, rerr := r(pk, rk, name, raw)
				if rerr != nil {
					return nil, errors.NewResolverError(name, rerr)
				}
				if k != EdmUnknown {
					kind = k
					break
				}
			}
		}

		var p Property
		if kind != EdmUnknown {
			p, err = parseProperty(kind, raw)
			if err != nil {
				return nil, errors.NewPropertyParseError(name, raw, kind.String(), err)
			}
		} else {
			p = inferProperty(native, raw)
		}
		if err := e.Set(name, p); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// rawString converts a decoded JSON scalar to its raw string form for
// annotation parsing and resolver invocation. The original value is returned
// alongside so native inference can distinguish JSON types.
func rawString(value any) (string, any, error) {
	switch v := value.(type) {
	case string:
		return v, v, nil
	case json.Number:
		return v.String(), v, nil
	case bool:
		return strconv.FormatBool(v), v, nil
	default:
		return "", nil, fmt.Errorf("unsupported JSON value")
	}
}

// inferProperty applies JSON-native kind inference for properties without
// annotations, static type information or a resolver opinion. GUID, Binary
// and Int64 can never be produced here.
func inferProperty(native any, raw string) Property {
	switch v := native.(type) {
	case bool:
		return NewBoolean(v)
	case json.Number:
		if !strings.ContainsAny(raw, ".eE") {
			if n, err := strconv.ParseInt(raw, 10, 32); err == nil {
				return NewInt32(int32(n))
			}
		}
		f, err := v.Float64()
		if err != nil {
			return NewString(raw)
		}
		return NewDouble(f)
	default:
		return NewString(raw)
	}
}
