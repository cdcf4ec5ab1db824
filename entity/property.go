/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entity

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
)

// EdmType identifies the kind of a property value on the wire.
type EdmType int

const (
	// EdmUnknown means no type information is available.
	EdmUnknown EdmType = iota
	EdmString
	EdmBinary
	EdmBoolean
	EdmDateTime
	EdmDouble
	EdmGUID
	EdmInt32
	EdmInt64
)

var edmNames = map[EdmType]string{
	EdmString:   "Edm.String",
	EdmBinary:   "Edm.Binary",
	EdmBoolean:  "Edm.Boolean",
	EdmDateTime: "Edm.DateTime",
	EdmDouble:   "Edm.Double",
	EdmGUID:     "Edm.Guid",
	EdmInt32:    "Edm.Int32",
	EdmInt64:    "Edm.Int64",
}

func (t EdmType) String() string {
	return edmNames[t]
}

// ParseEdmType maps a wire annotation like "Edm.Int64" back to its EdmType.
func ParseEdmType(s string) (EdmType, bool) {
	for t, name := range edmNames {
		if name == s {
			return t, true
		}
	}
	return EdmUnknown, false
}

// dateTimeLayout is the fixed-width wire format for Edm.DateTime values.
// Seven fractional digits keep sub-millisecond precision and make serialized
// payloads byte-stable.
const dateTimeLayout = "2006-01-02T15:04:05.0000000Z"

// Property is a tagged union over the supported table property kinds.
// The in-memory value and its kind are independent of the payload format
// used to serialize it.
type Property struct {
	kind    EdmType
	str     string
	bin     []byte
	boolean bool
	i32     int32
	i64     int64
	f64     float64
	ts      time.Time
	id      uuid.UUID
}

// NewString creates a String property. Code points are preserved exactly;
// no normalization is applied.
func NewString(v string) Property { return Property{kind: EdmString, str: v} }

// NewBinary creates a Binary property.
func NewBinary(v []byte) Property { return Property{kind: EdmBinary, bin: v} }

// NewBoolean creates a Boolean property.
func NewBoolean(v bool) Property { return Property{kind: EdmBoolean, boolean: v} }

// NewInt32 creates an Int32 property.
func NewInt32(v int32) Property { return Property{kind: EdmInt32, i32: v} }

// NewInt64 creates an Int64 property.
func NewInt64(v int64) Property { return Property{kind: EdmInt64, i64: v} }

// NewDouble creates a Double property.
func NewDouble(v float64) Property { return Property{kind: EdmDouble, f64: v} }

// NewDateTime creates a DateTime property. The value is stored in UTC.
func NewDateTime(v time.Time) Property { return Property{kind: EdmDateTime, ts: v.UTC()} }

// NewGUID creates a GUID property.
func NewGUID(v uuid.UUID) Property { return Property{kind: EdmGUID, id: v} }

// Kind returns the property's type.
func (p Property) Kind() EdmType { return p.kind }

// StringValue returns the value of a String property, or "" for other kinds.
func (p Property) StringValue() string { return p.str }

// BinaryValue returns the value of a Binary property, or nil for other kinds.
func (p Property) BinaryValue() []byte { return p.bin }

// BooleanValue returns the value of a Boolean property, or false for other kinds.
func (p Property) BooleanValue() bool { return p.boolean }

// Int32Value returns the value of an Int32 property, or 0 for other kinds.
func (p Property) Int32Value() int32 { return p.i32 }

// Int64Value returns the value of an Int64 property, or 0 for other kinds.
func (p Property) Int64Value() int64 { return p.i64 }

// DoubleValue returns the value of a Double property, or 0 for other kinds.
func (p Property) DoubleValue() float64 { return p.f64 }

// TimeValue returns the value of a DateTime property in UTC.
func (p Property) TimeValue() time.Time { return p.ts }

// GUIDValue returns the value of a GUID property.
func (p Property) GUIDValue() uuid.UUID { return p.id }

// Interface returns the property value as its natural Go type.
func (p Property) Interface() any {
	switch p.kind {
	case EdmString:
		return p.str
	case EdmBinary:
		return p.bin
	case EdmBoolean:
		return p.boolean
	case EdmInt32:
		return p.i32
	case EdmInt64:
		return p.i64
	case EdmDouble:
		return p.f64
	case EdmDateTime:
		return p.ts
	case EdmGUID:
		return p.id
	default:
		return nil
	}
}

// Equal reports whether two properties have the same kind and value.
// DateTime values are compared with time.Time.Equal; Double values compare
// bit-exactly so NaN equals NaN.
func (p Property) Equal(o Property) bool {
	if p.kind != o.kind {
		return false
	}
	switch p.kind {
	case EdmString:
		return p.str == o.str
	case EdmBinary:
		return bytes.Equal(p.bin, o.bin)
	case EdmBoolean:
		return p.boolean == o.boolean
	case EdmInt32:
		return p.i32 == o.i32
	case EdmInt64:
		return p.i64 == o.i64
	case EdmDouble:
		return math.Float64bits(p.f64) == math.Float64bits(o.f64)
	case EdmDateTime:
		return p.ts.Equal(o.ts)
	case EdmGUID:
		return p.id == o.id
	default:
		return true
	}
}

// wireValue renders the property as the JSON value used on the wire.
// Int64, Binary, DateTime and GUID values travel as strings in every payload
// format; String, Boolean and Int32 travel as their native JSON types.
func (p Property) wireValue() any {
	switch p.kind {
	case EdmString:
		return p.str
	case EdmBoolean:
		return p.boolean
	case EdmInt32:
		return p.i32
	case EdmInt64:
		return strconv.FormatInt(p.i64, 10)
	case EdmBinary:
		return base64.StdEncoding.EncodeToString(p.bin)
	case EdmDateTime:
		return p.ts.UTC().Format(dateTimeLayout)
	case EdmGUID:
		return p.id.String()
	case EdmDouble:
		if math.IsNaN(p.f64) {
			return "NaN"
		}
		if math.IsInf(p.f64, 1) {
			return "Infinity"
		}
		if math.IsInf(p.f64, -1) {
			return "-Infinity"
		}
		return p.f64
	default:
		return nil
	}
}

// annotated reports whether the kind needs an @odata.type annotation in
// metadata-carrying formats. String, Boolean and Int32 round-trip natively
// through JSON and stay unannotated.
func (p Property) annotated() bool {
	switch p.kind {
	case EdmBinary, EdmDateTime, EdmDouble, EdmGUID, EdmInt64:
		return true
	default:
		return false
	}
}

// parseProperty parses a raw wire string into a property of the given kind.
func parseProperty(kind EdmType, raw string) (Property, error) {
	switch kind {
	case EdmString:
		return NewString(raw), nil
	case EdmBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Property{}, fmt.Errorf("invalid boolean literal")
		}
		return NewBoolean(b), nil
	case EdmInt32:
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return Property{}, fmt.Errorf("invalid 32-bit integer literal")
		}
		return NewInt32(int32(n)), nil
	case EdmInt64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Property{}, fmt.Errorf("invalid 64-bit integer literal")
		}
		return NewInt64(n), nil
	case EdmDouble:
		switch raw {
		case "NaN":
			return NewDouble(math.NaN()), nil
		case "Infinity":
			return NewDouble(math.Inf(1)), nil
		case "-Infinity":
			return NewDouble(math.Inf(-1)), nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Property{}, fmt.Errorf("invalid double literal")
		}
		return NewDouble(f), nil
	case EdmBinary:
		b, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return Property{}, fmt.Errorf("invalid base64 literal")
		}
		return NewBinary(b), nil
	case EdmDateTime:
		t, err := parseDateTime(raw)
		if err != nil {
			return Property{}, err
		}
		return NewDateTime(t), nil
	case EdmGUID:
		id, err := uuid.Parse(raw)
		if err != nil {
			return Property{}, fmt.Errorf("invalid GUID literal")
		}
		return NewGUID(id), nil
	default:
		return Property{}, fmt.Errorf("unsupported property type")
	}
}

// parseDateTime accepts ISO-8601 UTC timestamps with up to nanosecond
// fractional precision.
func parseDateTime(raw string) (time.Time, error) {
	if strings.HasSuffix(raw, "Z") {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return t.UTC(), nil
		}
	}
	dt, err := strfmt.ParseDateTime(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid datetime literal")
	}
	return time.Time(dt).UTC(), nil
}
