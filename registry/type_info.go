/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/suparena/tablestore/entity"
)

// Field describes one mapped struct field of a typed entity.
type Field struct {
	// Name is the wire property name.
	Name string
	// Index is the field's reflect index path.
	Index []int
	// Kind is the property kind declared by the field's Go type.
	Kind entity.EdmType
	// OmitEmpty skips the field on serialize when it holds the zero value.
	OmitEmpty bool
}

// TypeInfo is the cached property metadata for a typed entity struct.
// The key and system fields are tracked separately from user properties.
type TypeInfo struct {
	Fields []Field

	// Index paths of the recognized system fields; nil when absent.
	PartitionKey []int
	RowKey       []int
	ETag         []int
	Timestamp    []int

	byName map[string]Field
}

// FieldByName returns the mapped field for a wire property name.
func (ti *TypeInfo) FieldByName(name string) (Field, bool) {
	f, ok := ti.byName[name]
	return f, ok
}

var (
	typeInfoCache = make(map[reflect.Type]*TypeInfo)
	mu            sync.RWMutex
)

// GetTypeInfo returns the property metadata for a struct type, building and
// caching it on first use. Fields are mapped by `table` tag or field name;
// a tag of "-" skips the field.
func GetTypeInfo(t reflect.Type) (*TypeInfo, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("type registry: %s is not a struct type", t)
	}

	mu.RLock()
	ti, ok := typeInfoCache[t]
	mu.RUnlock()
	if ok {
		return ti, nil
	}

	ti = &TypeInfo{byName: make(map[string]Field)}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		name := sf.Name
		omitEmpty := false
		if tag, ok := sf.Tag.Lookup("table"); ok {
			parts := strings.Split(tag, ",")
			if parts[0] == "-" {
				continue
			}
			if parts[0] != "" {
				name = parts[0]
			}
			for _, opt := range parts[1:] {
				if opt == "omitempty" {
					omitEmpty = true
				}
			}
		}

		switch name {
		case "PartitionKey":
			if sf.Type.Kind() != reflect.String {
				return nil, fmt.Errorf("type registry: %s.%s: PartitionKey field must be a string", t, sf.Name)
			}
			ti.PartitionKey = sf.Index
			continue
		case "RowKey":
			if sf.Type.Kind() != reflect.String {
				return nil, fmt.Errorf("type registry: %s.%s: RowKey field must be a string", t, sf.Name)
			}
			ti.RowKey = sf.Index
			continue
		case "ETag":
			ti.ETag = sf.Index
			continue
		case "Timestamp":
			ti.Timestamp = sf.Index
			continue
		}

		kind, err := kindForType(sf.Type)
		if err != nil {
			return nil, fmt.Errorf("type registry: %s.%s: %w", t, sf.Name, err)
		}
		f := Field{Name: name, Index: sf.Index, Kind: kind, OmitEmpty: omitEmpty}
		ti.Fields = append(ti.Fields, f)
		ti.byName[name] = f
	}

	mu.Lock()
	typeInfoCache[t] = ti
	mu.Unlock()
	return ti, nil
}

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
	byteType = reflect.TypeOf([]byte(nil))
)

// kindForType maps a Go field type to its property kind.
func kindForType(t reflect.Type) (entity.EdmType, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t {
	case timeType:
		return entity.EdmDateTime, nil
	case uuidType:
		return entity.EdmGUID, nil
	case byteType:
		return entity.EdmBinary, nil
	}
	switch t.Kind() {
	case reflect.String:
		return entity.EdmString, nil
	case reflect.Bool:
		return entity.EdmBoolean, nil
	case reflect.Int32:
		return entity.EdmInt32, nil
	case reflect.Int, reflect.Int64:
		return entity.EdmInt64, nil
	case reflect.Float64:
		return entity.EdmDouble, nil
	default:
		return entity.EdmUnknown, fmt.Errorf("unsupported field type %s", t)
	}
}
