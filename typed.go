/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/suparena/tablestore/entity"
	"github.com/suparena/tablestore/registry"
	"github.com/suparena/tablestore/storagemodels"
)

// TypedTable provides type-safe operations on a table for entity type T.
// T is a struct whose fields map to properties by `table` tag or field name;
// PartitionKey and RowKey fields (string) are required, ETag (string) and
// Timestamp (time.Time) are recognized when present.
//
// When deserializing NoMetadata payloads the declared field types win over
// any caller-supplied resolver, which in turn wins over raw JSON inference.
type TypedTable[T any] struct {
	table *Table
	info  *registry.TypeInfo
}

// NewTypedTable builds a typed view over a table reference.
func NewTypedTable[T any](t *Table) (*TypedTable[T], error) {
	var zero T
	info, err := registry.GetTypeInfo(reflect.TypeOf(zero))
	if err != nil {
		return nil, err
	}
	if info.PartitionKey == nil || info.RowKey == nil {
		return nil, fmt.Errorf("type %T must declare PartitionKey and RowKey fields", zero)
	}
	return &TypedTable[T]{table: t, info: info}, nil
}

// Table returns the underlying dynamic table reference.
func (tt *TypedTable[T]) Table() *Table { return tt.table }

// staticResolver recovers property kinds from the struct's declared field
// types.
func (tt *TypedTable[T]) staticResolver() entity.PropertyResolver {
	info := tt.info
	return func(_, _, name, _ string) (entity.EdmType, error) {
		if f, ok := info.FieldByName(name); ok {
			return f.Kind, nil
		}
		return entity.EdmUnknown, nil
	}
}

// typedOptions prepends the static-type resolver to the caller's resolver,
// establishing the static-type-first precedence.
func (tt *TypedTable[T]) typedOptions(opts *RequestOptions) *RequestOptions {
	o := tt.table.client.options(opts)
	o.Resolver = entity.ChainResolvers(tt.staticResolver(), o.Resolver)
	return &o
}

// Insert stores a new typed entity, writing the assigned ETag back into v.
func (tt *TypedTable[T]) Insert(ctx context.Context, v *T, opts *RequestOptions) error {
	e, err := tt.Encode(v)
	if err != nil {
		return err
	}
	if err := tt.table.Insert(ctx, e, tt.typedOptions(opts)); err != nil {
		return err
	}
	tt.applySystem(v, e)
	return nil
}

// InsertOrReplace stores the typed entity, replacing an existing one.
func (tt *TypedTable[T]) InsertOrReplace(ctx context.Context, v *T, opts *RequestOptions) error {
	e, err := tt.Encode(v)
	if err != nil {
		return err
	}
	if err := tt.table.InsertOrReplace(ctx, e, tt.typedOptions(opts)); err != nil {
		return err
	}
	tt.applySystem(v, e)
	return nil
}

// InsertOrMerge merges the typed entity's properties into an existing one.
func (tt *TypedTable[T]) InsertOrMerge(ctx context.Context, v *T, opts *RequestOptions) error {
	e, err := tt.Encode(v)
	if err != nil {
		return err
	}
	if err := tt.table.InsertOrMerge(ctx, e, tt.typedOptions(opts)); err != nil {
		return err
	}
	tt.applySystem(v, e)
	return nil
}

// Replace overwrites the stored entity, enforcing the ETag carried by v.
func (tt *TypedTable[T]) Replace(ctx context.Context, v *T, opts *RequestOptions) error {
	e, err := tt.Encode(v)
	if err != nil {
		return err
	}
	if err := tt.table.Replace(ctx, e, tt.typedOptions(opts)); err != nil {
		return err
	}
	tt.applySystem(v, e)
	return nil
}

// Delete removes the stored entity, enforcing the ETag carried by v.
func (tt *TypedTable[T]) Delete(ctx context.Context, v *T, opts *RequestOptions) error {
	e, err := tt.Encode(v)
	if err != nil {
		return err
	}
	return tt.table.Delete(ctx, e, tt.typedOptions(opts))
}

// Retrieve fetches one typed entity by its primary key.
func (tt *TypedTable[T]) Retrieve(ctx context.Context, partitionKey, rowKey string, opts *RequestOptions) (*T, error) {
	e, err := tt.table.Retrieve(ctx, partitionKey, rowKey, tt.typedOptions(opts))
	if err != nil {
		return nil, err
	}
	return tt.Decode(e)
}

// Query returns all typed entities matching params, paging transparently.
func (tt *TypedTable[T]) Query(ctx context.Context, params *storagemodels.QueryParams, opts *RequestOptions) ([]*T, error) {
	it := tt.table.Query(params, tt.typedOptions(opts))
	var out []*T
	for {
		e, err := it.Next(ctx)
		if err == Done {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		v, err := tt.Decode(e)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

// Stream performs a streaming typed query.
func (tt *TypedTable[T]) Stream(ctx context.Context, params *storagemodels.QueryParams, reqOpts *RequestOptions, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[*T] {
	src := tt.table.Stream(ctx, params, tt.typedOptions(reqOpts), opts...)
	out := make(chan storagemodels.StreamResult[*T], cap(src))
	go func() {
		defer close(out)
		for r := range src {
			typed := storagemodels.StreamResult[*T]{Error: r.Error, Meta: r.Meta}
			if r.Error == nil {
				v, err := tt.Decode(r.Item)
				typed.Item, typed.Error = v, err
			}
			select {
			case out <- typed:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Encode maps a typed value to a dynamic entity.
func (tt *TypedTable[T]) Encode(v *T) (*entity.Entity, error) {
	rv := reflect.ValueOf(v).Elem()
	pk := rv.FieldByIndex(tt.info.PartitionKey).String()
	rk := rv.FieldByIndex(tt.info.RowKey).String()
	e, err := entity.New(pk, rk)
	if err != nil {
		return nil, err
	}
	if tt.info.ETag != nil {
		e.ETag = rv.FieldByIndex(tt.info.ETag).String()
	}
	if tt.info.Timestamp != nil {
		if ts, ok := rv.FieldByIndex(tt.info.Timestamp).Interface().(time.Time); ok {
			e.Timestamp = ts
		}
	}
	for _, f := range tt.info.Fields {
		fv := rv.FieldByIndex(f.Index)
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}
		if f.OmitEmpty && fv.IsZero() {
			continue
		}
		p, err := propertyFromValue(f.Kind, fv)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		if err := e.Set(f.Name, p); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Decode maps a dynamic entity to a new typed value. Properties without a
// matching field are ignored; missing properties leave fields zero.
func (tt *TypedTable[T]) Decode(e *entity.Entity) (*T, error) {
	v := new(T)
	rv := reflect.ValueOf(v).Elem()
	rv.FieldByIndex(tt.info.PartitionKey).SetString(e.PartitionKey())
	rv.FieldByIndex(tt.info.RowKey).SetString(e.RowKey())
	if tt.info.ETag != nil {
		rv.FieldByIndex(tt.info.ETag).SetString(e.ETag)
	}
	if tt.info.Timestamp != nil {
		rv.FieldByIndex(tt.info.Timestamp).Set(reflect.ValueOf(e.Timestamp))
	}
	for _, f := range tt.info.Fields {
		p, ok := e.Get(f.Name)
		if !ok {
			continue
		}
		fv := rv.FieldByIndex(f.Index)
		if fv.Kind() == reflect.Ptr {
			fv.Set(reflect.New(fv.Type().Elem()))
			fv = fv.Elem()
		}
		if err := setFieldValue(fv, f.Kind, p); err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
	}
	return v, nil
}

// applySystem writes server-assigned ETag and Timestamp back into the value.
func (tt *TypedTable[T]) applySystem(v *T, e *entity.Entity) {
	rv := reflect.ValueOf(v).Elem()
	if tt.info.ETag != nil {
		rv.FieldByIndex(tt.info.ETag).SetString(e.ETag)
	}
	if tt.info.Timestamp != nil && !e.Timestamp.IsZero() {
		rv.FieldByIndex(tt.info.Timestamp).Set(reflect.ValueOf(e.Timestamp))
	}
}

func propertyFromValue(kind entity.EdmType, fv reflect.Value) (entity.Property, error) {
	switch kind {
	case entity.EdmString:
		return entity.NewString(fv.String()), nil
	case entity.EdmBoolean:
		return entity.NewBoolean(fv.Bool()), nil
	case entity.EdmInt32:
		return entity.NewInt32(int32(fv.Int())), nil
	case entity.EdmInt64:
		return entity.NewInt64(fv.Int()), nil
	case entity.EdmDouble:
		return entity.NewDouble(fv.Float()), nil
	case entity.EdmBinary:
		return entity.NewBinary(fv.Bytes()), nil
	case entity.EdmDateTime:
		ts, ok := fv.Interface().(time.Time)
		if !ok {
			return entity.Property{}, fmt.Errorf("expected time.Time, got %s", fv.Type())
		}
		return entity.NewDateTime(ts), nil
	case entity.EdmGUID:
		id, ok := fv.Interface().(uuid.UUID)
		if !ok {
			return entity.Property{}, fmt.Errorf("expected uuid.UUID, got %s", fv.Type())
		}
		return entity.NewGUID(id), nil
	default:
		return entity.Property{}, fmt.Errorf("unsupported property kind")
	}
}

func setFieldValue(fv reflect.Value, kind entity.EdmType, p entity.Property) error {
	if p.Kind() != kind {
		return fmt.Errorf("property kind %s does not match declared %s", p.Kind(), kind)
	}
	switch kind {
	case entity.EdmString:
		fv.SetString(p.StringValue())
	case entity.EdmBoolean:
		fv.SetBool(p.BooleanValue())
	case entity.EdmInt32:
		fv.SetInt(int64(p.Int32Value()))
	case entity.EdmInt64:
		fv.SetInt(p.Int64Value())
	case entity.EdmDouble:
		fv.SetFloat(p.DoubleValue())
	case entity.EdmBinary:
		fv.SetBytes(p.BinaryValue())
	case entity.EdmDateTime:
		fv.Set(reflect.ValueOf(p.TimeValue()))
	case entity.EdmGUID:
		fv.Set(reflect.ValueOf(p.GUIDValue()))
	default:
		return fmt.Errorf("unsupported property kind")
	}
	return nil
}
