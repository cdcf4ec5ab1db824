/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import (
	"context"
	"net/http"

	"github.com/suparena/tablestore/entity"
	"github.com/suparena/tablestore/errors"
	"github.com/suparena/tablestore/registry"
	"github.com/suparena/tablestore/retry"
)

// methodMerge is the non-standard HTTP verb the table service uses for
// partial updates.
const methodMerge = "MERGE"

// Insert stores a new entity. It fails with an already-exists service error
// when the (PartitionKey, RowKey) pair is taken. On success the entity's
// ETag (and, with EchoContent, Timestamp) is updated in place.
func (t *Table) Insert(ctx context.Context, e *entity.Entity, opts *RequestOptions) error {
	o := t.client.options(opts)
	payload, err := entity.Marshal(e, o.Format)
	if err != nil {
		return err
	}
	resp, err := t.client.execute(ctx, o, func(loc retry.StorageLocation) (*Request, error) {
		u, err := t.uri(loc)
		if err != nil {
			return nil, err
		}
		h := requestHeaders(o, true)
		if !o.EchoContent {
			h["Prefer"] = "return-no-content"
		}
		return &Request{Method: http.MethodPost, URL: t.client.withSAS(u), Headers: h, Body: payload}, nil
	})
	if err != nil {
		return err
	}
	return t.applyResponse(e, resp, o)
}

// InsertOrMerge stores the entity's properties, merging into an existing
// entity if one is present. No ETag is required.
func (t *Table) InsertOrMerge(ctx context.Context, e *entity.Entity, opts *RequestOptions) error {
	return t.writeEntity(ctx, e, methodMerge, "", opts)
}

// InsertOrReplace stores the entity, replacing an existing one wholesale.
// No ETag is required.
func (t *Table) InsertOrReplace(ctx context.Context, e *entity.Entity, opts *RequestOptions) error {
	return t.writeEntity(ctx, e, http.MethodPut, "", opts)
}

// Merge updates the entity's properties, leaving unnamed properties in
// place. The entity's ETag enforces optimistic concurrency; entity.ETagAny
// bypasses the check.
func (t *Table) Merge(ctx context.Context, e *entity.Entity, opts *RequestOptions) error {
	if e.ETag == "" {
		return errors.NewValidationError("ETag", "merge requires an ETag; use entity.ETagAny to bypass")
	}
	return t.writeEntity(ctx, e, methodMerge, e.ETag, opts)
}

// Replace overwrites the entity wholesale. The entity's ETag enforces
// optimistic concurrency.
func (t *Table) Replace(ctx context.Context, e *entity.Entity, opts *RequestOptions) error {
	if e.ETag == "" {
		return errors.NewValidationError("ETag", "replace requires an ETag; use entity.ETagAny to bypass")
	}
	return t.writeEntity(ctx, e, http.MethodPut, e.ETag, opts)
}

// Delete removes the entity. The entity's ETag enforces optimistic
// concurrency.
func (t *Table) Delete(ctx context.Context, e *entity.Entity, opts *RequestOptions) error {
	if e.ETag == "" {
		return errors.NewValidationError("ETag", "delete requires an ETag; use entity.ETagAny to bypass")
	}
	o := t.client.options(opts)
	_, err := t.client.execute(ctx, o, func(loc retry.StorageLocation) (*Request, error) {
		u, err := t.entityURI(loc, e.PartitionKey(), e.RowKey())
		if err != nil {
			return nil, err
		}
		h := requestHeaders(o, false)
		h["If-Match"] = e.ETag
		return &Request{Method: http.MethodDelete, URL: t.client.withSAS(u), Headers: h}, nil
	})
	return err
}

// DeleteIfExists removes the entity and reports whether it existed. Deleting
// an absent entity reports false rather than an error; this is the one
// documented case where a not-found outcome is deliberately absorbed.
func (t *Table) DeleteIfExists(ctx context.Context, e *entity.Entity, opts *RequestOptions) (bool, error) {
	if e.ETag == "" {
		e.ETag = entity.ETagAny
	}
	err := t.Delete(ctx, e, opts)
	if err == nil {
		return true, nil
	}
	if errors.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// Retrieve fetches one entity by its primary key. Returns a not-found
// service error when the entity is absent.
func (t *Table) Retrieve(ctx context.Context, partitionKey, rowKey string, opts *RequestOptions) (*entity.Entity, error) {
	o := t.client.options(opts)
	return t.retrieve(ctx, partitionKey, rowKey, o, t.resolverChain(o))
}

func (t *Table) retrieve(ctx context.Context, partitionKey, rowKey string, o RequestOptions, resolver entity.PropertyResolver) (*entity.Entity, error) {
	if err := entity.ValidateKey(partitionKey); err != nil {
		return nil, err
	}
	if err := entity.ValidateKey(rowKey); err != nil {
		return nil, err
	}
	resp, err := t.client.execute(ctx, o, func(loc retry.StorageLocation) (*Request, error) {
		u, err := t.entityURI(loc, partitionKey, rowKey)
		if err != nil {
			return nil, err
		}
		return &Request{Method: http.MethodGet, URL: t.client.withSAS(u), Headers: requestHeaders(o, false)}, nil
	})
	if err != nil {
		return nil, err
	}
	e, err := entity.Unmarshal(resp.Body, o.Format, resolver)
	if err != nil {
		return nil, err
	}
	if etag := resp.Header("ETag"); etag != "" {
		e.ETag = etag
	}
	return e, nil
}

// writeEntity issues a PUT or MERGE against the entity URI, with an If-Match
// header when enforcing concurrency.
func (t *Table) writeEntity(ctx context.Context, e *entity.Entity, method, ifMatch string, opts *RequestOptions) error {
	o := t.client.options(opts)
	payload, err := entity.Marshal(e, o.Format)
	if err != nil {
		return err
	}
	resp, err := t.client.execute(ctx, o, func(loc retry.StorageLocation) (*Request, error) {
		u, err := t.entityURI(loc, e.PartitionKey(), e.RowKey())
		if err != nil {
			return nil, err
		}
		h := requestHeaders(o, true)
		if ifMatch != "" {
			h["If-Match"] = ifMatch
		}
		return &Request{Method: method, URL: t.client.withSAS(u), Headers: h, Body: payload}, nil
	})
	if err != nil {
		return err
	}
	if etag := resp.Header("ETag"); etag != "" {
		e.ETag = etag
	}
	return nil
}

// applyResponse copies the server-assigned ETag, and with echoed content the
// Timestamp, back into the caller's entity.
func (t *Table) applyResponse(e *entity.Entity, resp *Response, o RequestOptions) error {
	if etag := resp.Header("ETag"); etag != "" {
		e.ETag = etag
	}
	if !o.EchoContent || len(resp.Body) == 0 {
		return nil
	}
	echoed, err := entity.Unmarshal(resp.Body, o.Format, t.resolverChain(o))
	if err != nil {
		return err
	}
	e.Timestamp = echoed.Timestamp
	if e.ETag == "" {
		e.ETag = echoed.ETag
	}
	return nil
}

// resolverChain builds the kind-recovery chain for this table: the caller's
// resolver first, then any resolver registered for the table name.
func (t *Table) resolverChain(o RequestOptions) entity.PropertyResolver {
	registered, _ := registry.GetResolver(t.name)
	return entity.ChainResolvers(o.Resolver, registered)
}
