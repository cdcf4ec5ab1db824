/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/suparena/tablestore/entity"
	"github.com/suparena/tablestore/retry"
	"github.com/suparena/tablestore/storagemodels"
)

// Done is returned by EntityIterator.Next when no more results are available.
var Done = stderrors.New("tablestore: no more entities")

// continuation header names.
const (
	headerNextPartitionKey = "X-Ms-Continuation-Nextpartitionkey"
	headerNextRowKey       = "X-Ms-Continuation-Nextrowkey"
)

// EntityIterator walks a query result set lazily, consuming server-side
// continuation tokens transparently. Each page boundary issues one transport
// round trip. An iterator is single-use; call Query again to restart.
type EntityIterator struct {
	table    *Table
	opts     RequestOptions
	resolver entity.PropertyResolver
	params   storagemodels.QueryParams

	buf     []*entity.Entity
	idx     int
	fetched bool
	done    bool
	err     error
}

// Query returns an iterator over the entities matching params. The query is
// lazy: nothing is fetched until Next is called.
func (t *Table) Query(params *storagemodels.QueryParams, opts *RequestOptions) *EntityIterator {
	o := t.client.options(opts)
	it := &EntityIterator{
		table:    t,
		opts:     o,
		resolver: t.resolverChain(o),
	}
	if params != nil {
		it.params = *params
	}
	return it
}

// Next returns the next entity, fetching further pages as needed.
// It returns Done when the result set is exhausted.
func (it *EntityIterator) Next(ctx context.Context) (*entity.Entity, error) {
	if it.err != nil {
		return nil, it.err
	}
	for it.idx >= len(it.buf) {
		if it.done {
			return nil, Done
		}
		page, token, err := it.table.querySegment(ctx, &it.params, it.opts, it.resolver)
		if err != nil {
			it.err = err
			return nil, err
		}
		it.fetched = true
		it.buf = page
		it.idx = 0
		if token == nil {
			it.done = true
		}
		it.params.Continuation = token
	}
	e := it.buf[it.idx]
	it.idx++
	return e, nil
}

// QuerySegmented fetches one result page and the continuation token for the
// next one, or a nil token on the last page.
func (t *Table) QuerySegmented(ctx context.Context, params *storagemodels.QueryParams, opts *RequestOptions) ([]*entity.Entity, *storagemodels.ContinuationToken, error) {
	o := t.client.options(opts)
	return t.querySegment(ctx, params, o, t.resolverChain(o))
}

func (t *Table) querySegment(ctx context.Context, params *storagemodels.QueryParams, o RequestOptions, resolver entity.PropertyResolver) ([]*entity.Entity, *storagemodels.ContinuationToken, error) {
	resp, err := t.client.execute(ctx, o, func(loc retry.StorageLocation) (*Request, error) {
		base, err := t.uri(loc)
		if err != nil {
			return nil, err
		}
		u := base + queryString(params)
		return &Request{Method: http.MethodGet, URL: t.client.withSAS(u), Headers: requestHeaders(o, false)}, nil
	})
	if err != nil {
		return nil, nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(resp.Body))
	dec.UseNumber()
	var page struct {
		Value []json.RawMessage `json:"value"`
	}
	if err := dec.Decode(&page); err != nil {
		return nil, nil, fmt.Errorf("failed to parse query response: %w", err)
	}

	entities := make([]*entity.Entity, 0, len(page.Value))
	for _, raw := range page.Value {
		e, err := entity.Unmarshal(raw, o.Format, resolver)
		if err != nil {
			return nil, nil, err
		}
		entities = append(entities, e)
	}

	var token *storagemodels.ContinuationToken
	npk := resp.Header(headerNextPartitionKey)
	nrk := resp.Header(headerNextRowKey)
	if npk != "" || nrk != "" {
		token = &storagemodels.ContinuationToken{NextPartitionKey: npk, NextRowKey: nrk}
	}
	return entities, token, nil
}

// queryString renders the query parameters, escaping filter and projection
// values for the URI query component.
func queryString(params *storagemodels.QueryParams) string {
	if params == nil {
		return ""
	}
	v := url.Values{}
	if params.Filter != "" {
		v.Set("$filter", params.Filter)
	}
	if len(params.SelectColumns) > 0 {
		v.Set("$select", strings.Join(params.SelectColumns, ","))
	}
	if params.Top != nil {
		v.Set("$top", strconv.FormatInt(int64(*params.Top), 10))
	}
	if params.Continuation != nil {
		if params.Continuation.NextPartitionKey != "" {
			v.Set("NextPartitionKey", params.Continuation.NextPartitionKey)
		}
		if params.Continuation.NextRowKey != "" {
			v.Set("NextRowKey", params.Continuation.NextRowKey)
		}
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}
