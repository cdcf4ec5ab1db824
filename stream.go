/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import (
	"context"
	"time"

	"github.com/suparena/tablestore/entity"
	"github.com/suparena/tablestore/storagemodels"
)

// Stream performs a streaming query with configurable options, paging
// through continuation tokens in the background and delivering entities on
// the returned channel. The channel closes when the result set is exhausted,
// the context is canceled, or the error handler stops the stream.
func (t *Table) Stream(ctx context.Context, params *storagemodels.QueryParams, reqOpts *RequestOptions, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[*entity.Entity] {
	options := storagemodels.DefaultStreamOptions()
	for _, opt := range opts {
		opt(&options)
	}

	resultCh := make(chan storagemodels.StreamResult[*entity.Entity], options.BufferSize)
	go t.streamWorker(ctx, params, reqOpts, options, resultCh)
	return resultCh
}

// streamWorker handles the actual paging loop.
func (t *Table) streamWorker(
	ctx context.Context,
	params *storagemodels.QueryParams,
	reqOpts *RequestOptions,
	options storagemodels.StreamOptions,
	resultCh chan<- storagemodels.StreamResult[*entity.Entity],
) {
	defer close(resultCh)

	var q storagemodels.QueryParams
	if params != nil {
		q = *params
	}
	pageSize := options.PageSize
	q.Top = &pageSize

	var itemIndex int64
	pageNumber := 0
	startTime := time.Now()

	reportProgress := func() {
		if options.ProgressHandler != nil {
			options.ProgressHandler(storagemodels.StreamProgress{
				ItemsProcessed: itemIndex,
				PagesProcessed: pageNumber,
				Elapsed:        time.Since(startTime),
			})
		}
	}

	for {
		entities, token, err := t.QuerySegmented(ctx, &q, reqOpts)
		if err != nil {
			if options.ErrorHandler != nil && options.ErrorHandler(err) {
				// Caller chose to swallow the page error and stop cleanly.
				return
			}
			select {
			case resultCh <- storagemodels.StreamResult[*entity.Entity]{Error: err}:
			case <-ctx.Done():
			}
			return
		}
		pageNumber++

		for _, e := range entities {
			result := storagemodels.StreamResult[*entity.Entity]{
				Item: e,
				Meta: storagemodels.StreamMeta{
					Index:      itemIndex,
					PageNumber: pageNumber,
					Timestamp:  time.Now(),
				},
			}
			select {
			case resultCh <- result:
				itemIndex++
			case <-ctx.Done():
				return
			}
		}
		reportProgress()

		if token == nil {
			return
		}
		q.Continuation = token
	}
}
