/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/tablestore/entity"
	"github.com/suparena/tablestore/storagemodels"
)

func TestStreamDeliversAllEntities(t *testing.T) {
	table, _ := newTestTable(t)
	seedOrders(t, table, "p1", 5)

	var progress []storagemodels.StreamProgress
	ch := table.Stream(context.Background(), nil, nil,
		storagemodels.WithPageSize(2),
		storagemodels.WithProgressHandler(func(p storagemodels.StreamProgress) {
			progress = append(progress, p)
		}),
	)

	var items []*entity.Entity
	for r := range ch {
		require.NoError(t, r.Error)
		items = append(items, r.Item)
	}
	assert.Len(t, items, 5)

	// Metadata indexes are sequential.
	require.Len(t, progress, 3, "5 rows at page size 2 is 3 pages")
	last := progress[len(progress)-1]
	assert.Equal(t, int64(5), last.ItemsProcessed)
	assert.Equal(t, 3, last.PagesProcessed)
}

func TestStreamMetaIndexes(t *testing.T) {
	table, _ := newTestTable(t)
	seedOrders(t, table, "p1", 4)

	ch := table.Stream(context.Background(), nil, nil, storagemodels.WithPageSize(3))
	var i int64
	for r := range ch {
		require.NoError(t, r.Error)
		assert.Equal(t, i, r.Meta.Index)
		i++
	}
	assert.Equal(t, int64(4), i)
}

func TestStreamErrorHandlerStopsCleanly(t *testing.T) {
	client, _ := newTestClient(t)
	table := client.GetTableReference("Missing") // never created: every page errors

	handled := 0
	ch := table.Stream(context.Background(), nil, nil,
		storagemodels.WithErrorHandler(func(err error) bool {
			handled++
			return true // swallow and stop
		}),
	)
	for range ch {
		t.Fatal("no results expected from a swallowed error")
	}
	assert.Equal(t, 1, handled)
}

func TestStreamErrorSurfacesOnChannel(t *testing.T) {
	client, _ := newTestClient(t)
	table := client.GetTableReference("Missing")

	ch := table.Stream(context.Background(), nil, nil)
	r, ok := <-ch
	require.True(t, ok)
	assert.Error(t, r.Error)

	_, ok = <-ch
	assert.False(t, ok, "the stream closes after a surfaced error")
}

func TestStreamContextCancellation(t *testing.T) {
	table, _ := newTestTable(t)
	seedOrders(t, table, "p1", 50)

	ctx, cancel := context.WithCancel(context.Background())
	ch := table.Stream(ctx, nil, nil, storagemodels.WithPageSize(10), storagemodels.WithBufferSize(1))

	// Take a few results, then cancel; the stream must terminate.
	for i := 0; i < 3; i++ {
		r, ok := <-ch
		require.True(t, ok)
		require.NoError(t, r.Error)
	}
	cancel()
	for range ch {
	}
}
