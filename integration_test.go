//go:build integration
// +build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"github.com/suparena/tablestore"
	"github.com/suparena/tablestore/entity"
	"github.com/suparena/tablestore/errors"
	"github.com/suparena/tablestore/query"
	"github.com/suparena/tablestore/storagemodels"
)

// setupIntegrationTable connects to the service named by the environment
// (TABLESTORE_ENDPOINT, TABLESTORE_ACCOUNT_NAME, TABLESTORE_ACCOUNT_KEY) and
// returns a reference to a test table it creates. Azurite's well-known
// endpoint and credentials work unchanged.
func setupIntegrationTable(t *testing.T) *tablestore.Table {
	_ = godotenv.Load()

	endpoint := os.Getenv("TABLESTORE_ENDPOINT")
	account := os.Getenv("TABLESTORE_ACCOUNT_NAME")
	key := os.Getenv("TABLESTORE_ACCOUNT_KEY")

	if endpoint == "" || account == "" || key == "" {
		t.Skip("TABLESTORE_ENDPOINT not set, skipping integration test")
	}

	client, err := tablestore.NewServiceClient(tablestore.ClientConfig{
		Endpoint:    endpoint,
		AccountName: account,
		AccountKey:  key,
		Transport:   tablestore.NewHTTPTransport(nil),
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	table := client.GetTableReference(fmt.Sprintf("inttest%d", time.Now().Unix()))
	if _, err := table.CreateIfNotExists(context.Background(), nil); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	t.Cleanup(func() {
		_, _ = table.DeleteTableIfExists(context.Background(), nil)
	})
	return table
}

func TestIntegrationBasicOperations(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	table := setupIntegrationTable(t)

	e, err := entity.New("user-1", fmt.Sprintf("row-%d", time.Now().UnixNano()))
	if err != nil {
		t.Fatalf("Failed to build entity: %v", err)
	}
	if err := e.Set("Name", entity.NewString("Test User")); err != nil {
		t.Fatalf("Failed to set property: %v", err)
	}
	if err := e.Set("Score", entity.NewInt64(1<<40)); err != nil {
		t.Fatalf("Failed to set property: %v", err)
	}

	if err := table.Insert(ctx, e, nil); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	got, err := table.Retrieve(ctx, e.PartitionKey(), e.RowKey(), nil)
	if err != nil {
		t.Fatalf("Failed to retrieve: %v", err)
	}
	if !e.Equal(got) {
		t.Errorf("Retrieved entity doesn't match: got %+v, want %+v", got, e)
	}

	if err := got.Set("Name", entity.NewString("Updated")); err != nil {
		t.Fatalf("Failed to set property: %v", err)
	}
	if err := table.Replace(ctx, got, nil); err != nil {
		t.Fatalf("Failed to replace: %v", err)
	}

	// The original ETag is stale now.
	if err := table.Replace(ctx, e, nil); !errors.IsConditionFailed(err) {
		t.Errorf("Expected condition-failed error, got: %v", err)
	}

	got.ETag = entity.ETagAny
	if err := table.Delete(ctx, got, nil); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err := table.Retrieve(ctx, e.PartitionKey(), e.RowKey(), nil); !errors.IsNotFound(err) {
		t.Errorf("Expected not found error, got: %v", err)
	}
}

func TestIntegrationQueryAndStream(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	table := setupIntegrationTable(t)
	pk := fmt.Sprintf("batch-%d", time.Now().Unix())

	for i := 0; i < 10; i++ {
		e, err := entity.New(pk, fmt.Sprintf("row-%03d", i))
		if err != nil {
			t.Fatalf("Failed to build entity: %v", err)
		}
		if err := e.Set("Seq", entity.NewInt32(int32(i))); err != nil {
			t.Fatalf("Failed to set property: %v", err)
		}
		if err := table.Insert(ctx, e, nil); err != nil {
			t.Fatalf("Failed to insert: %v", err)
		}
	}

	f := query.CombineFilters(
		query.GenerateFilterConditionForString("PartitionKey", query.Equal, pk),
		query.And,
		query.GenerateFilterConditionForInt32("Seq", query.GreaterThanOrEqual, 5),
	)
	it := table.Query(&storagemodels.QueryParams{Filter: f}, nil)
	count := 0
	for {
		_, err := it.Next(ctx)
		if err == tablestore.Done {
			break
		}
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		count++
	}
	if count != 5 {
		t.Errorf("Expected 5 entities, got %d", count)
	}

	var progressCalled int
	ch := table.Stream(ctx, nil, nil,
		storagemodels.WithPageSize(3),
		storagemodels.WithProgressHandler(func(p storagemodels.StreamProgress) {
			progressCalled++
			t.Logf("Progress: %d items processed", p.ItemsProcessed)
		}),
	)
	streamed := 0
	for result := range ch {
		if result.Error != nil {
			t.Errorf("Stream error: %v", result.Error)
			continue
		}
		streamed++
	}
	if streamed != 10 {
		t.Errorf("Expected 10 streamed entities, got %d", streamed)
	}
	if progressCalled == 0 {
		t.Error("Progress handler was not called")
	}
}
