/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package batch

import (
	"fmt"
	"strings"
	"testing"

	"github.com/suparena/tablestore/entity"
	"github.com/suparena/tablestore/errors"
)

func mustEntity(t *testing.T, pk, rk string) *entity.Entity {
	t.Helper()
	e, err := entity.New(pk, rk)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestBatchPartitionKeyFixedByFirstOperation(t *testing.T) {
	b := New()
	if err := b.Insert(mustEntity(t, "p1", "r1")); err != nil {
		t.Fatal(err)
	}
	if b.PartitionKey() != "p1" {
		t.Errorf("PartitionKey() = %q, want p1", b.PartitionKey())
	}
	err := b.Insert(mustEntity(t, "p2", "r2"))
	if !errors.IsValidation(err) {
		t.Errorf("mixed partition keys should fail validation, got %v", err)
	}
	if b.Len() != 1 {
		t.Errorf("rejected operation must not be added, Len() = %d", b.Len())
	}
}

func TestBatchOperationLimit(t *testing.T) {
	b := New()
	for i := 0; i < MaxOperations; i++ {
		if err := b.Insert(mustEntity(t, "p", fmt.Sprintf("r%03d", i))); err != nil {
			t.Fatalf("operation %d: %v", i, err)
		}
	}
	err := b.Insert(mustEntity(t, "p", "overflow"))
	if !errors.IsValidation(err) {
		t.Errorf("operation %d should exceed the limit, got %v", MaxOperations+1, err)
	}
}

func TestBatchRetrieveMustBeAlone(t *testing.T) {
	b := New()
	if err := b.Retrieve("p", "r1"); err != nil {
		t.Fatal(err)
	}
	if err := b.Insert(mustEntity(t, "p", "r2")); !errors.IsValidation(err) {
		t.Errorf("adding to a retrieve batch should fail, got %v", err)
	}

	b = New()
	if err := b.Insert(mustEntity(t, "p", "r1")); err != nil {
		t.Fatal(err)
	}
	if err := b.Retrieve("p", "r2"); !errors.IsValidation(err) {
		t.Errorf("retrieve after another operation should fail, got %v", err)
	}
}

func TestBatchETagRequirement(t *testing.T) {
	b := New()
	bare := mustEntity(t, "p", "r1")

	if err := b.Merge(bare); !errors.IsValidation(err) {
		t.Errorf("merge without ETag should fail, got %v", err)
	}
	if err := b.Replace(bare); !errors.IsValidation(err) {
		t.Errorf("replace without ETag should fail, got %v", err)
	}
	if err := b.Delete(bare); !errors.IsValidation(err) {
		t.Errorf("delete without ETag should fail, got %v", err)
	}

	bare.ETag = entity.ETagAny
	if err := b.Delete(bare); err != nil {
		t.Errorf("wildcard ETag should satisfy the requirement: %v", err)
	}
}

func TestValidateEmptyBatch(t *testing.T) {
	if err := New().Validate(entity.MinimalMetadata); !errors.IsValidation(err) {
		t.Errorf("empty batch should fail validation, got %v", err)
	}
}

func TestValidateDuplicateRowKeys(t *testing.T) {
	b := New()
	if err := b.Insert(mustEntity(t, "p", "r1")); err != nil {
		t.Fatal(err)
	}
	if err := b.InsertOrReplace(mustEntity(t, "p", "r2")); err != nil {
		t.Fatal(err)
	}
	if err := b.InsertOrMerge(mustEntity(t, "p", "r1")); err != nil {
		t.Fatal(err)
	}

	err := b.Validate(entity.MinimalMetadata)
	if !errors.IsValidation(err) {
		t.Fatalf("duplicate row keys should fail validation, got %v", err)
	}
	// The message names both offending positions.
	msg := err.Error()
	if !strings.Contains(msg, "0") || !strings.Contains(msg, "2") {
		t.Errorf("error should identify operations 0 and 2: %s", msg)
	}
}

func TestValidatePayloadSizeEstimate(t *testing.T) {
	b := New()
	// 70 entities of ~64KB of payload each overshoot the 4 MiB cap.
	chunk := strings.Repeat("x", 63*1024)
	for i := 0; i < 70; i++ {
		e := mustEntity(t, "p", fmt.Sprintf("r%03d", i))
		if err := e.Set("Payload", entity.NewString(chunk)); err != nil {
			t.Fatal(err)
		}
		if err := b.Insert(e); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.Validate(entity.MinimalMetadata); !errors.IsValidation(err) {
		t.Errorf("oversized batch should fail validation, got %v", err)
	}
}

func TestValidateSkipsPayloadForDeleteAndRetrieve(t *testing.T) {
	// Deletes carry no payload, so even a large entity attached to them
	// never contributes to the size estimate.
	b := New()
	chunk := strings.Repeat("x", 63*1024)
	for i := 0; i < MaxOperations; i++ {
		e := mustEntity(t, "p", fmt.Sprintf("r%03d", i))
		if err := e.Set("Payload", entity.NewString(chunk)); err != nil {
			t.Fatal(err)
		}
		e.ETag = entity.ETagAny
		if err := b.Delete(e); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.Validate(entity.MinimalMetadata); err != nil {
		t.Errorf("delete-only batch should pass validation: %v", err)
	}
}

func TestOperationTypeString(t *testing.T) {
	want := map[OperationType]string{
		Insert:          "insert",
		InsertOrMerge:   "insert-or-merge",
		InsertOrReplace: "insert-or-replace",
		Merge:           "merge",
		Replace:         "replace",
		Delete:          "delete",
		Retrieve:        "retrieve",
	}
	for op, s := range want {
		if op.String() != s {
			t.Errorf("%d.String() = %q, want %q", op, op.String(), s)
		}
	}
}
