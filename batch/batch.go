/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package batch

import (
	"fmt"

	"github.com/suparena/tablestore/entity"
	"github.com/suparena/tablestore/errors"
)

// Fixed service limits for one atomic batch.
const (
	// MaxOperations is the number of operations one batch may carry.
	MaxOperations = 100

	// MaxPayloadBytes is the serialized size limit of one batch request.
	MaxPayloadBytes = 4 * 1024 * 1024

	// operationOverhead estimates the fixed per-operation envelope cost
	// (boundary lines, subrequest line, headers) added to each entity payload.
	operationOverhead = 1024
)

// OperationType identifies one pending entity operation in a batch.
type OperationType int

const (
	Insert OperationType = iota
	InsertOrMerge
	InsertOrReplace
	Merge
	Replace
	Delete
	Retrieve
)

func (t OperationType) String() string {
	switch t {
	case Insert:
		return "insert"
	case InsertOrMerge:
		return "insert-or-merge"
	case InsertOrReplace:
		return "insert-or-replace"
	case Merge:
		return "merge"
	case Replace:
		return "replace"
	case Delete:
		return "delete"
	case Retrieve:
		return "retrieve"
	default:
		return "unknown"
	}
}

// Operation is one pending entity operation.
type Operation struct {
	Type   OperationType
	Entity *entity.Entity
}

// Result is the outcome of one operation after the batch executed. Results
// are ordered to match the input operations.
type Result struct {
	Index      int
	StatusCode int
	ETag       string
	// Entity is populated for retrieve operations and for inserts that
	// echoed content.
	Entity *entity.Entity
}

// Batch is an ordered group of at most MaxOperations pending operations
// sharing one partition key, executed as a single all-or-nothing transaction.
// The partition key of the first added operation fixes the batch's key.
// A batch is consumed exactly once by a single execute call.
type Batch struct {
	partitionKey string
	hasKey       bool
	ops          []Operation
}

// New creates an empty batch.
func New() *Batch {
	return &Batch{}
}

// Insert appends an insert operation.
func (b *Batch) Insert(e *entity.Entity) error {
	return b.add(Operation{Type: Insert, Entity: e})
}

// InsertOrMerge appends an insert-or-merge operation.
func (b *Batch) InsertOrMerge(e *entity.Entity) error {
	return b.add(Operation{Type: InsertOrMerge, Entity: e})
}

// InsertOrReplace appends an insert-or-replace operation.
func (b *Batch) InsertOrReplace(e *entity.Entity) error {
	return b.add(Operation{Type: InsertOrReplace, Entity: e})
}

// Merge appends a merge operation. The entity must carry an ETag
// (entity.ETagAny to bypass the concurrency check).
func (b *Batch) Merge(e *entity.Entity) error {
	if err := requireETag(e); err != nil {
		return err
	}
	return b.add(Operation{Type: Merge, Entity: e})
}

// Replace appends a replace operation. The entity must carry an ETag.
func (b *Batch) Replace(e *entity.Entity) error {
	if err := requireETag(e); err != nil {
		return err
	}
	return b.add(Operation{Type: Replace, Entity: e})
}

// Delete appends a delete operation. The entity must carry an ETag.
func (b *Batch) Delete(e *entity.Entity) error {
	if err := requireETag(e); err != nil {
		return err
	}
	return b.add(Operation{Type: Delete, Entity: e})
}

// Retrieve appends a retrieve operation. A retrieve must be the only
// operation in its batch.
func (b *Batch) Retrieve(partitionKey, rowKey string) error {
	e, err := entity.New(partitionKey, rowKey)
	if err != nil {
		return err
	}
	return b.add(Operation{Type: Retrieve, Entity: e})
}

// Len returns the number of pending operations.
func (b *Batch) Len() int { return len(b.ops) }

// PartitionKey returns the batch's fixed partition key.
func (b *Batch) PartitionKey() string { return b.partitionKey }

// Operations returns the pending operations in insertion order.
func (b *Batch) Operations() []Operation { return b.ops }

func requireETag(e *entity.Entity) error {
	if e.ETag == "" {
		return errors.NewValidationError("ETag",
			"merge, replace and delete require an ETag; use entity.ETagAny to bypass the concurrency check")
	}
	return nil
}

func (b *Batch) add(op Operation) error {
	if len(b.ops) >= MaxOperations {
		return errors.NewValidationError("batch",
			fmt.Sprintf("batch exceeds %d operations", MaxOperations))
	}
	if !b.hasKey {
		b.partitionKey = op.Entity.PartitionKey()
		b.hasKey = true
	} else if op.Entity.PartitionKey() != b.partitionKey {
		return errors.NewValidationError("PartitionKey",
			fmt.Sprintf("operation partition key %q does not match batch partition key %q",
				op.Entity.PartitionKey(), b.partitionKey))
	}
	if op.Type == Retrieve && len(b.ops) > 0 {
		return errors.NewValidationError("batch", "a retrieve must be the only operation in a batch")
	}
	if len(b.ops) > 0 && b.ops[0].Type == Retrieve {
		return errors.NewValidationError("batch", "cannot add operations to a batch containing a retrieve")
	}
	b.ops = append(b.ops, op)
	return nil
}

// Validate enforces the atomic-group invariants that cannot be checked
// incrementally: non-empty group, no duplicate row keys, and the serialized
// payload estimate. Called before dispatch; a violation never reaches the
// network.
func (b *Batch) Validate(format entity.PayloadFormat) error {
	if len(b.ops) == 0 {
		return errors.NewValidationError("batch", "batch contains no operations")
	}

	seen := make(map[string]int, len(b.ops))
	var size int
	for i, op := range b.ops {
		rk := op.Entity.RowKey()
		if prev, dup := seen[rk]; dup {
			return errors.NewValidationError("RowKey",
				fmt.Sprintf("operations %d and %d act on the same entity (PartitionKey=%q, RowKey=%q)",
					prev, i, b.partitionKey, rk))
		}
		seen[rk] = i

		size += operationOverhead
		if op.Type != Retrieve && op.Type != Delete {
			payload, err := entity.Marshal(op.Entity, format)
			if err != nil {
				return err
			}
			size += len(payload)
		}
	}
	if size > MaxPayloadBytes {
		return errors.NewValidationError("batch",
			fmt.Sprintf("estimated batch payload %d bytes exceeds %d", size, MaxPayloadBytes))
	}
	return nil
}
