/*
Package storagemodels defines the data structures used throughout TableStore.

Key Types:

QueryParams:
Parameters for querying a table:

	params := &storagemodels.QueryParams{
	    Filter:        query.GenerateFilterConditionForString("PartitionKey", query.Equal, "dept-7"),
	    SelectColumns: []string{"Name", "Size"},
	    Top:           &top,
	}

StreamResult:
Results from streaming operations with metadata:

	type StreamResult[T any] struct {
	    Item  T          // The decoded entity
	    Error error      // Item-specific error, if any
	    Meta  StreamMeta // Metadata about this item
	}

StreamOptions:
Configuration for streaming behavior:

	opts := []StreamOption{
	    WithBufferSize(100),
	    WithPageSize(25),
	    WithProgressHandler(progressFunc),
	}

These types provide a consistent interface across typed and dynamic queries.
*/
package storagemodels
