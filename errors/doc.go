/*
Package errors provides semantic error types for TableStore operations.

The package defines sentinel errors for the four error classes a caller has
to distinguish:

	ErrValidation     - local pre-flight failures (bad key characters, oversized
	                    batches, mixed partition keys); never reach the network
	ErrSerialization  - payload encode/decode failures, including resolver
	                    failures
	ErrService        - errors reported by the table service, with status code
	                    and machine-readable error code
	ErrTransport      - network-level failures surfaced to the retry policy

plus convenience sentinels (ErrNotFound, ErrAlreadyExists, ErrConditionFailed,
ErrRetryExhausted) mapped from service error codes.

Typed errors implement Is so they match the sentinels with errors.Is:

	_, err := table.Retrieve(ctx, pk, rk, nil)
	if errors.IsNotFound(err) {
	    // entity does not exist
	}

Serialization errors distinguish a value that cannot be parsed as its declared
type (PropertyParseError) from a resolver delegate that itself failed
(ResolverError); the latter retains the original error as its cause.
*/
package errors
