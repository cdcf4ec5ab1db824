/*
Package batch groups pending entity operations into an atomic table
transaction.

A Batch holds up to 100 operations sharing one partition key. The group
executes all-or-nothing on the service; results come back in input order,
and a failure identifies the offending operation's index when the service
reports it.

Invariants are enforced locally before dispatch: operation count, single
partition key, a retrieve standing alone, no duplicate (PartitionKey, RowKey)
pairs, and a 4 MiB serialized payload estimate. Violations surface as
validation errors without any network call.
*/
package batch
