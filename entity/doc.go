/*
Package entity implements the table entity model and its JSON wire codec.

An Entity is a bag of typed properties addressed by a (PartitionKey, RowKey)
primary key. Property values are a tagged union over the eight supported
kinds: String, Binary, Boolean, Int32, Int64, Double, DateTime and GUID.

The codec serializes entities at three metadata verbosity levels
(PayloadFormat). Metadata-carrying formats annotate every property whose kind
cannot be recovered from JSON alone; NoMetadata payloads carry no annotations
and rely on the read side to recover kinds, in this priority order:

 1. the declared type of a statically typed target,
 2. a PropertyResolver supplied by the caller,
 3. JSON-native inference (boolean, 32-bit integer, double, string).

Serialization is deterministic: for a given entity and format the produced
bytes are always identical. String values preserve exact code points with no
normalization.

Key validation and URI escaping also live here: forbidden key characters are
rejected when the entity is constructed, and EscapeKey/UnescapeKey round-trip
any accepted key, including literal percent signs, through a URI path segment.
*/
package entity
