/*
Package registry caches property metadata for typed entity structs and holds
named property resolvers.

GetTypeInfo reflects over a struct once and caches the field-to-property
mapping, including the recognized PartitionKey, RowKey, ETag and Timestamp
system fields. The mapping drives both serialization of typed entities and
static-type-first kind recovery when deserializing NoMetadata payloads.

RegisterResolver associates a PropertyResolver with a table name so query
paths can recover non-native kinds without per-call configuration.
*/
package registry
