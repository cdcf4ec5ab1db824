/*
Package sas generates shared access signatures for tables and resolves
endpoint addressing style.

A signature is the HMAC-SHA256 of a canonical string built from the policy's
permission set, validity window, the lower-cased canonical table resource, an
optional stored-policy identifier, the service version and an optional key
range. Fields are newline-separated in fixed order; absent fields are emitted
as empty strings so positions never shift.

Signing requires full account-key credentials. A client holding only a SAS
cannot derive another SAS.

Stored access policies are named, server-side policy slots; a table holds at
most five. Endpoint style selection (path-style for IP literals and emulator
hosts, virtual-hosted for DNS names) is decided once per client from the
endpoint URI alone.
*/
package sas
