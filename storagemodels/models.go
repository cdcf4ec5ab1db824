/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

// QueryParams defines parameters for a table query.
// Used for both regular queries and streaming queries.
type QueryParams struct {
	// Filter is an OData-style filter expression built with the query package.
	Filter string
	// SelectColumns optionally projects the result to the named properties.
	SelectColumns []string
	// Top optionally limits the number of entities per result page.
	Top *int32
	// Continuation resumes a query from a previous page boundary.
	Continuation *ContinuationToken
}

// ContinuationToken marks a page boundary in a server-side result set.
// A query issues multiple transport round trips transparently, resuming
// from the last token on each boundary.
type ContinuationToken struct {
	NextPartitionKey string
	NextRowKey       string
}
