/*
Package query builds OData-style filter expressions for table queries.

Filters are immutable strings built from comparison predicates and combined
with and/or/not. Every sub-expression is parenthesized independently, and all
escaping happens at construction time:

	f := query.CombineFilters(
	    query.GenerateFilterConditionForString("PartitionKey", query.Equal, "dept'42"),
	    query.And,
	    query.GenerateFilterConditionForInt64("Size", query.GreaterThan, 1<<32),
	)
	// ((PartitionKey eq 'dept''42') and (Size gt 4294967296L))
*/
package query
