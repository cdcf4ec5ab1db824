/*
Package tablestore is a Table-Storage client library: typed and dynamic
entities, OData-JSON payloads at three metadata verbosity levels, atomic
batches, filtered queries with transparent continuation, shared access
signatures, and pluggable retry across primary and secondary endpoints.

The core is pure: it computes payloads, URIs, signatures and retry decisions,
and performs all I/O through the caller-supplied Transport. Configuration is
an immutable RequestOptions value resolved per request, so concurrent
operations with different settings never interfere.

Basic Usage:

	client, _ := tablestore.NewServiceClient(tablestore.ClientConfig{
	    Endpoint:    "https://core.example.net",
	    AccountName: "myaccount",
	    AccountKey:  key,
	    Transport:   tablestore.NewHTTPTransport(nil),
	})
	table := client.GetTableReference("Orders")

	e, _ := entity.New("dept-7", "order-42")
	e.Set("Total", entity.NewDouble(12.50))
	err := table.Insert(ctx, e, nil)

Typed access maps struct fields to properties:

	type Order struct {
	    PartitionKey string
	    RowKey       string
	    Total        float64 `table:"Total"`
	}
	orders, _ := tablestore.NewTypedTable[Order](table)
	got, _ := orders.Retrieve(ctx, "dept-7", "order-42", nil)

For more information, see the package documentation under entity, query,
batch, sas and retry.
*/
package tablestore
