/*
Package mock provides an in-memory Transport implementing the table service's
wire behavior: entity CRUD with optimistic concurrency, filtered queries with
server-side paging, atomic batch transactions and SAS verification.

It is the test double the client packages are exercised against:

	tr := mock.NewTransport("devaccount")
	client, _ := tablestore.NewServiceClient(tablestore.ClientConfig{
	    Endpoint:    "https://table.example.net",
	    AccountName: "devaccount",
	    AccountKey:  key,
	    Transport:   tr,
	})

Requests and responses travel as real OData-JSON payloads through real URIs,
so escaping, annotations and continuation headers are covered end to end.
*/
package mock
