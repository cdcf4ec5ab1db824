/*
Package processor provides the SAS minting tool for TableStore.

The processor reads a YAML policy file describing the table and the access to
grant, signs it with the account key, and prints the resulting shared access
signature query string.

Policy File:

	account: myaccount
	table: Orders
	permissions: ra
	expiry: 2026-12-31T00:00:00Z
	startPartitionKey: dept-7
	endPartitionKey: dept-7

The account key is never part of the policy file. It is read from the
TABLESTORE_ACCOUNT_KEY environment variable; a .env file in the working
directory is loaded first when present.

Output:
The printed token is appended verbatim to table request URLs:

	sp=ra&se=2026-12-31T00%3A00%3A00Z&sig=...&sv=2019-02-02&tn=Orders

This keeps key material out of deployed configuration and lets operators hand
out narrowly scoped, expiring access to individual tables.
*/
package processor
