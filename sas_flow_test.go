/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/tablestore"
	"github.com/suparena/tablestore/errors"
	"github.com/suparena/tablestore/mock"
	"github.com/suparena/tablestore/sas"
)

// newSASFixture builds a key-verified mock service with an "Orders" table
// holding one entity, and returns the key-credentialed client.
func newSASFixture(t *testing.T) (*tablestore.ServiceClient, *mock.Transport) {
	t.Helper()
	client, tr := newTestClient(t)
	require.NoError(t, tr.WithAccountKey(testAccountKey))

	table := client.GetTableReference("Orders")
	require.NoError(t, table.Create(context.Background(), nil))
	require.NoError(t, table.Insert(context.Background(), newOrder(t, "p1", "r1"), nil))
	return client, tr
}

// sasClient builds a client that authenticates with the given token against
// the same in-memory service.
func sasClient(t *testing.T, tr *mock.Transport, token string) *tablestore.ServiceClient {
	t.Helper()
	client, err := tablestore.NewServiceClient(tablestore.ClientConfig{
		Endpoint:    testEndpoint,
		AccountName: testAccount,
		SASToken:    token,
		Transport:   tr,
	})
	require.NoError(t, err)
	return client
}

func TestSASReadOnlyToken(t *testing.T) {
	keyClient, tr := newSASFixture(t)
	ctx := context.Background()

	token, err := keyClient.GetTableReference("Orders").GenerateSharedAccessSignature(
		sas.SharedAccessPolicy{
			Permissions: sas.Permissions{Query: true},
			Expiry:      time.Now().Add(time.Hour),
		}, sas.TokenOptions{})
	require.NoError(t, err)

	table := sasClient(t, tr, token).GetTableReference("Orders")

	// The grant covers reads.
	got, err := table.Retrieve(ctx, "p1", "r1", nil)
	require.NoError(t, err)
	assert.Equal(t, "r1", got.RowKey())

	// Writes are outside the grant.
	err = table.Insert(ctx, newOrder(t, "p1", "r2"), nil)
	require.Error(t, err)
	assert.True(t, errors.IsService(err))
	var serr *errors.ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 403, serr.StatusCode)
}

func TestSASWriteToken(t *testing.T) {
	keyClient, tr := newSASFixture(t)
	ctx := context.Background()

	token, err := keyClient.GetTableReference("Orders").GenerateSharedAccessSignature(
		sas.SharedAccessPolicy{
			Permissions: sas.Permissions{Add: true, Update: true, Delete: true},
			Expiry:      time.Now().Add(time.Hour),
		}, sas.TokenOptions{})
	require.NoError(t, err)

	table := sasClient(t, tr, token).GetTableReference("Orders")

	require.NoError(t, table.Insert(ctx, newOrder(t, "p1", "r2"), nil))

	// No Query permission: reads are refused.
	_, err = table.Retrieve(ctx, "p1", "r2", nil)
	require.Error(t, err)
	var serr *errors.ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 403, serr.StatusCode)
}

func TestSASExpiredToken(t *testing.T) {
	keyClient, tr := newSASFixture(t)

	token, err := keyClient.GetTableReference("Orders").GenerateSharedAccessSignature(
		sas.SharedAccessPolicy{
			Permissions: sas.Permissions{Query: true},
			Expiry:      time.Now().Add(-time.Minute),
		}, sas.TokenOptions{})
	require.NoError(t, err)

	table := sasClient(t, tr, token).GetTableReference("Orders")
	_, err = table.Retrieve(context.Background(), "p1", "r1", nil)
	require.Error(t, err)
	var serr *errors.ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 403, serr.StatusCode)
}

func TestSASWrongTableScope(t *testing.T) {
	keyClient, tr := newSASFixture(t)

	// A token signed for another table must not open this one.
	token, err := keyClient.GetTableReference("Other").GenerateSharedAccessSignature(
		sas.SharedAccessPolicy{
			Permissions: sas.Permissions{Query: true},
			Expiry:      time.Now().Add(time.Hour),
		}, sas.TokenOptions{})
	require.NoError(t, err)

	table := sasClient(t, tr, token).GetTableReference("Orders")
	_, err = table.Retrieve(context.Background(), "p1", "r1", nil)
	require.Error(t, err)
	var serr *errors.ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 403, serr.StatusCode)
}

func TestSASCannotManageTables(t *testing.T) {
	keyClient, tr := newSASFixture(t)

	token, err := keyClient.GetTableReference("Orders").GenerateSharedAccessSignature(
		sas.SharedAccessPolicy{
			Permissions: sas.Permissions{Query: true, Add: true, Update: true, Delete: true},
			Expiry:      time.Now().Add(time.Hour),
		}, sas.TokenOptions{})
	require.NoError(t, err)

	client := sasClient(t, tr, token)
	err = client.GetTableReference("Another").Create(context.Background(), nil)
	require.Error(t, err)
	var serr *errors.ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 403, serr.StatusCode)
}

func TestSASClientCannotDeriveSAS(t *testing.T) {
	keyClient, tr := newSASFixture(t)

	token, err := keyClient.GetTableReference("Orders").GenerateSharedAccessSignature(
		sas.SharedAccessPolicy{
			Permissions: sas.Permissions{Query: true},
			Expiry:      time.Now().Add(time.Hour),
		}, sas.TokenOptions{})
	require.NoError(t, err)

	table := sasClient(t, tr, token).GetTableReference("Orders")
	_, err = table.GenerateSharedAccessSignature(sas.SharedAccessPolicy{
		Permissions: sas.Permissions{Query: true},
		Expiry:      time.Now().Add(time.Hour),
	}, sas.TokenOptions{})
	assert.True(t, errors.IsValidation(err))
}

func TestSASStoredPolicyIdentifier(t *testing.T) {
	keyClient, _ := newSASFixture(t)
	table := keyClient.GetTableReference("Orders")

	require.NoError(t, table.SetStoredPolicies(sas.StoredPolicies{
		"readers": {Permissions: sas.Permissions{Query: true}},
	}))

	// A known identifier signs without ad hoc policy fields.
	token, err := table.GenerateSharedAccessSignature(
		sas.SharedAccessPolicy{}, sas.TokenOptions{Identifier: "readers"})
	require.NoError(t, err)
	assert.Contains(t, token, "si=readers")

	// An unknown identifier is rejected locally.
	_, err = table.GenerateSharedAccessSignature(
		sas.SharedAccessPolicy{}, sas.TokenOptions{Identifier: "nobody"})
	assert.True(t, errors.IsValidation(err))
}
