/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore_test

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/tablestore"
	"github.com/suparena/tablestore/entity"
	"github.com/suparena/tablestore/mock"
	"github.com/suparena/tablestore/retry"
)

const (
	testAccount  = "devaccount"
	testEndpoint = "https://table.example.net"
)

var testAccountKey = base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))

// newTestClient builds a client wired to a fresh in-memory service.
func newTestClient(t *testing.T) (*tablestore.ServiceClient, *mock.Transport) {
	t.Helper()
	tr := mock.NewTransport(testAccount)
	client, err := tablestore.NewServiceClient(tablestore.ClientConfig{
		Endpoint:    testEndpoint,
		AccountName: testAccount,
		AccountKey:  testAccountKey,
		Transport:   tr,
	})
	require.NoError(t, err)
	return client, tr
}

// newTestTable builds a client and a created table ready for entity
// operations.
func newTestTable(t *testing.T) (*tablestore.Table, *mock.Transport) {
	t.Helper()
	client, tr := newTestClient(t)
	table := client.GetTableReference("Orders")
	require.NoError(t, table.Create(context.Background(), nil))
	return table, tr
}

func TestNewServiceClientValidation(t *testing.T) {
	tr := mock.NewTransport(testAccount)
	valid := tablestore.ClientConfig{
		Endpoint:    testEndpoint,
		AccountName: testAccount,
		AccountKey:  testAccountKey,
		Transport:   tr,
	}

	tests := []struct {
		name   string
		mutate func(*tablestore.ClientConfig)
	}{
		{"missing transport", func(c *tablestore.ClientConfig) { c.Transport = nil }},
		{"missing account", func(c *tablestore.ClientConfig) { c.AccountName = "" }},
		{"no credentials", func(c *tablestore.ClientConfig) { c.AccountKey = "" }},
		{"both credentials", func(c *tablestore.ClientConfig) { c.SASToken = "sig=x" }},
		{"bad endpoint", func(c *tablestore.ClientConfig) { c.Endpoint = "not a url" }},
		{"bad key", func(c *tablestore.ClientConfig) { c.AccountKey = "!!!" }},
		{"bad secondary", func(c *tablestore.ClientConfig) { c.SecondaryEndpoint = "::" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			_, err := tablestore.NewServiceClient(cfg)
			assert.Error(t, err)
		})
	}

	client, err := tablestore.NewServiceClient(valid)
	require.NoError(t, err)
	assert.Equal(t, testAccount, client.AccountName())
	assert.False(t, client.UsePathStyle())
}

func TestGetTableReferenceCaching(t *testing.T) {
	client, _ := newTestClient(t)
	a := client.GetTableReference("Orders")
	b := client.GetTableReference("Orders")
	assert.Same(t, a, b, "one reference per table name per client")

	c := client.GetTableReference("orders")
	assert.NotSame(t, a, c, "table names are case-preserving")
	assert.Equal(t, "orders", c.Name())
}

func TestOptionsResolution(t *testing.T) {
	client, _ := newTestClient(t)

	// Nil options mean the client defaults.
	o := client.ResolveOptions(nil)
	assert.Equal(t, entity.MinimalMetadata, o.Format)
	assert.NotNil(t, o.Retry)
	assert.NotNil(t, o.Now)

	// Caller options apply as given: the zero Format is NoMetadata, and only
	// nil function fields are filled in.
	o = client.ResolveOptions(&tablestore.RequestOptions{})
	assert.Equal(t, entity.NoMetadata, o.Format)
	assert.NotNil(t, o.Retry)
	assert.NotNil(t, o.Now)
}

func TestSecondaryModeWithoutSecondaryEndpoint(t *testing.T) {
	table, tr := newTestTable(t)
	before := tr.Requests

	_, err := table.Retrieve(context.Background(), "pk", "rk", &tablestore.RequestOptions{
		LocationMode: retry.PrimaryThenSecondary,
	})
	require.Error(t, err)
	assert.Equal(t, before, tr.Requests, "the validation error must fail fast, before any round trip")
}
