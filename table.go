/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/suparena/tablestore/entity"
	"github.com/suparena/tablestore/errors"
	"github.com/suparena/tablestore/retry"
	"github.com/suparena/tablestore/sas"
)

// Table is a reference to one table under a service client. References are
// cheap, cached per client, and safe for concurrent use.
type Table struct {
	client *ServiceClient
	name   string

	policyMu sync.RWMutex
	policies sas.StoredPolicies
}

// Name returns the table name with the casing it was obtained with.
func (t *Table) Name() string { return t.name }

// uri returns the table's base URI for a storage location.
func (t *Table) uri(loc retry.StorageLocation) (string, error) {
	ep, err := t.client.endpoint(loc)
	if err != nil {
		return "", err
	}
	return sas.TableURI(ep, t.client.account, t.name), nil
}

// entityURI returns the addressable URI of one entity. Keys are escaped so
// that every accepted key character, including literal percent signs and
// quotes, survives the round trip.
func (t *Table) entityURI(loc retry.StorageLocation, partitionKey, rowKey string) (string, error) {
	base, err := t.uri(loc)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(PartitionKey='%s',RowKey='%s')",
		base, entity.EscapeKey(partitionKey), entity.EscapeKey(rowKey)), nil
}

// tablesURI returns the URI of the Tables management resource.
func (t *Table) tablesURI(loc retry.StorageLocation, suffix string) (string, error) {
	ep, err := t.client.endpoint(loc)
	if err != nil {
		return "", err
	}
	return sas.TableURI(ep, t.client.account, "Tables") + suffix, nil
}

// requestHeaders returns the common headers for one request.
func requestHeaders(o RequestOptions, hasBody bool) map[string]string {
	h := map[string]string{
		"Accept":                o.Format.ContentType(),
		"x-ms-version":          sas.ServiceVersion,
		"DataServiceVersion":    "3.0",
		"MaxDataServiceVersion": "3.0;NetFx",
	}
	if hasBody {
		h["Content-Type"] = "application/json"
	}
	return h
}

// Create creates the table.
func (t *Table) Create(ctx context.Context, opts *RequestOptions) error {
	o := t.client.options(opts)
	body, err := json.Marshal(map[string]string{"TableName": t.name})
	if err != nil {
		return fmt.Errorf("failed to marshal table name: %w", err)
	}
	_, err = t.client.execute(ctx, o, func(loc retry.StorageLocation) (*Request, error) {
		u, err := t.tablesURI(loc, "")
		if err != nil {
			return nil, err
		}
		h := requestHeaders(o, true)
		h["Prefer"] = "return-no-content"
		return &Request{Method: http.MethodPost, URL: t.client.withSAS(u), Headers: h, Body: body}, nil
	})
	return err
}

// CreateIfNotExists creates the table and reports whether it was created.
// An already-existing table is not an error.
func (t *Table) CreateIfNotExists(ctx context.Context, opts *RequestOptions) (bool, error) {
	err := t.Create(ctx, opts)
	if err == nil {
		return true, nil
	}
	if errors.IsAlreadyExists(err) {
		return false, nil
	}
	return false, err
}

// DeleteTable deletes the table.
func (t *Table) DeleteTable(ctx context.Context, opts *RequestOptions) error {
	o := t.client.options(opts)
	_, err := t.client.execute(ctx, o, func(loc retry.StorageLocation) (*Request, error) {
		u, err := t.tablesURI(loc, fmt.Sprintf("('%s')", t.name))
		if err != nil {
			return nil, err
		}
		return &Request{Method: http.MethodDelete, URL: t.client.withSAS(u), Headers: requestHeaders(o, false)}, nil
	})
	return err
}

// DeleteTableIfExists deletes the table and reports whether it existed.
// Deleting an absent table reports false rather than an error, keeping the
// call idempotent.
func (t *Table) DeleteTableIfExists(ctx context.Context, opts *RequestOptions) (bool, error) {
	err := t.DeleteTable(ctx, opts)
	if err == nil {
		return true, nil
	}
	if errors.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// SetStoredPolicies attaches the table's stored access policies for local
// identifier validation when generating tokens.
func (t *Table) SetStoredPolicies(policies sas.StoredPolicies) error {
	if err := policies.Validate(); err != nil {
		return err
	}
	t.policyMu.Lock()
	defer t.policyMu.Unlock()
	t.policies = policies
	return nil
}

// GenerateSharedAccessSignature returns a signed query string granting the
// policy's permissions on this table. It requires account-key credentials;
// a client constructed from a SAS cannot derive another SAS.
func (t *Table) GenerateSharedAccessSignature(policy sas.SharedAccessPolicy, opts sas.TokenOptions) (string, error) {
	if t.client.key == nil {
		return "", errors.NewValidationError("credentials", "cannot derive a SAS from a SAS")
	}
	if opts.Identifier != "" {
		t.policyMu.RLock()
		policies := t.policies
		t.policyMu.RUnlock()
		if policies != nil {
			if _, ok := policies.Get(opts.Identifier); !ok {
				return "", errors.NewValidationError("identifier",
					fmt.Sprintf("no stored access policy named %q", opts.Identifier))
			}
		}
	}
	return sas.GenerateToken(t.client.key, t.name, policy, opts)
}
