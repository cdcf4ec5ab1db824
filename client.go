/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/suparena/tablestore/entity"
	"github.com/suparena/tablestore/errors"
	"github.com/suparena/tablestore/retry"
	"github.com/suparena/tablestore/sas"
)

// RequestOptions is the request-scoped configuration threaded through every
// operation. Options are immutable once a request starts; concurrent
// operations with different options never interfere.
//
// When a caller supplies options, they apply as given: the zero Format is
// NoMetadata. A nil *RequestOptions means the client defaults.
type RequestOptions struct {
	// Format is the payload verbosity level for this request.
	Format entity.PayloadFormat

	// Resolver recovers property kinds from NoMetadata payloads.
	Resolver entity.PropertyResolver

	// Retry decides whether and where failed attempts are retried.
	Retry retry.Policy

	// LocationMode selects the endpoints this operation may target.
	LocationMode retry.LocationMode

	// MaxExecutionTime bounds the whole operation across retries; 0 means
	// unbounded.
	MaxExecutionTime time.Duration

	// EchoContent asks the service to return the stored entity on insert.
	EchoContent bool

	// Now supplies wall-clock time for retry budgeting. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns the default request configuration:
// MinimalMetadata payloads, exponential retries against the primary only.
func DefaultOptions() RequestOptions {
	return RequestOptions{
		Format:       entity.MinimalMetadata,
		Retry:        retry.NewExponential(),
		LocationMode: retry.PrimaryOnly,
		Now:          time.Now,
	}
}

// ClientConfig describes how to construct a ServiceClient. Exactly one of
// AccountKey or SASToken must be set.
type ClientConfig struct {
	// Endpoint is the primary table service endpoint, e.g.
	// "https://core.example.net" or "http://127.0.0.1:10002".
	Endpoint string

	// SecondaryEndpoint optionally enables secondary-location reads.
	SecondaryEndpoint string

	// AccountName is the storage account name.
	AccountName string

	// AccountKey is the base64-encoded account key.
	AccountKey string

	// SASToken is a pre-built shared access signature query string.
	SASToken string

	// Transport issues the HTTP requests. Required.
	Transport Transport

	// Defaults overrides the client-wide request defaults.
	Defaults *RequestOptions
}

// ServiceClient is the entry point to a table service account. It hands out
// Table references and carries the immutable client-wide configuration.
type ServiceClient struct {
	primary   *url.URL
	secondary *url.URL
	account   string
	key       *sas.AccountKey
	sasToken  string
	transport Transport
	defaults  RequestOptions

	mu     sync.RWMutex
	tables map[string]*Table
}

// NewServiceClient constructs a client from the given configuration.
func NewServiceClient(cfg ClientConfig) (*ServiceClient, error) {
	if cfg.Transport == nil {
		return nil, errors.NewValidationError("transport", "a transport is required")
	}
	if cfg.AccountName == "" {
		return nil, errors.NewValidationError("accountName", "account name must not be empty")
	}
	if (cfg.AccountKey == "") == (cfg.SASToken == "") {
		return nil, errors.NewValidationError("credentials",
			"exactly one of AccountKey or SASToken must be set")
	}

	primary, err := url.Parse(cfg.Endpoint)
	if err != nil || primary.Scheme == "" || primary.Host == "" {
		return nil, errors.NewValidationError("endpoint", fmt.Sprintf("invalid endpoint %q", cfg.Endpoint))
	}

	c := &ServiceClient{
		primary:   primary,
		account:   cfg.AccountName,
		sasToken:  cfg.SASToken,
		transport: cfg.Transport,
		defaults:  DefaultOptions(),
		tables:    make(map[string]*Table),
	}
	if cfg.SecondaryEndpoint != "" {
		secondary, err := url.Parse(cfg.SecondaryEndpoint)
		if err != nil || secondary.Scheme == "" || secondary.Host == "" {
			return nil, errors.NewValidationError("secondaryEndpoint",
				fmt.Sprintf("invalid endpoint %q", cfg.SecondaryEndpoint))
		}
		c.secondary = secondary
	}
	if cfg.AccountKey != "" {
		key, err := sas.NewAccountKey(cfg.AccountName, cfg.AccountKey)
		if err != nil {
			return nil, err
		}
		c.key = key
	}
	if cfg.Defaults != nil {
		c.defaults = *cfg.Defaults
		if c.defaults.Retry == nil {
			c.defaults.Retry = retry.NewExponential()
		}
		if c.defaults.Now == nil {
			c.defaults.Now = time.Now
		}
	}
	return c, nil
}

// AccountName returns the configured account name.
func (c *ServiceClient) AccountName() string { return c.account }

// UsePathStyle reports whether the client addresses tables path-style.
func (c *ServiceClient) UsePathStyle() bool { return sas.UsePathStyle(c.primary) }

// GetTableReference returns the Table for a name, reusing one reference per
// table per client.
func (c *ServiceClient) GetTableReference(name string) *Table {
	c.mu.RLock()
	t, ok := c.tables[name]
	c.mu.RUnlock()
	if ok {
		return t
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.tables[name]; ok {
		return t
	}
	t = &Table{client: c, name: name}
	c.tables[name] = t
	return t
}

// options resolves the effective request configuration: the client defaults
// when opts is nil, otherwise the caller's options with nil function fields
// filled in.
func (c *ServiceClient) options(opts *RequestOptions) RequestOptions {
	if opts == nil {
		return c.defaults
	}
	o := *opts
	if o.Retry == nil {
		o.Retry = c.defaults.Retry
	}
	if o.Now == nil {
		o.Now = c.defaults.Now
	}
	return o
}

// endpoint returns the endpoint URL for a storage location.
func (c *ServiceClient) endpoint(loc retry.StorageLocation) (*url.URL, error) {
	if loc == retry.Secondary {
		if c.secondary == nil {
			return nil, errors.NewValidationError("locationMode",
				"secondary location requested but no secondary endpoint is configured")
		}
		return c.secondary, nil
	}
	return c.primary, nil
}

// withSAS appends the client's SAS token, if any, to a request URL.
func (c *ServiceClient) withSAS(u string) string {
	if c.sasToken == "" {
		return u
	}
	sep := "?"
	if containsQuery(u) {
		sep = "&"
	}
	return u + sep + c.sasToken
}

func containsQuery(u string) bool {
	for i := 0; i < len(u); i++ {
		if u[i] == '?' {
			return true
		}
	}
	return false
}
