/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sas

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/suparena/tablestore/errors"
)

// ServiceVersion is the storage API version embedded in signed strings and
// request headers.
const ServiceVersion = "2019-02-02"

// timeLayout is the ISO-8601 UTC format used for signed start/expiry times.
const timeLayout = "2006-01-02T15:04:05Z"

// AccountKey is a full account credential able to sign requests and derive
// shared access signatures. The key is held only for the duration of
// computing a signature.
type AccountKey struct {
	accountName string
	key         []byte
}

// NewAccountKey creates an account credential from the base64-encoded key.
func NewAccountKey(accountName, base64Key string) (*AccountKey, error) {
	key, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, errors.NewValidationError("accountKey", fmt.Sprintf("invalid base64 key: %v", err))
	}
	if accountName == "" {
		return nil, errors.NewValidationError("accountName", "account name must not be empty")
	}
	return &AccountKey{accountName: accountName, key: key}, nil
}

// AccountName returns the credential's account name.
func (k *AccountKey) AccountName() string { return k.accountName }

// Sign computes the base64-encoded HMAC-SHA256 of message with the account key.
func (k *AccountKey) Sign(message string) string {
	mac := hmac.New(sha256.New, k.key)
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// SASCredential is a pre-built shared access signature. It cannot be used to
// derive further signatures.
type SASCredential struct {
	Token string
}

// TokenOptions carries the optional fields of a token request.
type TokenOptions struct {
	// Identifier references a stored access policy by name. When set, the
	// policy's fields live server-side and the ad hoc policy fields should
	// be left zero.
	Identifier string

	// Optional key-range restriction.
	StartPartitionKey string
	StartRowKey       string
	EndPartitionKey   string
	EndRowKey         string
}

// GenerateToken builds the signed query string granting constrained access to
// one table. The canonical string-to-sign concatenates its fields in fixed
// order separated by newlines; absent fields are emitted as empty strings so
// field positions stay stable. The canonical resource lower-cases the table
// name regardless of the casing the table reference was obtained with,
// because the signature must match what the service computes.
func GenerateToken(cred *AccountKey, tableName string, policy SharedAccessPolicy, opts TokenOptions) (string, error) {
	if cred == nil {
		return "", errors.NewValidationError("credentials", "account key credentials required to sign a SAS")
	}
	if tableName == "" {
		return "", errors.NewValidationError("tableName", "table name must not be empty")
	}
	if opts.Identifier == "" && policy.Expiry.IsZero() {
		return "", errors.NewValidationError("policy", "an ad hoc policy must carry an expiry time")
	}

	canonicalResource := "/table/" + cred.accountName + "/" + strings.ToLower(tableName)
	stringToSign := strings.Join([]string{
		policy.Permissions.String(),
		formatTime(policy.Start),
		formatTime(policy.Expiry),
		canonicalResource,
		opts.Identifier,
		ServiceVersion,
		opts.StartPartitionKey,
		opts.StartRowKey,
		opts.EndPartitionKey,
		opts.EndRowKey,
	}, "\n")

	sig := cred.Sign(stringToSign)

	v := url.Values{}
	v.Set("sv", ServiceVersion)
	v.Set("tn", tableName)
	v.Set("sig", sig)
	if perm := policy.Permissions.String(); perm != "" {
		v.Set("sp", perm)
	}
	if !policy.Start.IsZero() {
		v.Set("st", formatTime(policy.Start))
	}
	if !policy.Expiry.IsZero() {
		v.Set("se", formatTime(policy.Expiry))
	}
	if opts.Identifier != "" {
		v.Set("si", opts.Identifier)
	}
	if opts.StartPartitionKey != "" {
		v.Set("spk", opts.StartPartitionKey)
	}
	if opts.StartRowKey != "" {
		v.Set("srk", opts.StartRowKey)
	}
	if opts.EndPartitionKey != "" {
		v.Set("epk", opts.EndPartitionKey)
	}
	if opts.EndRowKey != "" {
		v.Set("erk", opts.EndRowKey)
	}
	return v.Encode(), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}
