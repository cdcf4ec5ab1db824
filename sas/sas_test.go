/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sas

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testKey is a fixed base64 key used across signature tests.
var testKey = base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))

func testCred(t *testing.T) *AccountKey {
	t.Helper()
	cred, err := NewAccountKey("devaccount", testKey)
	require.NoError(t, err)
	return cred
}

func TestNewAccountKey(t *testing.T) {
	_, err := NewAccountKey("devaccount", "not-base64!!!")
	assert.Error(t, err)
	_, err = NewAccountKey("", testKey)
	assert.Error(t, err)

	cred := testCred(t)
	assert.Equal(t, "devaccount", cred.AccountName())
}

func TestGenerateTokenSignature(t *testing.T) {
	cred := testCred(t)
	policy := SharedAccessPolicy{
		Permissions: Permissions{Query: true, Add: true},
		Start:       time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Expiry:      time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	opts := TokenOptions{
		StartPartitionKey: "dept-7",
		EndPartitionKey:   "dept-7",
	}

	token, err := GenerateToken(cred, "Orders", policy, opts)
	require.NoError(t, err)
	q, err := url.ParseQuery(token)
	require.NoError(t, err)

	assert.Equal(t, ServiceVersion, q.Get("sv"))
	assert.Equal(t, "Orders", q.Get("tn"))
	assert.Equal(t, "ra", q.Get("sp"))
	assert.Equal(t, "2025-06-01T00:00:00Z", q.Get("st"))
	assert.Equal(t, "2026-06-01T00:00:00Z", q.Get("se"))
	assert.Equal(t, "dept-7", q.Get("spk"))
	assert.Equal(t, "dept-7", q.Get("epk"))
	assert.Empty(t, q.Get("srk"))
	assert.Empty(t, q.Get("si"))

	// Recompute the signature independently. Absent fields hold their
	// positions as empty strings.
	stringToSign := strings.Join([]string{
		"ra",
		"2025-06-01T00:00:00Z",
		"2026-06-01T00:00:00Z",
		"/table/devaccount/orders",
		"", // identifier
		ServiceVersion,
		"dept-7",
		"", // start row key
		"dept-7",
		"", // end row key
	}, "\n")
	mac := hmac.New(sha256.New, []byte("0123456789abcdef0123456789abcdef"))
	mac.Write([]byte(stringToSign))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	assert.Equal(t, want, q.Get("sig"))
}

func TestGenerateTokenLowercasesCanonicalResource(t *testing.T) {
	cred := testCred(t)
	policy := SharedAccessPolicy{
		Permissions: Permissions{Query: true},
		Expiry:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	// The canonical resource lower-cases the table name, so mixed-case
	// references to the same table sign identically; the tn parameter keeps
	// the caller's casing.
	upper, err := GenerateToken(cred, "CAPStable123", policy, TokenOptions{})
	require.NoError(t, err)
	lower, err := GenerateToken(cred, "capstable123", policy, TokenOptions{})
	require.NoError(t, err)

	qu, _ := url.ParseQuery(upper)
	ql, _ := url.ParseQuery(lower)
	assert.Equal(t, qu.Get("sig"), ql.Get("sig"))
	assert.Equal(t, "CAPStable123", qu.Get("tn"))
	assert.Equal(t, "capstable123", ql.Get("tn"))
}

func TestGenerateTokenAdHocRequiresExpiry(t *testing.T) {
	cred := testCred(t)
	_, err := GenerateToken(cred, "Orders", SharedAccessPolicy{
		Permissions: Permissions{Query: true},
	}, TokenOptions{})
	assert.Error(t, err, "an ad hoc policy without expiry must be rejected")

	// With a stored-policy identifier the times live server-side.
	token, err := GenerateToken(cred, "Orders", SharedAccessPolicy{}, TokenOptions{Identifier: "readers"})
	require.NoError(t, err)
	q, _ := url.ParseQuery(token)
	assert.Equal(t, "readers", q.Get("si"))
	assert.Empty(t, q.Get("se"))
}

func TestGenerateTokenNilCredentials(t *testing.T) {
	_, err := GenerateToken(nil, "Orders", SharedAccessPolicy{
		Permissions: Permissions{Query: true},
		Expiry:      time.Now().Add(time.Hour),
	}, TokenOptions{})
	assert.Error(t, err)
}

func TestPermissionsString(t *testing.T) {
	tests := []struct {
		p    Permissions
		want string
	}{
		{Permissions{}, ""},
		{Permissions{Query: true}, "r"},
		{Permissions{Query: true, Add: true, Update: true, Delete: true}, "raud"},
		{Permissions{Delete: true, Query: true}, "rd"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.p.String())
	}

	parsed, err := ParsePermissions("raud")
	require.NoError(t, err)
	assert.Equal(t, Permissions{Query: true, Add: true, Update: true, Delete: true}, parsed)

	_, err = ParsePermissions("rx")
	assert.Error(t, err)
}

func TestStoredPoliciesLimit(t *testing.T) {
	policies := StoredPolicies{}
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		policies[name] = SharedAccessPolicy{Permissions: Permissions{Query: true}}
	}
	assert.NoError(t, policies.Validate())

	policies["f"] = SharedAccessPolicy{}
	assert.Error(t, policies.Validate(), "a sixth stored policy exceeds the limit")
}
