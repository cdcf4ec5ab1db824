/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/suparena/tablestore"
	"github.com/suparena/tablestore/sas"
)

// authorize verifies a SAS-signed request when the transport holds the
// account key: signature, validity window, table scope and the permission the
// verb requires. Unsigned requests pass through; a mock without a key does
// not verify.
func (t *Transport) authorize(method, path string, q url.Values) *tablestore.Response {
	sig := q.Get("sig")
	if sig == "" || t.key == nil {
		return nil
	}

	tn := q.Get("tn")
	stringToSign := strings.Join([]string{
		q.Get("sp"),
		q.Get("st"),
		q.Get("se"),
		"/table/" + t.account + "/" + strings.ToLower(tn),
		q.Get("si"),
		sas.ServiceVersion,
		q.Get("spk"),
		q.Get("srk"),
		q.Get("epk"),
		q.Get("erk"),
	}, "\n")
	if t.key.Sign(stringToSign) != sig {
		return errorResponse(http.StatusForbidden, "AuthenticationFailed", "signature did not match")
	}

	if se := q.Get("se"); se != "" {
		expiry, err := time.Parse("2006-01-02T15:04:05Z", se)
		if err != nil || time.Now().UTC().After(expiry) {
			return errorResponse(http.StatusForbidden, "AuthenticationFailed", "signature expired")
		}
	}

	// A table SAS never grants table management.
	if path == "Tables" || strings.HasPrefix(path, "Tables('") {
		return errorResponse(http.StatusForbidden, "AuthorizationFailure", "table management requires account credentials")
	}
	if path == "$batch" {
		return nil // subrequests are checked individually
	}

	table := path
	if open := strings.Index(path, "("); open >= 0 {
		table = path[:open]
	}
	if tn != "" && !strings.EqualFold(table, tn) {
		return errorResponse(http.StatusForbidden, "AuthorizationResourceTypeMismatch", "signature was issued for another table")
	}

	perms, err := sas.ParsePermissions(q.Get("sp"))
	if err != nil {
		return errorResponse(http.StatusForbidden, "AuthorizationFailure", err.Error())
	}
	allowed := false
	switch method {
	case http.MethodGet:
		allowed = perms.Query
	case http.MethodPost:
		allowed = perms.Add
	case http.MethodPut, "MERGE":
		allowed = perms.Update
	case http.MethodDelete:
		allowed = perms.Delete
	}
	if !allowed {
		return errorResponse(http.StatusForbidden, "AuthorizationPermissionMismatch", "signature does not grant "+method)
	}
	return nil
}
