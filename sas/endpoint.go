/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sas

import (
	"net"
	"net/url"
	"strings"
)

// localHosts are hostnames recognized as local emulator endpoints, which
// always use path-style addressing.
var localHosts = map[string]bool{
	"localhost": true,
	"azurite":   true,
	"local":     true,
}

// UsePathStyle reports whether an endpoint addresses tables path-style
// (https://host/account/table) rather than virtual-hosted
// (https://account.host/table). The decision is deterministic from the
// endpoint URI alone: raw IPv4 literals and recognized emulator hosts are
// path-style, DNS names are virtual-hosted.
func UsePathStyle(endpoint *url.URL) bool {
	host := endpoint.Hostname()
	if localHosts[strings.ToLower(host)] {
		return true
	}
	if strings.Count(host, ".") == 3 {
		if ip := net.ParseIP(host); ip != nil && ip.To4() != nil {
			return true
		}
	}
	return false
}

// TableURI resolves the base URI of a table under the endpoint, applying the
// path-style decision.
func TableURI(endpoint *url.URL, account, table string) string {
	u := *endpoint
	if UsePathStyle(endpoint) {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/" + account + "/" + table
		return u.String()
	}
	u.Host = account + "." + endpoint.Host
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + table
	return u.String()
}
