/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sas

import (
	"net/url"
	"testing"
)

func mustParse(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestUsePathStyle(t *testing.T) {
	tests := []struct {
		endpoint string
		want     bool
	}{
		{"http://127.0.0.1:10002", true},
		{"http://10.0.0.5", true},
		{"http://localhost:10002", true},
		{"http://azurite:10002", true},
		{"http://LOCALHOST", true},
		{"https://table.example.net", false},
		{"https://core.windows.example", false},
		// Four dot-separated labels that are not an IPv4 literal.
		{"https://a.b.c.example.net", false},
		{"https://256.1.2.3", false},
	}
	for _, tt := range tests {
		if got := UsePathStyle(mustParse(t, tt.endpoint)); got != tt.want {
			t.Errorf("UsePathStyle(%s) = %v, want %v", tt.endpoint, got, tt.want)
		}
	}
}

func TestTableURI(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"http://127.0.0.1:10002", "http://127.0.0.1:10002/devaccount/Orders"},
		{"http://localhost:10002", "http://localhost:10002/devaccount/Orders"},
		{"https://table.example.net", "https://devaccount.table.example.net/Orders"},
	}
	for _, tt := range tests {
		if got := TableURI(mustParse(t, tt.endpoint), "devaccount", "Orders"); got != tt.want {
			t.Errorf("TableURI(%s) = %q, want %q", tt.endpoint, got, tt.want)
		}
	}
}
