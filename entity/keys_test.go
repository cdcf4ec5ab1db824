/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entity

import (
	"testing"
)

func TestValidateKey(t *testing.T) {
	valid := []string{
		"",
		" ",
		"simple",
		"with spaces",
		"O'Brien",
		"100%",
		"%2F",          // literal percent-escape text, not a slash
		"日本語キー",
		"ключ",
		"emoji-😀",
		"trailing.",
	}
	for _, key := range valid {
		if err := ValidateKey(key); err != nil {
			t.Errorf("ValidateKey(%q) = %v, want nil", key, err)
		}
	}

	invalid := []string{
		"a/b",
		"a\\b",
		"a#b",
		"a?b",
		"nul\x00",
		"ctrl\x1f",
		"del\x7f",
		"nel\u0085",
		"apc\u009f",
	}
	for _, key := range invalid {
		if err := ValidateKey(key); err == nil {
			t.Errorf("ValidateKey(%q) = nil, want error", key)
		}
	}
}

func TestEscapeKeyRoundTrip(t *testing.T) {
	keys := []string{
		"",
		" ",
		"plain",
		"O'Brien",
		"''",
		"a b c",
		"100%",
		"%2F",
		"comma,paren()",
		"日本語キー",
		"key=value&more",
		"'leading and trailing'",
	}
	for _, key := range keys {
		escaped := EscapeKey(key)
		got, err := UnescapeKey(escaped)
		if err != nil {
			t.Fatalf("UnescapeKey(EscapeKey(%q)) failed: %v", key, err)
		}
		if got != key {
			t.Errorf("round trip of %q: got %q via %q", key, got, escaped)
		}
	}
}

func TestEscapeKeyForms(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"O'Brien", "O''Brien"},
		{"a b", "a%20b"},
		{"100%", "100%25"},
		{"%2F", "%252F"},
	}
	for _, tt := range tests {
		if got := EscapeKey(tt.in); got != tt.want {
			t.Errorf("EscapeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
