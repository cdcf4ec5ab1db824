/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entity

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/suparena/tablestore/errors"
)

// Key character rules: partition and row keys may contain arbitrary Unicode
// except the characters below, which the service rejects. Enforced at entity
// construction time rather than at request time. The empty string is a valid
// key, distinct from an absent key.

// ValidateKey reports whether s is usable as a partition or row key.
func ValidateKey(s string) error {
	for _, r := range s {
		switch {
		case r == '/', r == '\\', r == '#', r == '?':
			return errors.NewValidationError("key", fmt.Sprintf("key contains forbidden character %q", r))
		case r <= 0x1F, r >= 0x7F && r <= 0x9F:
			return errors.NewValidationError("key", fmt.Sprintf("key contains control character U+%04X", r))
		}
	}
	return nil
}

// EscapeKey encodes a key for embedding in the quoted key literal of a URI
// path segment. Single quotes are doubled per the literal syntax, then the
// result is percent-encoded so a literal percent sign survives a full round
// trip without double-decoding.
func EscapeKey(s string) string {
	return url.PathEscape(strings.ReplaceAll(s, "'", "''"))
}

// UnescapeKey reverses EscapeKey.
func UnescapeKey(s string) (string, error) {
	u, err := url.PathUnescape(s)
	if err != nil {
		return "", errors.NewValidationError("key", fmt.Sprintf("malformed key escape: %v", err))
	}
	return strings.ReplaceAll(u, "''", "'"), nil
}
