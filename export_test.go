/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

// ResolveOptions exposes request-option resolution to the external test
// package.
func (c *ServiceClient) ResolveOptions(opts *RequestOptions) RequestOptions {
	return c.options(opts)
}
