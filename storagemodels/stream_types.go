/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"time"
)

// StreamResult represents a single item in a stream with metadata
type StreamResult[T any] struct {
	Item  T          // The decoded entity
	Error error      // Item-specific error, if any
	Meta  StreamMeta // Metadata about this item
}

// StreamMeta contains metadata about a streamed item
type StreamMeta struct {
	Index      int64     // Item index in stream (0-based)
	PageNumber int       // Result page number (1-based)
	Timestamp  time.Time // When item was retrieved
}

// StreamOptions configures streaming behavior
type StreamOptions struct {
	BufferSize      int                  // Channel buffer size (default: 100)
	PageSize        int32                // Entities per result page (default: 100)
	ProgressHandler func(StreamProgress) // Optional progress callback
	ErrorHandler    func(error) bool     // Return true to continue, false to stop
}

// StreamProgress tracks streaming progress
type StreamProgress struct {
	ItemsProcessed int64
	PagesProcessed int
	Elapsed        time.Duration
}

// StreamOption configures a single streaming knob
type StreamOption func(*StreamOptions)

// DefaultStreamOptions returns the default streaming configuration
func DefaultStreamOptions() StreamOptions {
	return StreamOptions{
		BufferSize: 100,
		PageSize:   100,
	}
}

// WithBufferSize sets the result channel buffer size
func WithBufferSize(n int) StreamOption {
	return func(o *StreamOptions) {
		if n > 0 {
			o.BufferSize = n
		}
	}
}

// WithPageSize sets the number of entities requested per page
func WithPageSize(n int32) StreamOption {
	return func(o *StreamOptions) {
		if n > 0 {
			o.PageSize = n
		}
	}
}

// WithProgressHandler installs a progress callback invoked per page
func WithProgressHandler(fn func(StreamProgress)) StreamOption {
	return func(o *StreamOptions) {
		o.ProgressHandler = fn
	}
}

// WithErrorHandler installs an error callback; returning false stops the stream
func WithErrorHandler(fn func(error) bool) StreamOption {
	return func(o *StreamOptions) {
		o.ErrorHandler = fn
	}
}
