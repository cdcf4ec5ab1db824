/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// StorageLocation identifies which endpoint an attempt targets.
type StorageLocation int

const (
	Primary StorageLocation = iota
	Secondary
)

func (l StorageLocation) String() string {
	if l == Secondary {
		return "secondary"
	}
	return "primary"
}

// LocationMode selects which endpoints a logical operation may use.
type LocationMode int

const (
	PrimaryOnly LocationMode = iota
	SecondaryOnly
	PrimaryThenSecondary
	SecondaryThenPrimary
)

// FirstLocation returns the location of the first attempt under the mode.
func (m LocationMode) FirstLocation() StorageLocation {
	if m == SecondaryOnly || m == SecondaryThenPrimary {
		return Secondary
	}
	return Primary
}

// next returns the location of the following attempt.
func (m LocationMode) next(current StorageLocation) StorageLocation {
	switch m {
	case PrimaryOnly:
		return Primary
	case SecondaryOnly:
		return Secondary
	default:
		if current == Primary {
			return Secondary
		}
		return Primary
	}
}

// Context carries the per-operation retry state, mutated once per attempt
// by the caller's attempt loop and discarded when the operation ends.
type Context struct {
	// Attempt counts completed attempts, starting at 1 after the first.
	Attempt int
	// StatusCode is the last response status, or 0 when the transport failed.
	StatusCode int
	// LastError is the last transport or service error.
	LastError error
	// Elapsed is the time spent on the operation so far.
	Elapsed time.Duration
	// Budget is the caller-supplied maximum execution time; 0 means unbounded.
	Budget time.Duration
	// Location is the endpoint the last attempt targeted.
	Location StorageLocation
	// Mode is the operation's location mode.
	Mode LocationMode
}

// Info is a policy decision: whether to retry, where, and after how long.
// The policy only computes; waiting and cancellation belong to the caller.
type Info struct {
	ShouldRetry bool
	Target      StorageLocation
	Delay       time.Duration
}

// Policy decides whether a failed attempt should be retried.
// Implementations are stateless value types safe for concurrent use.
type Policy interface {
	Evaluate(c Context) Info
}

// Retryable classifies an outcome. Transport errors retry unless the context
// was canceled; throttling, timeout and server-side failures retry; other
// service statuses are fatal and surface verbatim.
func Retryable(statusCode int, err error) bool {
	if err != nil && statusCode == 0 {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Exponential retries with exponentially growing, jittered delays.
type Exponential struct {
	MaxAttempts  int
	MinBackoff   time.Duration
	MaxBackoff   time.Duration
	DeltaBackoff time.Duration
}

// NewExponential returns the default exponential policy: 3 retries with a
// 4-second delta bounded to [3s, 120s].
func NewExponential() Exponential {
	return Exponential{
		MaxAttempts:  3,
		MinBackoff:   3 * time.Second,
		MaxBackoff:   120 * time.Second,
		DeltaBackoff: 4 * time.Second,
	}
}

func (p Exponential) Evaluate(c Context) Info {
	target, ok := evaluateCommon(c, p.MaxAttempts)
	if !ok {
		return Info{}
	}
	// delta * 2^(attempt-1), ±20% jitter, clamped to [min, max].
	backoff := float64(p.DeltaBackoff) * math.Pow(2, float64(c.Attempt-1))
	backoff *= 0.8 + 0.4*rand.Float64()
	delay := time.Duration(math.Min(math.Max(backoff, float64(p.MinBackoff)), float64(p.MaxBackoff)))
	if c.Budget > 0 && c.Elapsed+delay > c.Budget {
		return Info{}
	}
	return Info{ShouldRetry: true, Target: target, Delay: delay}
}

// Linear retries with a fixed delay between attempts.
type Linear struct {
	MaxAttempts int
	Backoff     time.Duration
}

// NewLinear returns the default linear policy: 3 retries 30 seconds apart.
func NewLinear() Linear {
	return Linear{MaxAttempts: 3, Backoff: 30 * time.Second}
}

func (p Linear) Evaluate(c Context) Info {
	target, ok := evaluateCommon(c, p.MaxAttempts)
	if !ok {
		return Info{}
	}
	if c.Budget > 0 && c.Elapsed+p.Backoff > c.Budget {
		return Info{}
	}
	return Info{ShouldRetry: true, Target: target, Delay: p.Backoff}
}

// evaluateCommon applies the checks shared by all policies and picks the
// next attempt's target.
func evaluateCommon(c Context, maxAttempts int) (StorageLocation, bool) {
	if c.Attempt >= maxAttempts {
		return Primary, false
	}
	// A 404 from the secondary may be replication lag: retry against the
	// primary when the mode allows it.
	if c.StatusCode == http.StatusNotFound && c.Location == Secondary && c.Mode != SecondaryOnly {
		return Primary, true
	}
	if !Retryable(c.StatusCode, c.LastError) {
		return Primary, false
	}
	return c.Mode.next(c.Location), true
}
