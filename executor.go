/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/suparena/tablestore/errors"
	"github.com/suparena/tablestore/retry"
)

// execute drives one logical operation: it builds a request for the current
// target location, hands it to the transport, and consults the retry policy
// on failure. The policy only computes the decision; waiting happens here,
// and cancellation is honored between attempts.
func (c *ServiceClient) execute(ctx context.Context, o RequestOptions, build func(loc retry.StorageLocation) (*Request, error)) (*Response, error) {
	// Fail fast when the mode needs a secondary endpoint the client lacks.
	if o.LocationMode != retry.PrimaryOnly {
		if _, err := c.endpoint(retry.Secondary); err != nil {
			return nil, err
		}
	}

	loc := o.LocationMode.FirstLocation()
	start := o.Now()
	attempt := 0

	for {
		attempt++
		req, err := build(loc)
		if err != nil {
			return nil, err
		}

		resp, rerr := c.transport.RoundTrip(ctx, req)
		var status int
		var attemptErr error
		if rerr != nil {
			attemptErr = errors.NewTransportError(rerr)
		} else if resp.StatusCode < 400 {
			return resp, nil
		} else {
			status = resp.StatusCode
			attemptErr = parseServiceError(resp)
		}

		rc := retry.Context{
			Attempt:    attempt,
			StatusCode: status,
			LastError:  attemptErr,
			Elapsed:    o.Now().Sub(start),
			Budget:     o.MaxExecutionTime,
			Location:   loc,
			Mode:       o.LocationMode,
		}
		info := o.Retry.Evaluate(rc)
		if !info.ShouldRetry {
			if retry.Retryable(status, attemptErr) && attempt > 1 {
				return nil, errors.NewRetryExhaustedError(attempt, attemptErr)
			}
			return nil, attemptErr
		}

		select {
		case <-time.After(info.Delay):
		case <-ctx.Done():
			return nil, errors.NewTransportError(ctx.Err())
		}
		loc = info.Target
	}
}

// odataError is the service's machine-readable error payload.
type odataError struct {
	Err struct {
		Code    string `json:"code"`
		Message struct {
			Value string `json:"value"`
		} `json:"message"`
	} `json:"odata.error"`
}

// parseServiceError maps an error response body to a ServiceError.
func parseServiceError(resp *Response) error {
	var oe odataError
	if err := json.NewDecoder(bytes.NewReader(resp.Body)).Decode(&oe); err == nil && oe.Err.Code != "" {
		return errors.NewServiceError(resp.StatusCode, oe.Err.Code, oe.Err.Message.Value)
	}
	return errors.NewServiceError(resp.StatusCode, http.StatusText(resp.StatusCode), string(resp.Body))
}
