/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/suparena/tablestore/batch"
	"github.com/suparena/tablestore/entity"
	"github.com/suparena/tablestore/errors"
	"github.com/suparena/tablestore/retry"
	"github.com/suparena/tablestore/sas"
)

const crlf = "\r\n"

// ExecuteBatch dispatches a validated batch as one atomic transaction. The
// returned results are ordered to match the batch's operations. On failure
// the error carries the failing operation's index when the service reports
// it, and no operation is applied.
func (t *Table) ExecuteBatch(ctx context.Context, b *batch.Batch, opts *RequestOptions) ([]batch.Result, error) {
	o := t.client.options(opts)
	if err := b.Validate(o.Format); err != nil {
		return nil, err
	}

	batchBoundary := "batch_" + uuid.NewString()
	changesetBoundary := "changeset_" + uuid.NewString()

	resp, err := t.client.execute(ctx, o, func(loc retry.StorageLocation) (*Request, error) {
		body, err := t.buildBatchBody(loc, b, o, batchBoundary, changesetBoundary)
		if err != nil {
			return nil, err
		}
		ep, err := t.client.endpoint(loc)
		if err != nil {
			return nil, err
		}
		u := sas.TableURI(ep, t.client.account, "$batch")
		h := map[string]string{
			"Content-Type":       "multipart/mixed; boundary=" + batchBoundary,
			"Accept":             o.Format.ContentType(),
			"x-ms-version":       sas.ServiceVersion,
			"DataServiceVersion": "3.0",
		}
		return &Request{Method: http.MethodPost, URL: t.client.withSAS(u), Headers: h, Body: body}, nil
	})
	if err != nil {
		return nil, err
	}
	return t.parseBatchResponse(resp.Body, b, o)
}

// buildBatchBody serializes the batch into a multipart/mixed payload.
// Write operations travel inside a nested changeset; a lone retrieve goes
// directly under the batch boundary.
func (t *Table) buildBatchBody(loc retry.StorageLocation, b *batch.Batch, o RequestOptions, batchBoundary, changesetBoundary string) ([]byte, error) {
	var buf bytes.Buffer
	ops := b.Operations()
	isRetrieve := ops[0].Type == batch.Retrieve

	if isRetrieve {
		buf.WriteString("--" + batchBoundary + crlf)
		if err := t.writeSubrequest(&buf, loc, ops[0], 1, o); err != nil {
			return nil, err
		}
	} else {
		buf.WriteString("--" + batchBoundary + crlf)
		buf.WriteString("Content-Type: multipart/mixed; boundary=" + changesetBoundary + crlf + crlf)
		for i, op := range ops {
			buf.WriteString("--" + changesetBoundary + crlf)
			if err := t.writeSubrequest(&buf, loc, op, i+1, o); err != nil {
				return nil, err
			}
		}
		buf.WriteString("--" + changesetBoundary + "--" + crlf)
	}
	buf.WriteString("--" + batchBoundary + "--" + crlf)
	return buf.Bytes(), nil
}

// writeSubrequest emits one application/http part.
func (t *Table) writeSubrequest(buf *bytes.Buffer, loc retry.StorageLocation, op batch.Operation, contentID int, o RequestOptions) error {
	method, uri, ifMatch, hasBody, err := t.subrequestLine(loc, op)
	if err != nil {
		return err
	}

	buf.WriteString("Content-Type: application/http" + crlf)
	buf.WriteString("Content-Transfer-Encoding: binary" + crlf + crlf)
	buf.WriteString(method + " " + t.client.withSAS(uri) + " HTTP/1.1" + crlf)
	buf.WriteString("Content-ID: " + strconv.Itoa(contentID) + crlf)
	buf.WriteString("Accept: " + o.Format.ContentType() + crlf)
	if ifMatch != "" {
		buf.WriteString("If-Match: " + ifMatch + crlf)
	}
	if !hasBody {
		buf.WriteString(crlf)
		return nil
	}

	payload, err := entity.Marshal(op.Entity, o.Format)
	if err != nil {
		return err
	}
	buf.WriteString("Content-Type: application/json" + crlf)
	buf.WriteString("Content-Length: " + strconv.Itoa(len(payload)) + crlf)
	if op.Type == batch.Insert && !o.EchoContent {
		buf.WriteString("Prefer: return-no-content" + crlf)
	}
	buf.WriteString(crlf)
	buf.Write(payload)
	buf.WriteString(crlf)
	return nil
}

// subrequestLine maps an operation to its HTTP verb, target URI and
// concurrency header.
func (t *Table) subrequestLine(loc retry.StorageLocation, op batch.Operation) (method, uri, ifMatch string, hasBody bool, err error) {
	e := op.Entity
	switch op.Type {
	case batch.Insert:
		uri, err = t.uri(loc)
		return http.MethodPost, uri, "", true, err
	case batch.InsertOrMerge:
		uri, err = t.entityURI(loc, e.PartitionKey(), e.RowKey())
		return methodMerge, uri, "", true, err
	case batch.InsertOrReplace:
		uri, err = t.entityURI(loc, e.PartitionKey(), e.RowKey())
		return http.MethodPut, uri, "", true, err
	case batch.Merge:
		uri, err = t.entityURI(loc, e.PartitionKey(), e.RowKey())
		return methodMerge, uri, e.ETag, true, err
	case batch.Replace:
		uri, err = t.entityURI(loc, e.PartitionKey(), e.RowKey())
		return http.MethodPut, uri, e.ETag, true, err
	case batch.Delete:
		uri, err = t.entityURI(loc, e.PartitionKey(), e.RowKey())
		return http.MethodDelete, uri, e.ETag, false, err
	case batch.Retrieve:
		uri, err = t.entityURI(loc, e.PartitionKey(), e.RowKey())
		return http.MethodGet, uri, "", false, err
	default:
		return "", "", "", false, errors.NewValidationError("batch", fmt.Sprintf("unknown operation type %d", op.Type))
	}
}

// batchPart is one parsed application/http response part.
type batchPart struct {
	status  int
	headers map[string]string
	body    []byte
}

// parseBatchResponse splits the multipart response into per-operation
// results. A failed batch carries a single error part whose message names
// the failing operation's index.
func (t *Table) parseBatchResponse(body []byte, b *batch.Batch, o RequestOptions) ([]batch.Result, error) {
	parts := splitBatchParts(body)
	ops := b.Operations()

	if len(parts) == 1 && parts[0].status >= 400 {
		return nil, batchError(parts[0])
	}
	if len(parts) != len(ops) {
		return nil, fmt.Errorf("batch response has %d parts for %d operations", len(parts), len(ops))
	}

	results := make([]batch.Result, len(parts))
	for i, part := range parts {
		if part.status >= 400 {
			return nil, batchError(part)
		}
		r := batch.Result{Index: i, StatusCode: part.status, ETag: part.headers["Etag"]}
		if r.ETag != "" {
			ops[i].Entity.ETag = r.ETag
		}
		if len(part.body) > 0 && (ops[i].Type == batch.Retrieve || o.EchoContent) {
			e, err := entity.Unmarshal(part.body, o.Format, t.resolverChain(o))
			if err != nil {
				return nil, err
			}
			if e.ETag == "" {
				e.ETag = r.ETag
			}
			r.Entity = e
		}
		results[i] = r
	}
	return results, nil
}

// splitBatchParts scans the multipart body for application/http status
// lines; each starts one part.
func splitBatchParts(body []byte) []batchPart {
	lines := strings.Split(string(body), "\n")
	var parts []batchPart
	i := 0
	for i < len(lines) {
		line := strings.TrimRight(lines[i], "\r")
		if !strings.HasPrefix(line, "HTTP/1.1 ") {
			i++
			continue
		}
		part := batchPart{headers: make(map[string]string)}
		if fields := strings.SplitN(line, " ", 3); len(fields) >= 2 {
			part.status, _ = strconv.Atoi(fields[1])
		}
		i++
		for i < len(lines) {
			h := strings.TrimRight(lines[i], "\r")
			if h == "" {
				i++
				break
			}
			if name, value, ok := strings.Cut(h, ":"); ok {
				part.headers[http.CanonicalHeaderKey(strings.TrimSpace(name))] = strings.TrimSpace(value)
			}
			i++
		}
		var bodyLines []string
		for i < len(lines) {
			l := strings.TrimRight(lines[i], "\r")
			if strings.HasPrefix(l, "--") || strings.HasPrefix(l, "HTTP/1.1 ") {
				break
			}
			if l != "" {
				bodyLines = append(bodyLines, l)
			}
			i++
		}
		part.body = []byte(strings.Join(bodyLines, "\n"))
		parts = append(parts, part)
	}
	return parts
}

// batchError maps a failed response part to a ServiceError annotated with
// the failing operation's index. The service prefixes the error message with
// "index:" when the index is known.
func batchError(part batchPart) error {
	var oe odataError
	code := http.StatusText(part.status)
	message := string(part.body)
	if err := json.Unmarshal(part.body, &oe); err == nil && oe.Err.Code != "" {
		code = oe.Err.Code
		message = oe.Err.Message.Value
	}
	index := -1
	if prefix, rest, ok := strings.Cut(message, ":"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(prefix)); err == nil {
			index = n
			message = rest
		}
	}
	return errors.NewBatchServiceError(part.status, code, message, index)
}
