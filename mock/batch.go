/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/suparena/tablestore"
	"github.com/suparena/tablestore/entity"
)

const crlf = "\r\n"

var batchMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	"MERGE":           true,
}

// subrequest is one parsed application/http part of a batch payload.
type subrequest struct {
	method  string
	url     string
	headers map[string]string
	body    []byte
}

// executeBatch applies a multipart batch atomically: on the first failing
// subrequest the table state is rolled back and a single error part names the
// failing operation's index. The outer status is 202 either way, matching the
// service.
func (t *Transport) executeBatch(_ map[string]string, body []byte) *tablestore.Response {
	subs := parseBatchRequest(body)
	if len(subs) == 0 {
		return errorResponse(http.StatusBadRequest, "InvalidInput", "empty batch payload")
	}

	snapshot := t.snapshot()
	responses := make([]*tablestore.Response, 0, len(subs))
	for i, sub := range subs {
		resp := t.dispatch(sub.method, sub.url, sub.headers, sub.body)
		if resp.StatusCode >= 400 {
			t.tables = snapshot
			return batchFailure(i, resp)
		}
		responses = append(responses, resp)
	}
	return batchSuccess(responses)
}

// parseBatchRequest scans the multipart body for request lines; headers
// follow each until a blank line, then one line of JSON payload when
// Content-Length says so.
func parseBatchRequest(body []byte) []subrequest {
	lines := strings.Split(string(body), "\n")
	var subs []subrequest
	i := 0
	for i < len(lines) {
		line := strings.TrimRight(lines[i], "\r")
		method, rest, _ := strings.Cut(line, " ")
		if !batchMethods[method] || !strings.HasSuffix(rest, " HTTP/1.1") {
			i++
			continue
		}
		sub := subrequest{
			method:  method,
			url:     strings.TrimSuffix(rest, " HTTP/1.1"),
			headers: make(map[string]string),
		}
		i++
		for i < len(lines) {
			h := strings.TrimRight(lines[i], "\r")
			if h == "" {
				i++
				break
			}
			if name, value, ok := strings.Cut(h, ":"); ok {
				sub.headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
			}
			i++
		}
		if n, _ := strconv.Atoi(sub.headers["Content-Length"]); n > 0 && i < len(lines) {
			sub.body = []byte(strings.TrimRight(lines[i], "\r"))
			i++
		}
		subs = append(subs, sub)
	}
	return subs
}

// snapshot deep-copies the table state for rollback.
func (t *Transport) snapshot() map[string]map[string]map[string]*entity.Entity {
	copied := make(map[string]map[string]map[string]*entity.Entity, len(t.tables))
	for table, byPK := range t.tables {
		ct := make(map[string]map[string]*entity.Entity, len(byPK))
		for pk, byRK := range byPK {
			cp := make(map[string]*entity.Entity, len(byRK))
			for rk, e := range byRK {
				cp[rk] = e.Clone()
			}
			ct[pk] = cp
		}
		copied[table] = ct
	}
	return copied
}

// batchFailure wraps a failed subresponse as the batch's single error part,
// prefixing the message with the zero-based operation index.
func batchFailure(index int, resp *tablestore.Response) *tablestore.Response {
	code := http.StatusText(resp.StatusCode)
	message := string(resp.Body)
	var oe struct {
		Err struct {
			Code    string `json:"code"`
			Message struct {
				Value string `json:"value"`
			} `json:"message"`
		} `json:"odata.error"`
	}
	if err := json.Unmarshal(resp.Body, &oe); err == nil && oe.Err.Code != "" {
		code = oe.Err.Code
		message = oe.Err.Message.Value
	}
	part := errorResponse(resp.StatusCode, code, fmt.Sprintf("%d:%s", index, message))

	boundary := "batchresponse_" + uuid.NewString()
	var buf bytes.Buffer
	buf.WriteString("--" + boundary + crlf)
	buf.WriteString("Content-Type: application/http" + crlf)
	buf.WriteString("Content-Transfer-Encoding: binary" + crlf + crlf)
	buf.WriteString(fmt.Sprintf("HTTP/1.1 %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)) + crlf)
	buf.WriteString("Content-Type: application/json" + crlf + crlf)
	buf.Write(part.Body)
	buf.WriteString(crlf)
	buf.WriteString("--" + boundary + "--" + crlf)

	return &tablestore.Response{
		StatusCode: http.StatusAccepted,
		Headers:    map[string]string{"Content-Type": "multipart/mixed; boundary=" + boundary},
		Body:       buf.Bytes(),
	}
}

// batchSuccess renders per-operation response parts inside a changeset.
func batchSuccess(responses []*tablestore.Response) *tablestore.Response {
	boundary := "batchresponse_" + uuid.NewString()
	changeset := "changesetresponse_" + uuid.NewString()

	var buf bytes.Buffer
	buf.WriteString("--" + boundary + crlf)
	buf.WriteString("Content-Type: multipart/mixed; boundary=" + changeset + crlf + crlf)
	for i, resp := range responses {
		buf.WriteString("--" + changeset + crlf)
		buf.WriteString("Content-Type: application/http" + crlf)
		buf.WriteString("Content-Transfer-Encoding: binary" + crlf + crlf)
		buf.WriteString(fmt.Sprintf("HTTP/1.1 %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)) + crlf)
		buf.WriteString("Content-ID: " + strconv.Itoa(i+1) + crlf)
		for name, value := range resp.Headers {
			buf.WriteString(name + ": " + value + crlf)
		}
		buf.WriteString(crlf)
		if len(resp.Body) > 0 {
			buf.Write(resp.Body)
			buf.WriteString(crlf)
		}
	}
	buf.WriteString("--" + changeset + "--" + crlf)
	buf.WriteString("--" + boundary + "--" + crlf)

	return &tablestore.Response{
		StatusCode: http.StatusAccepted,
		Headers:    map[string]string{"Content-Type": "multipart/mixed; boundary=" + boundary},
		Body:       buf.Bytes(),
	}
}
