/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/suparena/tablestore"
	"github.com/suparena/tablestore/entity"
	"github.com/suparena/tablestore/sas"
)

// Transport is an in-memory table service implementing the wire protocol the
// client speaks: entity CRUD, filtered queries with continuation, atomic
// batches and SAS permission checks. It exists so client behavior can be
// tested end to end, through real URIs and payloads, without a network.
type Transport struct {
	mu      sync.Mutex
	account string
	key     *sas.AccountKey
	tables  map[string]map[string]map[string]*entity.Entity
	etagSeq int

	// FailStatuses makes the next RoundTrip calls answer with the given
	// statuses before resuming normal behavior. Used to exercise retries.
	FailStatuses []int

	// Requests counts handled round trips.
	Requests int
}

// NewTransport creates an empty in-memory service for the account.
func NewTransport(account string) *Transport {
	return &Transport{
		account: account,
		tables:  make(map[string]map[string]map[string]*entity.Entity),
	}
}

// WithAccountKey installs the account key so SAS-signed requests are
// verified and permission-checked.
func (t *Transport) WithAccountKey(base64Key string) error {
	key, err := sas.NewAccountKey(t.account, base64Key)
	if err != nil {
		return err
	}
	t.key = key
	return nil
}

// RoundTrip dispatches one request against the in-memory state.
func (t *Transport) RoundTrip(_ context.Context, req *tablestore.Request) (*tablestore.Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Requests++

	if len(t.FailStatuses) > 0 {
		status := t.FailStatuses[0]
		t.FailStatuses = t.FailStatuses[1:]
		return errorResponse(status, http.StatusText(status), "injected failure"), nil
	}
	return t.dispatch(req.Method, req.URL, req.Headers, req.Body), nil
}

// dispatch routes a request by its raw path. It is also the entry point for
// batch subrequests.
func (t *Transport) dispatch(method, rawURL string, headers map[string]string, body []byte) *tablestore.Response {
	u, err := url.Parse(rawURL)
	if err != nil {
		return errorResponse(http.StatusBadRequest, "InvalidUri", err.Error())
	}
	path := strings.TrimPrefix(u.EscapedPath(), "/")
	// Path-style requests carry the account as the first segment.
	path = strings.TrimPrefix(path, t.account+"/")
	format := formatFromHeaders(headers)

	if denied := t.authorize(method, path, u.Query()); denied != nil {
		return denied
	}

	switch {
	case path == "Tables":
		return t.createTable(body)
	case strings.HasPrefix(path, "Tables('"):
		name := strings.TrimSuffix(strings.TrimPrefix(path, "Tables('"), "')")
		return t.deleteTable(name)
	case path == "$batch":
		return t.executeBatch(headers, body)
	}

	if table, pk, rk, ok := parseEntityPath(path); ok {
		switch method {
		case http.MethodGet:
			return t.getEntity(table, pk, rk, format)
		case http.MethodPut, "MERGE":
			return t.upsertEntity(table, pk, rk, method, headers["If-Match"], body)
		case http.MethodDelete:
			return t.deleteEntity(table, pk, rk, headers["If-Match"])
		}
		return errorResponse(http.StatusMethodNotAllowed, "MethodNotAllowed", method)
	}

	switch method {
	case http.MethodPost:
		return t.insertEntity(path, headers, body, format)
	case http.MethodGet:
		return t.queryEntities(path, u.Query(), format)
	}
	return errorResponse(http.StatusBadRequest, "InvalidUri", rawURL)
}

func (t *Transport) createTable(body []byte) *tablestore.Response {
	var req struct {
		TableName string `json:"TableName"`
	}
	if err := json.Unmarshal(body, &req); err != nil || req.TableName == "" {
		return errorResponse(http.StatusBadRequest, "InvalidInput", "missing table name")
	}
	if _, exists := t.tables[req.TableName]; exists {
		return errorResponse(http.StatusConflict, "TableAlreadyExists", "the table already exists")
	}
	t.tables[req.TableName] = make(map[string]map[string]*entity.Entity)
	return &tablestore.Response{StatusCode: http.StatusNoContent, Headers: map[string]string{}}
}

func (t *Transport) deleteTable(name string) *tablestore.Response {
	if _, exists := t.tables[name]; !exists {
		return errorResponse(http.StatusNotFound, "ResourceNotFound", "the table does not exist")
	}
	delete(t.tables, name)
	return &tablestore.Response{StatusCode: http.StatusNoContent, Headers: map[string]string{}}
}

func (t *Transport) insertEntity(table string, headers map[string]string, body []byte, format entity.PayloadFormat) *tablestore.Response {
	rows, resp := t.tableRows(table)
	if resp != nil {
		return resp
	}
	e, err := entity.Unmarshal(body, entity.MinimalMetadata)
	if err != nil {
		return errorResponse(http.StatusBadRequest, "InvalidInput", err.Error())
	}
	pk, rk := e.PartitionKey(), e.RowKey()
	if rows[pk] != nil && rows[pk][rk] != nil {
		return errorResponse(http.StatusConflict, "EntityAlreadyExists", "the specified entity already exists")
	}
	etag := t.store(rows, e)

	h := map[string]string{"Etag": etag}
	if headers["Prefer"] == "return-no-content" {
		return &tablestore.Response{StatusCode: http.StatusNoContent, Headers: h}
	}
	data, merr := entity.Marshal(rows[pk][rk], format)
	if merr != nil {
		return errorResponse(http.StatusInternalServerError, "InternalError", merr.Error())
	}
	return &tablestore.Response{StatusCode: http.StatusCreated, Headers: h, Body: data}
}

func (t *Transport) getEntity(table, pk, rk string, format entity.PayloadFormat) *tablestore.Response {
	rows, resp := t.tableRows(table)
	if resp != nil {
		return resp
	}
	if rows[pk] == nil || rows[pk][rk] == nil {
		return errorResponse(http.StatusNotFound, "ResourceNotFound", "the specified resource does not exist")
	}
	e := rows[pk][rk]
	data, err := entity.Marshal(e, format)
	if err != nil {
		return errorResponse(http.StatusInternalServerError, "InternalError", err.Error())
	}
	return &tablestore.Response{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Etag": e.ETag, "Content-Type": format.ContentType()},
		Body:       data,
	}
}

func (t *Transport) upsertEntity(table, pk, rk, method, ifMatch string, body []byte) *tablestore.Response {
	rows, resp := t.tableRows(table)
	if resp != nil {
		return resp
	}
	incoming, err := entity.Unmarshal(body, entity.MinimalMetadata)
	if err != nil {
		return errorResponse(http.StatusBadRequest, "InvalidInput", err.Error())
	}
	existing := rows[pk][rk]

	if ifMatch != "" {
		if existing == nil {
			return errorResponse(http.StatusNotFound, "ResourceNotFound", "the specified resource does not exist")
		}
		if ifMatch != entity.ETagAny && ifMatch != existing.ETag {
			return errorResponse(http.StatusPreconditionFailed, "UpdateConditionNotSatisfied", "the update condition was not satisfied")
		}
	}

	stored := incoming
	if method == "MERGE" && existing != nil {
		stored = existing.Clone()
		for _, name := range incoming.Names() {
			p, _ := incoming.Get(name)
			_ = stored.Set(name, p) // names already validated on the way in
		}
	}
	etag := t.store(rows, stored)
	return &tablestore.Response{StatusCode: http.StatusNoContent, Headers: map[string]string{"Etag": etag}}
}

func (t *Transport) deleteEntity(table, pk, rk, ifMatch string) *tablestore.Response {
	rows, resp := t.tableRows(table)
	if resp != nil {
		return resp
	}
	existing := rows[pk][rk]
	if existing == nil {
		return errorResponse(http.StatusNotFound, "ResourceNotFound", "the specified resource does not exist")
	}
	if ifMatch != entity.ETagAny && ifMatch != existing.ETag {
		return errorResponse(http.StatusPreconditionFailed, "UpdateConditionNotSatisfied", "the update condition was not satisfied")
	}
	delete(rows[pk], rk)
	return &tablestore.Response{StatusCode: http.StatusNoContent, Headers: map[string]string{}}
}

const defaultPageSize = 1000

func (t *Transport) queryEntities(table string, q url.Values, format entity.PayloadFormat) *tablestore.Response {
	rows, resp := t.tableRows(table)
	if resp != nil {
		return resp
	}

	var filter *filterExpr
	if f := q.Get("$filter"); f != "" {
		parsed, err := parseFilter(f)
		if err != nil {
			return errorResponse(http.StatusBadRequest, "InvalidInput", err.Error())
		}
		filter = parsed
	}

	all := sortedEntities(rows)
	// Resume after the continuation position.
	if npk := q.Get("NextPartitionKey"); npk != "" {
		nrk := q.Get("NextRowKey")
		idx := sort.Search(len(all), func(i int) bool {
			if all[i].PartitionKey() != npk {
				return all[i].PartitionKey() > npk
			}
			return all[i].RowKey() >= nrk
		})
		all = all[idx:]
	}

	var matched []*entity.Entity
	for _, e := range all {
		if filter == nil || filter.eval(e) {
			matched = append(matched, e)
		}
	}

	pageSize := defaultPageSize
	if top := q.Get("$top"); top != "" {
		if n, err := strconv.Atoi(top); err == nil && n > 0 {
			pageSize = n
		}
	}

	headers := map[string]string{"Content-Type": format.ContentType()}
	page := matched
	if len(matched) > pageSize {
		page = matched[:pageSize]
		next := matched[pageSize]
		headers["X-Ms-Continuation-Nextpartitionkey"] = next.PartitionKey()
		headers["X-Ms-Continuation-Nextrowkey"] = next.RowKey()
	}

	selectCols := splitSelect(q.Get("$select"))
	values := make([]json.RawMessage, 0, len(page))
	for _, e := range page {
		out := e
		if selectCols != nil {
			out = project(e, selectCols)
		}
		data, err := entity.Marshal(out, format)
		if err != nil {
			return errorResponse(http.StatusInternalServerError, "InternalError", err.Error())
		}
		values = append(values, data)
	}
	body, _ := json.Marshal(map[string]any{"value": values})
	return &tablestore.Response{StatusCode: http.StatusOK, Headers: headers, Body: body}
}

// tableRows resolves a table's row map or answers 404.
func (t *Transport) tableRows(table string) (map[string]map[string]*entity.Entity, *tablestore.Response) {
	rows, exists := t.tables[table]
	if !exists {
		return nil, errorResponse(http.StatusNotFound, "TableNotFound", "the table specified does not exist")
	}
	return rows, nil
}

// store clones the entity, stamps Timestamp and a fresh ETag, and indexes it.
func (t *Transport) store(rows map[string]map[string]*entity.Entity, e *entity.Entity) string {
	t.etagSeq++
	stored := e.Clone()
	stored.Timestamp = time.Now().UTC()
	stored.ETag = fmt.Sprintf("W/\"mock-%d\"", t.etagSeq)
	pk := stored.PartitionKey()
	if rows[pk] == nil {
		rows[pk] = make(map[string]*entity.Entity)
	}
	rows[pk][stored.RowKey()] = stored
	return stored.ETag
}

func sortedEntities(rows map[string]map[string]*entity.Entity) []*entity.Entity {
	var all []*entity.Entity
	for _, byRow := range rows {
		for _, e := range byRow {
			all = append(all, e)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].PartitionKey() != all[j].PartitionKey() {
			return all[i].PartitionKey() < all[j].PartitionKey()
		}
		return all[i].RowKey() < all[j].RowKey()
	})
	return all
}

func project(e *entity.Entity, cols map[string]bool) *entity.Entity {
	out := e.Clone()
	for _, name := range out.Names() {
		if !cols[name] {
			out.Remove(name)
		}
	}
	return out
}

func splitSelect(s string) map[string]bool {
	if s == "" {
		return nil
	}
	cols := make(map[string]bool)
	for _, c := range strings.Split(s, ",") {
		cols[strings.TrimSpace(c)] = true
	}
	return cols
}

// parseEntityPath splits "Table(PartitionKey='..',RowKey='..')" into its
// unescaped parts. Key literals are scanned for doubled quotes, so quotes,
// commas and parentheses inside keys survive.
func parseEntityPath(path string) (table, pk, rk string, ok bool) {
	open := strings.Index(path, "(PartitionKey='")
	if open < 0 || !strings.HasSuffix(path, "')") {
		return "", "", "", false
	}
	table = path[:open]
	rest := path[open+len("(PartitionKey='"):]

	pkRaw, rest, ok := scanKeyLiteral(rest)
	if !ok || !strings.HasPrefix(rest, ",RowKey='") {
		return "", "", "", false
	}
	rkRaw, rest, ok := scanKeyLiteral(rest[len(",RowKey='"):])
	if !ok || rest != ")" {
		return "", "", "", false
	}

	pk, err := entity.UnescapeKey(pkRaw)
	if err != nil {
		return "", "", "", false
	}
	rk, err = entity.UnescapeKey(rkRaw)
	if err != nil {
		return "", "", "", false
	}
	return table, pk, rk, true
}

// scanKeyLiteral reads up to the closing single quote, treating '' as an
// escaped quote. It returns the raw (still percent-encoded) literal and the
// remainder after the closing quote.
func scanKeyLiteral(s string) (literal, rest string, ok bool) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\'' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == '\'' {
			b.WriteString("''")
			i++
			continue
		}
		return b.String(), s[i+1:], true
	}
	return "", "", false
}

func formatFromHeaders(headers map[string]string) entity.PayloadFormat {
	accept := headers["Accept"]
	switch {
	case strings.Contains(accept, "odata=nometadata"):
		return entity.NoMetadata
	case strings.Contains(accept, "odata=fullmetadata"):
		return entity.FullMetadata
	default:
		return entity.MinimalMetadata
	}
}

func errorResponse(status int, code, message string) *tablestore.Response {
	body, _ := json.Marshal(map[string]any{
		"odata.error": map[string]any{
			"code":    code,
			"message": map[string]any{"lang": "en-US", "value": message},
		},
	})
	return &tablestore.Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}
