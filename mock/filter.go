/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/suparena/tablestore/entity"
)

// filterExpr is a compiled $filter predicate.
type filterExpr struct {
	eval func(e *entity.Entity) bool
}

// parseFilter compiles the parenthesized OData filter grammar the query
// package generates: comparisons, "and", "or" and "not", with typed literals.
func parseFilter(s string) (*filterExpr, error) {
	p := &filterParser{s: strings.TrimSpace(s)}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	if p.pos != len(p.s) {
		return nil, fmt.Errorf("trailing input in filter at offset %d", p.pos)
	}
	return expr, nil
}

type filterParser struct {
	s   string
	pos int
}

func (p *filterParser) parseExpr() (*filterExpr, error) {
	p.skipSpaces()
	if !p.consume('(') {
		return nil, fmt.Errorf("expected '(' at offset %d", p.pos)
	}
	p.skipSpaces()

	if p.peekWord("not") {
		p.pos += len("not")
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.close(); err != nil {
			return nil, err
		}
		return &filterExpr{eval: func(e *entity.Entity) bool { return !inner.eval(e) }}, nil
	}

	if p.pos < len(p.s) && p.s[p.pos] == '(' {
		left, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		p.skipSpaces()
		conn := p.readIdent()
		right, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.close(); err != nil {
			return nil, err
		}
		switch conn {
		case "and":
			return &filterExpr{eval: func(e *entity.Entity) bool { return left.eval(e) && right.eval(e) }}, nil
		case "or":
			return &filterExpr{eval: func(e *entity.Entity) bool { return left.eval(e) || right.eval(e) }}, nil
		}
		return nil, fmt.Errorf("unknown connective %q", conn)
	}

	prop := p.readIdent()
	if prop == "" {
		return nil, fmt.Errorf("expected property name at offset %d", p.pos)
	}
	p.skipSpaces()
	op := p.readIdent()
	p.skipSpaces()
	lit, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	if err := p.close(); err != nil {
		return nil, err
	}
	match, err := comparator(op)
	if err != nil {
		return nil, err
	}
	return &filterExpr{eval: func(e *entity.Entity) bool {
		val, ok := resolveProperty(e, prop)
		if !ok {
			return false
		}
		cmp, comparable := compareProperties(val, lit)
		return comparable && match(cmp)
	}}, nil
}

func (p *filterParser) parseLiteral() (entity.Property, error) {
	s := p.s[p.pos:]
	switch {
	case strings.HasPrefix(s, "'"):
		p.pos++
		raw, err := p.readQuoted()
		return entity.NewString(raw), err
	case strings.HasPrefix(s, "datetime'"):
		p.pos += len("datetime'")
		raw, err := p.readQuoted()
		if err != nil {
			return entity.Property{}, err
		}
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return entity.Property{}, fmt.Errorf("invalid datetime literal %q", raw)
		}
		return entity.NewDateTime(ts), nil
	case strings.HasPrefix(s, "guid'"):
		p.pos += len("guid'")
		raw, err := p.readQuoted()
		if err != nil {
			return entity.Property{}, err
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return entity.Property{}, fmt.Errorf("invalid guid literal %q", raw)
		}
		return entity.NewGUID(id), nil
	case strings.HasPrefix(s, "X'"):
		p.pos += len("X'")
		raw, err := p.readQuoted()
		if err != nil {
			return entity.Property{}, err
		}
		data, err := hex.DecodeString(raw)
		if err != nil {
			return entity.Property{}, fmt.Errorf("invalid binary literal %q", raw)
		}
		return entity.NewBinary(data), nil
	case strings.HasPrefix(s, "true"):
		p.pos += len("true")
		return entity.NewBoolean(true), nil
	case strings.HasPrefix(s, "false"):
		p.pos += len("false")
		return entity.NewBoolean(false), nil
	}
	return p.parseNumber()
}

func (p *filterParser) parseNumber() (entity.Property, error) {
	start := p.pos
	for p.pos < len(p.s) && strings.ContainsRune("+-0123456789.eE", rune(p.s[p.pos])) {
		p.pos++
	}
	raw := p.s[start:p.pos]
	if raw == "" {
		return entity.Property{}, fmt.Errorf("expected literal at offset %d", start)
	}
	if p.pos < len(p.s) && p.s[p.pos] == 'L' {
		p.pos++
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return entity.Property{}, fmt.Errorf("invalid int64 literal %q", raw)
		}
		return entity.NewInt64(n), nil
	}
	if strings.ContainsAny(raw, ".eE") {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return entity.Property{}, fmt.Errorf("invalid double literal %q", raw)
		}
		return entity.NewDouble(f), nil
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return entity.Property{}, fmt.Errorf("invalid int32 literal %q", raw)
	}
	return entity.NewInt32(int32(n)), nil
}

// readQuoted consumes up to the closing quote, undoubling embedded quotes.
func (p *filterParser) readQuoted() (string, error) {
	var b strings.Builder
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c != '\'' {
			b.WriteByte(c)
			p.pos++
			continue
		}
		if p.pos+1 < len(p.s) && p.s[p.pos+1] == '\'' {
			b.WriteByte('\'')
			p.pos += 2
			continue
		}
		p.pos++
		return b.String(), nil
	}
	return "", fmt.Errorf("unterminated string literal")
}

func (p *filterParser) readIdent() string {
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == ' ' || c == '(' || c == ')' {
			break
		}
		p.pos++
	}
	return p.s[start:p.pos]
}

func (p *filterParser) peekWord(w string) bool {
	return strings.HasPrefix(p.s[p.pos:], w+" ") || strings.HasPrefix(p.s[p.pos:], w+"(")
}

func (p *filterParser) consume(c byte) bool {
	if p.pos < len(p.s) && p.s[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *filterParser) close() error {
	p.skipSpaces()
	if !p.consume(')') {
		return fmt.Errorf("expected ')' at offset %d", p.pos)
	}
	return nil
}

func (p *filterParser) skipSpaces() {
	for p.pos < len(p.s) && p.s[p.pos] == ' ' {
		p.pos++
	}
}

func comparator(op string) (func(cmp int) bool, error) {
	switch op {
	case "eq":
		return func(c int) bool { return c == 0 }, nil
	case "ne":
		return func(c int) bool { return c != 0 }, nil
	case "gt":
		return func(c int) bool { return c > 0 }, nil
	case "ge":
		return func(c int) bool { return c >= 0 }, nil
	case "lt":
		return func(c int) bool { return c < 0 }, nil
	case "le":
		return func(c int) bool { return c <= 0 }, nil
	}
	return nil, fmt.Errorf("unknown comparison operator %q", op)
}

// resolveProperty looks up a property by name, treating the system properties
// as virtual string and datetime values.
func resolveProperty(e *entity.Entity, name string) (entity.Property, bool) {
	switch name {
	case "PartitionKey":
		return entity.NewString(e.PartitionKey()), true
	case "RowKey":
		return entity.NewString(e.RowKey()), true
	case "Timestamp":
		return entity.NewDateTime(e.Timestamp), true
	}
	return e.Get(name)
}

// compareProperties orders two property values. Numeric kinds compare across
// Int32, Int64 and Double; other kinds compare only within their own kind.
func compareProperties(a, b entity.Property) (int, bool) {
	if av, aok := numericValue(a); aok {
		bv, bok := numericValue(b)
		if !bok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	}
	if a.Kind() != b.Kind() {
		return 0, false
	}
	switch a.Kind() {
	case entity.EdmString:
		return strings.Compare(a.StringValue(), b.StringValue()), true
	case entity.EdmBoolean:
		if a.BooleanValue() == b.BooleanValue() {
			return 0, true
		}
		return 1, true
	case entity.EdmDateTime:
		at, bt := a.TimeValue(), b.TimeValue()
		switch {
		case at.Before(bt):
			return -1, true
		case at.After(bt):
			return 1, true
		}
		return 0, true
	case entity.EdmGUID:
		if a.GUIDValue() == b.GUIDValue() {
			return 0, true
		}
		return 1, true
	case entity.EdmBinary:
		return bytes.Compare(a.BinaryValue(), b.BinaryValue()), true
	}
	return 0, false
}

func numericValue(p entity.Property) (float64, bool) {
	switch p.Kind() {
	case entity.EdmInt32:
		return float64(p.Int32Value()), true
	case entity.EdmInt64:
		return float64(p.Int64Value()), true
	case entity.EdmDouble:
		return p.DoubleValue(), true
	}
	return 0, false
}
