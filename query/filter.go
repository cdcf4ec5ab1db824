/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/suparena/tablestore/entity"
)

// Comparison operators for filter predicates.
const (
	Equal              = "eq"
	NotEqual           = "ne"
	GreaterThan        = "gt"
	GreaterThanOrEqual = "ge"
	LessThan           = "lt"
	LessThanOrEqual    = "le"
)

// Logical connectives for CombineFilters.
const (
	And = "and"
	Or  = "or"
)

// GenerateFilterCondition builds a single parenthesized comparison predicate.
// The literal is rendered in its canonical syntax for the property kind;
// operands that need escaping are escaped here, at construction time.
func GenerateFilterCondition(property, comparison string, value entity.Property) string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(property)
	b.WriteByte(' ')
	b.WriteString(comparison)
	b.WriteByte(' ')
	b.WriteString(literal(value))
	b.WriteByte(')')
	return b.String()
}

// GenerateFilterConditionForString builds a predicate against a string literal.
func GenerateFilterConditionForString(property, comparison, value string) string {
	return GenerateFilterCondition(property, comparison, entity.NewString(value))
}

// GenerateFilterConditionForBoolean builds a predicate against a boolean literal.
func GenerateFilterConditionForBoolean(property, comparison string, value bool) string {
	return GenerateFilterCondition(property, comparison, entity.NewBoolean(value))
}

// GenerateFilterConditionForInt32 builds a predicate against a 32-bit integer literal.
func GenerateFilterConditionForInt32(property, comparison string, value int32) string {
	return GenerateFilterCondition(property, comparison, entity.NewInt32(value))
}

// GenerateFilterConditionForInt64 builds a predicate against a 64-bit integer literal.
func GenerateFilterConditionForInt64(property, comparison string, value int64) string {
	return GenerateFilterCondition(property, comparison, entity.NewInt64(value))
}

// GenerateFilterConditionForDouble builds a predicate against a double literal.
func GenerateFilterConditionForDouble(property, comparison string, value float64) string {
	return GenerateFilterCondition(property, comparison, entity.NewDouble(value))
}

// GenerateFilterConditionForTime builds a predicate against a datetime literal.
func GenerateFilterConditionForTime(property, comparison string, value time.Time) string {
	return GenerateFilterCondition(property, comparison, entity.NewDateTime(value))
}

// GenerateFilterConditionForGUID builds a predicate against a GUID literal.
func GenerateFilterConditionForGUID(property, comparison string, value uuid.UUID) string {
	return GenerateFilterCondition(property, comparison, entity.NewGUID(value))
}

// GenerateFilterConditionForBinary builds a predicate against a binary literal.
func GenerateFilterConditionForBinary(property, comparison string, value []byte) string {
	return GenerateFilterCondition(property, comparison, entity.NewBinary(value))
}

// CombineFilters joins two filter expressions with a logical connective.
// Every sub-expression stays independently parenthesized, so operator
// precedence never depends on the service's parser.
func CombineFilters(a, connective, b string) string {
	var sb strings.Builder
	sb.WriteByte('(')
	sb.WriteString(a)
	sb.WriteByte(' ')
	sb.WriteString(connective)
	sb.WriteByte(' ')
	sb.WriteString(b)
	sb.WriteByte(')')
	return sb.String()
}

// Not negates a filter expression.
func Not(filter string) string {
	return "(not " + filter + ")"
}

// literal renders a property value in canonical filter literal syntax.
// String literals are single-quoted with internal quotes doubled; other
// kinds use their typed literal forms and are not quoted.
func literal(p entity.Property) string {
	switch p.Kind() {
	case entity.EdmString:
		return "'" + strings.ReplaceAll(p.StringValue(), "'", "''") + "'"
	case entity.EdmBoolean:
		return strconv.FormatBool(p.BooleanValue())
	case entity.EdmInt32:
		return strconv.FormatInt(int64(p.Int32Value()), 10)
	case entity.EdmInt64:
		return strconv.FormatInt(p.Int64Value(), 10) + "L"
	case entity.EdmDouble:
		s := strconv.FormatFloat(p.DoubleValue(), 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case entity.EdmDateTime:
		return "datetime'" + p.TimeValue().UTC().Format(time.RFC3339Nano) + "'"
	case entity.EdmGUID:
		return "guid'" + p.GUIDValue().String() + "'"
	case entity.EdmBinary:
		return "X'" + hex.EncodeToString(p.BinaryValue()) + "'"
	default:
		return "''"
	}
}
