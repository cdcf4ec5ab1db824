/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGenerateFilterConditionLiterals(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 30, 0, 500000000, time.UTC)
	id := uuid.MustParse("c9da6455-213d-42c9-9a79-3e9149a57833")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{
			"string",
			GenerateFilterConditionForString("Name", Equal, "widget"),
			"(Name eq 'widget')",
		},
		{
			"string with quote",
			GenerateFilterConditionForString("Name", Equal, "O'Brien"),
			"(Name eq 'O''Brien')",
		},
		{
			"string only quotes",
			GenerateFilterConditionForString("Name", Equal, "''"),
			"(Name eq '''''')",
		},
		{
			"boolean",
			GenerateFilterConditionForBoolean("Active", Equal, true),
			"(Active eq true)",
		},
		{
			"int32",
			GenerateFilterConditionForInt32("Count", GreaterThan, -5),
			"(Count gt -5)",
		},
		{
			"int64 suffix",
			GenerateFilterConditionForInt64("Big", LessThanOrEqual, 1<<40),
			"(Big le 1099511627776L)",
		},
		{
			"double fractional",
			GenerateFilterConditionForDouble("Ratio", NotEqual, 2.5),
			"(Ratio ne 2.5)",
		},
		{
			"double whole keeps a point",
			GenerateFilterConditionForDouble("Ratio", Equal, 3),
			"(Ratio eq 3.0)",
		},
		{
			"double exponent",
			GenerateFilterConditionForDouble("Tiny", LessThan, 1e-9),
			"(Tiny lt 1e-09)",
		},
		{
			"datetime",
			GenerateFilterConditionForTime("When", GreaterThanOrEqual, ts),
			"(When ge datetime'2025-06-01T12:30:00.5Z')",
		},
		{
			"guid",
			GenerateFilterConditionForGUID("ID", Equal, id),
			"(ID eq guid'c9da6455-213d-42c9-9a79-3e9149a57833')",
		},
		{
			"binary",
			GenerateFilterConditionForBinary("Blob", Equal, []byte{0x01, 0xAB}),
			"(Blob eq X'01ab')",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestCombineFilters(t *testing.T) {
	a := GenerateFilterConditionForString("PartitionKey", Equal, "p1")
	b := GenerateFilterConditionForInt32("Count", GreaterThan, 10)

	combined := CombineFilters(a, And, b)
	assert.Equal(t, "((PartitionKey eq 'p1') and (Count gt 10))", combined)

	// Nesting keeps every level parenthesized, so precedence never depends
	// on the service's parser.
	c := GenerateFilterConditionForBoolean("Active", Equal, false)
	nested := CombineFilters(combined, Or, c)
	assert.Equal(t, "(((PartitionKey eq 'p1') and (Count gt 10)) or (Active eq false))", nested)
}

func TestNot(t *testing.T) {
	f := GenerateFilterConditionForString("Name", Equal, "x")
	assert.Equal(t, "(not (Name eq 'x'))", Not(f))
}

func TestDoubleLiteralAlwaysParsesAsDouble(t *testing.T) {
	// Every rendered double literal must carry a point or exponent; a bare
	// integer would be read back as Int32 by the service.
	for _, v := range []float64{0, 1, -3, 1e21, 0.5, math.MaxFloat64} {
		f := GenerateFilterConditionForDouble("D", Equal, v)
		assert.Regexp(t, `\(D eq [^)]*[.eE][^)]*\)`, f, "value %v", v)
	}
}
