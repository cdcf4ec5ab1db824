/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entity

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestPropertyKinds(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	id := uuid.MustParse("7f9619ff-8b86-d011-b42d-00cf4fc964ff")

	tests := []struct {
		name string
		p    Property
		kind EdmType
		want any
	}{
		{"string", NewString("héllo"), EdmString, "héllo"},
		{"boolean", NewBoolean(true), EdmBoolean, true},
		{"int32", NewInt32(-42), EdmInt32, int32(-42)},
		{"int64", NewInt64(1 << 40), EdmInt64, int64(1 << 40)},
		{"double", NewDouble(2.5), EdmDouble, 2.5},
		{"datetime", NewDateTime(ts), EdmDateTime, ts},
		{"guid", NewGUID(id), EdmGUID, id},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.p.Kind() != tt.kind {
				t.Errorf("Kind() = %v, want %v", tt.p.Kind(), tt.kind)
			}
			if got := tt.p.Interface(); got != tt.want {
				t.Errorf("Interface() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPropertyEqual(t *testing.T) {
	if !NewDouble(math.NaN()).Equal(NewDouble(math.NaN())) {
		t.Error("NaN should compare equal to NaN")
	}
	if NewDouble(0).Equal(NewDouble(math.Copysign(0, -1))) {
		t.Error("+0 and -0 have different bit patterns and should not compare equal")
	}

	// Same instant in different zones is the same DateTime value.
	est := time.FixedZone("EST", -5*3600)
	utc := time.Date(2025, 3, 1, 17, 0, 0, 0, time.UTC)
	if !NewDateTime(utc).Equal(NewDateTime(utc.In(est))) {
		t.Error("same instant in different zones should compare equal")
	}

	if NewInt32(1).Equal(NewInt64(1)) {
		t.Error("Int32 and Int64 are distinct kinds")
	}
	if !NewBinary([]byte{1, 2}).Equal(NewBinary([]byte{1, 2})) {
		t.Error("equal binary values should compare equal")
	}
	if NewBinary([]byte{1}).Equal(NewBinary([]byte{1, 2})) {
		t.Error("different binary values should not compare equal")
	}
}

func TestParseEdmType(t *testing.T) {
	for kind, name := range edmNames {
		got, ok := ParseEdmType(name)
		if !ok || got != kind {
			t.Errorf("ParseEdmType(%q) = %v, %v", name, got, ok)
		}
	}
	if _, ok := ParseEdmType("Edm.Decimal"); ok {
		t.Error("unsupported annotation should not parse")
	}
}

func TestNewDateTimeNormalizesToUTC(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	local := time.Date(2025, 3, 1, 12, 0, 0, 0, est)
	p := NewDateTime(local)
	if p.TimeValue().Location() != time.UTC {
		t.Errorf("TimeValue location = %v, want UTC", p.TimeValue().Location())
	}
	if !p.TimeValue().Equal(local) {
		t.Error("normalization must preserve the instant")
	}
}
