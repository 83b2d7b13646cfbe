package edm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromote(t *testing.T) {
	all := []*PrimitiveType{Byte, SByte, Int16, Int32, Int64, Single, Double, Decimal}

	// expected[i][j] is the promotion of all[i] with all[j]; nil means the pair is rejected.
	expected := [][]*PrimitiveType{
		/* Byte    */ {Int32, Int32, Int32, Int32, Int64, Single, Double, Decimal},
		/* SByte   */ {Int32, Int32, Int32, Int32, Int64, Single, Double, Decimal},
		/* Int16   */ {Int32, Int32, Int32, Int32, Int64, Single, Double, Decimal},
		/* Int32   */ {Int32, Int32, Int32, Int32, Int64, Single, Double, Decimal},
		/* Int64   */ {Int64, Int64, Int64, Int64, Int64, Single, Double, Decimal},
		/* Single  */ {Single, Single, Single, Single, Single, Single, Double, nil},
		/* Double  */ {Double, Double, Double, Double, Double, Double, Double, nil},
		/* Decimal */ {Decimal, Decimal, Decimal, Decimal, Decimal, nil, nil, Decimal},
	}

	for i, a := range all {
		for j, b := range all {
			got, ok := Promote(a, b)
			want := expected[i][j]
			if want == nil {
				assert.False(t, ok, "Promote(%s, %s) = %s, want rejection", a, b, got)
				continue
			}
			if assert.True(t, ok, "Promote(%s, %s) rejected", a, b) {
				assert.Same(t, want, got, "Promote(%s, %s)", a, b)
			}
		}
	}
}

func TestPromoteRejectsNonNumeric(t *testing.T) {
	for _, typ := range []*PrimitiveType{String, Boolean, DateTime, Guid, Binary, Null, Resource} {
		_, ok := Promote(typ, Int32)
		assert.False(t, ok, "Promote(%s, Int32)", typ)
		_, ok = Promote(Double, typ)
		assert.False(t, ok, "Promote(Double, %s)", typ)
	}
}

func TestIsAssignableFrom(t *testing.T) {
	tests := []struct {
		target *PrimitiveType
		src    *PrimitiveType
		want   bool
	}{
		{Int32, Int32, true},
		{Int32, Int16, true},
		{Int32, Byte, true},
		{Int32, Int64, false},
		{Int16, Int32, false},
		{Byte, SByte, false},
		{Int64, Int32, true},
		{Double, Int32, true},
		{Double, Single, true},
		{Single, Double, false},
		{Single, Int64, true},
		{Decimal, Int32, true},
		{Decimal, Double, false},
		{String, Null, true},
		{Guid, Null, true},
		{String, Int32, false},
		{DateTime, String, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.target.IsAssignableFrom(tt.src), "%s.IsAssignableFrom(%s)", tt.target, tt.src)
	}
}

func TestNumericLiterals(t *testing.T) {
	tests := []struct {
		name  string
		typ   *PrimitiveType
		input string
		want  interface{}
	}{
		{"Int32", Int32, "-123", int32(-123)},
		{"Int64 with suffix", Int64, "9223372036854775807L", int64(math.MaxInt64)},
		{"Int64 minimum", Int64, "-9223372036854775808L", int64(math.MinInt64)},
		{"Single with suffix", Single, "1.5f", float32(1.5)},
		{"Double exponent", Double, "2.5E+3", float64(2500)},
		{"Double with suffix", Double, "3D", float64(3)},
		{"Byte", Byte, "255", uint8(255)},
		{"SByte", SByte, "-128", int8(-128)},
		{"Int16", Int16, "32767", int16(32767)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := tt.typ.ParseLiteral(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}

	t.Run("Out of range", func(t *testing.T) {
		_, err := Int32.ParseLiteral("2147483648")
		assert.Error(t, err)
		_, err = Byte.ParseLiteral("256")
		assert.Error(t, err)
	})

	t.Run("Special values", func(t *testing.T) {
		v, err := Double.ParseLiteral("INF")
		require.NoError(t, err)
		assert.True(t, math.IsInf(v.(float64), 1), "got %v", v)
		v, err = Double.ParseLiteral("-INF")
		require.NoError(t, err)
		assert.True(t, math.IsInf(v.(float64), -1), "got %v", v)
		v, err = Single.ParseLiteral("NaNf")
		require.NoError(t, err)
		assert.True(t, math.IsNaN(float64(v.(float32))), "got %v", v)
	})

	t.Run("Rejects hex float", func(t *testing.T) {
		_, err := Double.ParseLiteral("0x1p-2")
		assert.Error(t, err)
	})
}
