package edm

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringLiteral(t *testing.T) {
	v, err := String.ParseLiteral("'ab'")
	require.NoError(t, err)
	assert.Equal(t, "ab", v)

	v, err = String.ParseLiteral("''")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	_, err = String.ParseLiteral("ab")
	assert.Error(t, err, "unquoted text")
}

func TestDateTimeLiteral(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"datetime'2020-01-01T00:00:00'", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"datetime'2020-01-01T10:30'", time.Date(2020, 1, 1, 10, 30, 0, 0, time.UTC)},
		{"datetime'2020-01-01'", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"DateTime'2020-01-01T12:00:00+02:00'", time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := DateTime.ParseLiteral(tt.input)
			require.NoError(t, err)
			assert.True(t, v.(time.Time).Equal(tt.want), "expected %v, got %v", tt.want, v)
		})
	}

	_, err := DateTime.ParseLiteral("datetime'yesterday'")
	assert.Error(t, err, "malformed date")
}

func TestGuidLiteral(t *testing.T) {
	v, err := Guid.ParseLiteral("guid'6ba7b810-9dad-11d1-80b4-00c04fd430c8'")
	require.NoError(t, err)
	assert.Equal(t, uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), v)

	for _, bad := range []string{
		"guid'6ba7b810'",
		"guid'{6ba7b810-9dad-11d1-80b4-00c04fd430c8}'",
		"guid'6ba7b810-9dad-11d1-80b4-00c04fd430zz'",
	} {
		_, err := Guid.ParseLiteral(bad)
		assert.Error(t, err, bad)
	}
}

func TestBinaryLiteral(t *testing.T) {
	tests := []struct {
		input string
		want  []byte
	}{
		{"X'0AFF'", []byte{0x0a, 0xff}},
		{"binary'00'", []byte{0x00}},
		{"0x1F2e", []byte{0x1f, 0x2e}},
	}

	for _, tt := range tests {
		v, err := Binary.ParseLiteral(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, v, tt.input)
	}

	_, err := Binary.ParseLiteral("X'ABC'")
	assert.Error(t, err, "odd digit count")
}
