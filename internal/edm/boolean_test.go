package edm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBooleanLiteral(t *testing.T) {
	tests := []struct {
		input   string
		want    bool
		wantErr bool
	}{
		{"true", true, false},
		{"false", false, false},
		{"True", false, true},
		{"1", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := Boolean.ParseLiteral(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestNullLiteral(t *testing.T) {
	v, err := Null.ParseLiteral("null")
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.True(t, Null.IsNull())
	assert.False(t, String.IsNull())

	_, err = Resource.ParseLiteral("x")
	assert.Error(t, err, "resource type must not parse literals")
}
