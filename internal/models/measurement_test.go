package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveMuscleMass(t *testing.T) {
	tests := []struct {
		name    string
		fatFree *float64
		bone    *float64
		want    *float64
	}{
		{"fat-free minus bone", Float(75.19), Float(3.67), Float(71.52)},
		{"no bone mass uses fat-free as-is", Float(74.00), nil, Float(74.00)},
		{"zero bone mass uses fat-free as-is", Float(74.00), Float(0), Float(74.00)},
		{"no fat-free mass means no muscle mass", nil, Float(3.50), nil},
		{"nothing in, nothing out", nil, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveMuscleMass(tt.fatFree, tt.bone)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}
