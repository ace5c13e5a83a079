package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/poisson-gamma/pkg/errors"
)

func TestInterval_Geometry(t *testing.T) {
	iv := Interval{Lo: 2.5, Hi: 3.5}

	assert.InDelta(t, 1.0, iv.Width(), 1e-12)
	assert.InDelta(t, 3.0, iv.Midpoint(), 1e-12)
	assert.True(t, iv.Contains(2.5))
	assert.True(t, iv.Contains(3.0))
	assert.False(t, iv.Contains(3.6))
	assert.Equal(t, "[2.5000, 3.5000]", iv.String())
}

func TestInterval_Validate(t *testing.T) {
	tests := []struct {
		name    string
		iv      Interval
		wantErr bool
	}{
		{name: "valid", iv: Interval{Lo: 0.1, Hi: 0.2}},
		{name: "anchored at zero", iv: Interval{Lo: 0, Hi: 2.3}},
		{name: "negative lo", iv: Interval{Lo: -0.01, Hi: 1}, wantErr: true},
		{name: "empty", iv: Interval{Lo: 1, Hi: 1}, wantErr: true},
		{name: "reversed", iv: Interval{Lo: 2, Hi: 1}, wantErr: true},
		{name: "nan", iv: Interval{Lo: math.NaN(), Hi: 1}, wantErr: true},
		{name: "infinite", iv: Interval{Lo: 0, Hi: math.Inf(1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.iv.Validate()
			if tt.wantErr {
				assert.True(t, apperrors.IsDegenerateInterval(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}
