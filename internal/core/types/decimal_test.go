package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		name        string
		part, whole int64
		want        string
	}{
		{"shortage", -6, 100, "-6"},
		{"surplus", 1, 3, "33.33"},
		{"zero whole", 5, 0, "0"},
		{"negative whole", 5, -10, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, decimal.RequireFromString(tt.want).Equal(Percent(tt.part, tt.whole)),
				"got %s", Percent(tt.part, tt.whole))
		})
	}
}

func TestLineTotal(t *testing.T) {
	assert.True(t, MustMoney("37.05").Equal(LineTotal(3, MustMoney("12.35"))))
	assert.True(t, MustMoney("0.33").Equal(LineTotal(1, MustMoney("0.333"))))
}
