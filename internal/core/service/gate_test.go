package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolkvo/callengine/internal/core/domain"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestEvaluateAdmission(t *testing.T) {
	rule := domain.PricingRule{
		CallType:             domain.CallTypeVideo,
		CallMode:             domain.ModeAI,
		PricePerMinute:       decimal.NewFromInt(2),
		MinimumChargeMinutes: 5,
	}

	tests := []struct {
		name          string
		balance       string
		wantAdmitted  bool
		wantShortfall string
	}{
		{name: "one short of reserve", balance: "9", wantAdmitted: false, wantShortfall: "1"},
		{name: "exactly the reserve admits", balance: "10", wantAdmitted: true, wantShortfall: "0"},
		{name: "above the reserve", balance: "10.01", wantAdmitted: true, wantShortfall: "0"},
		{name: "zero balance", balance: "0", wantAdmitted: false, wantShortfall: "10"},
		{name: "just below the reserve", balance: "9.99", wantAdmitted: false, wantShortfall: "0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateAdmission(dec(t, tt.balance), rule)
			assert.Equal(t, tt.wantAdmitted, got.Admitted)
			assert.True(t, got.RequiredReserve.Equal(decimal.NewFromInt(10)),
				"required reserve %s", got.RequiredReserve)
			assert.True(t, got.Shortfall.Equal(dec(t, tt.wantShortfall)),
				"shortfall %s, want %s", got.Shortfall, tt.wantShortfall)
		})
	}
}

func TestEvaluateAdmissionReserveFollowsRule(t *testing.T) {
	rule := domain.PricingRule{
		CallType:             domain.CallTypeVoice,
		CallMode:             domain.ModeHumanInterpreter,
		PricePerMinute:       dec(t, "6.50"),
		MinimumChargeMinutes: 3,
	}

	got := EvaluateAdmission(dec(t, "19.49"), rule)
	assert.False(t, got.Admitted)
	assert.True(t, got.RequiredReserve.Equal(dec(t, "19.50")))
	assert.True(t, got.Shortfall.Equal(dec(t, "0.01")))
}
