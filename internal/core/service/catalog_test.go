package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolkvo/callengine/internal/core/domain"
)

func testRules() []domain.PricingRule {
	return []domain.PricingRule{
		{CallType: domain.CallTypeVoice, CallMode: domain.ModeAI, PricePerMinute: decimal.NewFromInt(1), MinimumChargeMinutes: 5},
		{CallType: domain.CallTypeVideo, CallMode: domain.ModeAI, PricePerMinute: decimal.NewFromInt(2), MinimumChargeMinutes: 5},
		{CallType: domain.CallTypeVideo, CallMode: domain.ModeSignLanguage, PricePerMinute: decimal.NewFromInt(3), MinimumChargeMinutes: 5},
	}
}

func TestPricingCatalogLookup(t *testing.T) {
	c := NewPricingCatalog(testRules())

	rule, err := c.Lookup(domain.CallTypeVideo, domain.ModeSignLanguage)
	require.NoError(t, err)
	assert.True(t, rule.PricePerMinute.Equal(decimal.NewFromInt(3)))
}

func TestPricingCatalogMissingPairIsNotFound(t *testing.T) {
	c := NewPricingCatalog(testRules())

	// sign language never has a voice-only rule; the feature is
	// unavailable, not free
	_, err := c.Lookup(domain.CallTypeVoice, domain.ModeSignLanguage)
	assert.ErrorIs(t, err, domain.ErrRuleNotFound)
}

func TestPricingCatalogRulesKeepLoadOrder(t *testing.T) {
	c := NewPricingCatalog(testRules())

	rules := c.Rules()
	require.Len(t, rules, 3)
	assert.Equal(t, domain.CallTypeVoice, rules[0].CallType)
	assert.Equal(t, domain.ModeSignLanguage, rules[2].CallMode)
}

func TestPricingCatalogDuplicatePairLastWins(t *testing.T) {
	rules := append(testRules(), domain.PricingRule{
		CallType: domain.CallTypeVoice, CallMode: domain.ModeAI,
		PricePerMinute: decimal.NewFromInt(9), MinimumChargeMinutes: 1,
	})
	c := NewPricingCatalog(rules)

	rule, err := c.Lookup(domain.CallTypeVoice, domain.ModeAI)
	require.NoError(t, err)
	assert.True(t, rule.PricePerMinute.Equal(decimal.NewFromInt(9)))
	assert.Len(t, c.Rules(), 3)
}
