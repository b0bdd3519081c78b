package service

import (
	"github.com/tolkvo/callengine/internal/core/domain"
)

type ruleKey struct {
	callType domain.CallType
	callMode domain.CallMode
}

// PricingCatalog holds the fetched price table. Read-only for the
// engine's lifetime; last rule wins on duplicate (type, mode) pairs.
type PricingCatalog struct {
	byKey map[ruleKey]domain.PricingRule
	order []ruleKey
}

func NewPricingCatalog(rules []domain.PricingRule) *PricingCatalog {
	c := &PricingCatalog{byKey: make(map[ruleKey]domain.PricingRule, len(rules))}
	for _, r := range rules {
		k := ruleKey{r.CallType, r.CallMode}
		if _, seen := c.byKey[k]; !seen {
			c.order = append(c.order, k)
		}
		c.byKey[k] = r
	}
	return c
}

// Lookup returns the rule for the pair, or domain.ErrRuleNotFound.
// A missing pair means the feature is unavailable, never free.
func (c *PricingCatalog) Lookup(callType domain.CallType, callMode domain.CallMode) (domain.PricingRule, error) {
	r, ok := c.byKey[ruleKey{callType, callMode}]
	if !ok {
		return domain.PricingRule{}, domain.ErrRuleNotFound
	}
	return r, nil
}

// Rules returns the table in load order.
func (c *PricingCatalog) Rules() []domain.PricingRule {
	out := make([]domain.PricingRule, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.byKey[k])
	}
	return out
}
