package models

// ModelPricing defines token pricing for a model tier, in USD per million
// tokens. Estimates produced from it are informational only and never
// authoritative.
type ModelPricing struct {
	Input         float64 // Per million tokens
	Output        float64 // Per million tokens
	CacheCreation float64 // Per million tokens
	CacheRead     float64 // Per million tokens
}

// modelPricingMap stores pricing for all known model tiers
var modelPricingMap = map[string]ModelPricing{
	ModelOpus: {
		Input:         15.00,
		Output:        75.00,
		CacheCreation: 18.75,
		CacheRead:     1.875,
	},
	ModelSonnet: {
		Input:         3.00,
		Output:        15.00,
		CacheCreation: 3.75,
		CacheRead:     0.30,
	},
	ModelHaiku: {
		Input:         0.80,
		Output:        4.00,
		CacheCreation: 1.00,
		CacheRead:     0.08,
	},
}

// GetPricing returns the pricing for a specific model.
// Unknown models fall back to Sonnet pricing.
func GetPricing(model string) ModelPricing {
	if pricing, ok := modelPricingMap[model]; ok {
		return pricing
	}
	return modelPricingMap[ModelSonnet]
}

// GetAllPricings returns a copy of all model pricings.
func GetAllPricings() map[string]ModelPricing {
	result := make(map[string]ModelPricing, len(modelPricingMap))
	for k, v := range modelPricingMap {
		result[k] = v
	}
	return result
}

// CostFor calculates the cost in USD of a token stat under a pricing tier.
func (p ModelPricing) CostFor(stat TokenStat) float64 {
	inputCost := float64(stat.InputTokens) / 1_000_000 * p.Input
	outputCost := float64(stat.OutputTokens) / 1_000_000 * p.Output
	cacheCreationCost := float64(stat.CacheCreationTokens) / 1_000_000 * p.CacheCreation
	cacheReadCost := float64(stat.CacheReadTokens) / 1_000_000 * p.CacheRead

	return inputCost + outputCost + cacheCreationCost + cacheReadCost
}
