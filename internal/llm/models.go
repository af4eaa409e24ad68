package llm

import (
	"slices"
	"sort"
	"strings"
)

// ModelInfo describes a model reported by a provider's list endpoint.
type ModelInfo struct {
	Name             string
	DisplayName      string
	SupportedActions []string
}

// Tier groups Gemini models by cost, cheapest first.
type Tier string

const (
	TierFlashLite Tier = "Flash Lite"
	TierFlash     Tier = "Flash"
	TierPro       Tier = "Pro"
	TierOther     Tier = "Other"
)

// TierOrder is the display order of tiers.
var TierOrder = []Tier{TierFlashLite, TierFlash, TierPro, TierOther}

// RankedModel is a model placed in its tier.
type RankedModel struct {
	ModelInfo
	Tier Tier
}

// RankModels keeps Gemini models that can generate content, drops embedding
// models, and orders the rest by tier then name. Flash Lite comes first since
// it uses the least quota.
func RankModels(models []ModelInfo) []RankedModel {
	var candidates []ModelInfo
	for _, m := range models {
		name := strings.ToLower(m.Name)
		if !strings.Contains(name, "gemini") || strings.Contains(name, "embedding") {
			continue
		}
		if len(m.SupportedActions) > 0 && !slices.Contains(m.SupportedActions, "generateContent") {
			continue
		}
		if m.DisplayName == "" {
			m.DisplayName = strings.TrimPrefix(m.Name, "models/")
		}
		candidates = append(candidates, m)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].DisplayName < candidates[j].DisplayName
	})

	var ranked []RankedModel
	for _, tier := range TierOrder {
		for _, m := range candidates {
			if tierOf(m.DisplayName) == tier {
				ranked = append(ranked, RankedModel{ModelInfo: m, Tier: tier})
			}
		}
	}
	return ranked
}

func tierOf(displayName string) Tier {
	name := strings.ToLower(displayName)
	switch {
	case strings.Contains(name, "flash-lite"):
		return TierFlashLite
	case strings.Contains(name, "flash") && !strings.Contains(name, "lite"):
		return TierFlash
	case strings.Contains(name, "pro"):
		return TierPro
	default:
		return TierOther
	}
}
