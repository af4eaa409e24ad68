package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankModels(t *testing.T) {
	models := []ModelInfo{
		{Name: "models/gemini-2.5-pro", SupportedActions: []string{"generateContent"}},
		{Name: "models/gemini-2.5-flash", SupportedActions: []string{"generateContent", "countTokens"}},
		{Name: "models/text-embedding-004", SupportedActions: []string{"embedContent"}},
		{Name: "models/gemini-embedding-001", SupportedActions: []string{"embedContent"}},
		{Name: "models/gemini-2.0-flash-lite"},
		{Name: "models/gemini-2.5-flash-lite", SupportedActions: []string{"generateContent"}},
		{Name: "models/gemini-2.0-flash", SupportedActions: []string{"generateContent"}},
		{Name: "models/gemma-3-27b-it", SupportedActions: []string{"generateContent"}},
		{Name: "models/gemini-exp-1206", SupportedActions: []string{"generateContent"}},
		{Name: "models/gemini-aqa", SupportedActions: []string{"generateAnswer"}},
	}

	ranked := RankModels(models)

	var names []string
	var tiers []Tier
	for _, m := range ranked {
		names = append(names, m.DisplayName)
		tiers = append(tiers, m.Tier)
	}

	assert.Equal(t, []string{
		"gemini-2.0-flash-lite",
		"gemini-2.5-flash-lite",
		"gemini-2.0-flash",
		"gemini-2.5-flash",
		"gemini-2.5-pro",
		"gemini-exp-1206",
	}, names)
	assert.Equal(t, []Tier{TierFlashLite, TierFlashLite, TierFlash, TierFlash, TierPro, TierOther}, tiers)
}

func TestRankModels_Empty(t *testing.T) {
	assert.Empty(t, RankModels(nil))
	assert.Empty(t, RankModels([]ModelInfo{{Name: "gpt-4o"}}))
}
