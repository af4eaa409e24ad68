package engine

import (
	"fmt"
	"strings"
)

const taxonomyPrompt = `Analyze the market for: %s.
Return a JSON object with exactly these keys:
- "market_name": a formal name for the market (e.g. "Conversational Intelligence").
- "definition": a brief description of the market.
- "divisions": a list of 4-6 channels (e.g. SMS, Voice).
- "suggested_features": a list of 8-10 features worth checking for each product (e.g. SSO, API).
- "sub_divisions": a list of 3-5 niche segments.`

const searchPrompt = `Use web search to ground your answer in current, real information.

%s

Answer with a JSON array of objects only. If you find nothing, answer with [].`

const extractionPrompt = `Analyze this website text and extract product information.
Features to check (answer true or false for each): %s

Website content:
%s

Return a JSON object with this structure:
{
  "company_name": "string",
  "product_name": "string",
  "description": "string",
  "features": ["list of strings"],
  "feature_flags": {"Feature Name": true},
  "case_study_desc": "string or null",
  "case_study_link": "string or null",
  "is_case_study_present": false,
  "pricing_desc": "string",
  "pricing_tiers": ["list of strings"],
  "notes": "string"
}`

func buildTaxonomyPrompt(topic string) string {
	return fmt.Sprintf(taxonomyPrompt, topic)
}

func buildSearchPrompt(query string) string {
	return fmt.Sprintf(searchPrompt, strings.TrimSpace(query))
}

func buildExtractionPrompt(text string, features []string) string {
	checklist := "none"
	if len(features) > 0 {
		checklist = strings.Join(features, ", ")
	}
	return fmt.Sprintf(extractionPrompt, checklist, text)
}

// truncateRunes cuts s to at most limit characters without splitting a
// multi-byte rune. Text at or under the limit is returned unchanged.
func truncateRunes(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
