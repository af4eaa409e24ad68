// Package model defines the records produced by the market research tasks.
// They are plain values: built once from a model response, then handed to the
// caller for display or export. JSON tags match the shape the prompts ask for.
package model

// MarketTaxonomy describes the structure of a market. Slice order is display order.
type MarketTaxonomy struct {
	MarketName        string   `json:"market_name"`
	Definition        string   `json:"definition"`
	Divisions         []string `json:"divisions"`
	SuggestedFeatures []string `json:"suggested_features"`
	SubDivisions      []string `json:"sub_divisions"`
}

// ProductRecord is the structured data extracted from a product webpage.
// CaseStudyDesc and CaseStudyLink are nil when the page has no case study.
type ProductRecord struct {
	CompanyName        string          `json:"company_name"`
	ProductName        string          `json:"product_name"`
	Description        string          `json:"description"`
	Features           []string        `json:"features"`
	FeatureFlags       map[string]bool `json:"feature_flags"`
	CaseStudyDesc      *string         `json:"case_study_desc"`
	CaseStudyLink      *string         `json:"case_study_link"`
	IsCaseStudyPresent bool            `json:"is_case_study_present"`
	PricingDesc        string          `json:"pricing_desc"`
	PricingTiers       []string        `json:"pricing_tiers"`
	Notes              string          `json:"notes"`
}

// CompetitorRecord is one market player found through grounded search.
type CompetitorRecord struct {
	CompanyName        string `json:"company_name"`
	ProductName        string `json:"product_name"`
	OfficialWebsiteURL string `json:"official_website_url"`
	Description        string `json:"description"`
}
