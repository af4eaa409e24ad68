// Package export writes task results as CSV for spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/AlosedAG/market-creation/internal/model"
)

// listSep joins list values inside a single cell.
const listSep = "; "

// WriteTaxonomy writes a taxonomy as field/value rows, one row per field.
func WriteTaxonomy(w io.Writer, t model.MarketTaxonomy) error {
	return writeAll(w, [][]string{
		{"field", "value"},
		{"market_name", t.MarketName},
		{"definition", t.Definition},
		{"divisions", strings.Join(t.Divisions, listSep)},
		{"suggested_features", strings.Join(t.SuggestedFeatures, listSep)},
		{"sub_divisions", strings.Join(t.SubDivisions, listSep)},
	})
}

// WriteCompetitors writes one row per competitor, in the order given.
func WriteCompetitors(w io.Writer, competitors []model.CompetitorRecord) error {
	rows := [][]string{{"company_name", "product_name", "official_website_url", "description"}}
	for _, c := range competitors {
		rows = append(rows, []string{c.CompanyName, c.ProductName, c.OfficialWebsiteURL, c.Description})
	}
	return writeAll(w, rows)
}

// WriteProduct writes a product record as a single row. Each checked feature
// gets its own column, sorted by name, holding "true" or "false".
func WriteProduct(w io.Writer, p model.ProductRecord) error {
	flags := make([]string, 0, len(p.FeatureFlags))
	for name := range p.FeatureFlags {
		flags = append(flags, name)
	}
	sort.Strings(flags)

	header := []string{
		"company_name", "product_name", "description", "features",
		"case_study_desc", "case_study_link", "is_case_study_present",
		"pricing_desc", "pricing_tiers", "notes",
	}
	row := []string{
		p.CompanyName, p.ProductName, p.Description, strings.Join(p.Features, listSep),
		deref(p.CaseStudyDesc), deref(p.CaseStudyLink), strconv.FormatBool(p.IsCaseStudyPresent),
		p.PricingDesc, strings.Join(p.PricingTiers, listSep), p.Notes,
	}
	for _, name := range flags {
		header = append(header, "feature: "+name)
		row = append(row, strconv.FormatBool(p.FeatureFlags[name]))
	}

	return writeAll(w, [][]string{header, row})
}

func writeAll(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
