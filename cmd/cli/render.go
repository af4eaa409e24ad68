package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/AlosedAG/market-creation/internal/llm"
	"github.com/AlosedAG/market-creation/internal/model"
	"github.com/AlosedAG/market-creation/internal/storage"
)

const notAvailable = "N/A"

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

func joinOrNA(items []string) string {
	if len(items) == 0 {
		return notAvailable
	}
	return strings.Join(items, ", ")
}

func field(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render(label+":"), value)
}

func renderTaxonomy(w io.Writer, t model.MarketTaxonomy) {
	fmt.Fprintln(w, titleStyle.Render("MARKET TAXONOMY"))
	field(w, "Name", orNA(t.MarketName))
	field(w, "Definition", orNA(t.Definition))
	fmt.Fprintln(w)
	field(w, "Divisions", joinOrNA(t.Divisions))
	field(w, "Suggested Features", joinOrNA(t.SuggestedFeatures))
	field(w, "Sub-divisions", joinOrNA(t.SubDivisions))
}

func renderCompetitors(w io.Writer, competitors []model.CompetitorRecord) {
	if len(competitors) == 0 {
		fmt.Fprintln(w, warningStyle.Render("No competitors found."))
		return
	}
	fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("Found %d potential players:", len(competitors))))
	for _, c := range competitors {
		fmt.Fprintf(w, "  - %s (%s): %s\n", c.CompanyName, orNA(c.ProductName), orNA(c.OfficialWebsiteURL))
	}
}

func renderProduct(w io.Writer, p model.ProductRecord) {
	fmt.Fprintln(w, titleStyle.Render("EXTRACTED MARKET DATA"))
	field(w, "Company", orNA(p.CompanyName))
	field(w, "Product", orNA(p.ProductName))
	field(w, "Description", orNA(p.Description))
	fmt.Fprintln(w)
	field(w, "Features", joinOrNA(p.Features))

	fmt.Fprintln(w, labelStyle.Render("Feature Flags:"))
	names := make([]string, 0, len(p.FeatureFlags))
	for name := range p.FeatureFlags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		mark := errorStyle.Render("✗")
		if p.FeatureFlags[name] {
			mark = successStyle.Render("✓")
		}
		fmt.Fprintf(w, "  %s %s\n", mark, name)
	}

	if p.IsCaseStudyPresent {
		desc := notAvailable
		if p.CaseStudyDesc != nil {
			desc = orNA(*p.CaseStudyDesc)
		}
		field(w, "Case Study", desc)
		if p.CaseStudyLink != nil && *p.CaseStudyLink != "" {
			field(w, "Case Study Link", *p.CaseStudyLink)
		}
	}

	fmt.Fprintln(w)
	field(w, "Pricing", orNA(p.PricingDesc))
	field(w, "Tiers", joinOrNA(p.PricingTiers))
	fmt.Fprintln(w)
	field(w, "Notes", orNA(p.Notes))
}

// tierHeadings label the model tiers the way they are offered to the user.
var tierHeadings = map[llm.Tier]string{
	llm.TierFlashLite: "FLASH LITE (lowest cost, try these first)",
	llm.TierFlash:     "FLASH (good balance)",
	llm.TierPro:       "PRO (more capable)",
	llm.TierOther:     "OTHER",
}

// renderModels prints ranked models numbered from 1 in display order.
func renderModels(w io.Writer, ranked []llm.RankedModel) {
	fmt.Fprintln(w, titleStyle.Render("AVAILABLE MODELS"))
	var current llm.Tier
	for i, m := range ranked {
		if m.Tier != current {
			current = m.Tier
			fmt.Fprintln(w)
			fmt.Fprintln(w, labelStyle.Render(tierHeadings[current]))
		}
		fmt.Fprintf(w, "  %d. %s\n", i+1, m.DisplayName)
	}
}

func renderCalls(w io.Writer, summaries []storage.TaskSummary, recent []model.LLMCall) {
	fmt.Fprintln(w, titleStyle.Render("TASK SUMMARY"))
	if len(summaries) == 0 {
		fmt.Fprintln(w, subtleStyle.Render("No task runs recorded yet."))
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tRUNS\tOK\tATTEMPTS\tAVG")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.1fs\n", s.Task, s.Runs, s.Succeeded, s.Attempts, s.AvgDuration/1000)
	}
	_ = tw.Flush()

	if len(recent) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("RECENT RUNS"))
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tTASK\tMODEL\tATTEMPTS\tRESULT\tSUBJECT")
	for _, c := range recent {
		result := "ok"
		if !c.Success {
			result = "failed"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			c.CreatedAt.Local().Format("2006-01-02 15:04"), c.Task, c.Model, c.Attempts, result, c.Subject)
	}
	_ = tw.Flush()
}
