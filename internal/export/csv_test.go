package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlosedAG/market-creation/internal/model"
)

func readRows(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	rows, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteTaxonomy(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTaxonomy(&buf, model.MarketTaxonomy{
		MarketName:        "Conversational Intelligence",
		Definition:        "Software that talks, listens, and summarizes",
		Divisions:         []string{"SMS", "Voice"},
		SuggestedFeatures: []string{"SSO", "API"},
		SubDivisions:      []string{"Healthcare"},
	})
	require.NoError(t, err)

	rows := readRows(t, &buf)
	require.Len(t, rows, 6)
	assert.Equal(t, []string{"definition", "Software that talks, listens, and summarizes"}, rows[2])
	assert.Equal(t, []string{"divisions", "SMS; Voice"}, rows[3])
}

func TestWriteCompetitors(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCompetitors(&buf, []model.CompetitorRecord{
		{CompanyName: "Acme", ProductName: "AcmeBot", OfficialWebsiteURL: "https://acme.example", Description: `Says "hi"`},
		{CompanyName: "Globex", ProductName: "Talk"},
	})
	require.NoError(t, err)

	rows := readRows(t, &buf)
	require.Len(t, rows, 3)
	assert.Equal(t, "company_name", rows[0][0])
	assert.Equal(t, []string{"Acme", "AcmeBot", "https://acme.example", `Says "hi"`}, rows[1])
	assert.Equal(t, "Globex", rows[2][0])
}

func TestWriteCompetitors_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCompetitors(&buf, nil))
	assert.Len(t, readRows(t, &buf), 1)
}

func TestWriteProduct(t *testing.T) {
	link := "https://acme.example/customers"
	var buf bytes.Buffer
	err := WriteProduct(&buf, model.ProductRecord{
		CompanyName:        "Acme",
		ProductName:        "AcmeBot",
		Features:           []string{"SSO", "Webhooks"},
		FeatureFlags:       map[string]bool{"SSO": true, "API access": false},
		CaseStudyLink:      &link,
		IsCaseStudyPresent: true,
		PricingTiers:       []string{"Free", "Pro"},
	})
	require.NoError(t, err)

	rows := readRows(t, &buf)
	require.Len(t, rows, 2)
	header, row := rows[0], rows[1]
	require.Len(t, row, len(header))

	col := func(name string) string {
		for i, h := range header {
			if h == name {
				return row[i]
			}
		}
		t.Fatalf("missing column %q", name)
		return ""
	}
	assert.Equal(t, "SSO; Webhooks", col("features"))
	assert.Equal(t, "", col("case_study_desc"))
	assert.Equal(t, link, col("case_study_link"))
	assert.Equal(t, "true", col("is_case_study_present"))
	assert.Equal(t, "false", col("feature: API access"))
	assert.Equal(t, "true", col("feature: SSO"))
	assert.Equal(t, "feature: API access", header[len(header)-2], "feature columns are sorted")
}
