package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlosedAG/market-creation/internal/config"
	"github.com/AlosedAG/market-creation/internal/llm"
)

type cannedClient struct {
	reply string
	calls int
}

func (c *cannedClient) Generate(ctx context.Context, req llm.Request) (string, error) {
	c.calls++
	return c.reply, nil
}

func (c *cannedClient) ProviderName() string { return "canned" }
func (c *cannedClient) ModelName() string    { return "canned-1" }

type pageFetcher struct{ text string }

func (f pageFetcher) Fetch(ctx context.Context, url string) (string, error) { return f.text, nil }

func testConfig(t *testing.T, audit bool) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		LLM: config.LLMConfig{
			Provider: config.ProviderOpenAI,
			OpenAI:   config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-test"},
		},
		Engine: config.EngineConfig{MaxAttempts: 2, MaxPageChars: 100},
		Scraper: config.ScraperConfig{
			Timeout:   time.Second,
			UserAgent: "test",
		},
		Storage: config.StorageConfig{
			DatabasePath: filepath.Join(dir, "db", "audit.db"),
			ExportDir:    filepath.Join(dir, "exports"),
			Audit:        audit,
		},
	}
}

func TestNew_RecordsTaskRuns(t *testing.T) {
	client := &cannedClient{reply: `{"market_name":"CRM","divisions":["Sales","Support"]}`}
	reg := prometheus.NewRegistry()

	a, err := New(context.Background(), testConfig(t, true), Options{Client: client, Registerer: reg}, nil)
	require.NoError(t, err)
	defer a.Close()

	taxonomy, err := a.Creator.BuildTaxonomy(context.Background(), "crm")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sales", "Support"}, taxonomy.Divisions)
	assert.Equal(t, 1, client.calls)

	require.NotNil(t, a.Calls)
	n, err := a.Calls.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	count, err := testutil.GatherAndCount(reg, "llm_tasks_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNew_AuditDisabled(t *testing.T) {
	cfg := testConfig(t, false)

	a, err := New(context.Background(), cfg, Options{Client: &cannedClient{}}, nil)
	require.NoError(t, err)

	assert.Nil(t, a.Calls)
	assert.Nil(t, a.Metrics)
	assert.NoError(t, a.Close())

	_, err = os.Stat(cfg.Storage.DatabasePath)
	assert.True(t, os.IsNotExist(err))
}

func TestNew_UpdaterUsesFetcher(t *testing.T) {
	client := &cannedClient{reply: `{"company_name":"Acme","product_name":"Rocket"}`}

	a, err := New(context.Background(), testConfig(t, false), Options{
		Client:  client,
		Fetcher: pageFetcher{text: "Acme Rocket. Pricing from $10."},
	}, nil)
	require.NoError(t, err)

	product, err := a.Updater.UpdateCompany(context.Background(), "acme.test", []string{"SSO"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", product.CompanyName)
	assert.Equal(t, 1, client.calls)
}

func TestNew_BuildsClientFromConfig(t *testing.T) {
	a, err := New(context.Background(), testConfig(t, false), Options{}, nil)
	require.NoError(t, err)

	assert.Equal(t, "openai", a.Client.ProviderName())
	assert.Equal(t, "gpt-test", a.Client.ModelName())

	_, ok := a.ModelLister()
	assert.True(t, ok)
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := testConfig(t, false)
	cfg.LLM.Provider = "llama"
	cfg.LLM.Gemini.APIKey = "k"

	_, err := New(context.Background(), cfg, Options{}, nil)
	require.ErrorIs(t, err, llm.ErrUnsupportedProvider)
}

func TestNew_MissingAPIKey(t *testing.T) {
	cfg := testConfig(t, false)
	cfg.LLM.OpenAI.APIKey = ""

	_, err := New(context.Background(), cfg, Options{}, nil)
	require.ErrorIs(t, err, llm.ErrMissingAPIKey)
}

func TestExporter_CreatedOnFirstUse(t *testing.T) {
	cfg := testConfig(t, false)
	a, err := New(context.Background(), cfg, Options{Client: &cannedClient{}}, nil)
	require.NoError(t, err)

	_, err = os.Stat(cfg.Storage.ExportDir)
	require.True(t, os.IsNotExist(err))

	exp, err := a.Exporter()
	require.NoError(t, err)
	again, err := a.Exporter()
	require.NoError(t, err)
	assert.Same(t, exp, again)

	info, err := os.Stat(cfg.Storage.ExportDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
