package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlosedAG/market-creation/internal/engine"
	"github.com/AlosedAG/market-creation/internal/llm"
	"github.com/AlosedAG/market-creation/internal/model"
	"github.com/AlosedAG/market-creation/internal/storage"
)

// chatServer answers every chat completion with content.
func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-test",
			"choices":[{"index":0,"message":{"role":"assistant","content":%q},"finish_reason":"stop"}]}`, content)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, baseURL string, audit bool) (string, string) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	exports := filepath.Join(dir, "exports")
	yaml := fmt.Sprintf(`
llm:
  provider: openai
  openai:
    api_key: sk-test
    model: gpt-test
    base_url: %s/v1
engine:
  min_interval: 0s
  cooldown: 0s
  max_attempts: 1
storage:
  audit: %t
  database_path: %s
  export_dir: %s
`, baseURL, audit, filepath.Join(dir, "audit.db"), exports)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path, exports
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCreate_PrintsAndExportsTaxonomy(t *testing.T) {
	srv := chatServer(t, `{"market_name":"Chatbots","definition":"Conversational software","divisions":["Support","Sales"],"suggested_features":["NLU"],"sub_divisions":[]}`)
	cfgPath, exports := writeConfig(t, srv.URL, true)

	out, err := execute(t, "--config", cfgPath, "create", "chat", "bots", "--export")
	require.NoError(t, err)

	assert.Contains(t, out, "Analyzing market: chat bots")
	assert.Contains(t, out, "Chatbots")
	assert.Contains(t, out, "Support, Sales")
	assert.Contains(t, out, "Sub-divisions: N/A")

	_, err = os.Stat(filepath.Join(exports, "chat-bots-taxonomy.csv"))
	require.NoError(t, err)

	out, err = execute(t, "--config", cfgPath, "calls")
	require.NoError(t, err)
	assert.Contains(t, out, "analyze_market")
	assert.Contains(t, out, "chat bots")
}

func TestCreate_MalformedOutputFails(t *testing.T) {
	srv := chatServer(t, "not json")
	cfgPath, _ := writeConfig(t, srv.URL, false)

	_, err := execute(t, "--config", cfgPath, "create", "chatbots")
	require.ErrorIs(t, err, engine.ErrMalformedResponse)
}

func TestCalls_AuditDisabled(t *testing.T) {
	cfgPath, _ := writeConfig(t, "http://127.0.0.1:0", false)

	out, err := execute(t, "--config", cfgPath, "calls")
	require.NoError(t, err)
	assert.Contains(t, out, "audit log is disabled")
}

func TestPromptAPIKey(t *testing.T) {
	var out bytes.Buffer
	key, err := promptAPIKey(bufio.NewReader(strings.NewReader("  abc123 \n")), &out, "gemini")
	require.NoError(t, err)
	assert.Equal(t, "abc123", key)
	assert.Contains(t, out.String(), "gemini API key")

	_, err = promptAPIKey(bufio.NewReader(strings.NewReader("\n")), &out, "gemini")
	require.ErrorIs(t, err, errNoAPIKey)
}

func TestChooseModel(t *testing.T) {
	ranked := []llm.RankedModel{
		{ModelInfo: llm.ModelInfo{Name: "models/gemini-2.5-flash-lite", DisplayName: "gemini-2.5-flash-lite"}, Tier: llm.TierFlashLite},
		{ModelInfo: llm.ModelInfo{Name: "models/gemini-2.5-flash", DisplayName: "gemini-2.5-flash"}, Tier: llm.TierFlash},
		{ModelInfo: llm.ModelInfo{Name: "models/gemini-2.5-pro", DisplayName: "gemini-2.5-pro"}, Tier: llm.TierPro},
	}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"enter picks first", "\n", "models/gemini-2.5-flash-lite", false},
		{"number", "3\n", "models/gemini-2.5-pro", false},
		{"retry after bad input", "9\nabc\n2\n", "models/gemini-2.5-flash", false},
		{"last line without newline", "2", "models/gemini-2.5-flash", false},
		{"eof", "", "", true},
		{"bad input then eof", "7\n", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := chooseModel(bufio.NewReader(strings.NewReader(tt.input)), &out, ranked)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestRenderModels_GroupsByTier(t *testing.T) {
	var out bytes.Buffer
	renderModels(&out, []llm.RankedModel{
		{ModelInfo: llm.ModelInfo{DisplayName: "gemini-2.5-flash-lite"}, Tier: llm.TierFlashLite},
		{ModelInfo: llm.ModelInfo{DisplayName: "gemini-2.0-flash-lite"}, Tier: llm.TierFlashLite},
		{ModelInfo: llm.ModelInfo{DisplayName: "gemini-2.5-pro"}, Tier: llm.TierPro},
	})

	text := out.String()
	assert.Equal(t, 1, strings.Count(text, "FLASH LITE"))
	assert.Contains(t, text, "3. gemini-2.5-pro")
	assert.Less(t, strings.Index(text, "FLASH LITE"), strings.Index(text, "PRO (more capable)"))
}

func TestRenderProduct(t *testing.T) {
	desc := "Cut churn by 30%"
	var out bytes.Buffer
	renderProduct(&out, model.ProductRecord{
		CompanyName:        "Acme",
		FeatureFlags:       map[string]bool{"SSO": true, "Webhooks": false},
		IsCaseStudyPresent: true,
		CaseStudyDesc:      &desc,
		PricingTiers:       []string{"Free", "Pro"},
	})

	text := out.String()
	assert.Contains(t, text, "Company: Acme")
	assert.Contains(t, text, "Product: N/A")
	assert.Contains(t, text, "✓ SSO")
	assert.Contains(t, text, "✗ Webhooks")
	assert.Contains(t, text, "Case Study: Cut churn by 30%")
	assert.Contains(t, text, "Tiers: Free, Pro")
}

func TestRenderCompetitors_Empty(t *testing.T) {
	var out bytes.Buffer
	renderCompetitors(&out, nil)
	assert.Contains(t, out.String(), "No competitors found")
}

func TestRenderCalls(t *testing.T) {
	var out bytes.Buffer
	renderCalls(&out,
		[]storage.TaskSummary{{Task: "analyze_market", Runs: 2, Succeeded: 1, Attempts: 5, AvgDuration: 1500}},
		[]model.LLMCall{{Task: "analyze_market", Model: "gemini-x", Attempts: 4, Subject: "crm", CreatedAt: time.Now()}},
	)

	text := out.String()
	assert.Contains(t, text, "1.5s")
	assert.Contains(t, text, "failed")
	assert.Contains(t, text, "crm")
}

func TestDescribeError(t *testing.T) {
	exhausted := fmt.Errorf("%w after 15 attempts: boom", engine.ErrExhaustedRetries)
	assert.Contains(t, describeError(exhausted), "Quota exhausted")

	transient := &llm.ProviderError{Provider: "gemini", Kind: llm.KindTransient, StatusCode: 429, Err: errors.New("quota")}
	assert.Contains(t, describeError(transient), "Try again later")

	assert.Equal(t, "error: boom", describeError(errors.New("boom")))
}
