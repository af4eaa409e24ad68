// Package service contains the market research workflows built on top of the
// LLM engine.
//
//	Creator: topic → taxonomy → (optional) grounded search for competitors
//	Updater: product URL → scraped page text → structured product record
//
// Both are thin: the engine owns throttling, retries and parsing, the
// scraper owns HTTP. This layer validates input, builds queries, and turns
// loosely-typed search output into records.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"

	"github.com/AlosedAG/market-creation/internal/model"
	"github.com/AlosedAG/market-creation/internal/scraper"
)

// ErrInvalidInput is returned for blank topics and unusable URLs.
var ErrInvalidInput = errors.New("invalid input")

// DefaultFeatures are checked when the caller doesn't name any.
var DefaultFeatures = []string{"Mobile App", "API access", "SSO", "Analytics Dashboard", "Webhooks"}

// Engine is the subset of *engine.Engine the workflows use.
type Engine interface {
	AnalyzeMarket(ctx context.Context, topic string) (model.MarketTaxonomy, error)
	SearchAndAnalyze(ctx context.Context, query string) []map[string]any
	ExtractProductData(ctx context.Context, rawText string, features []string) (model.ProductRecord, error)
}

// Creator builds a new market landscape.
type Creator struct {
	engine Engine
	logger *zap.Logger
}

func NewCreator(engine Engine, logger *zap.Logger) *Creator {
	return &Creator{engine: engine, logger: logger}
}

// BuildTaxonomy generates the market structure for topic (e.g. "Chatbots").
func (c *Creator) BuildTaxonomy(ctx context.Context, topic string) (model.MarketTaxonomy, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return model.MarketTaxonomy{}, fmt.Errorf("%w: topic is required", ErrInvalidInput)
	}
	return c.engine.AnalyzeMarket(ctx, topic)
}

// FindCompetitors asks a search-grounded model for the current players in
// the given divisions. Search is best effort: an empty result means nothing
// usable came back, whatever the reason. Entries without a company name
// are dropped.
func (c *Creator) FindCompetitors(ctx context.Context, topic string, divisions []string) ([]model.CompetitorRecord, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrInvalidInput)
	}

	raw := c.engine.SearchAndAnalyze(ctx, competitorQuery(topic, divisions))

	competitors := make([]model.CompetitorRecord, 0, len(raw))
	for i, item := range raw {
		rec, err := decodeCompetitor(item)
		if err != nil {
			c.logger.Warn("skipping competitor entry",
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		if rec.CompanyName == "" {
			c.logger.Debug("skipping competitor without company name", zap.Int("index", i))
			continue
		}
		competitors = append(competitors, rec)
	}

	c.logger.Info("competitor search finished",
		zap.String("topic", topic),
		zap.Int("raw", len(raw)),
		zap.Int("kept", len(competitors)),
	)
	return competitors, nil
}

func competitorQuery(topic string, divisions []string) string {
	categories := "all segments of the market"
	if len(divisions) > 0 {
		categories = strings.Join(divisions, ", ")
	}
	return fmt.Sprintf(`Search for the top %s companies and products in these categories: %s.

For each company or product you find, return a JSON array with this structure:
[
  {
    "company_name": "Company Name",
    "product_name": "Product Name",
    "official_website_url": "https://example.com",
    "description": "Brief description"
  }
]

Find 5-10 major players in this market. Only include current, real companies.`, topic, categories)
}

// decodeCompetitor maps one search result onto a record. Models sometimes
// answer with numbers or booleans where strings belong, so input is
// weakly typed.
func decodeCompetitor(item map[string]any) (model.CompetitorRecord, error) {
	var rec model.CompetitorRecord
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &rec,
	})
	if err != nil {
		return rec, err
	}
	if err := dec.Decode(item); err != nil {
		return rec, err
	}
	rec.CompanyName = strings.TrimSpace(rec.CompanyName)
	return rec, nil
}

// Updater refreshes a single company's product data from its website.
type Updater struct {
	engine  Engine
	fetcher scraper.Fetcher
	logger  *zap.Logger
}

func NewUpdater(engine Engine, fetcher scraper.Fetcher, logger *zap.Logger) *Updater {
	return &Updater{engine: engine, fetcher: fetcher, logger: logger}
}

// UpdateCompany scrapes rawURL and extracts a product record, checking each
// of features (DefaultFeatures when empty). A URL without a scheme is
// treated as https.
func (u *Updater) UpdateCompany(ctx context.Context, rawURL string, features []string) (model.ProductRecord, error) {
	target, err := normalizeURL(rawURL)
	if err != nil {
		return model.ProductRecord{}, err
	}
	if len(features) == 0 {
		features = DefaultFeatures
	}

	u.logger.Info("analyzing page", zap.String("url", target), zap.Int("features", len(features)))

	text, err := u.fetcher.Fetch(ctx, target)
	if err != nil {
		return model.ProductRecord{}, err
	}

	return u.engine.ExtractProductData(ctx, text, features)
}

func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: url is required", ErrInvalidInput)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q is not an http(s) URL", ErrInvalidInput, raw)
	}
	return u.String(), nil
}
