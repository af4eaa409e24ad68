package scraper

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// BrowserFetcher renders pages in headless Chrome before extracting text, for
// product sites that build their content with JavaScript. A Chrome or
// Chromium binary must be installed.
type BrowserFetcher struct {
	timeout   time.Duration
	userAgent string
	logger    *zap.Logger
}

func NewBrowserFetcher(timeout time.Duration, userAgent string, logger *zap.Logger) *BrowserFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BrowserFetcher{timeout: timeout, userAgent: userAgent, logger: logger}
}

func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(f.userAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx, chromedp.WithLogf(f.logger.Sugar().Debugf))
	defer cancelTask()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, f.timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", unreachable(url, err)
	}

	text, err := ExtractText(strings.NewReader(html))
	if err != nil {
		return "", unreachable(url, err)
	}

	f.logger.Debug("rendered page",
		zap.String("url", url),
		zap.Int("chars", len(text)),
	)
	return text, nil
}
