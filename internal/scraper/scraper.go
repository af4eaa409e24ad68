// Package scraper fetches a single product page and reduces it to the plain
// text the extraction task reads. It never follows links.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrSiteUnreachable is returned when a page cannot be downloaded: transport
// failures, timeouts and non-200 responses all map to it.
var ErrSiteUnreachable = errors.New("site unreachable")

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 10 << 20

// noiseSelectors are removed before the text is collected.
const noiseSelectors = "script, style, nav, footer, header, noscript"

// Fetcher returns the visible text of the page at url.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ExtractText parses an HTML document and returns its body text with
// navigation chrome removed and whitespace collapsed to single spaces.
func ExtractText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	doc.Find(noiseSelectors).Remove()

	body := doc.Find("body")
	text := body.Text()
	if body.Length() == 0 {
		text = doc.Text()
	}
	return strings.Join(strings.Fields(text), " "), nil
}

func unreachable(url string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrSiteUnreachable, url, err)
}
