// Package websearch fetches supplementary web results from DuckDuckGo's
// HTML endpoint. Results are purely additive and never feed the ranking
// pipeline.
package websearch

import (
	"context"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/localseek/localseek/internal/domain"
)

const (
	defaultEndpoint = "https://html.duckduckgo.com/html/"

	// Plain browser agent; the endpoint blocks default Go clients.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	maxTitleLen   = 200
	maxSnippetLen = 300
)

// Client fetches web results. All failures are silent: web search is
// optional and must never fail a search.
type Client struct {
	httpClient *http.Client
	endpoint   string
	logger     *zap.Logger
}

// New creates a web search client.
func New(timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   defaultEndpoint,
		logger:     logger,
	}
}

// WithEndpoint overrides the search endpoint (used in tests).
func (c *Client) WithEndpoint(endpoint string) *Client {
	c.endpoint = endpoint
	return c
}

// Fetch returns up to maxResults web hits for the query. Failures return nil.
func (c *Client) Fetch(ctx context.Context, query string, maxResults int) []domain.WebResult {
	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		c.logger.Warn("Web search request build failed", zap.Error(err))
		return nil
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Web search failed", zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Web search returned non-OK status", zap.Int("status", resp.StatusCode))
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		c.logger.Warn("Web search read failed", zap.Error(err))
		return nil
	}

	return parseResults(string(body), maxResults)
}

var (
	resultDivPattern = regexp.MustCompile(`(?is)<div[^>]*class="[^"]*result[^"]*"[^>]*>(.*?)</div>\s*</div>`)
	linkPattern      = regexp.MustCompile(`(?is)<a[^>]*class="result__a"[^>]*href="([^"]+)"[^>]*>(.*?)</a>`)
	snippetPattern   = regexp.MustCompile(`(?is)<a[^>]*class="result__snippet"[^>]*>(.*?)</a>`)
	redirectPattern  = regexp.MustCompile(`uddg=([^&]+)`)
	tagPattern       = regexp.MustCompile(`<[^>]+>`)
)

// parseResults extracts result blocks from the DuckDuckGo HTML page.
func parseResults(page string, maxResults int) []domain.WebResult {
	var out []domain.WebResult
	for _, div := range resultDivPattern.FindAllStringSubmatch(page, -1) {
		if len(out) >= maxResults {
			break
		}

		link := linkPattern.FindStringSubmatch(div[1])
		if link == nil {
			continue
		}
		resultURL := link[1]
		title := cleanHTML(link[2])

		// Skip internal links; unwrap redirect URLs.
		if strings.Contains(resultURL, "duckduckgo.com") && !strings.Contains(resultURL, "uddg=") {
			continue
		}
		if m := redirectPattern.FindStringSubmatch(resultURL); m != nil {
			if unwrapped, err := url.QueryUnescape(m[1]); err == nil {
				resultURL = unwrapped
			}
		}

		var snippet string
		if m := snippetPattern.FindStringSubmatch(div[1]); m != nil {
			snippet = cleanHTML(m[1])
		}

		if title == "" || resultURL == "" {
			continue
		}
		out = append(out, domain.WebResult{
			Title:   clip(title, maxTitleLen),
			Snippet: clip(snippet, maxSnippetLen),
			URL:     resultURL,
		})
	}
	return out
}

func cleanHTML(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
