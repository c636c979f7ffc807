package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"StockSentiment/internal/domain"
	"StockSentiment/internal/scanner"
)

const (
	investingBaseURL    = "https://www.investing.com"
	investingUserAgent  = "Mozilla/5.0"
	articleItemSelector = "article.js-article-item.articleItem"
)

var (
	inlineLinkExpr = regexp.MustCompile(`\(http\S+`)
	tickerTagExpr  = regexp.MustCompile(`\([A-Z]+:[A-Z]+\)`)
	whitespaceExpr = regexp.MustCompile(`[\s\v\p{Z}\x{85}']`)
)

// InvestingOptions tunes the investing.com scanner.
type InvestingOptions struct {
	BaseURL   string
	UserAgent string
	// Concurrency bounds parallel article-page downloads within one symbol; 1 keeps them sequential.
	Concurrency int
}

// InvestingScanner scrapes a symbol's news listing and its linked articles.
type InvestingScanner struct {
	client      *http.Client
	baseURL     string
	userAgent   string
	concurrency int
	logger      *slog.Logger
}

// NewInvestingScanner wires an HTTP client; a nil client gets a 20s timeout.
func NewInvestingScanner(client *http.Client, opts InvestingOptions, logger *slog.Logger) *InvestingScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if opts.BaseURL == "" {
		opts.BaseURL = investingBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = investingUserAgent
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &InvestingScanner{
		client:      client,
		baseURL:     strings.TrimSuffix(opts.BaseURL, "/"),
		userAgent:   opts.UserAgent,
		concurrency: opts.Concurrency,
		logger:      logger,
	}
}

// Name identifies the strategy inside the registry.
func (s *InvestingScanner) Name() string {
	return "investing"
}

// Scan returns the symbol's articles in news-page order.
func (s *InvestingScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	if req.Slug == "" {
		return nil, fmt.Errorf("no news slug provided for symbol %s", req.Symbol)
	}

	newsURL := fmt.Sprintf("%s/equities/%s-news", s.baseURL, req.Slug)
	page, err := s.fetchDocument(ctx, newsURL)
	if err != nil {
		return nil, fmt.Errorf("news page %s: %w", req.Symbol, err)
	}

	links, err := s.extractLinks(page)
	if err != nil {
		return nil, fmt.Errorf("news page %s: %w", req.Symbol, err)
	}
	s.debug("news links found", "symbol", req.Symbol, "count", len(links))

	articles := make([]domain.Article, len(links))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, link := range links {
		i, link := i, link
		g.Go(func() error {
			doc, err := s.fetchDocument(gctx, link)
			if err != nil {
				return fmt.Errorf("article %s: %w", link, err)
			}
			article, err := parseArticle(doc, req.Symbol, link)
			if err != nil {
				return fmt.Errorf("article %s: %w", link, err)
			}
			articles[i] = article
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return articles, nil
}

func (s *InvestingScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request document: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: investing returned %s", domain.ErrNetwork, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse document: %v", domain.ErrMalformedResponse, err)
	}

	return doc, nil
}

// extractLinks reads the second news block; the first one holds site-wide headlines.
func (s *InvestingScanner) extractLinks(doc *goquery.Document) ([]string, error) {
	blocks := doc.Find("div.mediumTitle1")
	if blocks.Length() < 2 {
		return nil, fmt.Errorf("%w: news block not found", domain.ErrMalformedResponse)
	}

	var links []string
	blocks.Eq(1).Find(articleItemSelector).Each(func(_ int, item *goquery.Selection) {
		href, ok := item.Find("a").First().Attr("href")
		if !ok || href == "" {
			return
		}
		if !strings.HasPrefix(href, "http") {
			href = s.baseURL + href
		}
		links = append(links, href)
	})
	return links, nil
}

func parseArticle(doc *goquery.Document, symbol, link string) (domain.Article, error) {
	text, err := extractText(doc)
	if err != nil {
		return domain.Article{}, err
	}
	publishedAt, err := extractPublishTime(doc)
	if err != nil {
		return domain.Article{}, err
	}
	return domain.Article{
		Symbol:      symbol,
		Link:        link,
		Text:        text,
		PublishedAt: publishedAt,
	}, nil
}

// extractText joins every body paragraph but the trailing one (a boilerplate footer).
func extractText(doc *goquery.Document) (string, error) {
	body := doc.Find("div.WYSIWYG.articlePage").First()
	if body.Length() == 0 {
		return "", fmt.Errorf("%w: article body not found", domain.ErrMalformedResponse)
	}

	paragraphs := body.Find("p")
	n := paragraphs.Length() - 1
	cleaned := make([]string, 0, max(n, 0))
	paragraphs.Each(func(i int, p *goquery.Selection) {
		if i < n {
			cleaned = append(cleaned, cleanParagraph(p.Text()))
		}
	})
	return strings.Join(cleaned, "\n"), nil
}

func cleanParagraph(paragraph string) string {
	paragraph = inlineLinkExpr.ReplaceAllString(paragraph, "")
	paragraph = tickerTagExpr.ReplaceAllString(paragraph, "")
	paragraph = whitespaceExpr.ReplaceAllString(paragraph, " ")
	return norm.NFKD.String(paragraph)
}

func extractPublishTime(doc *goquery.Document) (time.Time, error) {
	script := doc.Find(`script[type="application/ld+json"]`).First()
	if script.Length() == 0 {
		return time.Time{}, fmt.Errorf("%w: publish metadata not found", domain.ErrMalformedResponse)
	}

	var meta struct {
		DateModified string `json:"dateModified"`
	}
	if err := json.Unmarshal([]byte(script.Text()), &meta); err != nil {
		return time.Time{}, fmt.Errorf("%w: decode publish metadata: %v", domain.ErrMalformedResponse, err)
	}

	ts, err := time.ParseInLocation(domain.PublishTimeLayout, strings.TrimSpace(meta.DateModified), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: publish time %q: %v", domain.ErrMalformedResponse, meta.DateModified, err)
	}
	return ts, nil
}

func (s *InvestingScanner) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
