// Package linkcheck probes the external links referenced by guideline
// documents and reports the ones that no longer resolve.
package linkcheck

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/guidesite/internal/config"
	"git.home.luguber.info/inful/guidesite/internal/content"
	"git.home.luguber.info/inful/guidesite/internal/logfields"
	"git.home.luguber.info/inful/guidesite/internal/markdown"
	"git.home.luguber.info/inful/guidesite/internal/metrics"
)

const userAgent = "guidesite-linkcheck/1.0"

// occurrence is one document referencing an external URL.
type occurrence struct {
	doc     string
	route   string
	section string
	title   string
}

// Report summarizes one verification run.
type Report struct {
	LinksTotal int               `json:"links_total"` // Unique external URLs found
	Probed     int               `json:"probed"`      // URLs verified over HTTP this run
	CacheHits  int               `json:"cache_hits"`  // URLs answered from cache
	Broken     []BrokenLinkEvent `json:"broken"`
}

// Verifier checks external links with bounded concurrency and a
// result cache.
type Verifier struct {
	cfg        *config.LinkCheckConfig
	cache      Cache
	httpClient *http.Client
	recorder   metrics.Recorder

	mu     sync.Mutex
	report *Report
}

// NewVerifier creates a verifier. A nil cache falls back to an in-memory
// cache scoped to this process; a nil recorder disables metrics.
func NewVerifier(cfg *config.LinkCheckConfig, cache Cache, recorder metrics.Recorder) *Verifier {
	if cfg == nil {
		cfg = &config.LinkCheckConfig{}
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 10
	}
	if cache == nil {
		ttl, err := time.ParseDuration(cfg.CacheTTL)
		if err != nil {
			ttl = 24 * time.Hour
		}
		ttlFailures, err := time.ParseDuration(cfg.CacheTTLFailures)
		if err != nil {
			ttlFailures = time.Hour
		}
		cache = NewMemoryCache(ttl, ttlFailures)
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	timeout, err := time.ParseDuration(cfg.RequestTimeout)
	if err != nil {
		timeout = 10 * time.Second
	}

	// Respects HTTP_PROXY, HTTPS_PROXY and NO_PROXY.
	transport := http.DefaultTransport.(*http.Transport).Clone()

	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if !cfg.FollowRedirects {
				return http.ErrUseLastResponse
			}
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", cfg.MaxRedirects)
			}
			return nil
		},
	}

	return &Verifier{
		cfg:        cfg,
		cache:      cache,
		httpClient: httpClient,
		recorder:   recorder,
	}
}

// Verify probes every external link in the tree's documents. Each unique
// URL is verified once; every document referencing a broken URL gets its
// own event.
func (v *Verifier) Verify(ctx context.Context, tree *content.Tree, runID string) (*Report, error) {
	occurrences, err := collectExternalLinks(tree)
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(occurrences))
	for u := range occurrences {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	v.mu.Lock()
	v.report = &Report{LinksTotal: len(urls), Broken: []BrokenLinkEvent{}}
	v.mu.Unlock()

	slog.Info("Starting link verification",
		logfields.Count(len(urls)),
		slog.Int("max_concurrent", v.cfg.MaxConcurrent))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.cfg.MaxConcurrent)
	for _, u := range urls {
		g.Go(func() error {
			v.verifyURL(gctx, u, occurrences[u], runID)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	v.mu.Lock()
	report := v.report
	v.mu.Unlock()

	slog.Info("Link verification completed",
		slog.Int("links", report.LinksTotal),
		slog.Int("probed", report.Probed),
		slog.Int("cache_hits", report.CacheHits),
		slog.Int("broken", len(report.Broken)))
	return report, nil
}

// collectExternalLinks walks every markdown document and groups http(s)
// destinations by URL.
func collectExternalLinks(tree *content.Tree) (map[string][]occurrence, error) {
	occurrences := make(map[string][]occurrence)
	for _, doc := range tree.Documents() {
		if err := doc.LoadContent(); err != nil {
			return nil, err
		}
		_, flags, body, err := doc.SplitFrontMatter()
		if err != nil {
			// Malformed front matter is the structural checker's concern.
			slog.Debug("Skipping document with invalid front matter", logfields.Doc(doc.RelPath))
			continue
		}

		links, err := markdown.ExtractLinks(body, markdown.Options{})
		if err != nil {
			return nil, err
		}

		title := flags.Title
		if title == "" {
			title = markdown.FirstHeading(body)
		}
		for _, link := range links {
			if !isExternalURL(link.Destination) {
				continue
			}
			occurrences[link.Destination] = append(occurrences[link.Destination], occurrence{
				doc:     doc.RelPath,
				route:   doc.Route(),
				section: doc.Section,
				title:   title,
			})
		}
	}
	return occurrences, nil
}

func isExternalURL(dest string) bool {
	return strings.HasPrefix(dest, "http://") || strings.HasPrefix(dest, "https://")
}

// verifyURL resolves one URL through the cache or an HTTP probe and
// records broken results for every referencing document.
func (v *Verifier) verifyURL(ctx context.Context, url string, sources []occurrence, runID string) {
	cached, err := v.cache.Get(ctx, url)
	if err != nil {
		slog.Debug("Cache lookup error", slog.String("url", url), logfields.Error(err))
	} else if cached != nil && v.cache.Valid(cached) {
		v.mu.Lock()
		v.report.CacheHits++
		v.mu.Unlock()
		if !cached.IsValid {
			v.recordBroken(ctx, url, sources, runID, cached.Status, cached.Error, cached)
		}
		return
	}

	start := time.Now()
	status, probeErr := v.probe(ctx, url)
	v.recorder.ObserveLinkProbeDuration(time.Since(start), probeErr == nil)
	v.recorder.IncLinkResult(probeErr == nil)

	v.mu.Lock()
	v.report.Probed++
	v.mu.Unlock()

	entry := &CacheEntry{
		URL:         url,
		Status:      status,
		IsValid:     probeErr == nil,
		LastChecked: time.Now(),
	}
	if probeErr != nil {
		entry.Error = probeErr.Error()
		updateFailureTracking(entry, cached)
		v.recordBroken(ctx, url, sources, runID, status, probeErr.Error(), entry)
	}

	if err := v.cache.Set(ctx, entry); err != nil {
		slog.Warn("Failed to update link cache", slog.String("url", url), logfields.Error(err))
	}
}

// probe verifies one URL with a HEAD request.
func (v *Verifier) probe(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	// Auth-gated URLs exist; they are not broken links.
	if isAuthStatus(resp.StatusCode) {
		return resp.StatusCode, nil
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return resp.StatusCode, nil
}

// isAuthStatus returns true for status codes that indicate authentication
// or authorization gating rather than a broken link.
func isAuthStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusMethodNotAllowed:
		return true
	}
	return false
}

func updateFailureTracking(entry *CacheEntry, cached *CacheEntry) {
	if cached != nil {
		entry.FailureCount = cached.FailureCount + 1
		entry.FirstFailedAt = cached.FirstFailedAt
		if entry.FirstFailedAt.IsZero() {
			entry.FirstFailedAt = time.Now()
		}
	} else {
		entry.FailureCount = 1
		entry.FirstFailedAt = time.Now()
	}
	entry.ConsecutiveFail = true
}

func (v *Verifier) recordBroken(ctx context.Context, url string, sources []occurrence, runID string, status int, errorMsg string, entry *CacheEntry) {
	for _, src := range sources {
		event := BrokenLinkEvent{
			URL:     url,
			Status:  status,
			Error:   errorMsg,
			Doc:     src.doc,
			Route:   src.route,
			Section: src.section,
			Title:   src.title,
			RunID:   runID,
		}
		if entry != nil {
			event.FailureCount = entry.FailureCount
			event.FirstFailedAt = entry.FirstFailedAt
			event.LastChecked = entry.LastChecked
		}

		if err := v.cache.PublishBroken(ctx, &event); err != nil {
			slog.Error("Failed to publish broken link event",
				slog.String("url", url),
				logfields.Doc(src.doc),
				logfields.Error(err))
		}

		v.mu.Lock()
		v.report.Broken = append(v.report.Broken, event)
		v.mu.Unlock()
	}
}

// Close releases the underlying cache resources.
func (v *Verifier) Close() error {
	return v.cache.Close()
}
