package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/cliprally/cliprally/internal/util"
)

// Resolution classifies a submitted URL without any network I/O.
type Resolution struct {
	IsPageURL        bool   `json:"is_page_url"`
	IsDirectMediaURL bool   `json:"is_direct_media_url"`
	Warning          string `json:"warning,omitempty"`
}

var videoExtensions = []string{".mp4", ".webm", ".mov", ".m4v", ".avi", ".flv"}

// platformHosts are the hosts whose pages we know how to scrape.
var platformHosts = []string{
	"tiktok.com",
	"www.tiktok.com",
	"m.tiktok.com",
	"vm.tiktok.com",
	"vt.tiktok.com",
}

// cdnMarkers identify the platform's media CDN domains.
var cdnMarkers = []string{"tiktokcdn", "tiktokv", "muscdn", "byteoversea"}

var (
	contentPathPattern   = regexp.MustCompile(`^/@[^/]+/video/\d+`)
	shortPathPattern     = regexp.MustCompile(`^/(?:t/)?[A-Za-z0-9]{6,}/?$`)
	numericVideoPattern  = regexp.MustCompile(`^/v/\d+`)
	directSegmentMarkers = []string{"/video/", "/play/", "/download/"}
)

// Resolve classifies a URL as direct media, a scrapeable content page, or
// neither. Pure function of its input; repeated calls return identical
// classification.
func Resolve(rawURL string) Resolution {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Resolution{Warning: "not an absolute http(s) url"}
	}

	host := strings.ToLower(u.Hostname())
	path := u.EscapedPath()

	if isPlatformHost(host) {
		if contentPathPattern.MatchString(path) || numericVideoPattern.MatchString(path) {
			return Resolution{IsPageURL: true}
		}
		// Share links redirect to a content page.
		if (host == "vm.tiktok.com" || host == "vt.tiktok.com") && shortPathPattern.MatchString(path) {
			return Resolution{IsPageURL: true}
		}
		if strings.HasPrefix(path, "/t/") {
			return Resolution{IsPageURL: true}
		}
		return Resolution{Warning: "platform url does not look like a video page"}
	}

	lowerPath := strings.ToLower(path)
	for _, ext := range videoExtensions {
		if strings.HasSuffix(lowerPath, ext) {
			return Resolution{IsDirectMediaURL: true}
		}
	}
	for _, marker := range directSegmentMarkers {
		if strings.Contains(lowerPath, marker) {
			return Resolution{IsDirectMediaURL: true}
		}
	}

	return Resolution{Warning: "unrecognized url shape, treating as unsupported"}
}

func isPlatformHost(host string) bool {
	for _, h := range platformHosts {
		if host == h {
			return true
		}
	}
	return false
}

const (
	maxRedirects   = 5
	maxMarkupBytes = 5 << 20
	pageFetchLimit = 30 * time.Second
)

// browserHeaders spoof a desktop browser; the platform serves a reduced
// page to unknown agents.
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
}

// Resolver fetches content pages and extracts candidate media URLs by
// layered heuristics. The scraping is inherently fragile and coupled to an
// undocumented external format; everything behind ExtractActualURL can be
// replaced by an official API call without touching callers.
type Resolver struct {
	httpClient *http.Client
}

// NewResolver creates a resolver with redirect and timeout bounds applied.
func NewResolver() *Resolver {
	return &Resolver{
		httpClient: &http.Client{
			Timeout: pageFetchLimit,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
	}
}

// ExtractActualURL fetches the page markup and applies three extraction
// strategies in order, merging and deduplicating their results:
//
//  1. script blocks: JSON fields naming a play/download address
//  2. bare URLs in the markup ending in a video extension
//  3. URLs on known platform CDN domains ending in a video extension
//
// Among candidates, quality-marked URLs (hd/720/1080) win, then URLs
// without a watermark marker, then the first found. Zero candidates is a
// fatal ExtractionError.
func (r *Resolver) ExtractActualURL(ctx context.Context, pageURL string, oplog *OperationLog) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		oplog.Warnf("resolve", "page fetch returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxMarkupBytes))
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}
	markup := string(raw)
	oplog.Infof("resolve", "fetched %d bytes of markup from %s", len(markup), pageURL)

	candidates := ExtractCandidates(markup)
	if len(candidates) == 0 {
		oplog.Errorf("resolve", "no media url candidates in markup: %s", util.TruncateLog(markup, 256))
		return "", &ExtractionError{PageURL: pageURL}
	}

	chosen := SelectCandidate(candidates)
	oplog.Infof("resolve", "selected %s from %d candidate(s)", chosen, len(candidates))
	return chosen, nil
}

// ExtractCandidates runs the three strategies over raw markup, merging
// and deduplicating results in discovery order.
func ExtractCandidates(markup string) []string {
	var merged []string
	seen := make(map[string]struct{})
	for _, list := range [][]string{
		extractFromScripts(markup),
		extractBareVideoURLs(markup),
		extractCDNVideoURLs(markup),
	} {
		for _, c := range list {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			merged = append(merged, c)
		}
	}
	return merged
}

var (
	scriptBlockPattern = regexp.MustCompile(`(?is)<script[^>]*>(.*?)</script>`)
	playFieldPattern   = regexp.MustCompile(`"(?:playAddr|downloadAddr|playUrl|downloadUrl|play_url|download_url|hdplay|wmplay|play)"\s*:\s*"([^"]+)"`)
	bareVideoPattern   = regexp.MustCompile(`https?://[^\s"'<>\\]+\.(?:mp4|webm|mov|m4v)(?:\?[^\s"'<>\\]*)?`)
)

// extractFromScripts scans embedded script blocks for JSON fields naming a
// play or download address.
func extractFromScripts(markup string) []string {
	var out []string
	for _, block := range scriptBlockPattern.FindAllStringSubmatch(markup, -1) {
		for _, m := range playFieldPattern.FindAllStringSubmatch(block[1], -1) {
			if u := unescapeURL(m[1]); strings.HasPrefix(u, "http") {
				out = append(out, u)
			}
		}
	}
	return out
}

// extractBareVideoURLs scans the full markup for URLs ending in a video
// extension.
func extractBareVideoURLs(markup string) []string {
	var out []string
	for _, m := range bareVideoPattern.FindAllString(markup, -1) {
		out = append(out, unescapeURL(m))
	}
	return out
}

// extractCDNVideoURLs keeps only extension-suffixed URLs on the
// platform's CDN domains.
func extractCDNVideoURLs(markup string) []string {
	var out []string
	for _, m := range bareVideoPattern.FindAllString(markup, -1) {
		u := unescapeURL(m)
		lower := strings.ToLower(u)
		for _, marker := range cdnMarkers {
			if strings.Contains(lower, marker) {
				out = append(out, u)
				break
			}
		}
	}
	return out
}

// unescapeURL undoes the JSON escaping page scripts apply to embedded URLs.
func unescapeURL(raw string) string {
	r := strings.NewReplacer(
		`\/`, "/",
		`\u0026`, "&",
		`\u002F`, "/",
		`\u002f`, "/",
	)
	return r.Replace(raw)
}

var qualityMarkers = []string{"hdplay", "hd", "720", "1080"}
var watermarkMarkers = []string{"wmplay", "watermark", "wm"}

// SelectCandidate applies the selection policy: a quality-marked URL wins;
// failing that, a candidate without a watermark marker; failing that, the
// first one found.
func SelectCandidate(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	for _, c := range candidates {
		if hasMarker(c, qualityMarkers) {
			return c
		}
	}
	for _, c := range candidates {
		if !hasMarker(c, watermarkMarkers) {
			return c
		}
	}
	return candidates[0]
}

func hasMarker(u string, markers []string) bool {
	lower := strings.ToLower(u)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
