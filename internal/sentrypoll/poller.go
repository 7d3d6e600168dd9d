package sentrypoll

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/bisman/telemetry/internal/metrics"
)

// seenCap bounds the dedup set; when exceeded it is reset, at worst
// re-recording an old issue once.
const seenCap = 4096

// issue is the subset of the Sentry issues API response the poller reads.
// Sentry serialises count as a string.
type issue struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Level string `json:"level"`
	Count string `json:"count"`
}

// Poller fetches unresolved issues from the Sentry API on an interval,
// pushing the unresolved count and any newly seen issues into the store.
// A failed fetch logs and skips the cycle.
type Poller struct {
	apiURL   string
	token    string
	interval time.Duration
	store    *metrics.Store
	client   *http.Client
	seen     map[string]struct{}
}

// New creates a Poller for the project issues API at apiURL.
func New(apiURL, token string, interval time.Duration, store *metrics.Store) *Poller {
	return &Poller{
		apiURL:   apiURL,
		token:    token,
		interval: interval,
		store:    store,
		client:   &http.Client{Timeout: 15 * time.Second},
		seen:     make(map[string]struct{}),
	}
}

// Run polls immediately, then on every tick until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	issues, err := p.fetch(ctx)
	if err != nil {
		slog.Warn("sentrypoll: fetch failed — skipping cycle", "err", err)
		return
	}

	p.store.UpdateSentryUnresolvedCount(len(issues))

	if len(p.seen) > seenCap {
		p.seen = make(map[string]struct{})
	}
	for _, is := range issues {
		if _, ok := p.seen[is.ID]; ok {
			continue
		}
		p.seen[is.ID] = struct{}{}
		count, _ := strconv.Atoi(is.Count)
		p.store.RecordSentryIssue(metrics.SentryIssue{
			IssueID: is.ID,
			Title:   is.Title,
			Level:   is.Level,
			Count:   count,
		})
	}
}

func (p *Poller) fetch(ctx context.Context) ([]issue, error) {
	url := p.apiURL + "/issues/?query=is:unresolved"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get issues: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("issues API returned HTTP %d", resp.StatusCode)
	}

	var issues []issue
	if err := json.NewDecoder(resp.Body).Decode(&issues); err != nil {
		return nil, fmt.Errorf("decode issues: %w", err)
	}
	return issues, nil
}
