package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/sawpanic/techsignal/internal/ratelimit"
	"github.com/sawpanic/techsignal/internal/secrets"
)

// urlRedactor scrubs API keys a few adapters (podcast, patent) place in
// the query string before a malformed-URL error can echo them back.
var urlRedactor = secrets.NewRedactor()

// errThrottledUpstream is an internal sentinel marking a 429 response,
// distinguished from other 4xx/5xx failures so Client.Get can apply
// the single sleep-and-retry pass spec.md §4.1 describes.
var errThrottledUpstream = errors.New("sources: throttled by upstream")

// DefaultTimeout is the per-call upstream HTTP timeout, spec.md §5
// "Each upstream HTTP call has a timeout (default 30s)".
const DefaultTimeout = 30 * time.Second

// Client wraps an *http.Client with the per-source rate limiter
// (internal/ratelimit) and a circuit breaker, grounded on the
// teacher's internal/infrastructure/providers.CircuitBreakerManager —
// generalized from a fixed four-exchange map to one breaker per
// registered source name, with the fallback-chain machinery dropped
// (no source in this spec has a same-shape fallback upstream).
type Client struct {
	http     *http.Client
	limiter  *ratelimit.Manager
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewClient builds a Client with one circuit breaker per name in
// sourceNames, each using the shared tripping policy: open after 5
// consecutive failures or a >=50% error rate across >=10 requests in
// the rolling interval, half-open after 30s.
func NewClient(limiter *ratelimit.Manager, sourceNames []string) *Client {
	c := &Client{
		http:     &http.Client{Timeout: DefaultTimeout},
		limiter:  limiter,
		breakers: make(map[string]*gobreaker.CircuitBreaker, len(sourceNames)),
	}
	for _, name := range sourceNames {
		name := name
		c.breakers[name] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < 10 {
					return counts.ConsecutiveFailures >= 5
				}
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return failureRatio >= 0.5 || counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(_ string, from, to gobreaker.State) {
				log.Warn().Str("source", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			},
		})
	}
	return c
}

// throttleRetryDelay is the fixed backoff spec.md §4.1 prescribes when
// an upstream signals too-many-requests: "the adapter sleeps 5s and
// retries the same page before advancing." A var, not a const, so
// tests can shrink it.
var throttleRetryDelay = 5 * time.Second

// Get performs a rate-limited, circuit-broken GET against url for the
// named source and returns the response body. The caller owns the
// resulting bytes; the response is fully drained and closed here. A
// 429 response is retried once after throttleRetryDelay before being
// surfaced as an error.
func (c *Client) Get(ctx context.Context, source, url string, headers map[string]string) ([]byte, error) {
	if err := c.limiter.Acquire(ctx, source); err != nil {
		return nil, fmt.Errorf("sources: rate limiter acquire for %s: %w", source, err)
	}

	breaker := c.breakers[source]
	attempt := func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("sources: build request: %s", urlRedactor.RedactString(err.Error()))
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("sources: %s request: %w", source, err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("sources: %s read body: %w", source, err)
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, errThrottledUpstream
		}
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("sources: %s returned status %d", source, resp.StatusCode)
		}
		return body, nil
	}

	do := func() (interface{}, error) {
		result, err := attempt()
		if err == errThrottledUpstream {
			select {
			case <-time.After(throttleRetryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			result, err = attempt()
			if err == errThrottledUpstream {
				err = fmt.Errorf("sources: %s: throttled after retry", source)
			}
		}
		return result, err
	}

	var (
		result interface{}
		err    error
	)
	if breaker != nil {
		result, err = breaker.Execute(do)
	} else {
		result, err = do()
	}
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// BreakerState reports the current circuit state for a source, used by
// the health endpoint.
func (c *Client) BreakerState(source string) (string, bool) {
	b, ok := c.breakers[source]
	if !ok {
		return "", false
	}
	return b.State().String(), true
}
