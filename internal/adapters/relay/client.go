package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"zaplens/internal/core/receipt"
	perr "zaplens/internal/platform/errors"
	"zaplens/internal/platform/logger"
)

const (
	baseURLDefault   = "http://localhost:7777"
	queryPath        = "/query"
	defaultTimeout   = 20 * time.Second
	defaultUA        = "zaplens"
	defaultMaxRetry  = 2
	defaultRetryBase = 500 * time.Millisecond
	maxBackoff       = 30 * time.Second
	maxBodyBytes     = 32 << 20
)

// Options configures the Client
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// Token is sent as a bearer credential when set
	Token string

	// Retry config for transient and rate limited responses; zero MaxRetries
	// disables retries and a negative value takes the default
	MaxRetries int
	RetryBase  time.Duration

	Metrics *Metrics
}

// Client queries a relay gateway with retries and rate limit handling
type Client struct {
	http  *http.Client
	opts  Options
	log   logger.Logger
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	return &Client{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		log:   *logger.Named("relay"),
		now:   time.Now,
		sleep: sleepCtx,
	}
}

// Query implements Querier
func (c *Client) Query(ctx context.Context, f Filter) ([]receipt.Event, error) {
	body, err := json.Marshal(f)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "relay encode filter")
	}

	start := c.now()
	resp, err := c.Do(ctx, body)
	if err != nil {
		c.opts.Metrics.observe(outcomeOf(err), c.now().Sub(start))
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var events []receipt.Event
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&events); err != nil {
		c.opts.Metrics.observe(outcomeDecode, c.now().Sub(start))
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "relay decode events")
	}
	c.opts.Metrics.observe(outcomeOK, c.now().Sub(start))
	c.opts.Metrics.events(len(events))
	return events, nil
}

// Ping issues a one event query; readiness probes use it to see the gateway answering
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Query(ctx, Filter{Kinds: []int{receipt.KindZapReceipt}, Limit: 1})
	return err
}

// Do posts a filter body with auth headers, retries and rate limit handling.
// The caller closes the body of a successful response
func (c *Client) Do(ctx context.Context, body []byte) (*http.Response, error) {
	url := c.opts.BaseURL + queryPath
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, perr.Wrap(err, codeForCtx(err), "relay query cancelled")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "relay new request failed")
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if c.opts.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.opts.Token)
		}

		start := c.now()
		resp, err := c.http.Do(req)
		lat := c.now().Sub(start)

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, perr.Wrap(ctxErr, codeForCtx(ctxErr), "relay query cancelled")
			}
			if !c.shouldRetry(attempts) {
				return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "relay do failed")
			}
			back := c.backoff(attempts)
			c.log.Warn().Err(err).Dur("retry_in", back).Int("attempt", attempts).Msg("relay transport error retrying")
			if err := c.sleep(ctx, back); err != nil {
				return nil, perr.Wrap(err, codeForCtx(err), "relay query cancelled")
			}
			attempts++
			continue
		}

		rem, reset, retryAfter := parseRateHeaders(resp.Header)
		c.log.Debug().
			Int("status", resp.StatusCode).
			Int("attempt", attempts).
			Dur("latency", lat).
			Int("rate_remaining", rem).
			Int("retry_after_s", retryAfter).
			Msg("relay http response")

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return resp, nil
		case resp.StatusCode == http.StatusTooManyRequests:
			_ = drainAndClose(resp.Body)
			if !c.shouldRetry(attempts) {
				return nil, statusErr(perr.ErrorCodeTooManyRequests, resp.StatusCode, "", "relay rate limited")
			}
			wait := computeWait(rem, reset, retryAfter, c.now())
			if wait <= 0 {
				wait = c.backoff(attempts)
			}
			wait = min(wait, maxBackoff)
			c.log.Warn().Dur("sleep", wait).Msg("relay rate limited backing off")
			if err := c.sleep(ctx, wait); err != nil {
				return nil, perr.Wrap(err, codeForCtx(err), "relay query cancelled")
			}
			attempts++
			continue
		case resp.StatusCode >= 500:
			_ = drainAndClose(resp.Body)
			if !c.shouldRetry(attempts) {
				return nil, statusErr(perr.ErrorCodeUnavailable, resp.StatusCode, "", "relay transient server error")
			}
			back := c.backoff(attempts)
			c.log.Warn().Int("status", resp.StatusCode).Dur("retry_in", back).Int("attempt", attempts).Msg("relay transient error retrying")
			if err := c.sleep(ctx, back); err != nil {
				return nil, perr.Wrap(err, codeForCtx(err), "relay query cancelled")
			}
			attempts++
			continue
		default:
			// read a small tail for diagnostics then return
			tail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			_ = resp.Body.Close()
			return nil, statusErr(perr.ErrorCodeUpstream, resp.StatusCode, string(tail),
				fmt.Sprintf("relay unexpected status %d", resp.StatusCode))
		}
	}
}

func statusErr(code perr.ErrorCode, status int, body, msg string) error {
	return perr.Wrap(&StatusError{Status: status, Body: body, Err: errors.New(msg)}, code, msg)
}

func codeForCtx(err error) perr.ErrorCode {
	if errors.Is(err, context.DeadlineExceeded) {
		return perr.ErrorCodeTimeout
	}
	return perr.ErrorCodeUnavailable
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.opts.RetryBase << uint(attempt)
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}

func (c *Client) shouldRetry(attempt int) bool {
	return attempt < c.opts.MaxRetries
}
