package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"PersonsPipeline/internal/domain"
	"PersonsPipeline/internal/ports"
)

const quantityParam = "_quantity"

// RetryPolicy configures automatic retries of a page request.
type RetryPolicy struct {
	Attempts      int
	BackoffFactor time.Duration
	Statuses      []int
}

// DefaultRetryPolicy retries three times on 500/502/503/504 with a 300ms factor.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:      3,
		BackoffFactor: 300 * time.Millisecond,
		Statuses: []int{
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

// Client requests pages of persons from the source API.
type Client struct {
	baseURL string
	http    *http.Client
	policy  RetryPolicy
	retryOn map[int]struct{}
	logger  *slog.Logger
}

var _ ports.PageFetcher = (*Client)(nil)

// NewClient wires an HTTP client; a nil client gets a 30s timeout.
func NewClient(baseURL string, client *http.Client, policy RetryPolicy, logger *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	retryOn := make(map[int]struct{}, len(policy.Statuses))
	for _, status := range policy.Statuses {
		retryOn[status] = struct{}{}
	}
	return &Client{
		baseURL: baseURL,
		http:    client,
		policy:  policy,
		retryOn: retryOn,
		logger:  logger,
	}
}

// FetchPage requests exactly quantity records, retrying transient failures with exponential backoff.
func (c *Client) FetchPage(ctx context.Context, quantity int) ([]domain.RawRecord, error) {
	pageURL, err := buildPageURL(c.baseURL, quantity)
	if err != nil {
		return nil, err
	}

	var (
		records []domain.RawRecord
		attempt int
	)
	operation := func() error {
		attempt++
		page, err := c.fetchOnce(ctx, pageURL)
		if err != nil {
			return err
		}
		records = page
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("page request failed, retrying",
			"quantity", quantity, "attempt", attempt, "wait", wait, "error", err)
	}

	if err := backoff.RetryNotify(operation, c.newBackOff(ctx), notify); err != nil {
		return nil, fmt.Errorf("fetch page of %d after %d attempt(s): %w", quantity, attempt, err)
	}
	return records, nil
}

// newBackOff waits BackoffFactor * 2^n before retry n (n from 0), at most Attempts times.
func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.policy.BackoffFactor
	exp.RandomizationFactor = 0
	exp.Multiplier = 2
	exp.MaxInterval = c.policy.BackoffFactor << max(c.policy.Attempts, 0)
	exp.MaxElapsedTime = 0
	exp.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(max(c.policy.Attempts, 0))), ctx)
}

func (c *Client) fetchOnce(ctx context.Context, pageURL string) ([]domain.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "PersonsPipeline/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, backoff.Permanent(ctxErr)
		}
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		statusErr := fmt.Errorf("%w: %s", domain.ErrUnexpectedStatus, resp.Status)
		if _, ok := c.retryOn[resp.StatusCode]; ok {
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}

	records, err := decodePage(resp.Body)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	return records, nil
}

func decodePage(r io.Reader) ([]domain.RawRecord, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", domain.ErrUnexpectedPayload, err)
	}
	if len(envelope.Data) == 0 || envelope.Data[0] != '[' {
		return nil, fmt.Errorf("%w: data is not an array", domain.ErrUnexpectedPayload)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(envelope.Data, &items); err != nil {
		return nil, fmt.Errorf("%w: decode data: %v", domain.ErrUnexpectedPayload, err)
	}

	records := make([]domain.RawRecord, 0, len(items))
	for _, item := range items {
		records = append(records, domain.RawRecord{Body: item})
	}
	return records, nil
}

func buildPageURL(base string, quantity int) (string, error) {
	if quantity <= 0 {
		return "", fmt.Errorf("page quantity must be positive, got %d", quantity)
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid source url %s: %w", base, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", errors.New("source url must be absolute")
	}

	query := parsed.Query()
	query.Set(quantityParam, strconv.Itoa(quantity))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
