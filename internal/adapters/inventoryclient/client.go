// internal/adapters/inventoryclient/client.go
package inventoryclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

const (
	productsPath = "/api/v1/products"
	salesPath    = "/api/v1/sales"

	maxErrorBody = 4 << 10
)

// Config configures the inventory client
type Config struct {
	BaseURL string
	// ListTimeout bounds one product listing attempt. Sale commits carry no
	// timeout of their own.
	ListTimeout time.Duration
	// ListRetries is how many extra listing attempts are made
	ListRetries uint64
	HTTPClient  *http.Client
}

// Client talks to the inventory service over HTTP/JSON
type Client struct {
	baseURL     *url.URL
	http        *http.Client
	listTimeout time.Duration
	listRetries uint64
	logger      *slog.Logger
}

var _ ports.InventoryService = (*Client)(nil)

// New creates a client for cfg.BaseURL
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid inventory url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid inventory url %q: scheme must be http or https", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL:     base,
		http:        httpClient,
		listTimeout: cfg.ListTimeout,
		listRetries: cfg.ListRetries,
		logger:      logger.With(slog.String("component", "inventory_client")),
	}, nil
}

// ListProducts fetches the sellable catalog. Listing is idempotent so
// transient failures are retried with exponential backoff.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product

	op := func() error {
		attemptCtx := ctx
		if c.listTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, c.listTimeout)
			defer cancel()
		}

		resp, err := c.do(attemptCtx, http.MethodGet, productsPath, nil)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := c.statusError(resp)
			if resp.StatusCode < http.StatusInternalServerError {
				return backoff.Permanent(err)
			}
			return err
		}

		products = nil
		if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
			return backoff.Permanent(fmt.Errorf("%w: decode products: %w", domain.ErrCommunicationFault, err))
		}
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(c.newBackoff(), c.listRetries), ctx)
	notify := func(err error, wait time.Duration) {
		c.logger.WarnContext(ctx, "product listing failed, retrying",
			slog.Duration("wait", wait),
			slog.String("error", err.Error()))
	}
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		if !errors.Is(err, domain.ErrCommunicationFault) {
			err = fmt.Errorf("%w: %w", domain.ErrCommunicationFault, err)
		}
		return nil, err
	}

	c.logger.DebugContext(ctx, "catalog fetched", slog.Int("products", len(products)))
	return products, nil
}

// CommitSale submits req. A refusal by the service comes back as a result
// with Success=false; anything else that goes wrong wraps
// domain.ErrCommunicationFault.
func (c *Client) CommitSale(ctx context.Context, req domain.SaleRequest) (*domain.SaleResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encode sale: %w", domain.ErrCommunicationFault, err)
	}

	resp, err := c.do(ctx, http.MethodPost, salesPath, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusConflict, http.StatusUnprocessableEntity:
	default:
		return nil, c.statusError(resp)
	}

	var result domain.SaleResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode sale result: %w", domain.ErrCommunicationFault, err)
	}

	c.logger.InfoContext(ctx, "sale submitted",
		slog.Bool("success", result.Success),
		slog.String("sale_id", result.SaleID),
		slog.Int("status", resp.StatusCode))
	return &result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), reader)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", domain.ErrCommunicationFault, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", domain.ErrCommunicationFault, method, path, err)
	}
	return resp, nil
}

// statusError turns an unexpected response into a communication fault,
// keeping the service's message when it sent one
func (c *Client) statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &payload) == nil {
		switch {
		case payload.Message != "":
			msg = payload.Message
		case payload.Error != "":
			msg = payload.Error
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("%w: status %d: %s", domain.ErrCommunicationFault, resp.StatusCode, msg)
}

func (c *Client) newBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return b
}
