package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/storemirror/backend/internal/domain/mirror"
	"go.uber.org/zap"
)

// maxResponseSize is the maximum allowed response size from the REST API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// totalPagesHeader carries the page count of a collection response
const totalPagesHeader = "X-WP-TotalPages"

// Client is a read-only WooCommerce REST API client implementing mirror.RemoteSource
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the client logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new WooCommerce client with the given configuration
func NewClient(config *Config, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c, nil
}

// FetchOrders returns the orders created after since, following pagination up to MaxPages.
// Orders that fail validation are reported in the batch's Rejected list; only transport,
// status and page decode failures abort the fetch.
func (c *Client) FetchOrders(ctx context.Context, since time.Time) (*mirror.OrderBatch, error) {
	result := &mirror.OrderBatch{Orders: make([]mirror.RemoteOrder, 0)}
	for page := 1; page <= c.config.MaxPages; page++ {
		params := url.Values{}
		params.Set("per_page", strconv.Itoa(c.config.PerPage))
		params.Set("page", strconv.Itoa(page))
		params.Set("after", since.UTC().Format(time.RFC3339))

		body, header, err := c.doRequest(ctx, "orders", params)
		if err != nil {
			return nil, err
		}

		var batch []wooOrder
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, fmt.Errorf("%w: failed to parse orders page %d: %v", mirror.ErrRemoteInvalidResponse, page, err)
		}
		for i := range batch {
			ro, rejected := toRemoteOrder(&batch[i])
			if rejected != nil {
				c.logger.Warn("Rejected malformed order",
					zap.Int64("oid", rejected.OID),
					zap.String("reason", rejected.Reason),
				)
				result.Rejected = append(result.Rejected, *rejected)
				continue
			}
			result.Orders = append(result.Orders, *ro)
		}

		totalPages := parseTotalPages(header)
		c.logger.Debug("Fetched orders page",
			zap.Int("page", page),
			zap.Int("count", len(batch)),
			zap.Int("total_pages", totalPages),
		)
		if len(batch) == 0 || page >= totalPages {
			return result, nil
		}
	}

	c.logger.Warn("Order fetch stopped at page cap",
		zap.Int("max_pages", c.config.MaxPages),
		zap.Int("fetched", result.Len()),
	)
	return result, nil
}

// FetchProductByID returns a single product by its remote id
func (c *Client) FetchProductByID(ctx context.Context, id int64) (*mirror.RemoteProduct, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid product id %d", mirror.ErrRemoteRequestFailed, id)
	}
	body, _, err := c.doRequest(ctx, "products/"+strconv.FormatInt(id, 10), url.Values{})
	if err != nil {
		return nil, err
	}

	var p wooProduct
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: failed to parse product %d: %v", mirror.ErrRemoteInvalidResponse, id, err)
	}
	return toRemoteProduct(&p)
}

// doRequest performs an authenticated GET and returns the body of a 2xx response
func (c *Client) doRequest(ctx context.Context, resource string, params url.Values) ([]byte, http.Header, error) {
	if c.config.QueryStringAuth {
		params.Set("consumer_key", c.config.ConsumerKey)
		params.Set("consumer_secret", c.config.ConsumerSecret)
	}
	endpoint := c.config.endpoint(resource)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("woocommerce: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if !c.config.QueryStringAuth {
		req.SetBasicAuth(c.config.ConsumerKey, c.config.ConsumerSecret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", mirror.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to read response: %v", mirror.ErrRemoteUnavailable, err)
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, nil, fmt.Errorf("%w: GET %s: HTTP %d", mirror.ErrRemoteUnavailable, resource, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, nil, fmt.Errorf("%w: GET %s: HTTP %d", mirror.ErrRemoteRequestFailed, resource, resp.StatusCode)
	}
	return body, resp.Header, nil
}

// parseTotalPages reads the page count header, treating a missing or bad value as one page
func parseTotalPages(h http.Header) int {
	n, err := strconv.Atoi(h.Get(totalPagesHeader))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Ensure Client implements mirror.RemoteSource
var _ mirror.RemoteSource = (*Client)(nil)
