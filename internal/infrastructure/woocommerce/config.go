package woocommerce

import (
	"errors"
	"net/url"
	"strings"
)

// Defaults for the WooCommerce REST API
const (
	DefaultAPIVersion     = "wc/v3"
	DefaultPerPage        = 100
	DefaultMaxPages       = 10
	DefaultTimeoutSeconds = 30

	// maxPerPage is the largest page size the REST API accepts
	maxPerPage = 100
)

// Errors for WooCommerce configuration
var (
	ErrConfigMissingBaseURL = errors.New("woocommerce: base url is required")
	ErrConfigInvalidBaseURL = errors.New("woocommerce: base url must be an absolute http(s) url")
)

// Config holds configuration for the WooCommerce REST API client
type Config struct {
	// BaseURL is the store root, e.g. https://shop.example.com
	BaseURL string
	// ConsumerKey and ConsumerSecret are the REST API credentials
	ConsumerKey    string
	ConsumerSecret string
	// APIVersion is the REST namespace, wc/v3 by default
	APIVersion string
	// PerPage is the number of orders requested per page (1-100)
	PerPage int
	// MaxPages caps how many order pages one fetch follows
	MaxPages int
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
	// QueryStringAuth sends the credentials as query parameters instead of basic auth.
	// Some hosts strip the Authorization header.
	QueryStringAuth bool
}

// Validate validates the configuration and applies defaults
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return ErrConfigMissingBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrConfigInvalidBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	c.APIVersion = strings.Trim(c.APIVersion, "/")
	if c.PerPage <= 0 || c.PerPage > maxPerPage {
		c.PerPage = DefaultPerPage
	}
	if c.MaxPages <= 0 {
		c.MaxPages = DefaultMaxPages
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	return nil
}

// endpoint returns the absolute URL of a REST resource path
func (c *Config) endpoint(resource string) string {
	return c.BaseURL + "/wp-json/" + c.APIVersion + "/" + strings.TrimLeft(resource, "/")
}
