package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bodrovis/chimpex/apierr"
	"github.com/bodrovis/chimpex/utils"
	"go.uber.org/zap"
)

const (
	defaultUserAgent   = "chimpex/0.1"
	defaultHTTPTimeout = 30 * time.Second
	defaultErrCap      = 8192
	baseURLTemplate    = "https://%s.api.mailchimp.com/3.0/"
)

// ErrNoDatacenter is returned when the API key carries no "-<dc>" suffix and no base URL was given.
var ErrNoDatacenter = errors.New("api key has no datacenter suffix")

type Client struct {
	BaseURL    string
	APIKey     string
	UserAgent  string
	HTTPClient *http.Client

	log     *zap.Logger
	decoder *apierr.Decoder
	timeout time.Duration
}

type Option func(*Client) error

// WithBaseURL overrides the datacenter URL derived from the key.
func WithBaseURL(raw string) Option {
	return func(c *Client) error {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("base url: %w", err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("base url: need absolute http(s) url, got %q", raw)
		}
		s := u.String()
		if !strings.HasSuffix(s, "/") {
			s += "/"
		}
		c.BaseURL = s
		return nil
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("http client is nil")
		}
		c.HTTPClient = hc
		return nil
	}
}

// WithHTTPTimeout sets the request timeout. It is applied after all options,
// on a copy of the HTTP client, so a client passed to WithHTTPClient is left as is.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be positive, got %v", d)
		}
		c.timeout = d
		return nil
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		if strings.TrimSpace(ua) == "" {
			return errors.New("user agent is empty")
		}
		c.UserAgent = ua
		return nil
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) error {
		if l == nil {
			return errors.New("logger is nil")
		}
		c.log = l
		return nil
	}
}

// WithDecoder sets the decoder used for error responses.
func WithDecoder(d *apierr.Decoder) Option {
	return func(c *Client) error {
		if d == nil {
			return errors.New("decoder is nil")
		}
		c.decoder = d
		return nil
	}
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}

	c := &Client{
		APIKey:     apiKey,
		UserAgent:  defaultUserAgent,
		HTTPClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("new client: %w", err)
		}
	}
	if c.timeout > 0 {
		hc := *c.HTTPClient
		hc.Timeout = c.timeout
		c.HTTPClient = &hc
	}

	if c.BaseURL == "" {
		dc, err := datacenter(apiKey)
		if err != nil {
			return nil, fmt.Errorf("new client: %w", err)
		}
		c.BaseURL = fmt.Sprintf(baseURLTemplate, dc)
	}
	if c.log == nil {
		c.log = zap.L()
	}
	if c.decoder == nil {
		c.decoder = apierr.NewDecoder(
			apierr.WithTraceSink(apierr.ZapSink{Logger: c.log}),
			apierr.WithLogger(c.log),
		)
	}
	return c, nil
}

// datacenter returns the "us6" part of "<key>-us6".
func datacenter(apiKey string) (string, error) {
	i := strings.LastIndexByte(apiKey, '-')
	if i < 0 || i == len(apiKey)-1 {
		return "", ErrNoDatacenter
	}
	return apiKey[i+1:], nil
}

// do sends the request, returns non-2xx as *apierr.APIError, and optionally decodes JSON into v.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, v any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth("chimpex", c.APIKey)
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, defaultErrCap))
		apiErr := c.decoder.Parse(slurp, resp.StatusCode)
		apiErr.Resp = resp

		c.log.Debug("api request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("instance", apiErr.Problem.Instance),
		)
		return apiErr
	}

	if v == nil {
		return nil
	}
	if err := utils.DecodeJSONBody(resp.Body, v, 0); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
