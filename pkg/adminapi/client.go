package adminapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// DefaultTimeout bounds every request made with the default http.Client.
const DefaultTimeout = 30 * time.Second

// UnauthorizedHandler is the login boundary: it runs after a 401 cleared the
// session.
type UnauthorizedHandler func(ctx context.Context, err *APIError)

// Config configures the admin API client.
type Config struct {
	// BaseURL is the admin API origin, e.g. https://admin-api.rensights.com.
	BaseURL string
	// MainBaseURL is the public backend origin used for a few read-only
	// endpoints. Defaults to BaseURL.
	MainBaseURL    string
	HTTPClient     *http.Client
	Session        *Session
	Logger         logrus.FieldLogger
	Breaker        *gobreaker.CircuitBreaker
	OnUnauthorized UnauthorizedHandler
}

// Client performs authenticated calls against the admin REST backend.
type Client struct {
	baseURL        string
	mainBaseURL    string
	client         *http.Client
	session        *Session
	logger         logrus.FieldLogger
	breaker        *gobreaker.CircuitBreaker
	onUnauthorized UnauthorizedHandler
}

// NewClient validates cfg and builds a client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("adminapi: base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("adminapi: parse base url: %w", err)
	}
	mainBase := cfg.MainBaseURL
	if strings.TrimSpace(mainBase) == "" {
		mainBase = cfg.BaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		mainBaseURL:    strings.TrimRight(mainBase, "/"),
		client:         httpClient,
		session:        cfg.Session,
		logger:         logger.WithField("component", "adminapi"),
		breaker:        cfg.Breaker,
		onUnauthorized: cfg.OnUnauthorized,
	}, nil
}

// Session returns the session the client reads its bearer token from.
func (c *Client) Session() *Session {
	return c.session
}

// RequestOption customizes a single request.
type RequestOption func(*requestOptions) error

type requestOptions struct {
	body    any
	hasBody bool
	query   url.Values
	headers http.Header
	main    bool
}

// WithBody JSON-encodes payload as the request body.
func WithBody(payload any) RequestOption {
	return func(o *requestOptions) error {
		o.body = payload
		o.hasBody = true
		return nil
	}
}

// WithQuery adds query parameters. v is either url.Values or a struct with
// `url` tags.
func WithQuery(v any) RequestOption {
	return func(o *requestOptions) error {
		var values url.Values
		switch typed := v.(type) {
		case nil:
			return nil
		case url.Values:
			values = typed
		default:
			encoded, err := query.Values(v)
			if err != nil {
				return fmt.Errorf("adminapi: encode query: %w", err)
			}
			values = encoded
		}
		for key, vals := range values {
			for _, val := range vals {
				o.query.Add(key, val)
			}
		}
		return nil
	}
}

// WithHeader sets a header; it wins over the defaults, Authorization included.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) error {
		o.headers.Set(key, value)
		return nil
	}
}

// OnMainBackend targets the main backend origin instead of the admin API.
func OnMainBackend() RequestOption {
	return func(o *requestOptions) error {
		o.main = true
		return nil
	}
}

// Request performs a call and decodes the JSON response into T.
func Request[T any](ctx context.Context, c *Client, method, path string, opts ...RequestOption) (T, error) {
	var out T
	if err := c.Do(ctx, method, path, &out, opts...); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Do performs a call and decodes a successful JSON body into target when
// target is non-nil. Every failure is an *APIError.
func (c *Client) Do(ctx context.Context, method, path string, target any, opts ...RequestOption) error {
	return c.execute(ctx, method, path, opts, func(resp *http.Response) error {
		if target == nil {
			return nil
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return newNetworkError(fmt.Errorf("adminapi: read response: %w", err))
		}
		if len(bytes.TrimSpace(body)) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, target); err != nil {
			return &APIError{
				Kind:    KindServer,
				Status:  resp.StatusCode,
				Message: fmt.Sprintf("adminapi: decode response: %v", err),
				Err:     err,
			}
		}
		return nil
	})
}

// DoRaw streams a successful response body into w.
func (c *Client) DoRaw(ctx context.Context, method, path string, w io.Writer, opts ...RequestOption) error {
	return c.execute(ctx, method, path, opts, func(resp *http.Response) error {
		if _, err := io.Copy(w, resp.Body); err != nil {
			return newNetworkError(fmt.Errorf("adminapi: copy response: %w", err))
		}
		return nil
	})
}

func (c *Client) execute(ctx context.Context, method, path string, opts []RequestOption, onSuccess func(*http.Response) error) error {
	options := requestOptions{query: url.Values{}, headers: http.Header{}}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&options); err != nil {
			return &APIError{Kind: KindValidation, Message: err.Error(), Err: err}
		}
	}

	// only a request that carried the session token can expire it
	authenticated := c.session.Authenticated()
	run := func() error {
		return c.roundTrip(ctx, method, path, options, onSuccess)
	}
	var err error
	if c.breaker != nil {
		_, err = c.breaker.Execute(func() (interface{}, error) {
			return nil, run()
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = newNetworkError(fmt.Errorf("adminapi: %w", err))
		}
	} else {
		err = run()
	}
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if authenticated && errors.As(err, &apiErr) && apiErr.Kind == KindUnauthorized {
		c.handleUnauthorized(ctx, apiErr)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, options requestOptions, onSuccess func(*http.Response) error) error {
	req, err := c.newRequest(ctx, method, path, options)
	if err != nil {
		return err
	}
	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"error":  err.Error(),
		}).Warn("admin api request failed")
		return newNetworkError(err)
	}
	defer resp.Body.Close()

	c.logger.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(started).String(),
	}).Debug("admin api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			body = nil
		}
		return newStatusError(resp.StatusCode, body)
	}
	return onSuccess(resp)
}

func (c *Client) newRequest(ctx context.Context, method, path string, options requestOptions) (*http.Request, error) {
	origin := c.baseURL
	if options.main {
		origin = c.mainBaseURL
	}
	target := origin + ensureLeadingSlash(path)
	if len(options.query) > 0 {
		target += "?" + options.query.Encode()
	}

	var body io.Reader
	if options.hasBody {
		data, err := json.Marshal(options.body)
		if err != nil {
			return nil, &APIError{Kind: KindValidation, Message: fmt.Sprintf("adminapi: encode payload: %v", err), Err: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, newNetworkError(fmt.Errorf("adminapi: build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for key, values := range options.headers {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	return req, nil
}

func (c *Client) handleUnauthorized(ctx context.Context, apiErr *APIError) {
	if c.session != nil && c.session.Authenticated() {
		if err := c.session.ClearToken(ctx); err != nil {
			c.logger.WithError(err).Warn("clear session after 401")
		}
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized(ctx, apiErr)
	}
}

// NewBreaker builds the default breaker: it trips once at least three
// requests were seen and 60% of them failed. Validation and authentication
// failures do not count against it.
func NewBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			switch KindOf(err) {
			case KindValidation, KindUnauthorized:
				return true
			}
			return false
		},
	})
}

func ensureLeadingSlash(path string) string {
	if path == "" || strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}
