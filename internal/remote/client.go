package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// DefaultBaseURL is the public AutoRemote relay.
const DefaultBaseURL = "https://autoremotejoaomgcd.appspot.com"

// Client defaults.
const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "autoremote-go"

	// maxBodyBytes caps how much of a relay response is kept.
	maxBodyBytes = 64 << 10

	// okBody is the exact body the relay returns on success.
	okBody = "OK"

	// registerType identifies this host's platform to the relay.
	registerType = "linux"
)

// schemePattern matches URLs that already carry an http(s) scheme.
var schemePattern = regexp.MustCompile(`(?i)^https?://`)

// Logger defines the logging interface used by the Client.
type Logger interface {
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}

// Options configures a Client. Zero values select defaults.
type Options struct {
	// BaseURL is the relay root. Defaults to DefaultBaseURL.
	BaseURL string

	// Timeout bounds each request including redirects. Defaults to 15s.
	// Ignored when HTTPClient is set.
	Timeout time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client

	// UserAgent is sent on every request.
	UserAgent string

	Logger Logger
}

// Result is the outcome of one completed relay exchange.
type Result struct {
	StatusCode int
	Body       string

	// FinalURL is the request URL after any redirects were followed.
	FinalURL *url.URL
}

// OK reports whether the relay acknowledged the request.
// Only a body of exactly "OK" counts; the status code is not consulted.
func (r *Result) OK() bool {
	return r != nil && r.Body == okBody
}

// Registration describes this host to the relay's /registerpc endpoint.
type Registration struct {
	// Key is the target device's key.
	Key string

	// ID and Name identify this host on the device.
	ID   string
	Name string

	// PublicHost is how the device reaches this host from outside the LAN.
	PublicHost string

	// LocalIP is this host's private IPv4 address.
	LocalIP string
}

// Client talks to the AutoRemote relay over HTTP GET.
//
// Thread Safety: All methods are safe for concurrent use.
type Client struct {
	base      *url.URL
	http      *http.Client
	userAgent string
	logger    Logger
}

// New creates a relay client.
//
// Returns ErrInvalidBaseURL if BaseURL is not an absolute http(s) URL.
func New(opts Options) (*Client, error) {
	raw := opts.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("%w: %q is not an absolute http(s) URL", ErrInvalidBaseURL, raw)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	var logger Logger = noopLogger{}
	if opts.Logger != nil {
		logger = opts.Logger
	}

	return &Client{
		base:      base,
		http:      httpClient,
		userAgent: userAgent,
		logger:    logger,
	}, nil
}

// BaseURL returns the relay root the client talks to.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// ValidateKey asks the relay whether key is live by sending an empty message.
func (c *Client) ValidateKey(ctx context.Context, key string) (*Result, error) {
	return c.get(ctx, "validate_key", c.endpoint("/sendmessage", url.Values{
		"key": {key},
	}))
}

// SendMessage delivers message to the device holding key.
// The message is passed through unchanged apart from URL encoding.
func (c *Client) SendMessage(ctx context.Context, key, sender, message string) (*Result, error) {
	return c.get(ctx, "send_message", c.endpoint("/sendmessage", url.Values{
		"key":     {key},
		"sender":  {sender},
		"message": {message},
	}))
}

// RegisterDevice registers this host on the device holding reg.Key.
func (c *Client) RegisterDevice(ctx context.Context, reg Registration) (*Result, error) {
	return c.get(ctx, "register", c.endpoint("/registerpc", url.Values{
		"key":      {reg.Key},
		"id":       {reg.ID},
		"name":     {reg.Name},
		"type":     {registerType},
		"publicip": {reg.PublicHost},
		"localip":  {reg.LocalIP},
	}))
}

// ResolveShortLink fetches a goo.gl-style link and follows its redirects.
// "https://" is prepended when raw has no http(s) scheme. Any status code
// is returned as a Result; only transport failures are errors.
func (c *Client) ResolveShortLink(ctx context.Context, raw string) (*Result, error) {
	raw = NormalizeShortLink(raw)

	u, err := url.Parse(raw)
	if err != nil {
		return nil, &NetworkError{Op: "resolve_short_link", URL: raw, Err: err}
	}
	return c.get(ctx, "resolve_short_link", u)
}

// KeyFromURL extracts the relay key carried in a resolved personal URL.
func KeyFromURL(u *url.URL) (string, bool) {
	if u == nil {
		return "", false
	}
	key := u.Query().Get("key")
	return key, key != ""
}

// NormalizeShortLink returns raw with an https:// scheme when it has none.
func NormalizeShortLink(raw string) string {
	raw = strings.TrimSpace(raw)
	if schemePattern.MatchString(raw) {
		return raw
	}
	return "https://" + raw
}

// endpoint builds an absolute relay URL.
func (c *Client) endpoint(path string, query url.Values) *url.URL {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = query.Encode()
	return &u
}

// get performs a GET and reads a bounded body.
func (c *Client) get(ctx context.Context, op string, u *url.URL) (*Result, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &NetworkError{Op: op, URL: redactURL(u), Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, URL: redactURL(u), Err: unwrapURLError(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{Op: op, URL: redactURL(u), Err: fmt.Errorf("reading body: %w", err)}
	}
	// Drain body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	final := u
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL
	}

	c.logger.Debug("relay request completed",
		"op", op,
		"url", redactURL(final),
		"status", resp.StatusCode,
		"latency", time.Since(start),
	)

	return &Result{
		StatusCode: resp.StatusCode,
		Body:       string(body),
		FinalURL:   final,
	}, nil
}

// unwrapURLError strips *url.Error, whose message repeats the unredacted URL.
func unwrapURLError(err error) error {
	if ue, ok := err.(*url.Error); ok { //nolint:errorlint // Only the outermost wrapper is stripped
		return ue.Err
	}
	return err
}
