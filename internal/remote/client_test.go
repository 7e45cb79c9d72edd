package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

const goodKey = "APA91bGOODKEY"

// fakeRelay mimics the relay's GET endpoints and records what it saw.
type fakeRelay struct {
	mu      sync.Mutex
	queries map[string]url.Values
	agents  []string
}

func (f *fakeRelay) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries[r.URL.Path] = r.URL.Query()
	f.agents = append(f.agents, r.UserAgent())
}

func (f *fakeRelay) last(path string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[path]
}

func newFakeRelay(t *testing.T) (*fakeRelay, *httptest.Server) {
	t.Helper()

	relay := &fakeRelay{queries: make(map[string]url.Values)}
	r := chi.NewRouter()

	reply := func(w http.ResponseWriter, req *http.Request) {
		relay.record(req)
		if req.URL.Query().Get("key") == goodKey {
			_, _ = w.Write([]byte("OK"))
			return
		}
		_, _ = w.Write([]byte("Invalid key"))
	}
	r.Get("/sendmessage", reply)
	r.Get("/registerpc", reply)
	r.Get("/s/{code}", func(w http.ResponseWriter, req *http.Request) {
		relay.record(req)
		http.Redirect(w, req, "/personal?key="+chi.URLParam(req, "code"), http.StatusFound)
	})
	r.Get("/personal", func(w http.ResponseWriter, req *http.Request) {
		relay.record(req)
		_, _ = w.Write([]byte("<html>your device</html>"))
	})
	r.Get("/slow", func(w http.ResponseWriter, req *http.Request) {
		select {
		case <-req.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return relay, srv
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(Options{BaseURL: baseURL, Timeout: time.Second, UserAgent: "autoremote-test"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

// wantQuery compares selected query parameters.
func wantQuery(t *testing.T, q url.Values, want map[string]string) {
	t.Helper()
	for k, v := range want {
		if got := q.Get(k); got != v {
			t.Errorf("query %s = %q, want %q", k, got, v)
		}
	}
}

func TestNew(t *testing.T) {
	c, err := New(Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.BaseURL() != DefaultBaseURL {
		t.Errorf("BaseURL() = %q, want %q", c.BaseURL(), DefaultBaseURL)
	}

	c, err = New(Options{BaseURL: "http://relay.local/"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.BaseURL() != "http://relay.local" {
		t.Errorf("BaseURL() = %q, want trailing slash trimmed", c.BaseURL())
	}

	for _, bad := range []string{"relay.local", "ftp://relay.local", "http://", "://x"} {
		if _, err := New(Options{BaseURL: bad}); !errors.Is(err, ErrInvalidBaseURL) {
			t.Errorf("New(%q) error = %v, want ErrInvalidBaseURL", bad, err)
		}
	}
}

func TestValidateKey(t *testing.T) {
	relay, srv := newFakeRelay(t)
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	res, err := c.ValidateKey(ctx, goodKey)
	if err != nil {
		t.Fatalf("ValidateKey() error = %v", err)
	}
	if !res.OK() || res.StatusCode != http.StatusOK {
		t.Errorf("ValidateKey() = %+v, want OK with 200", res)
	}

	q := relay.last("/sendmessage")
	wantQuery(t, q, map[string]string{"key": goodKey})
	if q.Has("message") {
		t.Error("validation request carried a message")
	}

	res, err = c.ValidateKey(ctx, "nope")
	if err != nil {
		t.Fatalf("ValidateKey() error = %v", err)
	}
	if res.OK() || res.Body != "Invalid key" {
		t.Errorf("ValidateKey(bad) = %+v, want body %q", res, "Invalid key")
	}
}

func TestSendMessage_EncodesParameters(t *testing.T) {
	relay, srv := newFakeRelay(t)
	c := newTestClient(t, srv.URL)

	msg := "hello world & more=yes ünïcode"
	res, err := c.SendMessage(context.Background(), goodKey, "laptop", msg)
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if !res.OK() {
		t.Errorf("SendMessage() body = %q, want OK", res.Body)
	}

	wantQuery(t, relay.last("/sendmessage"), map[string]string{
		"key":     goodKey,
		"sender":  "laptop",
		"message": msg,
	})

	relay.mu.Lock()
	agents := strings.Join(relay.agents, ",")
	relay.mu.Unlock()
	if !strings.Contains(agents, "autoremote-test") {
		t.Errorf("User-Agent headers = %q, want autoremote-test", agents)
	}
}

func TestRegisterDevice(t *testing.T) {
	relay, srv := newFakeRelay(t)
	c := newTestClient(t, srv.URL)

	res, err := c.RegisterDevice(context.Background(), Registration{
		Key:        goodKey,
		ID:         "laptop",
		Name:       "laptop",
		PublicHost: "home.example.org",
		LocalIP:    "192.168.1.20",
	})
	if err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}
	if !res.OK() {
		t.Errorf("RegisterDevice() body = %q, want OK", res.Body)
	}

	wantQuery(t, relay.last("/registerpc"), map[string]string{
		"key":      goodKey,
		"id":       "laptop",
		"name":     "laptop",
		"type":     "linux",
		"publicip": "home.example.org",
		"localip":  "192.168.1.20",
	})
}

func TestResultOK(t *testing.T) {
	tests := []struct {
		body string
		want bool
	}{
		{"OK", true},
		{"OK\n", false},
		{"ok", false},
		{"", false},
		{"NOT OK", false},
	}
	for _, tt := range tests {
		if got := (&Result{Body: tt.body}).OK(); got != tt.want {
			t.Errorf("Result{Body: %q}.OK() = %v, want %v", tt.body, got, tt.want)
		}
	}

	var nilResult *Result
	if nilResult.OK() {
		t.Error("nil Result reports OK")
	}
}

func TestResolveShortLink_FollowsRedirects(t *testing.T) {
	_, srv := newFakeRelay(t)
	c := newTestClient(t, srv.URL)

	res, err := c.ResolveShortLink(context.Background(), srv.URL+"/s/"+goodKey)
	if err != nil {
		t.Fatalf("ResolveShortLink() error = %v", err)
	}
	if res.FinalURL == nil || res.FinalURL.Path != "/personal" {
		t.Fatalf("FinalURL = %v, want /personal", res.FinalURL)
	}

	key, ok := KeyFromURL(res.FinalURL)
	if !ok || key != goodKey {
		t.Errorf("KeyFromURL() = %q, %v, want %q", key, ok, goodKey)
	}
}

func TestNormalizeShortLink(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"goo.gl/abc", "https://goo.gl/abc"},
		{"http://goo.gl/abc", "http://goo.gl/abc"},
		{"HTTPS://goo.gl/abc", "HTTPS://goo.gl/abc"},
		{"  goo.gl/abc ", "https://goo.gl/abc"},
	}
	for _, tt := range tests {
		if got := NormalizeShortLink(tt.in); got != tt.want {
			t.Errorf("NormalizeShortLink(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKeyFromURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantKey string
		wantOK  bool
	}{
		{"key present", "https://autoremotejoaomgcd.appspot.com/?key=abc&x=1", "abc", true},
		{"no key", "https://example.com/no-key", "", false},
		{"empty key", "https://example.com/?key=", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.raw)
			if err != nil {
				t.Fatalf("url.Parse() error = %v", err)
			}
			key, ok := KeyFromURL(u)
			if key != tt.wantKey || ok != tt.wantOK {
				t.Errorf("KeyFromURL() = %q, %v, want %q, %v", key, ok, tt.wantKey, tt.wantOK)
			}
		})
	}

	if _, ok := KeyFromURL(nil); ok {
		t.Error("KeyFromURL(nil) ok = true")
	}
}

func TestNetworkError_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := newTestClient(t, base)
	_, err := c.ValidateKey(context.Background(), "secret-key-value")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("ValidateKey() error = %v, want ErrNetwork", err)
	}

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("error %T is not a *NetworkError", err)
	}
	if netErr.Op != "validate_key" {
		t.Errorf("Op = %q, want validate_key", netErr.Op)
	}
	if strings.Contains(err.Error(), "secret-key-value") {
		t.Errorf("error leaks the key: %v", err)
	}
	if !strings.Contains(err.Error(), redactedValue) {
		t.Errorf("error = %v, want redacted key", err)
	}
}

func TestNetworkError_ContextCancelled(t *testing.T) {
	_, srv := newFakeRelay(t)
	c := newTestClient(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ResolveShortLink(ctx, srv.URL+"/slow")
	if !errors.Is(err, ErrNetwork) || !errors.Is(err, context.Canceled) {
		t.Errorf("ResolveShortLink() error = %v, want ErrNetwork and context.Canceled", err)
	}
}

func TestNetworkError_Timeout(t *testing.T) {
	_, srv := newFakeRelay(t)
	c, err := New(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := c.ResolveShortLink(context.Background(), srv.URL+"/slow"); !errors.Is(err, ErrNetwork) {
		t.Errorf("ResolveShortLink() error = %v, want ErrNetwork", err)
	}
}

func TestRedactURL(t *testing.T) {
	u, _ := url.Parse("https://relay/sendmessage?key=topsecret&message=hi")
	got := redactURL(u)
	if strings.Contains(got, "topsecret") {
		t.Errorf("redactURL() = %q leaks the key", got)
	}
	if !strings.Contains(got, "key="+redactedValue) || !strings.Contains(got, "message=hi") {
		t.Errorf("redactURL() = %q", got)
	}

	plain, _ := url.Parse("https://relay/x")
	if got := redactURL(plain); got != "https://relay/x" {
		t.Errorf("redactURL(no key) = %q", got)
	}
	if got := redactURL(nil); got != "" {
		t.Errorf("redactURL(nil) = %q", got)
	}
}
