package influxdb_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/autoremote/internal/infrastructure/config"
	"github.com/nerrad567/autoremote/internal/infrastructure/influxdb"
)

// fakeInflux accepts pings and collects line-protocol writes. Writes are
// rejected with writeStatus when it is set.
type fakeInflux struct {
	mu          sync.Mutex
	lines       []string
	params      []string
	writeStatus int
}

func (f *fakeInflux) body() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.lines, "\n")
}

func newFakeInflux(t *testing.T) (*fakeInflux, *httptest.Server) {
	t.Helper()

	fake := &fakeInflux{}
	r := chi.NewRouter()
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Head("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Post("/api/v2/write", func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		fake.mu.Lock()
		defer fake.mu.Unlock()
		if fake.writeStatus != 0 {
			w.WriteHeader(fake.writeStatus)
			_, _ = w.Write([]byte(`{"code":"invalid","message":"bucket not found"}`))
			return
		}
		fake.lines = append(fake.lines, strings.TrimSpace(string(b)))
		fake.params = append(fake.params, req.URL.RawQuery)
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return fake, srv
}

func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "autoremote-test-token",
		Org:           "home",
		Bucket:        "autoremote",
		BatchSize:     10,
		FlushInterval: 1,
	}
}

func TestNewRecorder_Disabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:8086")
	cfg.Enabled = false

	rec, err := influxdb.NewRecorder(context.Background(), cfg, nil)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("NewRecorder() error = %v, want ErrDisabled", err)
	}
	if rec != nil {
		t.Error("NewRecorder() returned a recorder while disabled")
	}
}

func TestNewRecorder_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := influxdb.NewRecorder(context.Background(), testConfig(url), nil)
	if !errors.Is(err, influxdb.ErrUnreachable) {
		t.Errorf("NewRecorder() error = %v, want ErrUnreachable", err)
	}
}

func TestRecordCall(t *testing.T) {
	fake, srv := newFakeInflux(t)

	rec, err := influxdb.NewRecorder(context.Background(), testConfig(srv.URL), nil)
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}

	rec.RecordCall("send_message", "Phone", true, 180*time.Millisecond)
	rec.RecordCall("register", "Tablet", false, 2*time.Second)
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	body := fake.body()
	for _, want := range []string{
		"autoremote_calls,device=Phone,op=send_message",
		"ok=true",
		"latency_ms=180",
		"autoremote_calls,device=Tablet,op=register",
		"ok=false",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("written data missing %q:\n%s", want, body)
		}
	}

	fake.mu.Lock()
	params := strings.Join(fake.params, "&")
	fake.mu.Unlock()
	if !strings.Contains(params, "bucket=autoremote") || !strings.Contains(params, "org=home") {
		t.Errorf("write params = %q, want org and bucket", params)
	}
}

func TestRecordCall_AfterClose(t *testing.T) {
	fake, srv := newFakeInflux(t)

	rec, err := influxdb.NewRecorder(context.Background(), testConfig(srv.URL), nil)
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	rec.RecordCall("send_message", "Phone", true, time.Millisecond)
	if err := rec.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if body := fake.body(); body != "" {
		t.Errorf("no writes expected after Close, got %q", body)
	}
}

func TestRecordCall_WriteErrorReported(t *testing.T) {
	fake, srv := newFakeInflux(t)
	fake.writeStatus = http.StatusBadRequest

	reported := make(chan error, 4)
	rec, err := influxdb.NewRecorder(context.Background(), testConfig(srv.URL), func(err error) {
		select {
		case reported <- err:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}

	rec.RecordCall("send_message", "Phone", true, time.Millisecond)
	rec.Close() //nolint:errcheck // Close flushes; the failure arrives via the callback

	select {
	case err := <-reported:
		if err == nil {
			t.Error("callback received a nil error")
		}
	case <-time.After(5 * time.Second):
		t.Error("write failure was not reported")
	}
}

func TestNilRecorder(t *testing.T) {
	var rec *influxdb.Recorder
	rec.RecordCall("send_message", "Phone", true, time.Millisecond)
	if err := rec.Close(); err != nil {
		t.Errorf("Close() on nil recorder error = %v", err)
	}
}
