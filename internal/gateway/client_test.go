package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/wanderplan/wanderplan/internal/credentials"
	"github.com/wanderplan/wanderplan/internal/logging"
	"github.com/wanderplan/wanderplan/internal/metrics"
)

type rejectingTransport struct{}

func (rejectingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func newTestClient(t *testing.T, url string, store credentials.Store) *Client {
	t.Helper()
	return New(Config{BaseURL: url, Timeout: 2 * time.Second}, store, logging.Discard(), nil)
}

func TestRequestAttachesBearerToken(t *testing.T) {
	var gotAuth, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	store := credentials.NewMemoryStore()
	client := newTestClient(t, server.URL, store)
	ctx := context.Background()

	client.Get(ctx, "/wallet/balance", nil)
	if gotAuth != "" {
		t.Fatalf("expected no authorization header without a token, got %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Fatalf("expected json content type, got %q", gotContentType)
	}

	store.Set(ctx, credentials.KeyAccessToken, "tok123")
	client.Get(ctx, "/wallet/balance", nil)
	if gotAuth != "Bearer tok123" {
		t.Fatalf("expected bearer token, got %q", gotAuth)
	}
}

func TestRequestSerializesJSONBodyAndQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/plans/generate-travel-plan" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("lang") != "vi" {
			t.Errorf("expected lang query, got %s", r.URL.RawQuery)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["destination"] != "Da Nang" {
			t.Errorf("unexpected body: %v", body)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success":true,"data":{"data":{"id":"plan-1"}}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL+"/", nil)
	env := client.Request(context.Background(), "plans/generate-travel-plan", Options{
		Method: http.MethodPost,
		Query:  url.Values{"lang": []string{"vi"}},
		Body:   map[string]string{"destination": "Da Nang"},
	})
	if !env.Success {
		t.Fatalf("expected success, got %+v", env.Error)
	}
	if string(env.Data) != `{"success":true,"data":{"data":{"id":"plan-1"}}}` {
		t.Fatalf("expected body verbatim, got %s", env.Data)
	}
}

func TestRequestMultipartLeavesBoundaryToEncoder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if !strings.HasPrefix(ct, "multipart/form-data; boundary=") {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if r.FormValue("album") != "trip" {
			t.Errorf("expected album field")
		}
		files := r.MultipartForm.File["files"]
		if len(files) != 2 || files[0].Filename != "a.jpg" {
			t.Errorf("unexpected files: %+v", files)
		}
		f, _ := files[1].Open()
		data, _ := io.ReadAll(f)
		if string(data) != "bbb" {
			t.Errorf("unexpected file content %q", data)
		}
		w.Write([]byte(`["id-a","id-b"]`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	env := client.Upload(context.Background(), "/upload/images", &Multipart{
		Fields: map[string]string{"album": "trip"},
		Files: []File{
			{Field: "files", Name: "a.jpg", ContentType: "image/jpeg", Data: []byte("aaa")},
			{Field: "files", Name: "b.png", Data: []byte("bbb")},
		},
	})
	if !env.Success {
		t.Fatalf("expected success, got %+v", env.Error)
	}
}

func TestRequestErrorMessagePriority(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"errors list", `{"errors":[{"message":"email is taken"},"phone invalid"],"message":"Bad Request"}`, "email is taken, phone invalid"},
		{"message list", `{"message":["amount must be positive","currency missing"],"error":"Bad Request"}`, "amount must be positive, currency missing"},
		{"message string", `{"message":"Invalid credentials","error":{"message":"ignored"}}`, "Invalid credentials"},
		{"nested error", `{"error":{"message":"Token expired"}}`, "Token expired"},
		{"error string", `{"error":"Forbidden"}`, "Forbidden"},
		{"no known field", `{"detail":"nope"}`, "Request failed with status 400"},
		{"not json", `<html>oops</html>`, "Request failed with status 400"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			env := newTestClient(t, server.URL, nil).Post(context.Background(), "/auth/login", nil)
			if env.Success {
				t.Fatal("expected failure")
			}
			if env.Error.Message != tc.want {
				t.Fatalf("message = %q, want %q", env.Error.Message, tc.want)
			}
			if env.Error.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d", env.Error.StatusCode)
			}
		})
	}
}

func TestRequestErrorKeepsTimestampAndPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"statusCode":404,"message":"Place not found","timestamp":"2026-01-02T03:04:05Z","path":"/api/places/p9"}`))
	}))
	defer server.Close()

	env := newTestClient(t, server.URL, nil).Get(context.Background(), "/places/p9", nil)
	if env.Error == nil || env.Error.Timestamp != "2026-01-02T03:04:05Z" || env.Error.Path != "/api/places/p9" {
		t.Fatalf("unexpected error info: %+v", env.Error)
	}

	server2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server2.Close()
	env = newTestClient(t, server2.URL, nil).Get(context.Background(), "/places/p9", nil)
	if env.Error.Path != "/places/p9" || env.Error.Timestamp == "" {
		t.Fatalf("expected endpoint path and generated timestamp, got %+v", env.Error)
	}
}

func TestRequestNetworkErrorNeverFails(t *testing.T) {
	client := New(Config{BaseURL: "http://api.invalid", Transport: rejectingTransport{}}, nil, logging.Discard(), nil)
	ctx := context.Background()

	get := client.Get(ctx, "/places/get-all", nil)
	post := client.Post(ctx, "/wallet/pay", map[string]int{"amount": 5})
	put := client.Put(ctx, "/users/profile", map[string]string{"name": "Alice"})
	del := client.Delete(ctx, "/plans/p1")

	for name, env := range map[string]struct {
		success bool
		message string
		args    []string
	}{
		"get":    {get.Success, get.Message(), get.Error.Args},
		"post":   {post.Success, post.Message(), post.Error.Args},
		"put":    {put.Success, put.Message(), put.Error.Args},
		"delete": {del.Success, del.Message(), del.Error.Args},
	} {
		if env.success || env.message != NetworkErrorMessage || len(env.args) == 0 {
			t.Fatalf("%s: expected network error with args, got %+v", name, env)
		}
		if !strings.Contains(env.args[0], "connection refused") {
			t.Fatalf("%s: expected cause in args, got %v", name, env.args)
		}
	}
}

func TestRequestClosedServerIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := server.URL
	server.Close()

	env := newTestClient(t, base, nil).Get(context.Background(), "/health", nil)
	if env.Success || env.Error.Message != NetworkErrorMessage {
		t.Fatalf("expected network error, got %+v", env)
	}
	if !strings.Contains(env.Error.Args[2], base) {
		t.Fatalf("expected target url in args, got %v", env.Error.Args)
	}
}

func TestRequestTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := New(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond}, nil, logging.Discard(), nil)
	env := client.Get(context.Background(), "/slow", nil)
	if env.Success || env.Error.Message != NetworkErrorMessage {
		t.Fatalf("expected timeout to surface as network error, got %+v", env)
	}
}

func TestRequestSuccessBodies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/empty":
			w.WriteHeader(http.StatusNoContent)
		case "/text":
			w.Write([]byte("hello"))
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	env := client.Delete(context.Background(), "/empty")
	if !env.Success || string(env.Data) != "null" {
		t.Fatalf("expected null data for empty body, got %+v", env)
	}

	env = client.Get(context.Background(), "/text", nil)
	if env.Success || env.Error.Message != InvalidResponseMessage || env.Error.StatusCode != http.StatusOK {
		t.Fatalf("expected invalid response, got %+v", env)
	}
}

func TestRequestAbsoluteEndpointAndUnmarshalableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := newTestClient(t, "http://unused.invalid", nil)
	if env := client.Get(context.Background(), server.URL+"/search", url.Values{"q": []string{"Hue"}}); !env.Success {
		t.Fatalf("expected absolute endpoint to be used, got %+v", env.Error)
	}

	env := client.Post(context.Background(), "/x", map[string]any{"bad": make(chan int)})
	if env.Success || env.Error.Message != InvalidRequestMessage {
		t.Fatalf("expected invalid request, got %+v", env)
	}
}

func TestRequestRecordsMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	m := metrics.NewGateway(prometheus.NewRegistry())
	client := New(Config{BaseURL: server.URL}, nil, logging.Discard(), m)
	ctx := context.Background()
	client.Request(ctx, "/places/p1", Options{Route: "/places/{id}"})
	client.Request(ctx, "/places/p2", Options{Route: "/places/{id}"})
	client.Get(ctx, "/missing", nil)
	client.Get(ctx, server.URL+"/search?q=hue", nil)
	client.Get(ctx, server.URL+"/search?q=hoi+an", nil)

	if got := testutil.ToFloat64(m.Requests().WithLabelValues("/places/{id}", http.MethodGet, metrics.OutcomeOK)); got != 2 {
		t.Fatalf("expected 2 ok requests on route, got %v", got)
	}
	if got := testutil.ToFloat64(m.Requests().WithLabelValues("/missing", http.MethodGet, metrics.OutcomeHTTPError)); got != 1 {
		t.Fatalf("expected 1 http error, got %v", got)
	}
	if got := testutil.ToFloat64(m.Requests().WithLabelValues(server.URL, http.MethodGet, metrics.OutcomeOK)); got != 2 {
		t.Fatalf("expected absolute urls labelled by origin, got %v", got)
	}
	if n := testutil.CollectAndCount(m.Requests()); n != 3 {
		t.Fatalf("expected 3 endpoint series, got %d", n)
	}
}

func TestGatewayCounterUsesEndpointLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewGateway(reg)
	m.Observe("/wallet/balance", http.MethodGet, metrics.OutcomeOK, 0)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "wanderplan_gateway_requests_total" {
			continue
		}
		for _, lp := range mf.GetMetric()[0].GetLabel() {
			if lp.GetName() == "endpoint" && lp.GetValue() == "/wallet/balance" {
				return
			}
		}
	}
	t.Fatal("requests_total has no endpoint label")
}
