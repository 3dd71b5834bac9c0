package main

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"github.com/wanderplan/wanderplan/internal/config"
	"github.com/wanderplan/wanderplan/internal/mockapi"
)

func startBackend(t *testing.T) string {
	t.Helper()
	srv, err := mockapi.New(context.Background(), config.Config{
		AppEnv:          "test",
		JWTSecret:       "cli-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}, mockapi.Deps{})
	if err != nil {
		t.Fatalf("mockapi.New: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return "http://" + ln.Addr().String()
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunWithoutCommandPrintsUsage(t *testing.T) {
	code, _, stderr := runCLI(t)
	if code != 2 || !strings.Contains(stderr, "commands:") {
		t.Fatalf("code=%d stderr=%s", code, stderr)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	code, _, stderr := runCLI(t, "teleport")
	if code != 2 || !strings.Contains(stderr, `unknown command "teleport"`) {
		t.Fatalf("code=%d stderr=%s", code, stderr)
	}
}

func TestRunRequiresAPIBaseURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	code, _, stderr := runCLI(t, "whoami")
	if code != 1 || !strings.Contains(stderr, "API_BASE_URL") {
		t.Fatalf("code=%d stderr=%s", code, stderr)
	}
}

func TestLoginWithMemoryStoreLastsOneRun(t *testing.T) {
	t.Setenv("API_BASE_URL", startBackend(t))
	t.Setenv("CREDENTIAL_BACKEND", "memory")

	code, stdout, stderr := runCLI(t, "login", "-u", "alice", "-p", "secret")
	if code != 0 {
		t.Fatalf("login code=%d stderr=%s", code, stderr)
	}
	if got := gjson.Get(stdout, "email").String(); got != mockapi.DemoEmail {
		t.Fatalf("login output = %s", stdout)
	}

	code, _, stderr = runCLI(t, "whoami")
	if code != 1 || !strings.Contains(stderr, "not signed in") {
		t.Fatalf("whoami with fresh memory store: code=%d stderr=%s", code, stderr)
	}
}

func TestPublicCommands(t *testing.T) {
	t.Setenv("API_BASE_URL", startBackend(t))
	t.Setenv("CREDENTIAL_BACKEND", "memory")

	code, stdout, stderr := runCLI(t, "places", "-city", "Da Nang", "-size", "2")
	if code != 0 {
		t.Fatalf("places code=%d stderr=%s", code, stderr)
	}
	if gjson.Get(stdout, "total").Int() != 5 || len(gjson.Get(stdout, "records").Array()) != 2 {
		t.Fatalf("places output = %s", stdout)
	}

	code, stdout, _ = runCLI(t, "place", "my-khe-beach")
	if code != 0 || gjson.Get(stdout, "name").String() != "My Khe Beach" {
		t.Fatalf("place code=%d output=%s", code, stdout)
	}

	code, _, stderr = runCLI(t, "balance")
	if code != 1 || !strings.Contains(stderr, "status 401") {
		t.Fatalf("anonymous balance code=%d stderr=%s", code, stderr)
	}
}

func TestPayZeroFailsLocally(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://127.0.0.1:1")
	t.Setenv("CREDENTIAL_BACKEND", "memory")
	code, _, stderr := runCLI(t, "pay", "-amount", "0")
	if code != 1 || !strings.Contains(stderr, "Amount must be greater than 0") {
		t.Fatalf("code=%d stderr=%s", code, stderr)
	}
}

func TestTileAndMetricsFile(t *testing.T) {
	t.Setenv("API_BASE_URL", startBackend(t))
	t.Setenv("CREDENTIAL_BACKEND", "memory")
	t.Setenv("TILE_URL", "https://tiles.example.com/{z}/{x}/{y}.png")
	out := filepath.Join(t.TempDir(), "planner.prom")

	code, stdout, _ := runCLI(t, "tile", "3", "4", "5")
	if code != 0 || strings.TrimSpace(stdout) != "https://tiles.example.com/3/4/5.png" {
		t.Fatalf("tile code=%d output=%q", code, stdout)
	}

	if code, _, stderr := runCLI(t, "-metrics-out", out, "places"); code != 0 {
		t.Fatalf("places code=%d stderr=%s", code, stderr)
	}
	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read metrics file: %v", err)
	}
	if !strings.Contains(string(raw), `endpoint="/places/get-all"`) {
		t.Fatalf("metrics file missing places endpoint:\n%s", raw)
	}
}

func TestParsePoint(t *testing.T) {
	p, err := parsePoint("16.0544, 108.2478")
	if err != nil || p.Lat != 16.0544 || p.Lon != 108.2478 {
		t.Fatalf("parsePoint = %+v, %v", p, err)
	}
	if _, err := parsePoint("north"); err == nil {
		t.Fatal("expected error for malformed point")
	}
}
