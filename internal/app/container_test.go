package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/liver-streams-go/internal/config"
)

const holoBody = `{"dateGroupList":[{"displayDate":"05/01","datetime":"2024-05-01T00:00:00+09:00","videoList":[
{"datetime":"2024-05-01T20:00:00+09:00","isLive":false,"platformType":1,
"url":"https://www.youtube.com/watch?v=abcdefghijk","thumbnail":"https://img.youtube.com/vi/abcdefghijk/mqdefault.jpg",
"title":"歌枠 #ぺこらいぶ","name":"兎田ぺこら","talent":{"iconImageUrl":"https://example.com/pekora.png"},"collaboTalents":[]}]}]}`

func testConfig(t *testing.T, holoURL string) *config.Config {
	t.Helper()
	liverFile := filepath.Join(t.TempDir(), "livers.json")
	if err := os.WriteFile(liverFile, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("write liver file: %v", err)
	}
	return &config.Config{
		Server: config.ServerConfig{Addr: ":0", ShutdownTimeout: time.Second, GinMode: "test"},
		Sources: config.SourcesConfig{
			Enabled:        []string{"hololive"},
			HololiveAPIURL: holoURL,
			LiverFile:      liverFile,
			DefaultIcon:    "/default.svg",
			RequestTimeout: 5 * time.Second,
		},
		Refresh: config.RefreshConfig{Interval: time.Minute, Timezone: "Asia/Tokyo"},
		Logging: config.LoggingConfig{Level: "info"},
	}
}

func TestBuildWithoutExternalServices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(holoBody))
	}))
	defer srv.Close()

	container, err := Build(context.Background(), testConfig(t, srv.URL), zap.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer container.Close()

	if container.Location.String() != "Asia/Tokyo" {
		t.Fatalf("Location = %s", container.Location)
	}

	snap, err := container.Aggregator.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(snap.Events) != 1 {
		t.Fatalf("events = %d", len(snap.Events))
	}

	w := httptest.NewRecorder()
	container.Router.ServeHTTP(w, httptest.NewRequest("GET", "/api/events?q=%23%E3%81%BA%E3%81%93%E3%82%89%E3%81%84%E3%81%B6", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"count":1`) {
		t.Fatalf("events route = %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	container.Router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"hololive":{"state":"CLOSED","failureCount":0}`) {
		t.Fatalf("health route = %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	container.Router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Fatalf("metrics should include runtime collectors")
	}
}

func TestBuildRejectsNilInputs(t *testing.T) {
	if _, err := Build(context.Background(), nil, zap.NewNop()); err == nil {
		t.Fatalf("expected error for nil config")
	}
	if _, err := Build(context.Background(), &config.Config{}, nil); err == nil {
		t.Fatalf("expected error for nil logger")
	}
}

func TestLoadIcons(t *testing.T) {
	cfg := testConfig(t, "")
	if loadIcons(cfg, zap.NewNop()) != nil {
		t.Fatalf("expected no provider without an icon file")
	}

	cfg.Sources.IconFile = filepath.Join(t.TempDir(), "missing.json")
	if loadIcons(cfg, zap.NewNop()) != nil {
		t.Fatalf("expected no provider for an unreadable icon file")
	}

	cfg.Sources.IconFile = filepath.Join(t.TempDir(), "icons.json")
	cfg.Sources.IconBaseURL = "https://cdn.example.com"
	if err := os.WriteFile(cfg.Sources.IconFile, []byte(`{"叶": "/kanae.png"}`), 0o644); err != nil {
		t.Fatalf("write icon file: %v", err)
	}
	icons := loadIcons(cfg, zap.NewNop())
	if icons == nil {
		t.Fatalf("expected a provider")
	}
	if url, ok := icons.Icon("叶"); !ok || url != "https://cdn.example.com/kanae.png" {
		t.Fatalf("Icon(叶) = %q, %v", url, ok)
	}
}
