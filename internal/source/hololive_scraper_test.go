package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/liver-streams-go/internal/event"
)

const schedulePage = `<html><body>
<div class="container">
  <div class="row">
    <div class="col-12">
      <nav class="navbar-inverse"><div class="holodule navbar-text">05/01 (水)</div></nav>
    </div>
    <div class="col-12">
      <div class="row">
        <a class="thumbnail" href="https://www.youtube.com/watch?v=abc123" style="border: 3px red solid">
          <div class="datetime">21:00</div>
          <div class="name">兎田ぺこら</div>
          <img src="https://img.ytimg.com/vi/abc123/hqdefault_live.jpg">
          <img src="https://yt3.ggpht.com/peko.png">
        </a>
        <a class="thumbnail" href="https://www.youtube.com/watch?v=def456">
          <div class="datetime">23:30</div>
          <div class="name">さくらみこ</div>
        </a>
        <a class="thumbnail" href="https://www.youtube.com/watch?v=nope">
          <div class="datetime">23:45</div>
        </a>
      </div>
    </div>
  </div>
</div>
</body></html>`

func TestHololiveScraperFetchEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(schedulePage))
	}))
	defer srv.Close()

	s := NewHololiveScraper(srv.Client(), srv.URL, event.Default(), zap.NewNop())
	s.now = func() time.Time { return time.Date(2024, 4, 30, 12, 0, 0, 0, time.UTC) }

	events, err := s.FetchEvents(context.Background())
	if err != nil {
		t.Fatalf("FetchEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	peko := events[0]
	if peko.ID != "abc123" || !peko.IsLive || peko.Talent.Image != "https://yt3.ggpht.com/peko.png" {
		t.Fatalf("unexpected event: %+v", peko)
	}
	if peko.Thumbnail != "https://img.ytimg.com/vi/abc123/mqdefault_live.jpg" {
		t.Fatalf("Thumbnail = %q", peko.Thumbnail)
	}
	if want := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC); !peko.StartAt.Equal(want) {
		t.Fatalf("StartAt = %v, want %v", peko.StartAt, want)
	}
	if miko := events[1]; miko.IsLive || miko.Thumbnail != "https://i.ytimg.com/vi/def456/mqdefault.jpg" {
		t.Fatalf("unexpected second event: %+v", miko)
	}
}

func TestHololiveScraperStructureChanged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>maintenance</p></body></html>"))
	}))
	defer srv.Close()

	s := NewHololiveScraper(srv.Client(), srv.URL, event.Default(), zap.NewNop())
	_, err := s.FetchEvents(context.Background())

	var structErr *StructureChangedError
	if !errors.As(err, &structErr) {
		t.Fatalf("expected StructureChangedError, got %v", err)
	}
}

func TestResolveDatetimeRollsYear(t *testing.T) {
	s := NewHololiveScraper(nil, "", event.Default(), zap.NewNop())
	s.now = func() time.Time { return time.Date(2024, 12, 31, 12, 0, 0, 0, time.UTC) }

	got, err := s.resolveDatetime("01/01", "00:30")
	if err != nil {
		t.Fatalf("resolveDatetime: %v", err)
	}
	if got.Year() != 2025 {
		t.Fatalf("expected next year, got %v", got)
	}
}
