package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kapu/liver-streams-go/internal/domain"
	"github.com/kapu/liver-streams-go/internal/service/aggregator"
	"github.com/kapu/liver-streams-go/internal/service/bookmark"
	"github.com/kapu/liver-streams-go/internal/service/cache"
	"github.com/kapu/liver-streams-go/internal/service/talentfilter"
	"github.com/kapu/liver-streams-go/internal/source"
	"github.com/kapu/liver-streams-go/internal/textmine"
	"github.com/kapu/liver-streams-go/internal/util"
)

type staticSource struct {
	events []*domain.LiverEvent
}

func (s staticSource) Affiliation() domain.Affiliation { return domain.AffiliationHololive }

func (s staticSource) FetchEvents(context.Context) ([]*domain.LiverEvent, error) {
	return s.events, nil
}

var start = time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC)

func fixture(t *testing.T) (*gin.Engine, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mk := func(id, title, talent string, offset time.Duration, live bool, tags ...string) *domain.LiverEvent {
		e := &domain.LiverEvent{
			ID:             id,
			Title:          title,
			URL:            "https://www.youtube.com/watch?v=" + id,
			StartAt:        start.Add(offset),
			IsLive:         live,
			Talent:         domain.LiverTalent{Name: talent},
			CollaboTalents: []domain.LiverTalent{},
			Affiliation:    domain.AffiliationHololive,
			HashtagList:    tags,
			KeywordList:    []string{},
		}
		e.BuildSets()
		return e
	}
	events := []*domain.LiverEvent{
		mk("a1", "Morning chat #ぺこらいぶ", "Pekora", 0, true, "ぺこらいぶ"),
		mk("b2", "Karaoke night", "Miko", 2*time.Hour, false),
		mk("c3", "Racing game", "Subaru", 26*time.Hour, false),
	}

	reg := prometheus.NewRegistry()
	agg := aggregator.New([]source.EventSource{staticSource{events: events}}, nil, nil, reg, zap.NewNop())
	if _, err := agg.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	store := cache.NewMemoryStore()
	h := NewHandler(agg,
		talentfilter.NewService(store, zap.NewNop()),
		bookmark.NewService(store, time.UTC, zap.NewNop()),
		time.UTC, zap.NewNop())
	return NewRouter(h, reg, zap.NewNop()), h
}

func do(r http.Handler, method, path, user, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != "" {
		req.Header.Set(userHeader, user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type eventsResponse struct {
	Query  string               `json:"query"`
	Count  int                  `json:"count"`
	Events []*domain.LiverEvent `json:"events"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestHealthAndMetrics(t *testing.T) {
	r, _ := fixture(t)

	if w := do(r, "GET", "/health", "", ""); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"events":3`) {
		t.Fatalf("health = %d %s", w.Code, w.Body.String())
	}
	w := do(r, "GET", "/metrics", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "liver_streams_source_fetch_total") {
		t.Fatalf("metrics = %d", w.Code)
	}
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type circuitFunc func() util.CircuitBreakerStatus

func (f circuitFunc) CircuitStatus() util.CircuitBreakerStatus { return f() }

func TestHealthChecks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, h := fixture(t)
	h.AddHealthCheck("redis", pingerFunc(func(context.Context) error { return nil }))
	h.AddHealthCheck("nil", nil)
	h.AddCircuit("hololive", circuitFunc(func() util.CircuitBreakerStatus {
		return util.CircuitBreakerStatus{State: util.CircuitStateOpen, FailureCount: 3}
	}))
	r := NewRouter(h, nil, zap.NewNop())

	w := do(r, "GET", "/health", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"checks":{"redis":"UP"}`) ||
		!strings.Contains(w.Body.String(), `"circuits":{"hololive":{"state":"OPEN","failureCount":3}}`) {
		t.Fatalf("healthy = %d %s", w.Code, w.Body.String())
	}

	h.AddHealthCheck("postgres", pingerFunc(func(context.Context) error { return errors.New("connection refused") }))
	w = do(r, "GET", "/health", "", "")
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), `"postgres":"connection refused"`) ||
		!strings.Contains(w.Body.String(), `"status":"DOWN"`) {
		t.Fatalf("unhealthy = %d %s", w.Code, w.Body.String())
	}
}

func TestListEvents(t *testing.T) {
	r, _ := fixture(t)

	w := do(r, "GET", "/api/events", "", "")
	if got := decode[eventsResponse](t, w); got.Count != 3 {
		t.Fatalf("unfiltered count = %d", got.Count)
	}

	w = do(r, "GET", "/api/events?q=karaoke", "", "")
	if got := decode[eventsResponse](t, w); got.Count != 1 || got.Events[0].ID != "b2" {
		t.Fatalf("word search = %+v", got)
	}

	w = do(r, "GET", "/api/events?live=true", "", "")
	got := decode[eventsResponse](t, w)
	if got.Count != 1 || got.Events[0].ID != "a1" || got.Query != "status:live" {
		t.Fatalf("live = %+v", got)
	}

	w = do(r, "GET", "/api/events?q=%23%E3%81%BA%E3%81%93%E3%82%89%E3%81%84%E3%81%B6", "", "")
	if got := decode[eventsResponse](t, w); got.Count != 1 || got.Events[0].ID != "a1" {
		t.Fatalf("hashtag search = %+v", got)
	}
}

func TestGetEvent(t *testing.T) {
	r, _ := fixture(t)

	if w := do(r, "GET", "/api/events/b2", "", ""); w.Code != http.StatusOK {
		t.Fatalf("get = %d", w.Code)
	}
	if w := do(r, "GET", "/api/events/missing", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing = %d", w.Code)
	}
}

func TestEventTitleSegments(t *testing.T) {
	r, _ := fixture(t)

	w := do(r, "GET", "/api/events/a1", "", "")
	got := decode[struct {
		ID            string             `json:"id"`
		TitleSegments []textmine.Segment `json:"titleSegments"`
	}](t, w)
	want := []textmine.Segment{
		{Value: "Morning chat ", Type: textmine.SegmentText},
		{Value: "#ぺこらいぶ", Type: textmine.SegmentHashtag},
	}
	if got.ID != "a1" || len(got.TitleSegments) != len(want) {
		t.Fatalf("event = %s", w.Body.String())
	}
	for i := range want {
		if got.TitleSegments[i] != want[i] {
			t.Fatalf("segment %d = %+v, want %+v", i, got.TitleSegments[i], want[i])
		}
	}

	w = do(r, "GET", "/api/events?q=karaoke", "", "")
	if !strings.Contains(w.Body.String(), `"titleSegments":[{"value":"Karaoke night","type":"text"}]`) {
		t.Fatalf("list segments = %s", w.Body.String())
	}
}

type sectionsResponse struct {
	Sections []struct {
		TimeSectionList []json.RawMessage `json:"timeSectionList"`
	} `json:"sections"`
}

func TestListSections(t *testing.T) {
	r, _ := fixture(t)

	w := do(r, "GET", "/api/sections", "", "")
	body := decode[sectionsResponse](t, w)
	if len(body.Sections) != 2 || len(body.Sections[0].TimeSectionList) != 24 {
		t.Fatalf("sections = %s", w.Body.String())
	}

	if w := do(r, "GET", "/api/sections?tz=Nowhere/City", "", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad tz = %d", w.Code)
	}
}

func TestTalentFilterRoutes(t *testing.T) {
	r, _ := fixture(t)

	w := do(r, "PUT", "/api/talent-filter", "u1", `{"talents":["Miko","Subaru"]}`)
	if w.Code != http.StatusOK || w.Body.String() != `{"talents":["Miko","Subaru"]}` {
		t.Fatalf("replace = %d %s", w.Code, w.Body.String())
	}

	w = do(r, "GET", "/api/events", "u1", "")
	if got := decode[eventsResponse](t, w); got.Count != 2 {
		t.Fatalf("filtered count = %d", got.Count)
	}
	w = do(r, "GET", "/api/events", "u2", "")
	if got := decode[eventsResponse](t, w); got.Count != 3 {
		t.Fatalf("other user count = %d", got.Count)
	}

	// talent: option overrides the saved filter
	w = do(r, "GET", "/api/events?q=talent:Pekora", "u1", "")
	if got := decode[eventsResponse](t, w); got.Count != 1 || got.Events[0].ID != "a1" {
		t.Fatalf("talent option = %+v", got)
	}

	w = do(r, "PUT", "/api/talent-filter/Miko", "u1", `{"enabled":false}`)
	if w.Body.String() != `{"talents":["Subaru"]}` {
		t.Fatalf("disable = %s", w.Body.String())
	}
	if w := do(r, "PUT", "/api/talent-filter/Miko", "u1", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing enabled = %d", w.Code)
	}

	if w := do(r, "DELETE", "/api/talent-filter", "u1", ""); w.Code != http.StatusNoContent {
		t.Fatalf("reset = %d", w.Code)
	}
	w = do(r, "GET", "/api/talent-filter", "u1", "")
	if w.Body.String() != `{"talents":[]}` {
		t.Fatalf("after reset = %s", w.Body.String())
	}
}

func TestBookmarkRoutes(t *testing.T) {
	r, h := fixture(t)

	if w := do(r, "POST", "/api/bookmarks/missing", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("unknown event = %d", w.Code)
	}

	w := do(r, "POST", "/api/bookmarks/b2", "", "")
	if !strings.Contains(w.Body.String(), `"status":"bookmark"`) {
		t.Fatalf("toggle = %s", w.Body.String())
	}
	w = do(r, "POST", "/api/bookmarks/b2/notify", "", "")
	if !strings.Contains(w.Body.String(), `"status":"notify"`) {
		t.Fatalf("notify = %s", w.Body.String())
	}

	h.now = func() time.Time { return start.Add(time.Hour) }
	w = do(r, "GET", "/api/notifications", "", "")
	if !strings.Contains(w.Body.String(), `"notifications":[]`) {
		t.Fatalf("early poll = %s", w.Body.String())
	}

	h.now = func() time.Time { return start.Add(2 * time.Hour) }
	w = do(r, "GET", "/api/notifications", "", "")
	if !strings.Contains(w.Body.String(), `"heading":"13:00 Miko"`) {
		t.Fatalf("poll = %s", w.Body.String())
	}

	w = do(r, "GET", "/api/bookmarks", "", "")
	if !strings.Contains(w.Body.String(), `{"eventId":"b2","status":"bookmark"}`) {
		t.Fatalf("bookmarks = %s", w.Body.String())
	}
}

func TestNewArrivalsRoute(t *testing.T) {
	r, _ := fixture(t)
	w := do(r, "GET", "/api/new-arrivals", "", "")
	if w.Code != http.StatusOK || w.Body.String() != `{"newArrivals":[]}` {
		t.Fatalf("new arrivals = %d %s", w.Code, w.Body.String())
	}
}
