package bookmark

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/liver-streams-go/internal/domain"
)

type memoryHashStore struct {
	data map[string]map[string]string
}

func newMemoryHashStore() *memoryHashStore {
	return &memoryHashStore{data: map[string]map[string]string{}}
}

func (m *memoryHashStore) HSet(_ context.Context, key, field, value string) error {
	if m.data[key] == nil {
		m.data[key] = map[string]string{}
	}
	m.data[key][field] = value
	return nil
}

func (m *memoryHashStore) HDel(_ context.Context, key string, fields ...string) error {
	for _, f := range fields {
		delete(m.data[key], f)
	}
	return nil
}

func (m *memoryHashStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	out := map[string]string{}
	for k, v := range m.data[key] {
		out[k] = v
	}
	return out, nil
}

func (m *memoryHashStore) Expire(context.Context, string, time.Duration) error { return nil }

func TestToggle(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryHashStore(), nil, zap.NewNop())

	status, err := svc.Toggle(ctx, "u1", "ev1")
	if err != nil || status != StatusBookmark {
		t.Fatalf("Toggle add = %q, %v", status, err)
	}
	status, err = svc.ToggleNotify(ctx, "u1", "ev1")
	if err != nil || status != StatusNotify {
		t.Fatalf("ToggleNotify = %q, %v", status, err)
	}
	status, _ = svc.ToggleNotify(ctx, "u1", "ev1")
	if status != StatusBookmark {
		t.Fatalf("second ToggleNotify = %q", status)
	}

	entries, _ := svc.List(ctx, "u1")
	if len(entries) != 1 || entries[0].EventID != "ev1" {
		t.Fatalf("List = %+v", entries)
	}
	if other, _ := svc.List(ctx, "u2"); len(other) != 0 {
		t.Fatalf("bookmarks must be per user, got %+v", other)
	}

	status, _ = svc.Toggle(ctx, "u1", "ev1")
	if status != "" {
		t.Fatalf("Toggle remove = %q", status)
	}
	if entries, _ := svc.List(ctx, "u1"); len(entries) != 0 {
		t.Fatalf("expected empty list, got %+v", entries)
	}
}

func TestUnknownStatusIgnored(t *testing.T) {
	ctx := context.Background()
	store := newMemoryHashStore()
	svc := NewService(store, time.UTC, zap.NewNop())

	_ = store.HSet(ctx, key("u"), "ev1", string(StatusBookmark))
	_ = store.HSet(ctx, key("u"), "ev2", "garbage")

	entries, err := svc.List(ctx, "u")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].EventID != "ev1" {
		t.Fatalf("List = %+v", entries)
	}

	byID := map[string]*domain.LiverEvent{
		"ev1": {ID: "ev1", StartAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		"ev2": {ID: "ev2", StartAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
	}
	got, err := svc.ProcessNotifications(ctx, "u", byID, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))
	if err != nil || len(got) != 0 {
		t.Fatalf("ProcessNotifications = %+v, %v", got, err)
	}
	if _, ok := store.data[key("u")]["ev2"]; ok {
		t.Fatalf("entry with unknown status should be pruned")
	}
	if store.data[key("u")]["ev1"] != string(StatusBookmark) {
		t.Fatalf("valid bookmark must be kept")
	}
}

func TestProcessNotifications(t *testing.T) {
	ctx := context.Background()
	store := newMemoryHashStore()
	svc := NewService(store, time.UTC, zap.NewNop())

	start := time.Date(2024, 5, 1, 20, 30, 0, 0, time.UTC)
	ev := &domain.LiverEvent{
		ID:        "ev1",
		Title:     "歌枠",
		URL:       "https://www.youtube.com/watch?v=abc",
		Thumbnail: "https://i.ytimg.com/vi/abc/mqdefault.jpg",
		StartAt:   start,
		Talent:    domain.LiverTalent{Name: "Pekora"},
	}
	byID := map[string]*domain.LiverEvent{"ev1": ev}

	_ = store.HSet(ctx, key("u"), "ev1", string(StatusNotify))
	_ = store.HSet(ctx, key("u"), "gone", string(StatusBookmark))

	got, err := svc.ProcessNotifications(ctx, "u", byID, start.Add(-time.Minute))
	if err != nil {
		t.Fatalf("ProcessNotifications: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("not started yet, got %+v", got)
	}
	if _, ok := store.data[key("u")]["gone"]; ok {
		t.Fatalf("bookmark for missing event should be deleted")
	}

	got, _ = svc.ProcessNotifications(ctx, "u", byID, start)
	if len(got) != 1 {
		t.Fatalf("expected one notification, got %d", len(got))
	}
	if got[0].Heading != "20:30 Pekora" || got[0].Body != "歌枠" || got[0].URL != ev.URL || got[0].Icon != ev.Thumbnail {
		t.Fatalf("unexpected notification %+v", got[0])
	}
	if store.data[key("u")]["ev1"] != string(StatusBookmark) {
		t.Fatalf("notify entry should be downgraded to bookmark")
	}

	got, _ = svc.ProcessNotifications(ctx, "u", byID, start.Add(time.Minute))
	if len(got) != 0 {
		t.Fatalf("notification must fire only once, got %d", len(got))
	}
}

func TestHeadingDefaultsToJST(t *testing.T) {
	ctx := context.Background()
	store := newMemoryHashStore()
	svc := NewService(store, nil, zap.NewNop())

	start := time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC)
	byID := map[string]*domain.LiverEvent{"ev": {ID: "ev", StartAt: start, Talent: domain.LiverTalent{Name: "Miko"}}}
	_ = store.HSet(ctx, key("u"), "ev", string(StatusNotify))

	got, _ := svc.ProcessNotifications(ctx, "u", byID, start)
	if len(got) != 1 || got[0].Heading != "20:00 Miko" {
		t.Fatalf("unexpected %+v", got)
	}
}
