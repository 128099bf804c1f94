package talentfilter

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

type memorySetStore struct {
	sets map[string]map[string]struct{}
}

func (m *memorySetStore) SAdd(_ context.Context, key string, members ...string) error {
	if m.sets[key] == nil {
		m.sets[key] = map[string]struct{}{}
	}
	for _, v := range members {
		m.sets[key][v] = struct{}{}
	}
	return nil
}

func (m *memorySetStore) SRem(_ context.Context, key string, members ...string) error {
	for _, v := range members {
		delete(m.sets[key], v)
	}
	return nil
}

func (m *memorySetStore) SMembers(_ context.Context, key string) ([]string, error) {
	out := make([]string, 0, len(m.sets[key]))
	for v := range m.sets[key] {
		out = append(out, v)
	}
	return out, nil
}

func (m *memorySetStore) Del(_ context.Context, key string) error {
	delete(m.sets, key)
	return nil
}

func (m *memorySetStore) Expire(context.Context, string, time.Duration) error { return nil }

func TestService(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&memorySetStore{sets: map[string]map[string]struct{}{}}, zap.NewNop())

	if err := svc.Set(ctx, "u", "  ", true); err == nil {
		t.Fatalf("blank name should be rejected")
	}

	_ = svc.Set(ctx, "u", "Pekora", true)
	_ = svc.Set(ctx, "u", "Miko", true)
	_ = svc.Set(ctx, "u", "Miko", false)

	set, err := svc.Get(ctx, "u")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !set.Has("Pekora") || set.Has("Miko") {
		t.Fatalf("unexpected set %v", set.Names())
	}

	if err := svc.Replace(ctx, "u", []string{"Subaru", "Marine"}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	set, _ = svc.Get(ctx, "u")
	if names := set.Names(); len(names) != 2 || set.Has("Pekora") {
		t.Fatalf("Replace result %v", names)
	}

	_ = svc.Reset(ctx, "u")
	set, _ = svc.Get(ctx, "u")
	if len(set) != 0 {
		t.Fatalf("Reset should clear, got %v", set.Names())
	}
}
