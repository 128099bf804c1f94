package source

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/liver-streams-go/internal/domain"
)

type memoryJSONCache struct {
	data map[string][]byte
	sets int
}

func (m *memoryJSONCache) Get(_ context.Context, key string, dest any) (bool, error) {
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memoryJSONCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	m.sets++
	return nil
}

type countingDirectory struct {
	calls  int
	livers map[string]domain.LiverInfo
	err    error
}

func (d *countingDirectory) LiverMap(context.Context) (map[string]domain.LiverInfo, error) {
	d.calls++
	return d.livers, d.err
}

func TestCachedLiverDirectory(t *testing.T) {
	ctx := context.Background()
	inner := &countingDirectory{livers: map[string]domain.LiverInfo{
		"id1": {TalentID: "id1", Name: "月ノ美兎"},
	}}
	c := &memoryJSONCache{data: map[string][]byte{}}
	dir := NewCachedLiverDirectory(inner, c, zap.NewNop())

	for i := 0; i < 2; i++ {
		livers, err := dir.LiverMap(ctx)
		if err != nil {
			t.Fatalf("LiverMap: %v", err)
		}
		if livers["id1"].Name != "月ノ美兎" || livers["id1"].TalentID != "id1" {
			t.Fatalf("unexpected map %+v", livers)
		}
	}
	if inner.calls != 1 || c.sets != 1 {
		t.Fatalf("inner calls = %d, cache sets = %d", inner.calls, c.sets)
	}
}

func TestCachedLiverDirectoryError(t *testing.T) {
	inner := &countingDirectory{err: errors.New("db down")}
	dir := NewCachedLiverDirectory(inner, &memoryJSONCache{data: map[string][]byte{}}, zap.NewNop())
	if _, err := dir.LiverMap(context.Background()); err == nil {
		t.Fatalf("expected error from inner directory")
	}
}
