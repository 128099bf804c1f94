package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/liver-streams-go/internal/constants"
	"github.com/kapu/liver-streams-go/internal/domain"
)

// LiverDirectory resolves nijisanji talent ids to names.
type LiverDirectory interface {
	LiverMap(ctx context.Context) (map[string]domain.LiverInfo, error)
}

// FileLiverDirectory reads a livers.json file of the form
// {"<talentId>": {"name": "..."}} once and keeps it in memory.
type FileLiverDirectory struct {
	path string

	mu     sync.Mutex
	livers map[string]domain.LiverInfo
}

func NewFileLiverDirectory(path string) *FileLiverDirectory {
	return &FileLiverDirectory{path: path}
}

func (d *FileLiverDirectory) LiverMap(_ context.Context) (map[string]domain.LiverInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.livers != nil {
		return d.livers, nil
	}

	livers, err := LoadLiverFile(d.path)
	if err != nil {
		return nil, err
	}
	d.livers = livers
	return livers, nil
}

// LoadLiverFile parses a livers.json file.
func LoadLiverFile(path string) (map[string]domain.LiverInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read liver file: %w", err)
	}

	var raw map[string]domain.LiverInfo
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse liver file: %w", err)
	}

	livers := make(map[string]domain.LiverInfo, len(raw))
	for id, info := range raw {
		info.TalentID = id
		livers[id] = info
	}
	return livers, nil
}

// StaticLiverDirectory serves a fixed map.
type StaticLiverDirectory map[string]domain.LiverInfo

func (d StaticLiverDirectory) LiverMap(context.Context) (map[string]domain.LiverInfo, error) {
	return d, nil
}

// JSONCache is the subset of the cache used to memoize the directory.
type JSONCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// CachedLiverDirectory keeps the inner directory's map in a shared cache.
// Cache failures fall through to the inner directory.
type CachedLiverDirectory struct {
	inner  LiverDirectory
	cache  JSONCache
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedLiverDirectory(inner LiverDirectory, cache JSONCache, logger *zap.Logger) *CachedLiverDirectory {
	return &CachedLiverDirectory{
		inner:  inner,
		cache:  cache,
		key:    constants.CacheKeys.LiverMap,
		ttl:    constants.CacheTTL.LiverMap,
		logger: logger,
	}
}

func (d *CachedLiverDirectory) LiverMap(ctx context.Context) (map[string]domain.LiverInfo, error) {
	var cached map[string]domain.LiverInfo
	found, err := d.cache.Get(ctx, d.key, &cached)
	if err != nil {
		d.logger.Warn("Liver map cache read failed", zap.Error(err))
	}
	if found && len(cached) > 0 {
		return cached, nil
	}

	livers, err := d.inner.LiverMap(ctx)
	if err != nil {
		return nil, err
	}
	if err := d.cache.Set(ctx, d.key, livers, d.ttl); err != nil {
		d.logger.Warn("Liver map cache write failed", zap.Error(err))
	}
	return livers, nil
}
