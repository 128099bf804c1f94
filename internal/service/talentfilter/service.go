// Package talentfilter persists each user's talent filter as a Redis set.
package talentfilter

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/liver-streams-go/internal/constants"
	"github.com/kapu/liver-streams-go/internal/filter"
	"github.com/kapu/liver-streams-go/pkg/errors"
)

type SetStore interface {
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	Del(ctx context.Context, key string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

type Service struct {
	store  SetStore
	logger *zap.Logger
}

func NewService(store SetStore, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func key(user string) string {
	return constants.CacheKeys.FilterPrefix + user
}

// Get returns the user's filter. An empty set means no filtering.
func (s *Service) Get(ctx context.Context, user string) (filter.TalentSet, error) {
	names, err := s.store.SMembers(ctx, key(user))
	if err != nil {
		return nil, errors.NewServiceError("failed to load talent filter", "talent_filter", "get", err)
	}
	return filter.NewTalentSet(names...), nil
}

// Set turns one talent on or off in the user's filter.
func (s *Service) Set(ctx context.Context, user, name string, enabled bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.NewValidationError("talent name is required", "name", name)
	}

	if !enabled {
		if err := s.store.SRem(ctx, key(user), name); err != nil {
			return errors.NewServiceError("failed to update talent filter", "talent_filter", "remove", err)
		}
		return nil
	}

	if err := s.store.SAdd(ctx, key(user), name); err != nil {
		return errors.NewServiceError("failed to update talent filter", "talent_filter", "add", err)
	}
	if err := s.store.Expire(ctx, key(user), constants.CacheTTL.UserState); err != nil {
		s.logger.Warn("Failed to refresh talent filter TTL", zap.String("user", user), zap.Error(err))
	}
	return nil
}

// Replace overwrites the whole filter with names.
func (s *Service) Replace(ctx context.Context, user string, names []string) error {
	if err := s.Reset(ctx, user); err != nil {
		return err
	}
	set := filter.NewTalentSet(names...)
	for _, name := range set.Names() {
		if err := s.Set(ctx, user, name, true); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) Reset(ctx context.Context, user string) error {
	if err := s.store.Del(ctx, key(user)); err != nil {
		return errors.NewServiceError("failed to reset talent filter", "talent_filter", "reset", err)
	}
	return nil
}
