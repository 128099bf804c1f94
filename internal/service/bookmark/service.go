// Package bookmark keeps per-user bookmarks and start notifications.
package bookmark

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/liver-streams-go/internal/constants"
	"github.com/kapu/liver-streams-go/internal/domain"
	"github.com/kapu/liver-streams-go/internal/util"
	"github.com/kapu/liver-streams-go/pkg/errors"
)

type Status string

const (
	StatusBookmark Status = "bookmark"
	StatusNotify   Status = "notify"
)

func (s Status) IsValid() bool {
	return s == StatusBookmark || s == StatusNotify
}

// HashStore is the subset of the cache used for per-user hashes.
type HashStore interface {
	HSet(ctx context.Context, key, field, value string) error
	HDel(ctx context.Context, key string, fields ...string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

type Entry struct {
	EventID string `json:"eventId"`
	Status  Status `json:"status"`
}

// Notification is emitted once for a notify bookmark whose event has started.
type Notification struct {
	Heading string             `json:"heading"`
	Body    string             `json:"body"`
	Icon    string             `json:"icon"`
	URL     string             `json:"url"`
	Event   *domain.LiverEvent `json:"event"`
}

type Service struct {
	store  HashStore
	loc    *time.Location
	logger *zap.Logger
}

// NewService creates a bookmark service. Notification headings are
// rendered in loc, JST when nil.
func NewService(store HashStore, loc *time.Location, logger *zap.Logger) *Service {
	if loc == nil {
		loc = util.JST()
	}
	return &Service{store: store, loc: loc, logger: logger}
}

func key(user string) string {
	return constants.CacheKeys.BookmarkPrefix + user
}

func (s *Service) List(ctx context.Context, user string) ([]Entry, error) {
	raw, err := s.store.HGetAll(ctx, key(user))
	if err != nil {
		return nil, errors.NewServiceError("failed to load bookmarks", "bookmark", "list", err)
	}

	entries := make([]Entry, 0, len(raw))
	for id, value := range raw {
		status := Status(value)
		if !status.IsValid() {
			s.logger.Debug("Skipping bookmark with unknown status",
				zap.String("user", user),
				zap.String("event_id", id),
				zap.String("status", value))
			continue
		}
		entries = append(entries, Entry{EventID: id, Status: status})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].EventID < entries[j].EventID })
	return entries, nil
}

// Toggle adds eventID as a plain bookmark, or removes it when already present.
// It returns the resulting status, empty when removed.
func (s *Service) Toggle(ctx context.Context, user, eventID string) (Status, error) {
	raw, err := s.store.HGetAll(ctx, key(user))
	if err != nil {
		return "", errors.NewServiceError("failed to load bookmarks", "bookmark", "toggle", err)
	}

	if _, ok := raw[eventID]; ok {
		if err := s.store.HDel(ctx, key(user), eventID); err != nil {
			return "", errors.NewServiceError("failed to remove bookmark", "bookmark", "toggle", err)
		}
		return "", nil
	}
	if err := s.set(ctx, user, eventID, StatusBookmark); err != nil {
		return "", err
	}
	return StatusBookmark, nil
}

// ToggleNotify switches eventID between bookmark and notify. An event that
// is not bookmarked yet becomes notify directly.
func (s *Service) ToggleNotify(ctx context.Context, user, eventID string) (Status, error) {
	raw, err := s.store.HGetAll(ctx, key(user))
	if err != nil {
		return "", errors.NewServiceError("failed to load bookmarks", "bookmark", "toggle_notify", err)
	}

	next := StatusNotify
	if Status(raw[eventID]) == StatusNotify {
		next = StatusBookmark
	}
	if err := s.set(ctx, user, eventID, next); err != nil {
		return "", err
	}
	return next, nil
}

func (s *Service) set(ctx context.Context, user, eventID string, status Status) error {
	if err := s.store.HSet(ctx, key(user), eventID, string(status)); err != nil {
		return errors.NewServiceError("failed to save bookmark", "bookmark", "set", err)
	}
	if err := s.store.Expire(ctx, key(user), constants.CacheTTL.UserState); err != nil {
		s.logger.Warn("Failed to refresh bookmark TTL", zap.String("user", user), zap.Error(err))
	}
	return nil
}

// ProcessNotifications drops bookmarks whose event is gone or whose status
// is unreadable, then emits a
// notification for each notify entry that has started and downgrades it to
// a plain bookmark so it fires only once.
func (s *Service) ProcessNotifications(ctx context.Context, user string, byID map[string]*domain.LiverEvent, now time.Time) ([]Notification, error) {
	raw, err := s.store.HGetAll(ctx, key(user))
	if err != nil {
		return nil, errors.NewServiceError("failed to load bookmarks", "bookmark", "notify", err)
	}

	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var stale []string
	notifications := make([]Notification, 0)
	for _, id := range ids {
		ev, ok := byID[id]
		status := Status(raw[id])
		if !ok || !status.IsValid() {
			stale = append(stale, id)
			continue
		}
		if status != StatusNotify || now.Before(ev.StartAt) {
			continue
		}

		notifications = append(notifications, Notification{
			Heading: fmt.Sprintf("%s %s", util.FormatIn(ev.StartAt, s.loc, "15:04"), ev.Talent.Name),
			Body:    ev.Title,
			Icon:    ev.Thumbnail,
			URL:     ev.URL,
			Event:   ev,
		})
		if err := s.store.HSet(ctx, key(user), id, string(StatusBookmark)); err != nil {
			return notifications, errors.NewServiceError("failed to update bookmark", "bookmark", "notify", err)
		}
	}

	if len(stale) > 0 {
		if err := s.store.HDel(ctx, key(user), stale...); err != nil {
			return notifications, errors.NewServiceError("failed to prune bookmarks", "bookmark", "notify", err)
		}
		s.logger.Debug("Pruned stale bookmarks", zap.String("user", user), zap.Int("count", len(stale)))
	}
	return notifications, nil
}
