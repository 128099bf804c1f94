package api

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kapu/liver-streams-go/internal/domain"
	"github.com/kapu/liver-streams-go/internal/filter"
	"github.com/kapu/liver-streams-go/internal/search"
	"github.com/kapu/liver-streams-go/internal/section"
	"github.com/kapu/liver-streams-go/internal/service/aggregator"
	"github.com/kapu/liver-streams-go/internal/service/bookmark"
	"github.com/kapu/liver-streams-go/internal/service/newarrival"
	"github.com/kapu/liver-streams-go/internal/service/talentfilter"
	"github.com/kapu/liver-streams-go/internal/textmine"
	"github.com/kapu/liver-streams-go/internal/util"
	"github.com/kapu/liver-streams-go/pkg/errors"
)

const (
	userHeader  = "X-User-ID"
	defaultUser = "default"
)

// Schedule is the read side of the aggregator.
type Schedule interface {
	Snapshot() aggregator.Snapshot
	Event(id string) (*domain.LiverEvent, bool)
	NewArrivals() *newarrival.Tracker
}

// Pinger is a backing store whose readiness /health reports.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthCheck struct {
	name   string
	pinger Pinger
}

const healthCheckTimeout = 2 * time.Second

// CircuitReporter is a source guarded by a circuit breaker.
type CircuitReporter interface {
	CircuitStatus() util.CircuitBreakerStatus
}

type Handler struct {
	schedule  Schedule
	filters   *talentfilter.Service
	bookmarks *bookmark.Service
	checks    []healthCheck
	circuits  map[string]CircuitReporter
	loc       *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

func NewHandler(schedule Schedule, filters *talentfilter.Service, bookmarks *bookmark.Service, loc *time.Location, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		schedule:  schedule,
		filters:   filters,
		bookmarks: bookmarks,
		loc:       loc,
		logger:    logger,
		now:       time.Now,
	}
}

// AddHealthCheck registers a dependency reported by /health. A failing
// check turns the response into 503.
func (h *Handler) AddHealthCheck(name string, p Pinger) {
	if p == nil {
		return
	}
	h.checks = append(h.checks, healthCheck{name: name, pinger: p})
}

// AddCircuit reports a source's breaker on /health. An open circuit does not
// fail the check since the source may still serve from its fallback.
func (h *Handler) AddCircuit(name string, r CircuitReporter) {
	if h.circuits == nil {
		h.circuits = make(map[string]CircuitReporter)
	}
	h.circuits[name] = r
}

func userID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(userHeader)); id != "" {
		return id
	}
	return defaultUser
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := errors.StatusCode(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handler) Health(c *gin.Context) {
	status, code := "UP", http.StatusOK
	checks := make(map[string]string, len(h.checks))
	for _, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		err := check.pinger.Ping(ctx)
		cancel()
		if err != nil {
			h.logger.Warn("Health check failed",
				zap.String("check", check.name),
				zap.Error(err))
			checks[check.name] = err.Error()
			status, code = "DOWN", http.StatusServiceUnavailable
			continue
		}
		checks[check.name] = "UP"
	}

	circuits := make(map[string]util.CircuitBreakerStatus, len(h.circuits))
	for name, r := range h.circuits {
		circuits[name] = r.CircuitStatus()
	}

	snap := h.schedule.Snapshot()
	c.JSON(code, gin.H{
		"status":    status,
		"checks":    checks,
		"circuits":  circuits,
		"events":    len(snap.Events),
		"fetchedAt": snap.FetchedAt,
		"time":      h.now(),
	})
}

// eventView adds highlight runs for the title to an event.
type eventView struct {
	*domain.LiverEvent
	TitleSegments []textmine.Segment `json:"titleSegments"`
}

func newEventView(ev *domain.LiverEvent) eventView {
	return eventView{
		LiverEvent:    ev,
		TitleSegments: textmine.ParseSegment(ev.Title, ev.KeywordList, ev.HashtagList),
	}
}

func eventViews(events []*domain.LiverEvent) []eventView {
	views := make([]eventView, 0, len(events))
	for _, ev := range events {
		views = append(views, newEventView(ev))
	}
	return views
}

// query parses ?q= and applies ?live=true on top of it.
func query(c *gin.Context) *search.SearchQuery {
	q := search.ParseSearchString(c.Query("q"))
	if live, err := strconv.ParseBool(c.DefaultQuery("live", "false")); err == nil && live && !q.IsLiveOnly() {
		q = q.ToggleLiveOnly()
	}
	return q
}

func (h *Handler) filteredEvents(c *gin.Context) ([]*domain.LiverEvent, *search.SearchQuery, bool) {
	talents, err := h.filters.Get(c.Request.Context(), userID(c))
	if err != nil {
		h.fail(c, err)
		return nil, nil, false
	}
	q := query(c)
	events := filter.GetFilteredEventList(h.schedule.Snapshot().Events, talents, q)
	return events, q, true
}

func (h *Handler) ListEvents(c *gin.Context) {
	events, q, ok := h.filteredEvents(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"query":  q.String(),
		"parsed": q,
		"count":  len(events),
		"events": eventViews(events),
	})
}

func (h *Handler) GetEvent(c *gin.Context) {
	id := c.Param("id")
	ev, ok := h.schedule.Event(id)
	if !ok {
		h.fail(c, errors.NewNotFoundError("event", id))
		return
	}
	c.JSON(http.StatusOK, newEventView(ev))
}

func (h *Handler) ListSections(c *gin.Context) {
	events, q, ok := h.filteredEvents(c)
	if !ok {
		return
	}

	loc := h.loc
	if tz := c.Query("tz"); tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			h.fail(c, errors.NewValidationError("unknown time zone", "tz", tz))
			return
		}
		loc = parsed
	}

	c.JSON(http.StatusOK, gin.H{
		"query":    q.String(),
		"timezone": loc.String(),
		"sections": section.CreateDateSectionList(events, loc),
	})
}

func (h *Handler) ListNewArrivals(c *gin.Context) {
	talents, err := h.filters.Get(c.Request.Context(), userID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"newArrivals": h.schedule.NewArrivals().List(talents)})
}

func (h *Handler) GetTalentFilter(c *gin.Context) {
	talents, err := h.filters.Get(c.Request.Context(), userID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	names := talents.Names()
	sort.Strings(names)
	c.JSON(http.StatusOK, gin.H{"talents": names})
}

type replaceFilterRequest struct {
	Talents []string `json:"talents"`
}

func (h *Handler) ReplaceTalentFilter(c *gin.Context) {
	var req replaceFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errors.NewValidationError("invalid request body", "talents", err.Error()))
		return
	}
	if err := h.filters.Replace(c.Request.Context(), userID(c), req.Talents); err != nil {
		h.fail(c, err)
		return
	}
	h.GetTalentFilter(c)
}

type setFilterRequest struct {
	Enabled *bool `json:"enabled"`
}

func (h *Handler) SetTalentFilter(c *gin.Context) {
	var req setFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		h.fail(c, errors.NewValidationError("enabled is required", "enabled", nil))
		return
	}
	if err := h.filters.Set(c.Request.Context(), userID(c), c.Param("name"), *req.Enabled); err != nil {
		h.fail(c, err)
		return
	}
	h.GetTalentFilter(c)
}

func (h *Handler) ResetTalentFilter(c *gin.Context) {
	if err := h.filters.Reset(c.Request.Context(), userID(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListBookmarks(c *gin.Context) {
	entries, err := h.bookmarks.List(c.Request.Context(), userID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookmarks": entries})
}

func (h *Handler) ToggleBookmark(c *gin.Context) {
	h.toggle(c, h.bookmarks.Toggle)
}

func (h *Handler) ToggleNotify(c *gin.Context) {
	h.toggle(c, h.bookmarks.ToggleNotify)
}

func (h *Handler) toggle(c *gin.Context, fn func(ctx context.Context, user, id string) (bookmark.Status, error)) {
	id := c.Param("id")
	if _, ok := h.schedule.Event(id); !ok {
		h.fail(c, errors.NewNotFoundError("event", id))
		return
	}
	status, err := fn(c.Request.Context(), userID(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"eventId": id, "status": status})
}

// PollNotifications returns notifications for notify bookmarks whose event
// has started since the last poll. Nothing is pruned before the first
// refresh.
func (h *Handler) PollNotifications(c *gin.Context) {
	snap := h.schedule.Snapshot()
	if snap.FetchedAt.IsZero() {
		c.JSON(http.StatusOK, gin.H{"notifications": []bookmark.Notification{}})
		return
	}
	notifications, err := h.bookmarks.ProcessNotifications(c.Request.Context(), userID(c), snap.ByID, h.now())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}
