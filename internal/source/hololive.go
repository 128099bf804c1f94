package source

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/kapu/liver-streams-go/internal/constants"
	"github.com/kapu/liver-streams-go/internal/domain"
	"github.com/kapu/liver-streams-go/internal/event"
	"github.com/kapu/liver-streams-go/internal/util"
	"github.com/kapu/liver-streams-go/pkg/errors"
)

// hololive platformType 0 means the stream lives on someone else's channel.
const platformOtherChannel = 0

type holoSchedule struct {
	DateGroupList []holoDateGroup `json:"dateGroupList"`
}

type holoDateGroup struct {
	DisplayDate string            `json:"displayDate"`
	Datetime    string            `json:"datetime"`
	VideoList   []holoVideoDetail `json:"videoList"`
}

type holoVideoDetail struct {
	Datetime       string       `json:"datetime"`
	IsLive         bool         `json:"isLive"`
	PlatformType   int          `json:"platformType"`
	URL            string       `json:"url"`
	Thumbnail      string       `json:"thumbnail"`
	Title          string       `json:"title"`
	Name           string       `json:"name"`
	Talent         holoTalent   `json:"talent"`
	CollaboTalents []holoTalent `json:"collaboTalents"`
}

type holoTalent struct {
	Name         string `json:"name"`
	IconImageURL string `json:"iconImageUrl"`
}

type HololiveSource struct {
	client     *http.Client
	apiURL     string
	normalizer *event.Normalizer
	breaker    *util.CircuitBreaker
	fallback   EventSource
	logger     *zap.Logger
}

// NewHololiveSource reads the schedule JSON API. fallback, usually a
// HololiveScraper, is used while the API fails or its circuit is open; it may
// be nil.
func NewHololiveSource(client *http.Client, apiURL string, normalizer *event.Normalizer, fallback EventSource, logger *zap.Logger) *HololiveSource {
	if apiURL == "" {
		apiURL = constants.APIConfig.HololiveScheduleAPI
	}
	return &HololiveSource{
		client:     defaultHTTPClient(client),
		apiURL:     apiURL,
		normalizer: normalizer,
		breaker: util.NewCircuitBreaker(
			string(domain.AffiliationHololive),
			constants.CircuitBreakerConfig.FailureThreshold,
			constants.CircuitBreakerConfig.ResetTimeout,
			logger,
		),
		fallback: fallback,
		logger:   logger,
	}
}

func (s *HololiveSource) Affiliation() domain.Affiliation {
	return domain.AffiliationHololive
}

func (s *HololiveSource) CircuitStatus() util.CircuitBreakerStatus {
	return s.breaker.Status()
}

func (s *HololiveSource) FetchEvents(ctx context.Context) ([]*domain.LiverEvent, error) {
	if !s.breaker.CanExecute() {
		return s.useFallback(ctx, errors.NewAPIError("circuit open", "hololive", 503, nil))
	}

	var schedule holoSchedule
	if err := getJSON(ctx, s.client, "hololive", s.apiURL, &schedule); err != nil {
		s.breaker.RecordFailure()
		return s.useFallback(ctx, err)
	}
	s.breaker.RecordSuccess()

	return normalizeAll(s.normalizer, schedule.rawEvents(), s.logger), nil
}

func (s *HololiveSource) useFallback(ctx context.Context, cause error) ([]*domain.LiverEvent, error) {
	if s.fallback == nil {
		return nil, cause
	}
	s.logger.Warn("Hololive API unavailable, using fallback", zap.Error(cause))

	events, err := s.fallback.FetchEvents(ctx)
	if err != nil {
		return nil, errors.NewServiceError("hololive fallback failed", "hololive", "FetchEvents", err)
	}
	return events, nil
}

func (sc holoSchedule) rawEvents() []event.RawEvent {
	var raws []event.RawEvent
	for _, group := range sc.DateGroupList {
		for _, video := range group.VideoList {
			title := video.Title
			if video.PlatformType == platformOtherChannel {
				title = constants.Placeholder.OtherChannelTitle
			}

			collabos := make([]domain.LiverTalent, 0, len(video.CollaboTalents))
			for _, c := range video.CollaboTalents {
				collabos = append(collabos, domain.LiverTalent{Name: c.Name, Image: c.IconImageURL})
			}

			raws = append(raws, event.RawEvent{
				Affiliation:    domain.AffiliationHololive,
				StartAt:        video.Datetime,
				Title:          title,
				URL:            video.URL,
				Thumbnail:      video.Thumbnail,
				IsLive:         video.IsLive,
				Talent:         domain.LiverTalent{Name: video.Name, Image: video.Talent.IconImageURL},
				CollaboTalents: collabos,
			})
		}
	}
	return raws
}
