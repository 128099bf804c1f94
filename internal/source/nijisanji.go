package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/kapu/liver-streams-go/internal/constants"
	"github.com/kapu/liver-streams-go/internal/domain"
	"github.com/kapu/liver-streams-go/internal/event"
	"github.com/kapu/liver-streams-go/pkg/errors"
)

type nijiStream struct {
	Title            string   `json:"title"`
	URL              string   `json:"url"`
	Thumbnail        string   `json:"thumbnail"`
	StartAt          string   `json:"startAt"`
	EndAt            *string  `json:"endAt"`
	IsLive           bool     `json:"isLive"`
	TalentID         string   `json:"talentId"`
	CollaboTalentIDs []string `json:"collaboTalentIds"`
}

type NijisanjiSource struct {
	client     *http.Client
	apiBase    string
	directory  LiverDirectory
	icons      *IconChain
	normalizer *event.Normalizer
	logger     *zap.Logger
}

func NewNijisanjiSource(client *http.Client, apiBase string, directory LiverDirectory, icons *IconChain, normalizer *event.Normalizer, logger *zap.Logger) *NijisanjiSource {
	if apiBase == "" {
		apiBase = constants.APIConfig.NijisanjiAPIBase
	}
	if icons == nil {
		icons = NewIconChain(constants.Placeholder.DefaultIcon)
	}
	return &NijisanjiSource{
		client:     defaultHTTPClient(client),
		apiBase:    strings.TrimRight(apiBase, "/"),
		directory:  directory,
		icons:      icons,
		normalizer: normalizer,
		logger:     logger,
	}
}

func (s *NijisanjiSource) Affiliation() domain.Affiliation {
	return domain.AffiliationNijisanji
}

// FetchEvents loads the liver directory and the stream list concurrently.
func (s *NijisanjiSource) FetchEvents(ctx context.Context) ([]*domain.LiverEvent, error) {
	var (
		livers  map[string]domain.LiverInfo
		streams []nijiStream
	)

	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		m, err := s.directory.LiverMap(ctx)
		if err != nil {
			return errors.NewServiceError("liver directory unavailable", "nijisanji", "LiverMap", err)
		}
		livers = m
		return nil
	})
	p.Go(func(ctx context.Context) error {
		return getJSON(ctx, s.client, "nijisanji", s.apiBase+"/streams", &streams)
	})
	if err := p.Wait(); err != nil {
		return nil, err
	}

	raws := make([]event.RawEvent, 0, len(streams))
	for _, st := range streams {
		collabos := make([]domain.LiverTalent, 0, len(st.CollaboTalentIDs))
		for _, id := range st.CollaboTalentIDs {
			collabos = append(collabos, s.talent(livers, id))
		}
		raw := event.RawEvent{
			Affiliation:    domain.AffiliationNijisanji,
			StartAt:        st.StartAt,
			Title:          st.Title,
			URL:            st.URL,
			Thumbnail:      st.Thumbnail,
			IsLive:         st.IsLive,
			Talent:         s.talent(livers, st.TalentID),
			CollaboTalents: collabos,
		}
		if st.EndAt != nil {
			raw.EndAt = *st.EndAt
		}
		raws = append(raws, raw)
	}

	return normalizeAll(s.normalizer, raws, s.logger), nil
}

// talent resolves an id, substituting a placeholder for unknown ids.
func (s *NijisanjiSource) talent(livers map[string]domain.LiverInfo, id string) domain.LiverTalent {
	info, ok := livers[id]
	if !ok {
		s.logger.Warn("Talent not found in liver directory", zap.String("talent_id", id))
		return domain.LiverTalent{
			Name:  fmt.Sprintf(constants.Placeholder.UnknownTalent, id),
			Image: s.icons.Default(),
		}
	}

	image := s.icons.Resolve(info.Name)
	if image == s.icons.Default() && info.Image != "" {
		image = info.Image
	}
	return domain.LiverTalent{Name: info.Name, Image: image}
}
