package source

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/kapu/liver-streams-go/internal/constants"
	"github.com/kapu/liver-streams-go/internal/domain"
	"github.com/kapu/liver-streams-go/internal/event"
	"github.com/kapu/liver-streams-go/internal/util"
)

// HololiveScraper reads the public schedule page. The page carries no titles,
// so the talent name stands in for one.
type HololiveScraper struct {
	client     *http.Client
	pageURL    string
	normalizer *event.Normalizer
	now        func() time.Time
	logger     *zap.Logger
}

func NewHololiveScraper(client *http.Client, pageURL string, normalizer *event.Normalizer, logger *zap.Logger) *HololiveScraper {
	if pageURL == "" {
		pageURL = constants.APIConfig.HololiveScheduleHTML
	}
	return &HololiveScraper{
		client:     defaultHTTPClient(client),
		pageURL:    pageURL,
		normalizer: normalizer,
		now:        time.Now,
		logger:     logger,
	}
}

func (s *HololiveScraper) Affiliation() domain.Affiliation {
	return domain.AffiliationHololive
}

func (s *HololiveScraper) FetchEvents(ctx context.Context) ([]*domain.LiverEvent, error) {
	body, err := getBody(ctx, s.client, "hololive-scraper", s.pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("HTML parse failed: %w", err)
	}

	raws, parseErrors := s.parseDocument(doc)
	if len(raws) == 0 {
		return nil, &StructureChangedError{
			Message:     "no schedule cards found",
			ParseErrors: parseErrors,
		}
	}
	if parseErrors > len(raws)/2 {
		s.logger.Warn("High parse error rate on schedule page",
			zap.Int("cards", len(raws)),
			zap.Int("errors", parseErrors))
	}

	events := normalizeAll(s.normalizer, raws, s.logger)
	s.logger.Info("Scraped hololive schedule",
		zap.Int("events", len(events)),
		zap.Int("parse_errors", parseErrors))
	return events, nil
}

func (s *HololiveScraper) parseDocument(doc *goquery.Document) ([]event.RawEvent, int) {
	var (
		raws        []event.RawEvent
		parseErrors int
		currentDate string
	)

	doc.Find(".container .col-12").Each(func(_ int, container *goquery.Selection) {
		header := container.Find(".navbar-inverse .holodule.navbar-text")
		if header.Length() > 0 {
			// "05/01 (水)" -> "05/01"
			text := strings.TrimSpace(header.Text())
			currentDate = strings.TrimSpace(strings.Split(text, "(")[0])
			return
		}

		container.Find("a.thumbnail").Each(func(_ int, card *goquery.Selection) {
			raw, err := s.parseCard(card, currentDate)
			if err != nil {
				parseErrors++
				s.logger.Debug("Failed to parse schedule card",
					zap.String("date", currentDate),
					zap.Error(err))
				return
			}
			raws = append(raws, raw)
		})
	})

	return raws, parseErrors
}

func (s *HololiveScraper) parseCard(card *goquery.Selection, date string) (event.RawEvent, error) {
	href, ok := card.Attr("href")
	if !ok || href == "" {
		return event.RawEvent{}, fmt.Errorf("card without link")
	}

	name := strings.TrimSpace(card.Find(".name").Text())
	if name == "" {
		return event.RawEvent{}, fmt.Errorf("card without talent name: %s", href)
	}

	startAt, err := s.resolveDatetime(date, strings.TrimSpace(card.Find(".datetime").Text()))
	if err != nil {
		return event.RawEvent{}, err
	}

	// Card images come in mixed sizes; thumbnails are served at medium quality.
	var thumbnail string
	var icons []string
	card.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		switch {
		case strings.Contains(src, "ytimg.com"):
			if thumbnail == "" {
				thumbnail = event.ThumbnailWithQuality(src, event.ThumbnailMedium)
			}
		case src != "":
			icons = append(icons, src)
		}
	})
	if thumbnail == "" {
		if id, ok := event.YouTubeVideoID(href); ok {
			thumbnail = "https://i.ytimg.com/vi/" + id + "/mqdefault.jpg"
		}
	}

	talent := domain.LiverTalent{Name: name}
	if len(icons) > 0 {
		talent.Image = icons[0]
	}

	style, _ := card.Attr("style")
	return event.RawEvent{
		Affiliation:    domain.AffiliationHololive,
		StartAt:        startAt.Format(time.RFC3339),
		Title:          name,
		URL:            href,
		Thumbnail:      thumbnail,
		IsLive:         strings.Contains(style, "red"),
		Talent:         talent,
		CollaboTalents: []domain.LiverTalent{},
	}, nil
}

// resolveDatetime combines "MM/DD" and "HH:MM" in JST. The page omits the
// year, so a date far in the past is taken to be next year.
func (s *HololiveScraper) resolveDatetime(date, clock string) (time.Time, error) {
	if date == "" || clock == "" {
		return time.Time{}, fmt.Errorf("empty date or time")
	}

	jst := util.JST()
	t, err := time.ParseInLocation("01/02 15:04", date+" "+clock, jst)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %q: %w", date+" "+clock, err)
	}

	now := s.now().In(jst)
	result := time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, jst)
	if result.Before(now.Add(-90 * 24 * time.Hour)) {
		result = result.AddDate(1, 0, 0)
	}
	return result, nil
}

type StructureChangedError struct {
	Message     string
	ParseErrors int
}

func (e *StructureChangedError) Error() string {
	return fmt.Sprintf("%s (parse errors: %d)", e.Message, e.ParseErrors)
}
