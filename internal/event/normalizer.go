package event

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/kapu/liver-streams-go/internal/domain"
	"github.com/kapu/liver-streams-go/internal/textmine"
	"github.com/kapu/liver-streams-go/internal/util"
	"github.com/kapu/liver-streams-go/pkg/errors"
)

const fallbackIDLength = 8

// DigestFunc hashes id material. It may fail when no hash is available.
type DigestFunc func(data []byte) ([]byte, error)

// SHA256 is the default digest.
func SHA256(data []byte) ([]byte, error) {
	sum := sha256.Sum256(data)
	return sum[:], nil
}

// RawEvent is the agency-neutral record a source adapter hands over.
type RawEvent struct {
	Affiliation    domain.Affiliation
	StartAt        string
	EndAt          string
	Title          string
	URL            string
	Thumbnail      string
	IsLive         bool
	Talent         domain.LiverTalent
	CollaboTalents []domain.LiverTalent
}

type Normalizer struct {
	digest DigestFunc
}

func NewNormalizer(digest DigestFunc) *Normalizer {
	return &Normalizer{digest: digest}
}

// Default returns a Normalizer backed by SHA-256.
func Default() *Normalizer {
	return NewNormalizer(SHA256)
}

// CreateID prefers the YouTube video id in url. Otherwise it returns the first
// 8 hex characters of the digest of "url_thumbnail_talentName".
func (n *Normalizer) CreateID(url, thumbnail, talentName string) (string, error) {
	if id, ok := YouTubeVideoID(url); ok {
		return id, nil
	}
	if n == nil || n.digest == nil {
		return "", errors.NewConstructionError("no digest available for event id", url, nil)
	}

	sum, err := n.digest([]byte(url + "_" + thumbnail + "_" + talentName))
	if err != nil {
		return "", errors.NewConstructionError("event id digest failed", url, err)
	}
	encoded := hex.EncodeToString(sum)
	if len(encoded) < fallbackIDLength {
		return "", errors.NewConstructionError(
			fmt.Sprintf("digest too short: %d hex chars", len(encoded)), url, nil)
	}
	return encoded[:fallbackIDLength], nil
}

// CreateLiverEvent builds the canonical event. On error nothing is returned;
// callers drop the record.
func (n *Normalizer) CreateLiverEvent(raw RawEvent) (*domain.LiverEvent, error) {
	startAt, err := util.ParseTimestamp(raw.StartAt)
	if err != nil {
		return nil, errors.NewValidationError("invalid startAt", "startAt", raw.StartAt)
	}

	event := &domain.LiverEvent{
		Title:          raw.Title,
		URL:            raw.URL,
		Thumbnail:      raw.Thumbnail,
		StartAt:        startAt,
		IsLive:         raw.IsLive,
		Talent:         raw.Talent,
		CollaboTalents: raw.CollaboTalents,
		Affiliation:    raw.Affiliation,
	}
	if event.CollaboTalents == nil {
		event.CollaboTalents = []domain.LiverTalent{}
	}

	if strings.TrimSpace(raw.EndAt) != "" {
		endAt, err := util.ParseTimestamp(raw.EndAt)
		if err != nil {
			return nil, errors.NewValidationError("invalid endAt", "endAt", raw.EndAt)
		}
		event.EndAt = &endAt
	}

	event.ID, err = n.CreateID(raw.URL, raw.Thumbnail, raw.Talent.Name)
	if err != nil {
		return nil, err
	}

	event.HashtagList = textmine.ExtractHashtags(raw.Title)
	event.KeywordList = textmine.ExtractKeywords(raw.Title, raw.Talent.Name)
	if event.HashtagList == nil {
		event.HashtagList = []string{}
	}
	if event.KeywordList == nil {
		event.KeywordList = []string{}
	}
	event.BuildSets()

	return event, nil
}
