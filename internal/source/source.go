// Package source fetches raw schedules from each agency and turns them into
// LiverEvents.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/kapu/liver-streams-go/internal/constants"
	"github.com/kapu/liver-streams-go/internal/domain"
	"github.com/kapu/liver-streams-go/internal/event"
	"github.com/kapu/liver-streams-go/pkg/errors"
)

// EventSource yields the current schedule of one agency.
type EventSource interface {
	Affiliation() domain.Affiliation
	FetchEvents(ctx context.Context) ([]*domain.LiverEvent, error)
}

func getBody(ctx context.Context, client *http.Client, source, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", constants.APIConfig.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.NewAPIError("request failed", source, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewAPIError("read body failed", source, resp.StatusCode, err)
	}
	if resp.StatusCode >= 400 {
		return nil, errors.NewAPIError(fmt.Sprintf("unexpected status: %d", resp.StatusCode), source, resp.StatusCode, nil)
	}
	return body, nil
}

func getJSON(ctx context.Context, client *http.Client, source, url string, v any) error {
	body, err := getBody(ctx, client, source, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewAPIError("decode response failed", source, 0, err)
	}
	return nil
}

// normalizeAll converts raw records, dropping and logging the ones that fail.
func normalizeAll(normalizer *event.Normalizer, raws []event.RawEvent, logger *zap.Logger) []*domain.LiverEvent {
	events := make([]*domain.LiverEvent, 0, len(raws))
	for _, raw := range raws {
		e, err := normalizer.CreateLiverEvent(raw)
		if err != nil {
			logger.Warn("Dropping schedule record",
				zap.String("affiliation", raw.Affiliation.String()),
				zap.String("url", raw.URL),
				zap.Error(err),
			)
			continue
		}
		events = append(events, e)
	}
	return events
}

func defaultHTTPClient(client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: constants.APIConfig.RequestTimeout}
}
