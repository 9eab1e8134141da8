package minutes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"meetingai/internal/domain"
)

const DefaultTimeout = 60 * time.Second

// Config controls the summarization endpoint.
type Config struct {
	URL     string
	Timeout time.Duration
}

// Client posts transcripts to the sidecar's minutes endpoint.
type Client struct {
	url  string
	http *http.Client
	log  zerolog.Logger
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		url:  cfg.URL,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log.With().Str("component", "minutes").Logger(),
	}
}

type minutesRequest struct {
	Transcript string `json:"transcript"`
}

type minutesResponse struct {
	Minutes string `json:"minutes"`
	Points  string `json:"points"`
	Error   string `json:"error"`
}

// GenerateMinutes issues exactly one request. Transport failures and
// undecodable bodies are returned as errors; everything else is a result.
func (c *Client) GenerateMinutes(ctx context.Context, transcript string) (domain.MinutesResult, error) {
	body, err := json.Marshal(minutesRequest{Transcript: transcript})
	if err != nil {
		return domain.MinutesResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return domain.MinutesResult{}, fmt.Errorf("building minutes request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return domain.MinutesResult{}, fmt.Errorf("calling minutes endpoint: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.MinutesResult{}, fmt.Errorf("reading minutes response: %w", err)
	}

	c.log.Debug().
		Int("status", resp.StatusCode).
		Int("transcript_bytes", len(transcript)).
		Dur("elapsed", time.Since(started)).
		Msg("minutes endpoint answered")

	var decoded minutesResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return domain.MinutesResult{}, fmt.Errorf("parsing minutes response (HTTP %d): %w", resp.StatusCode, err)
	}
	return decodeResult(decoded), nil
}

// decodeResult prefers minutes over points; an error field only counts when
// no summary is present.
func decodeResult(resp minutesResponse) domain.MinutesResult {
	if summary, ok := lo.Coalesce(resp.Minutes, resp.Points); ok {
		return domain.MinutesResult{Summary: summary}
	}
	return domain.MinutesResult{ServerError: resp.Error}
}
