// Package apifootball fetches per-venue goal averages from the API-Football
// v3 /teams/statistics endpoint.
//
// Transport errors and 5xx responses are retried with a linear backoff.
// Authentication failures, exhausted daily quotas and empty responses are
// reported immediately through sentinel errors.
package apifootball

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rewired-gh/evsignal/internal/logger"
	"github.com/rewired-gh/evsignal/internal/models"
)

var (
	// ErrUnauthorized means the API key was rejected.
	ErrUnauthorized = errors.New("api-football: invalid API key")
	// ErrRateLimited means the request quota is exhausted.
	ErrRateLimited = errors.New("api-football: request limit reached")
	// ErrNoData means the API returned no statistics for the team and season.
	ErrNoData = errors.New("api-football: no statistics available")
)

// ClientConfig holds retry and connection settings.
type ClientConfig struct {
	MaxRetries     int
	RetryDelayBase time.Duration
	LeagueID       int
	Season         int
}

// Client provides access to the API-Football statistics endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cfg        ClientConfig
}

// NewClient creates a new API-Football client.
func NewClient(baseURL, apiKey string, timeout time.Duration, cfg ClientConfig) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
	}
}

// average is a goal average that the API encodes as a string, a number or null.
type average float64

func (a *average) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*a = 0
		return nil
	}
	s := strings.Trim(string(b), `"`)
	if s == "" {
		*a = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid goal average %q: %w", s, err)
	}
	*a = average(f)
	return nil
}

type venueAverages struct {
	Home average `json:"home"`
	Away average `json:"away"`
}

// statisticsResponse is the envelope of /teams/statistics. The API sends an
// empty array instead of an object when it has no data.
type statisticsResponse struct {
	Errors   json.RawMessage `json:"errors"`
	Response json.RawMessage `json:"response"`
}

type teamStatistics struct {
	Team struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"team"`
	Goals struct {
		For struct {
			Average venueAverages `json:"average"`
		} `json:"for"`
		Against struct {
			Average venueAverages `json:"average"`
		} `json:"against"`
	} `json:"goals"`
}

// hasErrors reports whether the API-level errors field is non-empty. The API
// sends [] when there are none and an object keyed by error name otherwise.
func (r *statisticsResponse) hasErrors() bool {
	s := string(bytes.TrimSpace(r.Errors))
	return s != "" && s != "[]" && s != "{}" && s != "null"
}

// FetchTeamStatistics returns the venue goal averages for one team in the
// configured league and season.
func (c *Client) FetchTeamStatistics(ctx context.Context, teamID int) (*models.TeamStats, error) {
	q := url.Values{}
	q.Set("team", strconv.Itoa(teamID))
	q.Set("league", strconv.Itoa(c.cfg.LeagueID))
	q.Set("season", strconv.Itoa(c.cfg.Season))
	endpoint := fmt.Sprintf("%s/teams/statistics?%s", c.baseURL, q.Encode())

	body, err := c.doRequest(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch statistics for team %d: %w", teamID, err)
	}

	var resp statisticsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode statistics for team %d: %w", teamID, err)
	}
	if resp.hasErrors() {
		if strings.Contains(strings.ToLower(string(resp.Errors)), "limit") {
			return nil, fmt.Errorf("team %d: %w: %s", teamID, ErrRateLimited, resp.Errors)
		}
		return nil, fmt.Errorf("team %d: api-football errors: %s", teamID, resp.Errors)
	}
	raw := bytes.TrimSpace(resp.Response)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, fmt.Errorf("team %d season %d: %w", teamID, c.cfg.Season, ErrNoData)
	}
	var r teamStatistics
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("failed to decode statistics for team %d: %w", teamID, err)
	}
	if r.Team.ID == 0 {
		return nil, fmt.Errorf("team %d season %d: %w", teamID, c.cfg.Season, ErrNoData)
	}

	stats := &models.TeamStats{
		TeamID:           r.Team.ID,
		TeamName:         r.Team.Name,
		GoalsForHome:     float64(r.Goals.For.Average.Home),
		GoalsForAway:     float64(r.Goals.For.Average.Away),
		GoalsAgainstHome: float64(r.Goals.Against.Average.Home),
		GoalsAgainstAway: float64(r.Goals.Against.Average.Away),
	}
	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("invalid statistics for team %d: %w", teamID, err)
	}
	return stats, nil
}

// doRequest performs a GET with retry logic and returns the response body.
func (c *Client) doRequest(ctx context.Context, endpoint string) ([]byte, error) {
	var lastErr error

	for i := 0; i < c.cfg.MaxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.cfg.RetryDelayBase * time.Duration(i)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("x-apisports-key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			logger.Warn("API-Football request failed (attempt %d/%d): %v", i+1, c.cfg.MaxRetries, err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, ErrUnauthorized
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, ErrRateLimited
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			logger.Warn("API-Football server error %d (attempt %d/%d)", resp.StatusCode, i+1, c.cfg.MaxRetries)
			continue
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		if readErr != nil {
			lastErr = readErr
			continue
		}
		return body, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
