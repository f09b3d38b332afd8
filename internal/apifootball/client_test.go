package apifootball

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statisticsBody = `{
  "get": "teams/statistics",
  "errors": [],
  "response": {
    "league": {"id": 71, "season": 2025},
    "team": {"id": 125, "name": "Fluminense"},
    "goals": {
      "for": {"total": {"home": 27, "away": 12}, "average": {"home": "1.8", "away": "0.8", "total": "1.3"}},
      "against": {"total": {"home": 13, "away": 21}, "average": {"home": "0.9", "away": null, "total": "1.1"}}
    }
  }
}`

func newTestClient(url string) *Client {
	return NewClient(url, "secret", 5*time.Second, ClientConfig{
		MaxRetries:     3,
		RetryDelayBase: time.Millisecond,
		LeagueID:       BrasileiraoSerieA,
		Season:         DefaultSeason,
	})
}

func TestFetchTeamStatistics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/teams/statistics", r.URL.Path)
		assert.Equal(t, "125", r.URL.Query().Get("team"))
		assert.Equal(t, "71", r.URL.Query().Get("league"))
		assert.Equal(t, "2025", r.URL.Query().Get("season"))
		assert.Equal(t, "secret", r.Header.Get("x-apisports-key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(statisticsBody))
	}))
	defer srv.Close()

	stats, err := newTestClient(srv.URL).FetchTeamStatistics(context.Background(), 125)
	require.NoError(t, err)

	assert.Equal(t, 125, stats.TeamID)
	assert.Equal(t, "Fluminense", stats.TeamName)
	assert.Equal(t, 1.8, stats.GoalsForHome)
	assert.Equal(t, 0.8, stats.GoalsForAway)
	assert.Equal(t, 0.9, stats.GoalsAgainstHome)
	assert.Equal(t, 0.0, stats.GoalsAgainstAway, "null average reads as zero")
}

func TestFetchTeamStatistics_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).FetchTeamStatistics(context.Background(), 125)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "client errors are not retried")
		})
	}
}

func TestFetchTeamStatistics_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(statisticsBody))
	}))
	defer srv.Close()

	stats, err := newTestClient(srv.URL).FetchTeamStatistics(context.Background(), 125)
	require.NoError(t, err)
	assert.Equal(t, 125, stats.TeamID)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchTeamStatistics_GivesUpAfterMaxRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchTeamStatistics(context.Background(), 125)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
}

func TestFetchTeamStatistics_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors": [], "results": 0, "response": []}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchTeamStatistics(context.Background(), 125)
	assert.True(t, errors.Is(err, ErrNoData), "got %v", err)
}

func TestFetchTeamStatistics_APIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors": {"requests": "You have reached the request limit for the day"}, "response": []}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchTeamStatistics(context.Background(), 125)
	assert.True(t, errors.Is(err, ErrRateLimited), "got %v", err)
}

func TestFetchTeamStatistics_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", time.Second, ClientConfig{MaxRetries: 5, RetryDelayBase: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.FetchTeamStatistics(ctx, 125)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestTeams(t *testing.T) {
	teams := Teams()
	require.Len(t, teams, 23)
	assert.Equal(t, "Athletico-PR", teams[0].Name)

	flu, ok := LookupTeam("  fluminense ")
	require.True(t, ok)
	assert.Equal(t, Team{ID: 125, Name: "Fluminense"}, flu)

	_, ok = LookupTeam("Arsenal")
	assert.False(t, ok)
}
