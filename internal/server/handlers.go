package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/rewired-gh/evsignal/internal/analysis"
	"github.com/rewired-gh/evsignal/internal/apifootball"
	"github.com/rewired-gh/evsignal/internal/combo"
	"github.com/rewired-gh/evsignal/internal/logger"
	"github.com/rewired-gh/evsignal/internal/models"
	"github.com/rewired-gh/evsignal/internal/session"
	"github.com/rewired-gh/evsignal/internal/value"
)

// AnalyzeRequest prices one or more fixtures from provider statistics.
// Teams may be given by ID or by catalog name.
type AnalyzeRequest struct {
	Matches []analysis.Request `json:"matches"`
	Notify  bool               `json:"notify"`
}

// AnalyzeResponse carries per-fixture results in request order.
type AnalyzeResponse struct {
	Results  []*analysis.MatchAnalysis `json:"results"`
	Errors   []string                  `json:"errors,omitempty"`
	Notified bool                      `json:"notified"`
}

// RatesRequest prices odds from caller-supplied expected goals.
type RatesRequest struct {
	MatchID  string             `json:"match_id"`
	HomeRate float64            `json:"home_rate"`
	AwayRate float64            `json:"away_rate"`
	Odds     map[string]float64 `json:"odds"`
}

// AddBetRequest evaluates one market price and appends it to the slip.
type AddBetRequest struct {
	MatchID     string  `json:"match_id"`
	Market      string  `json:"market"`
	Probability float64 `json:"probability"`
	Odd         float64 `json:"odd"`
}

// PlanRequest allocates a bankroll over the slip.
type PlanRequest struct {
	Total   decimal.Decimal `json:"total"`
	Profile string          `json:"profile"`
}

// CombineRequest selects slip entries by index; none selects the whole slip.
type CombineRequest struct {
	Indices []int `json:"indices"`
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"service":  "evsignal",
		"sessions": h.sessions.Count(),
	})
}

// ListTeams returns the team catalog.
func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"teams": apifootball.Teams(),
	})
}

// ListMarkets returns the markets the model prices.
func (h *Handler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"markets": h.analyzer.Markets(),
	})
}

// Analyze prices fixtures using provider statistics.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if len(req.Matches) == 0 {
		respondError(w, http.StatusBadRequest, "at least one match is required")
		return
	}

	for i := range req.Matches {
		if err := resolveFixture(&req.Matches[i].Fixture); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	results, failures := h.analyzer.AnalyzeBatch(r.Context(), req.Matches)
	resp := AnalyzeResponse{Results: results}
	for _, f := range failures {
		resp.Errors = append(resp.Errors, f.Error())
	}

	// a single fixture that failed is reported with its own status
	if len(req.Matches) == 1 && len(failures) == 1 {
		respondError(w, statusFor(failures[0].Err), failures[0].Error())
		return
	}

	if req.Notify && h.notifier != nil {
		if err := h.notifier.SendReport(r.Context(), results); err != nil {
			logger.Error("Failed to send report: %v", err)
		} else {
			resp.Notified = true
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// resolveFixture fills team IDs from catalog names when IDs are missing.
func resolveFixture(f *analysis.Fixture) error {
	if f.HomeTeamID == 0 {
		t, ok := apifootball.LookupTeam(f.HomeTeam)
		if !ok {
			return fmt.Errorf("unknown home team %q", f.HomeTeam)
		}
		f.HomeTeamID, f.HomeTeam = t.ID, t.Name
	}
	if f.AwayTeamID == 0 {
		t, ok := apifootball.LookupTeam(f.AwayTeam)
		if !ok {
			return fmt.Errorf("unknown away team %q", f.AwayTeam)
		}
		f.AwayTeamID, f.AwayTeam = t.ID, t.Name
	}
	return nil
}

// AnalyzeRates prices odds from explicit expected-goal rates.
func (h *Handler) AnalyzeRates(w http.ResponseWriter, r *http.Request) {
	var req RatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if req.MatchID == "" {
		req.MatchID = "custom"
	}

	result, err := h.analyzer.AnalyzeRates(req.MatchID, models.ExpectedGoals{Home: req.HomeRate, Away: req.AwayRate}, req.Odds)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// CreateSession starts a session with an empty slip.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	id := h.sessions.Create()
	respondJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

// DeleteSession ends a session.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSlip returns the session's slip.
func (h *Handler) GetSlip(w http.ResponseWriter, r *http.Request) {
	bets, err := h.sessions.Slip(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"bets": bets})
}

// AddBet evaluates a price and appends the resulting bet to the slip.
func (h *Handler) AddBet(w http.ResponseWriter, r *http.Request) {
	var req AddBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if req.Market == "" {
		respondError(w, http.StatusBadRequest, "market is required")
		return
	}
	if req.Probability < 0 || req.Probability > 1 {
		respondError(w, http.StatusBadRequest, "probability must be between 0 and 1")
		return
	}
	if err := value.ValidateOdd(req.Odd); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	bet := h.evaluator.Evaluate(req.MatchID, req.Market, req.Probability, req.Odd)
	if err := h.sessions.AddBet(chi.URLParam(r, "id"), bet); err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, bet)
}

// ClearSlip empties the slip.
func (h *Handler) ClearSlip(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.ClearSlip(chi.URLParam(r, "id")); err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveBet removes one slip entry by index.
func (h *Handler) RemoveBet(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "index must be an integer")
		return
	}

	removed, err := h.sessions.RemoveBet(chi.URLParam(r, "id"), index)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, removed)
}

// Plan allocates a bankroll over the slip.
func (h *Handler) Plan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	profile := h.defaultProfile
	if req.Profile != "" {
		p, err := models.ParseRiskProfile(req.Profile)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		profile = p
	}

	plan, err := h.sessions.Plan(chi.URLParam(r, "id"), req.Total, profile)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

// Combine evaluates selected slip entries as one accumulator.
func (h *Handler) Combine(w http.ResponseWriter, r *http.Request) {
	var req CombineRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
			return
		}
	}

	c, err := h.sessions.Combine(chi.URLParam(r, "id"), req.Indices)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, apifootball.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, session.ErrSlipFull):
		return http.StatusConflict
	case errors.Is(err, apifootball.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, apifootball.ErrUnauthorized):
		return http.StatusBadGateway
	case errors.Is(err, models.ErrIndexOutOfRange),
		errors.Is(err, combo.ErrEmptyCombination),
		errors.Is(err, analysis.ErrSameTeam),
		errors.Is(err, analysis.ErrUnknownMarket),
		errors.Is(err, value.ErrInvalidOdd):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondJSON writes a JSON response. The body is encoded before the status
// is sent so an unencodable value becomes a 500.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		logger.Error("Failed to encode response: %v", err)
		status = http.StatusInternalServerError
		buf.Reset()
		buf.WriteString(`{"error":"failed to encode response"}` + "\n")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Warn("Failed to write response: %v", err)
	}
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
