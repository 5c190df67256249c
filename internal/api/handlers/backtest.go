package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Investment-Backtest-Backend/internal/api/request"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/api/response"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/service"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/validation"
)

// BacktestHandler handles HTTP requests for backtest endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the backtestService.
type BacktestHandler struct {
	backtestService *service.BacktestService
}

// NewBacktestHandler creates a new BacktestHandler with the provided service dependency.
func NewBacktestHandler(backtestService *service.BacktestService) *BacktestHandler {
	return &BacktestHandler{
		backtestService: backtestService,
	}
}

// RunBacktest handles POST requests to run a one-off backtest.
//
// Endpoint: POST /api/backtest
// Request Body: BacktestRequest (symbol, startDate, endDate, initialAmount, monthlyAmount, reinvestDividends)
// Response: 200 OK with BacktestResponse
// Error: 400 Bad Request if the body is invalid or validation fails
// Error: 422 Unprocessable Entity if fewer than two priced days exist in the range
// Error: 502 Bad Gateway if price data could not be loaded
func (h *BacktestHandler) RunBacktest(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.BacktestRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	btReq, err := validation.ValidateBacktest(req)
	if err != nil {
		respondBacktestError(w, err)
		return
	}

	report, err := h.backtestService.Run(r.Context(), btReq)
	if err != nil {
		respondBacktestError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, response.NewBacktestResponse(report))
}

// RunSessionBacktest handles POST requests to run a backtest within a session.
// A newer request for the same session cancels this one.
//
// Endpoint: POST /api/backtest/session/{uuid}
// Request Body: BacktestRequest
// Response: 200 OK with BacktestResponse
// Error: 400 Bad Request if session ID is invalid (validated by middleware) or validation fails
// Error: 409 Conflict if a newer run for the session superseded this one
// Error: 422 Unprocessable Entity if fewer than two priced days exist in the range
// Error: 502 Bad Gateway if price data could not be loaded
func (h *BacktestHandler) RunSessionBacktest(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "uuid")

	req, err := parseJSON[request.BacktestRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	btReq, err := validation.ValidateBacktest(req)
	if err != nil {
		respondBacktestError(w, err)
		return
	}

	report, err := h.backtestService.RunInSession(r.Context(), sessionID, btReq)
	if err != nil {
		respondBacktestError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, response.NewBacktestResponse(report))
}

// SessionBacktest handles GET requests for the latest result of a session.
//
// Endpoint: GET /api/backtest/session/{uuid}
// Response: 200 OK with BacktestResponse
// Error: 400 Bad Request if session ID is invalid (validated by middleware)
// Error: 404 Not Found if the session has not published a result
func (h *BacktestHandler) SessionBacktest(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "uuid")

	report, err := h.backtestService.LatestForSession(r.Context(), sessionID)
	if err != nil {
		respondBacktestError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, response.NewBacktestResponse(report))
}

// GetBacktest handles GET requests for a stored run.
//
// Endpoint: GET /api/backtest/{uuid}
// Response: 200 OK with BacktestResponse
// Error: 400 Bad Request if run ID is invalid (validated by middleware)
// Error: 404 Not Found if no run has that ID
func (h *BacktestHandler) GetBacktest(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "uuid")

	report, err := h.backtestService.GetRun(r.Context(), runID)
	if err != nil {
		respondBacktestError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, response.NewBacktestResponse(report))
}
