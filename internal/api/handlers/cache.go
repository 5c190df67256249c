package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Investment-Backtest-Backend/internal/api/response"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/apperrors"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/service"
)

// CacheHandler handles HTTP requests for series cache maintenance.
type CacheHandler struct {
	cacheService *service.CacheService
}

// NewCacheHandler creates a new CacheHandler.
func NewCacheHandler(cacheService *service.CacheService) *CacheHandler {
	return &CacheHandler{
		cacheService: cacheService,
	}
}

// InvalidateResponse reports how many cached series were dropped.
type InvalidateResponse struct {
	Symbol  string `json:"symbol"`
	Removed int64  `json:"removed"`
}

// InvalidateSymbol handles DELETE requests that drop every cached series of a symbol.
//
// Endpoint: DELETE /api/cache/{symbol}
// Response: 200 OK with InvalidateResponse
// Error: 400 Bad Request if symbol is empty
// Error: 500 Internal Server Error if deletion fails
func (h *CacheHandler) InvalidateSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	removed, err := h.cacheService.Invalidate(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidSymbol) {
			response.RespondError(w, http.StatusBadRequest, apperrors.ErrInvalidSymbol.Error(), "")
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToInvalidateCache.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, InvalidateResponse{
		Symbol:  strings.ToUpper(strings.TrimSpace(symbol)),
		Removed: removed,
	})
}
