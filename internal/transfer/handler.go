package transfer

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"cx-tradecore/internal/httputil"
	"cx-tradecore/internal/types"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type depositRequest struct {
	ToAccount string `json:"to_account"`
	AssetID   string `json:"asset_id"`
	Amount    string `json:"amount"`
}

type withdrawRequest struct {
	FromAccount string `json:"from_account"`
	AssetID     string `json:"asset_id"`
	Amount      string `json:"amount"`
}

type moveRequest struct {
	FromAccount string `json:"from_account"`
	ToAccount   string `json:"to_account"`
	AssetID     string `json:"asset_id"`
	Amount      string `json:"amount"`
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, errors.New("invalid amount")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, errors.New("amount must be positive")
	}
	return amount, nil
}

// ExchangeToTrade handles POST /v1/transfers.
func (h *Handler) ExchangeToTrade(w http.ResponseWriter, r *http.Request, userID string) {
	var req depositRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	rec, err := h.svc.ExchangeToTrade(r.Context(), userID, types.AccountType(strings.ToLower(req.ToAccount)), strings.TrimSpace(req.AssetID), amount)
	if err != nil {
		writeTransferError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// TradeToExchange handles POST /v1/transfers/withdraw.
func (h *Handler) TradeToExchange(w http.ResponseWriter, r *http.Request, userID string) {
	var req withdrawRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	rec, err := h.svc.TradeToExchange(r.Context(), userID, types.AccountType(strings.ToLower(req.FromAccount)), strings.TrimSpace(req.AssetID), amount)
	if err != nil {
		writeTransferError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// TradeToTrade handles POST /v1/transfers/move.
func (h *Handler) TradeToTrade(w http.ResponseWriter, r *http.Request, userID string) {
	var req moveRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	rec, err := h.svc.TradeToTrade(r.Context(), userID,
		types.AccountType(strings.ToLower(req.FromAccount)),
		types.AccountType(strings.ToLower(req.ToAccount)),
		strings.TrimSpace(req.AssetID), amount)
	if err != nil {
		writeTransferError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// History handles GET /v1/transfers.
func (h *Handler) History(w http.ResponseWriter, r *http.Request, userID string) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	records, err := h.svc.History(r.Context(), userID, limit)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

func writeTransferError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInsufficientExchangeBalance), errors.Is(err, ErrInsufficientTradeBalance):
		httputil.WriteJSON(w, http.StatusPaymentRequired, httputil.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrUnsupportedAsset):
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
	default:
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
	}
}
