package copytrade

import (
	"errors"
	"net/http"
	"strings"

	"cx-tradecore/internal/httputil"
	"cx-tradecore/internal/types"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type followRequest struct {
	CopyCode string `json:"copy_code"`
}

func (h *Handler) FollowSpot(w http.ResponseWriter, r *http.Request, userID string) {
	h.follow(w, r, userID, types.MarketSpot)
}

func (h *Handler) FollowFutures(w http.ResponseWriter, r *http.Request, userID string) {
	h.follow(w, r, userID, types.MarketFutures)
}

func (h *Handler) follow(w http.ResponseWriter, r *http.Request, userID string, market types.MarketKind) {
	var req followRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	code := strings.TrimSpace(req.CopyCode)
	if code == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "copy_code is required"})
		return
	}
	order, err := h.svc.Follow(r.Context(), userID, code, market)
	if err != nil {
		writeFollowError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, order)
}

func (h *Handler) Available(w http.ResponseWriter, r *http.Request) {
	market := types.MarketKind(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("market"))))
	if market == "" {
		market = types.MarketSpot
	}
	orders, err := h.svc.AvailableOrders(r.Context(), market)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, orders)
}

func (h *Handler) Orders(w http.ResponseWriter, r *http.Request, userID string) {
	market := types.MarketKind(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("market"))))
	if market == "" {
		market = types.MarketSpot
	}
	orders, err := h.svc.History(r.Context(), userID, market)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, orders)
}

func writeFollowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrOrderNotFound):
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrOrderExpired):
		httputil.WriteJSON(w, http.StatusGone, httputil.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrAlreadyFollowing):
		httputil.WriteJSON(w, http.StatusConflict, httputil.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrInsufficientBalance):
		httputil.WriteJSON(w, http.StatusPaymentRequired, httputil.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrIneligibleTier):
		httputil.WriteJSON(w, http.StatusForbidden, httputil.ErrorResponse{Error: err.Error()})
	default:
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
	}
}
