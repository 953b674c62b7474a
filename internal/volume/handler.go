package volume

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"cx-tradecore/internal/assets"
	"cx-tradecore/internal/httputil"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Status handles GET /v1/volume/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request, userID string) {
	assetID := strings.TrimSpace(r.URL.Query().Get("asset_id"))
	if assetID == "" {
		assetID = assets.VolumeTrackedAssetID
	}
	st, err := h.svc.StatusByUser(r.Context(), userID, assetID)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

type recordTradeRequest struct {
	UserID   string `json:"user_id"`
	AssetID  string `json:"asset_id"`
	Notional string `json:"notional"`
}

// RecordTrade handles POST /internal/volume/trades. The trade settlement
// pipeline reports executed notional here; the endpoint sits behind the
// internal token, never user auth.
func (h *Handler) RecordTrade(w http.ResponseWriter, r *http.Request) {
	var req recordTradeRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "user_id is required"})
		return
	}
	assetID := strings.TrimSpace(req.AssetID)
	if assetID == "" {
		assetID = assets.VolumeTrackedAssetID
	}
	notional, err := decimal.NewFromString(strings.TrimSpace(req.Notional))
	if err != nil || notional.LessThanOrEqual(decimal.Zero) {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "notional must be a positive number"})
		return
	}
	if err := h.svc.AddTradedVolume(r.Context(), req.UserID, assetID, notional); err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	st, err := h.svc.StatusByUser(r.Context(), req.UserID, assetID)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}
