package balance

import (
	"net/http"

	"cx-tradecore/internal/httputil"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List handles GET /v1/balances.
func (h *Handler) List(w http.ResponseWriter, r *http.Request, userID string) {
	balances, err := h.svc.ListByUser(r.Context(), userID)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, balances)
}
