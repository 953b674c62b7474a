package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cx-tradecore/internal/auth"
	"cx-tradecore/internal/balance"
	"cx-tradecore/internal/copytrade"
	"cx-tradecore/internal/health"
	"cx-tradecore/internal/transfer"
	"cx-tradecore/internal/volume"
)

type RouterDeps struct {
	AuthHandler      *auth.Handler
	BalanceHandler   *balance.Handler
	VolumeHandler    *volume.Handler
	TransferHandler  *transfer.Handler
	CopyTradeHandler *copytrade.Handler
	HealthHandler    *health.Handler
	AuthService      *auth.Service
	InternalToken    string
	WSHandler        http.Handler
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS for browser clients.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				origin = "*"
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Use(SecurityHeaders)
	r.Use(RateLimitMiddleware)

	r.Get("/health", d.HealthHandler.Get)
	r.Get("/health/live", d.HealthHandler.Live)
	r.Get("/health/ready", d.HealthHandler.Ready)
	r.Get("/health/full", d.HealthHandler.Full)

	r.Route("/internal", func(r chi.Router) {
		r.Use(InternalAuth(d.InternalToken))
		r.Post("/volume/trades", d.VolumeHandler.RecordTrade)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", d.AuthHandler.Register)
			r.Post("/login", d.AuthHandler.Login)
		})
		r.Get("/events/ws", d.WSHandler.ServeHTTP)
		r.Get("/copytrade/available", d.CopyTradeHandler.Available)
		r.Group(func(r chi.Router) {
			r.Use(WithAuth(d.AuthService))
			r.Get("/me", withUser(d.AuthHandler.Me))
			r.Get("/balances", withUser(d.BalanceHandler.List))
			r.Get("/volume/status", withUser(d.VolumeHandler.Status))
			r.Post("/transfers", withUser(d.TransferHandler.ExchangeToTrade))
			r.Post("/transfers/withdraw", withUser(d.TransferHandler.TradeToExchange))
			r.Post("/transfers/move", withUser(d.TransferHandler.TradeToTrade))
			r.Get("/transfers", withUser(d.TransferHandler.History))
			r.Post("/copytrade/spot/follow", withUser(d.CopyTradeHandler.FollowSpot))
			r.Post("/copytrade/futures/follow", withUser(d.CopyTradeHandler.FollowFutures))
			r.Get("/copytrade/orders", withUser(d.CopyTradeHandler.Orders))
		})
	})
	return r
}
