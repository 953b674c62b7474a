package health

import (
	"context"
	"crypto/subtle"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"cx-tradecore/internal/httputil"
)

type Handler struct {
	pool        *pgxpool.Pool
	startedAt   time.Time
	httpAddr    string
	internalTok string
}

func NewHandler(pool *pgxpool.Pool, startedAt time.Time, httpAddr, internalToken string) *Handler {
	start := startedAt.UTC()
	if start.IsZero() {
		start = time.Now().UTC()
	}
	return &Handler{
		pool:        pool,
		startedAt:   start,
		httpAddr:    strings.TrimSpace(httpAddr),
		internalTok: strings.TrimSpace(internalToken),
	}
}

type liveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	UptimeSec int64  `json:"uptime_sec"`
}

type readinessResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	UptimeSec int64  `json:"uptime_sec"`
	Database  dbStat `json:"database"`
}

type dbStat struct {
	Reachable bool   `json:"reachable"`
	PingMs    int64  `json:"ping_ms"`
	Error     string `json:"error,omitempty"`
}

type fullResponse struct {
	Status     string       `json:"status"`
	Timestamp  string       `json:"timestamp"`
	UptimeSec  int64        `json:"uptime_sec"`
	HTTPAddr   string       `json:"http_addr"`
	PID        int          `json:"pid"`
	GoVersion  string       `json:"go_version"`
	Goroutines int          `json:"goroutines"`
	HeapAlloc  uint64       `json:"heap_alloc_bytes"`
	Database   dbStat       `json:"database"`
	Pool       poolSnapshot `json:"pool"`
}

type poolSnapshot struct {
	TotalConns    int32 `json:"total_conns"`
	IdleConns     int32 `json:"idle_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
	MaxConns      int32 `json:"max_conns"`
}

func (h *Handler) uptimeSec(now time.Time) int64 {
	d := now.Sub(h.startedAt)
	if d < 0 {
		return 0
	}
	return int64(d.Seconds())
}

func (h *Handler) pingDB(ctx context.Context) dbStat {
	st := dbStat{}
	if h.pool == nil {
		st.Error = "pool is not configured"
		return st
	}
	start := time.Now()
	pingCtx, cancel := context.WithTimeout(ctx, time.Second)
	err := h.pool.Ping(pingCtx)
	cancel()
	st.PingMs = time.Since(start).Milliseconds()
	if err != nil {
		st.Error = err.Error()
		return st
	}
	st.Reachable = true
	return st
}

// Get keeps compatibility: /health is the readiness summary.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	h.Ready(w, r)
}

// Live does not touch the database.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	httputil.WriteJSON(w, http.StatusOK, liveResponse{
		Status:    "ok",
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: h.uptimeSec(now),
	})
}

// Ready checks the database and returns 503 when it is not reachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	db := h.pingDB(r.Context())
	status := "ok"
	httpStatus := http.StatusOK
	if !db.Reachable {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, httpStatus, readinessResponse{
		Status:    status,
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: h.uptimeSec(now),
		Database:  db,
	})
}

// Full returns process diagnostics and is protected by X-Internal-Token.
func (h *Handler) Full(w http.ResponseWriter, r *http.Request) {
	if h.internalTok == "" {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, httputil.ErrorResponse{Error: "internal token is not configured"})
		return
	}
	provided := strings.TrimSpace(r.Header.Get("X-Internal-Token"))
	if len(provided) != len(h.internalTok) || subtle.ConstantTimeCompare([]byte(provided), []byte(h.internalTok)) != 1 {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "invalid internal token"})
		return
	}

	now := time.Now().UTC()
	db := h.pingDB(r.Context())
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	pool := poolSnapshot{}
	if h.pool != nil {
		stat := h.pool.Stat()
		pool = poolSnapshot{
			TotalConns:    stat.TotalConns(),
			IdleConns:     stat.IdleConns(),
			AcquiredConns: stat.AcquiredConns(),
			MaxConns:      stat.MaxConns(),
		}
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !db.Reachable {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, httpStatus, fullResponse{
		Status:     status,
		Timestamp:  now.Format(time.RFC3339),
		UptimeSec:  h.uptimeSec(now),
		HTTPAddr:   h.httpAddr,
		PID:        os.Getpid(),
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  mem.HeapAlloc,
		Database:   db,
		Pool:       pool,
	})
}
