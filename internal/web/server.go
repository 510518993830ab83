package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spalen0/velov2/internal/gauge"
	"github.com/spalen0/velov2/internal/logger"
	"github.com/spalen0/velov2/internal/state"
	"github.com/spalen0/velov2/internal/types"
)

var webLogger = logger.GetForComponent("web_server")

// WebServer exposes the gauge ledger over HTTP: read-only queries, the
// mutating entry points, health and metrics.
type WebServer struct {
	router *mux.Router
	gauge  *gauge.Gauge
	port   string
}

// NewWebServer creates a new web server instance serving one gauge.
func NewWebServer(port string, g *gauge.Gauge) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router: mux.NewRouter(),
		gauge:  g,
		port:   port,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Health endpoint (direct route)
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")
	ws.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// API endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/gauge", ws.handleGetGauge).Methods("GET")
	api.HandleFunc("/gauge/epochs", ws.handleGetEpochs).Methods("GET")
	api.HandleFunc("/gauge/events", ws.handleGetEvents).Methods("GET")
	api.HandleFunc("/gauge/accounts/{account}", ws.handleGetAccount).Methods("GET")
	api.HandleFunc("/gauge/deposit", ws.handleDeposit).Methods("POST")
	api.HandleFunc("/gauge/withdraw", ws.handleWithdraw).Methods("POST")
	api.HandleFunc("/gauge/claim", ws.handleClaim).Methods("POST")
	api.HandleFunc("/gauge/notify", ws.handleNotify).Methods("POST")

	// Add CORS middleware
	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// Router exposes the configured router, mainly for tests.
func (ws *WebServer) Router() http.Handler {
	return ws.router
}

// resolveSender performs the single caller-identity resolution step for a
// request. The transport address never matters; only the resolved identity
// does.
func resolveSender(r *http.Request) (string, error) {
	sender := r.Header.Get("X-Sender")
	if sender == "" {
		return "", errors.New("missing X-Sender header")
	}
	return sender, nil
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"gauge":     ws.gauge.Address(),
	}
	if state.DB != nil {
		if err := state.TestDBConnection(); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
		} else {
			status["database"] = "ok"
		}
	}
	ws.writeJSON(w, http.StatusOK, status)
}

func (ws *WebServer) handleGetGauge(w http.ResponseWriter, r *http.Request) {
	ws.writeJSON(w, http.StatusOK, ws.gauge.Snapshot())
}

func (ws *WebServer) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	account := mux.Vars(r)["account"]
	ws.writeJSON(w, http.StatusOK, map[string]interface{}{
		"account": account,
		"balance": ws.gauge.BalanceOf(account),
		"earned":  ws.gauge.Earned(account),
	})
}

func (ws *WebServer) handleGetEpochs(w http.ResponseWriter, r *http.Request) {
	rates := ws.gauge.EpochRates()
	out := make([]map[string]interface{}, 0, len(rates))
	for start, rate := range rates {
		out = append(out, map[string]interface{}{
			"epoch_start": start,
			"reward_rate": rate,
		})
	}
	ws.writeJSON(w, http.StatusOK, out)
}

func (ws *WebServer) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	if state.DB == nil {
		ws.writeError(w, http.StatusServiceUnavailable, errors.New("event journal is not configured"))
		return
	}
	events, err := state.LoadRecentEvents(ws.gauge.Address(), 100)
	if err != nil {
		ws.writeError(w, http.StatusInternalServerError, err)
		return
	}
	ws.writeJSON(w, http.StatusOK, events)
}

type amountRequest struct {
	Amount    string `json:"amount"`
	Recipient string `json:"recipient,omitempty"`
	Account   string `json:"account,omitempty"`
}

func (ws *WebServer) decodeAmountRequest(w http.ResponseWriter, r *http.Request) (amountRequest, sdkmath.Int, bool) {
	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.writeError(w, http.StatusBadRequest, errors.New("invalid JSON body"))
		return req, sdkmath.ZeroInt(), false
	}
	amount, ok := sdkmath.NewIntFromString(req.Amount)
	if !ok {
		ws.writeError(w, http.StatusBadRequest, errors.New("amount must be a base-10 integer string"))
		return req, sdkmath.ZeroInt(), false
	}
	return req, amount, true
}

func (ws *WebServer) handleDeposit(w http.ResponseWriter, r *http.Request) {
	sender, err := resolveSender(r)
	if err != nil {
		ws.writeError(w, http.StatusUnauthorized, err)
		return
	}
	req, amount, ok := ws.decodeAmountRequest(w, r)
	if !ok {
		return
	}
	recipient := req.Recipient
	if recipient == "" {
		recipient = sender
	}
	if err := ws.gauge.Deposit(r.Context(), sender, recipient, amount); err != nil {
		ws.writeLedgerError(w, err)
		return
	}
	ws.writeJSON(w, http.StatusOK, map[string]string{"status": "deposited"})
}

func (ws *WebServer) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	sender, err := resolveSender(r)
	if err != nil {
		ws.writeError(w, http.StatusUnauthorized, err)
		return
	}
	_, amount, ok := ws.decodeAmountRequest(w, r)
	if !ok {
		return
	}
	if err := ws.gauge.Withdraw(r.Context(), sender, amount); err != nil {
		ws.writeLedgerError(w, err)
		return
	}
	ws.writeJSON(w, http.StatusOK, map[string]string{"status": "withdrawn"})
}

func (ws *WebServer) handleClaim(w http.ResponseWriter, r *http.Request) {
	sender, err := resolveSender(r)
	if err != nil {
		ws.writeError(w, http.StatusUnauthorized, err)
		return
	}
	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.writeError(w, http.StatusBadRequest, errors.New("invalid JSON body"))
		return
	}
	account := req.Account
	if account == "" {
		account = sender
	}
	if err := ws.gauge.GetReward(r.Context(), sender, account); err != nil {
		ws.writeLedgerError(w, err)
		return
	}
	ws.writeJSON(w, http.StatusOK, map[string]string{"status": "claimed"})
}

func (ws *WebServer) handleNotify(w http.ResponseWriter, r *http.Request) {
	sender, err := resolveSender(r)
	if err != nil {
		ws.writeError(w, http.StatusUnauthorized, err)
		return
	}
	_, amount, ok := ws.decodeAmountRequest(w, r)
	if !ok {
		return
	}
	if err := ws.gauge.NotifyRewardAmount(r.Context(), sender, amount); err != nil {
		ws.writeLedgerError(w, err)
		return
	}
	ws.writeJSON(w, http.StatusOK, map[string]string{"status": "notified"})
}

// writeLedgerError maps ledger sentinel errors onto HTTP status codes.
func (ws *WebServer) writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, types.ErrUnauthorized):
		ws.writeError(w, http.StatusForbidden, err)
	case errors.Is(err, types.ErrPoolNotAuthorized):
		ws.writeError(w, http.StatusForbidden, err)
	case errors.Is(err, types.ErrZeroAmount),
		errors.Is(err, types.ErrDegenerateRewardRate),
		errors.Is(err, types.ErrRewardRateTooHigh):
		ws.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, types.ErrInsufficientBalance):
		ws.writeError(w, http.StatusConflict, err)
	default:
		ws.writeError(w, http.StatusInternalServerError, err)
	}
}

func (ws *WebServer) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (ws *WebServer) writeError(w http.ResponseWriter, status int, err error) {
	ws.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// corsMiddleware adds CORS headers for browser clients
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Sender")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		webLogger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}
