package api

import (
	"crypto/tls"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"example.com/anctoken/pkg/ledger"
	"example.com/anctoken/pkg/wallet"
)

// API represents the REST API over the token ledger
type API struct {
	Ledger      *ledger.Ledger
	Store       *ledger.Store
	APIKey      string
	RateLimiter *rate.Limiter
}

// NewAPI initializes a new API instance. Store may be nil, in which
// case transfers are applied in memory only.
func NewAPI(l *ledger.Ledger, store *ledger.Store, apiKey string) *API {
	return &API{
		Ledger:      l,
		Store:       store,
		APIKey:      apiKey,
		RateLimiter: rate.NewLimiter(rate.Every(time.Second), 5), // Max 5 requests per second
	}
}

// Response structure for API responses
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Helper function to write JSON responses
func (api *API) writeJSONResponse(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := APIResponse{
		Status:  http.StatusText(status),
		Message: message,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

// --- Middleware Features ---

// Logger middleware logs each incoming request
func (api *API) Logger(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Printf("Request: %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
		next(w, r)
	}
}

// Auth middleware checks for a valid API key in headers. An empty
// configured key leaves the API open.
func (api *API) Auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if api.APIKey != "" && r.Header.Get("X-API-KEY") != api.APIKey {
			api.writeJSONResponse(w, http.StatusUnauthorized, "Unauthorized: Missing or invalid API key", nil)
			return
		}
		next(w, r)
	}
}

// CORS middleware handles cross-origin resource sharing
func (api *API) CORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-KEY")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}

// RateLimit middleware limits the rate of requests
func (api *API) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !api.RateLimiter.Allow() {
			api.writeJSONResponse(w, http.StatusTooManyRequests, "Too many requests", nil)
			return
		}
		next(w, r)
	}
}

func (api *API) wrap(h http.HandlerFunc) http.HandlerFunc {
	return api.Logger(api.CORS(api.Auth(api.RateLimit(h))))
}

// --- API Handlers ---

// GetBalance retrieves the balance of an address. Never-seen addresses
// report a balance of zero.
func (api *API) GetBalance(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if strings.TrimSpace(address) == "" {
		api.writeJSONResponse(w, http.StatusBadRequest, "Missing wallet address", nil)
		return
	}
	if ok, _ := wallet.ValidateAddress(address); !ok {
		api.writeJSONResponse(w, http.StatusBadRequest, "Malformed wallet address", nil)
		return
	}

	api.writeJSONResponse(w, http.StatusOK, "Success", map[string]interface{}{
		"address": address,
		"balance": api.Ledger.BalanceOf(address),
	})
}

// GetBalances returns the full balance snapshot
func (api *API) GetBalances(w http.ResponseWriter, r *http.Request) {
	api.writeJSONResponse(w, http.StatusOK, "Success", map[string]interface{}{
		"symbol":       api.Ledger.Symbol(),
		"total_supply": api.Ledger.TotalSupply(),
		"balances":     api.Ledger.Balances(),
	})
}

// GetSupply returns the token metadata and the fixed total supply
func (api *API) GetSupply(w http.ResponseWriter, r *http.Request) {
	api.writeJSONResponse(w, http.StatusOK, "Success", map[string]interface{}{
		"name":         api.Ledger.Name(),
		"symbol":       api.Ledger.Symbol(),
		"total_supply": api.Ledger.TotalSupply(),
		"owner":        api.Ledger.Owner(),
	})
}

// Transfer moves tokens between two addresses
func (api *API) Transfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		api.writeJSONResponse(w, http.StatusMethodNotAllowed, "Invalid request method", nil)
		return
	}

	var req struct {
		From   string `json:"from"`
		To     string `json:"to"`
		Amount uint64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.writeJSONResponse(w, http.StatusBadRequest, "Invalid input data", nil)
		return
	}

	for _, address := range []string{req.From, req.To} {
		if ok, _ := wallet.ValidateAddress(address); !ok {
			api.writeJSONResponse(w, http.StatusBadRequest, "Malformed wallet address", nil)
			return
		}
	}

	if err := api.Ledger.Transfer(req.From, req.To, req.Amount); err != nil {
		var insufficient *ledger.InsufficientBalanceError
		if errors.As(err, &insufficient) {
			api.writeJSONResponse(w, http.StatusConflict, err.Error(), map[string]interface{}{
				"requested": insufficient.Requested,
				"available": insufficient.Available,
			})
			return
		}
		api.writeJSONResponse(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	if api.Store != nil {
		if err := api.Store.AppendTransfer(ledger.NewRecord(req.From, req.To, req.Amount)); err != nil {
			log.Printf("Failed to journal transfer: %v", err)
		}
		if err := api.Store.SaveLedger(api.Ledger); err != nil {
			log.Printf("Failed to persist ledger: %v", err)
		}
	}

	api.writeJSONResponse(w, http.StatusOK, "Transfer completed successfully", map[string]interface{}{
		"from":         req.From,
		"to":           req.To,
		"amount":       req.Amount,
		"from_balance": api.Ledger.BalanceOf(req.From),
		"to_balance":   api.Ledger.BalanceOf(req.To),
	})
}

// GetHistory returns journaled transfers, optionally filtered by address
func (api *API) GetHistory(w http.ResponseWriter, r *http.Request) {
	if api.Store == nil {
		api.writeJSONResponse(w, http.StatusNotFound, "Transfer journal not available", nil)
		return
	}

	records, err := api.Store.Transfers(r.URL.Query().Get("address"), 100)
	if err != nil {
		api.writeJSONResponse(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	api.writeJSONResponse(w, http.StatusOK, "Success", records)
}

// Health reports liveness
func (api *API) Health(w http.ResponseWriter, r *http.Request) {
	api.writeJSONResponse(w, http.StatusOK, "OK", nil)
}

// --- API Initialization ---

// Register mounts all handlers on mux
func (api *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("/balance", api.wrap(api.GetBalance))
	mux.HandleFunc("/balances", api.wrap(api.GetBalances))
	mux.HandleFunc("/supply", api.wrap(api.GetSupply))
	mux.HandleFunc("/transfer", api.wrap(api.Transfer))
	mux.HandleFunc("/history", api.wrap(api.GetHistory))
	mux.HandleFunc("/health", api.wrap(api.Health))
}

// Start serves the API, with TLS when a config is given
func (api *API) Start(listen string, tlsConfig *tls.Config, extra http.Handler) error {
	mux := http.NewServeMux()
	api.Register(mux)
	if extra != nil {
		mux.Handle("/", extra)
	}

	srv := &http.Server{
		Addr:      listen,
		Handler:   mux,
		TLSConfig: tlsConfig,
	}

	log.Printf("API running on %s", listen)
	if tlsConfig != nil {
		return srv.ListenAndServeTLS("", "")
	}
	return srv.ListenAndServe()
}
