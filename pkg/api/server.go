// Package api exposes the search pool over HTTP. A search is triggered with
// a single request carrying the worker count, keyspace bound, and the
// address suffix to hunt for; the response reports either the winning
// candidate or a structured "not found". A websocket variant streams scan
// progress while the race is running.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/hashrace/hashrace/pkg/logging"
	"github.com/hashrace/hashrace/pkg/search"
)

// Config holds server configuration, typically derived from the config package.
type Config struct {
	ListenAddr       string
	MaxWorkers       int
	MaxUpperBound    uint64
	DefaultWorkers   int
	ProgressInterval time.Duration
}

// Prober turns a requested address suffix into a search probe. Injected so
// the server owns request plumbing while the mining package owns derivation.
type Prober func(suffix string) (search.Probe, error)

// Server handles search requests over HTTP and websocket.
type Server struct {
	config     Config
	prober     Prober
	logger     *logging.Logger
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// APIResponse is the uniform JSON envelope for all endpoints.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Workers    int    `json:"workers"`
	UpperBound uint64 `json:"upper_bound"`
	Suffix     string `json:"suffix"`
}

// SearchResponse reports the result of one race. Found=false is a normal
// result, not an error: the keyspace simply held no match.
type SearchResponse struct {
	Found        bool    `json:"found"`
	Value        *uint64 `json:"value,omitempty"`
	Derived      string  `json:"derived,omitempty"`
	FailureCount int     `json:"failure_count"`
	DurationMS   int64   `json:"duration_ms"`
}

// NewServer creates a search API server.
func NewServer(config Config, prober Prober, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.GetGlobalLogger().WithComponent("api")
	}
	if config.ProgressInterval <= 0 {
		config.ProgressInterval = time.Second
	}
	return &Server{
		config: config,
		prober: prober,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the HTTP route table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/api/search", s.handleSearch).Methods("POST")
	router.HandleFunc("/api/search/ws", s.handleSearchStream).Methods("GET")
	router.HandleFunc("/api/health", s.handleHealth).Methods("GET")
	return router
}

// ListenAndServe starts the server and blocks until it is shut down.
func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:    s.config.ListenAddr,
		Handler: s.Router(),
	}
	s.logger.Info("server listening", map[string]interface{}{"addr": s.config.ListenAddr})
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    map[string]string{"status": "ok"},
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	probe, status, errMsg := s.prepareRun(&req)
	if errMsg != "" {
		writeError(w, status, errMsg)
		return
	}

	pool := search.New(search.Config{
		ProgressInterval: s.config.ProgressInterval,
		Logger:           s.logger,
	})

	start := time.Now()
	result, err := pool.Run(r.Context(), req.Workers, req.UpperBound, probe)
	if err != nil {
		// Client went away or the run could not start; no match is
		// never reported through this path.
		s.logger.Warn("search aborted", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "search aborted: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    buildSearchResponse(result, time.Since(start)),
	})
}

// prepareRun validates a request in place, applying defaults and limits,
// and builds the probe. On failure it returns an HTTP status and message.
func (s *Server) prepareRun(req *SearchRequest) (search.Probe, int, string) {
	if req.Workers == 0 {
		req.Workers = s.config.DefaultWorkers
	}
	if req.Workers < 1 {
		return nil, http.StatusBadRequest, "workers must be at least 1"
	}
	if req.Workers > s.config.MaxWorkers {
		return nil, http.StatusBadRequest,
			"workers exceeds the configured maximum of " + strconv.Itoa(s.config.MaxWorkers)
	}
	if req.UpperBound == 0 {
		return nil, http.StatusBadRequest, "upper_bound must be greater than 0"
	}
	if req.UpperBound > s.config.MaxUpperBound {
		return nil, http.StatusBadRequest,
			"upper_bound exceeds the configured maximum of " + strconv.FormatUint(s.config.MaxUpperBound, 10)
	}

	probe, err := s.prober(req.Suffix)
	if err != nil {
		return nil, http.StatusBadRequest, err.Error()
	}
	return probe, 0, ""
}

func buildSearchResponse(result search.PoolResult, elapsed time.Duration) SearchResponse {
	resp := SearchResponse{
		Found:        result.Succeeded,
		FailureCount: result.FailureCount,
		DurationMS:   elapsed.Milliseconds(),
	}
	if result.Succeeded && result.Outcome != nil {
		value := result.Outcome.Value
		resp.Value = &value
		resp.Derived = result.Outcome.Derived
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, payload APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIResponse{Success: false, Error: message})
}
