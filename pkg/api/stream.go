package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/hashrace/hashrace/pkg/search"
)

// streamFrame is one websocket message on /api/search/ws. Type is either
// "progress" or "result"; result frames carry the SearchResponse fields.
type streamFrame struct {
	Type         string  `json:"type"`
	Scanned      uint64  `json:"scanned,omitempty"`
	Total        uint64  `json:"total,omitempty"`
	Found        bool    `json:"found"`
	Value        *uint64 `json:"value,omitempty"`
	Derived      string  `json:"derived,omitempty"`
	FailureCount int     `json:"failure_count,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// handleSearchStream runs a search and streams progress frames followed by
// one final result frame. Parameters arrive as query values (workers,
// upper_bound, suffix) since websocket upgrades are GET requests.
func (s *Server) handleSearchStream(w http.ResponseWriter, r *http.Request) {
	req, errMsg := parseStreamRequest(r)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}
	// Validate before upgrading so bad requests get a plain HTTP error.
	probe, status, errMsg := s.prepareRun(&req)
	if errMsg != "" {
		writeError(w, status, errMsg)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Drop stale progress updates rather than block the reporter.
	progress := make(chan streamFrame, 1)
	reporter := func(scanned, total uint64) {
		frame := streamFrame{Type: "progress", Scanned: scanned, Total: total}
		select {
		case progress <- frame:
		default:
		}
	}

	// The read pump exists only to notice the client hanging up.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	pool := search.New(search.Config{
		ProgressInterval: s.config.ProgressInterval,
		ProgressReporter: reporter,
		Logger:           s.logger,
	})

	type runResult struct {
		result search.PoolResult
		err    error
	}
	done := make(chan runResult, 1)
	start := time.Now()
	go func() {
		result, err := pool.Run(ctx, req.Workers, req.UpperBound, probe)
		done <- runResult{result, err}
	}()

	for {
		select {
		case frame := <-progress:
			if err := conn.WriteJSON(frame); err != nil {
				cancel()
				<-done
				return
			}
		case outcome := <-done:
			frame := streamFrame{Type: "result"}
			if outcome.err != nil {
				frame.Error = outcome.err.Error()
			} else {
				resp := buildSearchResponse(outcome.result, time.Since(start))
				frame.Found = resp.Found
				frame.Value = resp.Value
				frame.Derived = resp.Derived
				frame.FailureCount = resp.FailureCount
			}
			conn.WriteJSON(frame)
			return
		}
	}
}

// parseStreamRequest extracts a SearchRequest from query parameters.
func parseStreamRequest(r *http.Request) (SearchRequest, string) {
	var req SearchRequest
	query := r.URL.Query()

	if v := query.Get("workers"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, "workers must be an integer"
		}
		req.Workers = n
	}
	if v := query.Get("upper_bound"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return req, "upper_bound must be a non-negative integer"
		}
		req.UpperBound = n
	}
	req.Suffix = query.Get("suffix")
	return req, ""
}
