package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/leapc/internal/driver"
	"github.com/leapstack-labs/leapc/internal/engine"
	"github.com/leapstack-labs/leapc/internal/state"
	"github.com/starfederation/datastar-go/datastar"
)

const defaultRunLimit = 20

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: s.version,
		History: s.engine != nil && s.engine.Store() != nil,
	})
}

func (s *Server) handleTokenize(w http.ResponseWriter, r *http.Request) {
	var req TokenizeRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, "request body is empty")
		default:
			writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		}
		return
	}

	opts := s.options
	opts.Logger = s.logger
	if req.Normalize != nil {
		opts.NormalizeIdentifiers = *req.Normalize
	}
	path := req.Path
	if path == "" {
		path = "<request>"
	}

	unit := driver.Compile(path, req.Source, opts)
	defer unit.Release()

	resp := TokenizeResponse{
		Tokens: unit.TokenInfos(req.Layout),
		Errors: make([]LexError, 0, len(unit.Errors)),
		Names:  unit.DistinctNames(),
		Hash:   unit.Hash,
	}
	if resp.Names == nil {
		resp.Names = []string{}
	}
	for _, d := range unit.Diagnostics() {
		resp.Errors = append(resp.Errors, LexError{
			Code:    d.Code,
			Message: d.Message,
			Start:   d.Span.Start,
			End:     d.Span.End,
			Line:    d.Start.Line,
			Column:  d.Start.Column,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil {
		writeError(w, http.StatusServiceUnavailable, "no project loaded")
		return
	}

	changed, _ := strconv.ParseBool(r.URL.Query().Get("changed"))
	report, err := s.engine.Check(r.Context(), engine.CheckOptions{ChangedOnly: changed})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.notifier.Broadcast(eventFromReport(report))

	resp := CheckResponse{
		Status:  report.Status,
		Totals:  report.Totals,
		Skipped: report.Skipped,
		Errors:  []FileError{},
	}
	if resp.Skipped == nil {
		resp.Skipped = []string{}
	}
	if report.Run != nil {
		resp.RunID = report.Run.ID
	}
	for _, f := range report.Files {
		if f.ReadError != "" {
			resp.Errors = append(resp.Errors, FileError{Path: f.Path, Code: "ReadError", Message: f.ReadError})
		}
		for _, d := range f.Diagnostics {
			resp.Errors = append(resp.Errors, FileError{
				Path:    f.Path,
				Code:    d.Code,
				Message: d.Message,
				Line:    d.Start.Line,
				Column:  d.Start.Column,
			})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// history returns the run store, writing an error when there is none.
func (s *Server) history(w http.ResponseWriter) state.Store {
	if s.engine == nil || s.engine.Store() == nil {
		writeError(w, http.StatusNotFound, "run history is disabled")
		return nil
	}
	return s.engine.Store()
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	store := s.history(w)
	if store == nil {
		return
	}

	limit := defaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := store.ListRuns(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []*state.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	store := s.history(w)
	if store == nil {
		return
	}

	id := chi.URLParam(r, "id")
	run, err := store.GetRun(id)
	if err != nil {
		if errors.Is(err, state.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "run not found: "+id)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	files, err := store.GetFileResults(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if files == nil {
		files = []*state.FileResult{}
	}
	writeJSON(w, http.StatusOK, RunDetail{Run: run, Files: files})
}

// handleEvents streams check events as server-sent events until the client
// goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ch := s.notifier.Subscribe()
	defer s.notifier.Unsubscribe(ch)

	sse := datastar.NewSSE(w, r)
	for {
		select {
		case <-sse.Context().Done():
			return
		case ev := <-ch:
			data, err := json.Marshal(ev)
			if err != nil {
				s.logger.Error("failed to encode event", "error", err)
				continue
			}
			if err := sse.Send(datastar.EventType(ev.Type), []string{string(data)}); err != nil {
				s.logger.Debug("event stream closed", "error", err)
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
