package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/loopercamera/4M/internal/adapters/memo"
	"github.com/loopercamera/4M/internal/adapters/records"
	"github.com/loopercamera/4M/internal/domain/disambig"
	"github.com/loopercamera/4M/internal/domain/enrich"
	"github.com/loopercamera/4M/internal/domain/gazetteer"
	"github.com/loopercamera/4M/internal/ports"
)

// maxBody bounds request bodies of the POST endpoints.
const maxBody = 8 << 20

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: status})
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

type healthResponse struct {
	Status string `json:"status"`
	Labels int    `json:"labels"`
	Uptime string `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Labels: s.pipe.Resolver().Index().Len(),
		Uptime: time.Since(s.started).Round(time.Second).String(),
	})
}

type statsResponse struct {
	Gazetteer     gazetteer.Stats `json:"gazetteer"`
	EnrichLabels  int             `json:"enrichment_labels"`
	Languages     []string        `json:"languages"`
	Fields        []string        `json:"fields"`
	Rules         []string        `json:"rules"`
	StoredResults int             `json:"stored_results"`
	Cache         *memo.Stats     `json:"cache,omitempty"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	res := s.pipe.Resolver()
	out := statsResponse{
		Gazetteer:    res.Index().Stats(),
		EnrichLabels: s.pipe.Table().Len(),
		Languages:    res.Languages(),
		Fields:       res.Fields(),
		Rules:        res.Rules(),
	}
	if s.opts.Store != nil {
		n, err := s.opts.Store.Count()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out.StoredResults = n
	}
	if s.opts.Cache != nil {
		cs := s.opts.Cache.Stats()
		out.Cache = &cs
	}
	writeJSON(w, http.StatusOK, out)
}

type matchRequest struct {
	Text string `json:"text"`
}

type matchResponse struct {
	Text       string                `json:"text"`
	Candidates []gazetteer.Candidate `json:"candidates"`
	LabelID    string                `json:"label_id"`
	Rule       string                `json:"rule"`
	Level      *int                  `json:"level"`
	Fallback   bool                  `json:"country_fallback"`
	Location   enrich.Location       `json:"location"`
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	d, cands := s.pipe.Resolver().Explain(req.Text)
	if cands == nil {
		cands = []gazetteer.Candidate{}
	}
	loc := s.pipe.Table().Enrich(d.LabelID)
	writeJSON(w, http.StatusOK, matchResponse{
		Text:       req.Text,
		Candidates: cands,
		LabelID:    loc.LabelID,
		Rule:       d.Rule,
		Level:      d.Level,
		Fallback:   disambig.IsCountryFallback(d.LabelID),
		Location:   loc,
	})
}

// handleFlushCache drops every memoized decision, e.g. after the gazetteer
// files were replaced on disk.
func (s *Server) handleFlushCache(w http.ResponseWriter, r *http.Request) {
	if s.opts.Cache == nil {
		writeError(w, http.StatusNotFound, "cache disabled")
		return
	}
	dropped := s.opts.Cache.Len()
	s.opts.Cache.Flush()
	s.log.Info("cache flushed", "entries", dropped)
	writeJSON(w, http.StatusOK, map[string]int{"flushed": dropped})
}

// handleResolve accepts one record object or an array of them.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var body bytes.Buffer
	if _, err := body.ReadFrom(http.MaxBytesReader(w, r.Body, maxBody)); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	raw := strings.TrimSpace(body.String())
	if strings.HasPrefix(raw, "[") {
		var rows []map[string]any
		if err := json.Unmarshal([]byte(raw), &rows); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON array: "+err.Error())
			return
		}
		recs := make([]ports.Record, len(rows))
		for i, row := range rows {
			recs[i] = records.FromMap(row)
		}
		results, _, err := s.pipe.Run(r.Context(), recs)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		if results == nil {
			results = []ports.Result{}
		}
		writeJSON(w, http.StatusOK, results)
		return
	}

	var row map[string]any
	if err := json.Unmarshal([]byte(raw), &row); err != nil || row == nil {
		writeError(w, http.StatusBadRequest, "body must be a JSON object or array")
		return
	}
	writeJSON(w, http.StatusOK, s.pipe.Process(records.FromMap(row)))
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	if s.opts.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "result store not available")
		return
	}
	id := mux.Vars(r)["id"]
	res, err := s.opts.Store.Get(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if res == nil {
		writeError(w, http.StatusNotFound, "no result for "+id)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
