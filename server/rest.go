package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/umputun/feedscope/pkg/domain"
)

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":     "ok",
		"version":    s.version,
		"time":       time.Now().UTC(),
		"dataset_at": s.insights.LoadedAt().UTC(),
	}
	renderJSON(w, r, http.StatusOK, status)
}

// snapshotHandler returns the aggregated insight snapshot for the filter
// given in query parameters
func (s *Server) snapshotHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}
	renderJSON(w, r, http.StatusOK, s.insights.Snapshot(filter))
}

// recordsHandler returns the filtered record list in ingestion order
func (s *Server) recordsHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}
	records := s.insights.Records(filter)
	renderJSON(w, r, http.StatusOK, map[string]interface{}{
		"count":   len(records),
		"records": records,
	})
}

// reportHandler returns the fixed-shape export snapshot for PDF rendering
func (s *Server) reportHandler(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, r, http.StatusOK, s.insights.Report())
}

// askHandler answers a free-text question about the current dataset
func (s *Server) askHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string        `json:"question"`
		Filter   domain.Filter `json:"filter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}
	if req.Question == "" {
		renderError(w, r, fmt.Errorf("question is required"), http.StatusBadRequest)
		return
	}

	answer := s.insights.Ask(r.Context(), req.Question, req.Filter)
	renderJSON(w, r, http.StatusOK, map[string]string{"answer": answer})
}

// regenerateHandler triggers a full dataset refresh. The new dataset
// replaces the old one atomically, readers in flight keep their snapshot.
func (s *Server) regenerateHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.pipeline.Refresh(r.Context()); err != nil {
		log.Printf("[ERROR] regeneration failed: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, map[string]string{"status": "regenerated"})
}

// uploadHandler ingests a survey CSV file
func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		renderError(w, r, fmt.Errorf("file field is required"), http.StatusBadRequest)
		return
	}
	defer file.Close()

	added, err := s.pipeline.IngestCSV(r.Context(), file)
	if err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}
	renderJSON(w, r, http.StatusOK, map[string]interface{}{"status": "uploaded", "added": added})
}

// parseFilter reads filter parameters from the query string
func parseFilter(r *http.Request) (domain.Filter, error) {
	filter := domain.Filter{}
	q := r.URL.Query()

	if v := q.Get("from"); v != "" {
		ts, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, fmt.Errorf("invalid from date %q", v)
		}
		filter.From = &ts
	}
	if v := q.Get("to"); v != "" {
		ts, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, fmt.Errorf("invalid to date %q", v)
		}
		// inclusive end of day
		ts = ts.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filter.To = &ts
	}
	if v := q.Get("source"); v != "" {
		src := domain.Source(v)
		if !src.Valid() {
			return filter, fmt.Errorf("invalid source %q", v)
		}
		filter.Source = src
	}
	if v := q.Get("sentiment"); v != "" {
		switch domain.Sentiment(v) {
		case domain.SentimentPositive, domain.SentimentNeutral, domain.SentimentNegative:
			filter.Sentiment = domain.Sentiment(v)
		default:
			return filter, fmt.Errorf("invalid sentiment %q", v)
		}
	}
	if v := q.Get("priority"); v != "" {
		switch domain.Priority(v) {
		case domain.PriorityCritical, domain.PriorityHigh, domain.PriorityNormal, domain.PriorityLow:
			filter.Priority = domain.Priority(v)
		default:
			return filter, fmt.Errorf("invalid priority %q", v)
		}
	}

	return filter, nil
}

// renderJSON sends data as JSON
func renderJSON(w http.ResponseWriter, _ *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// renderError sends error response as JSON
func renderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	renderJSON(w, r, code, map[string]string{"error": errMsg})
}
