package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/claude/liftlog/internal/catalog"
	"github.com/claude/liftlog/internal/history"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
)

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	sessions := s.hist.Sessions()
	// Newest first for display.
	for i, j := 0, len(sessions)-1; i < j; i, j = i+1, j-1 {
		sessions[i], sessions[j] = sessions[j], sessions[i]
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.hist.DeleteByID(id) {
		writeError(w, http.StatusNotFound, "workout not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handlePreviousPerformance(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("exercise")
	if name == "" {
		writeError(w, http.StatusBadRequest, "exercise parameter required")
		return
	}

	sets, found := s.hist.FindPreviousPerformance(name)
	writeJSON(w, http.StatusOK, map[string]any{
		"exercise": name,
		"found":    found,
		"sets":     sets,
	})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("exercise")
	if name == "" {
		writeError(w, http.StatusBadRequest, "exercise parameter required")
		return
	}
	writeJSON(w, http.StatusOK, s.hist.ChartData(name))
}

// handleProgressSeries returns the raw (date, maxWeight) points behind
// the chart. Used by MCP clients that need real dates, not labels.
func (s *Server) handleProgressSeries(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("exercise")
	if name == "" {
		writeError(w, http.StatusBadRequest, "exercise parameter required")
		return
	}
	points := s.hist.MaxWeightSeries(name)
	if points == nil {
		points = []history.ProgressPoint{}
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleExerciseNames(w http.ResponseWriter, r *http.Request) {
	names := s.hist.AllExerciseNames()
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

// handleImportHistory bulk-appends completed sessions, e.g. when
// migrating from another tracker. Guarded by the API key.
func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	var sessions []models.Workout
	if err := json.NewDecoder(r.Body).Decode(&sessions); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	imported := 0
	for _, past := range sessions {
		if past.ID == "" {
			past.ID = models.NewID()
		}
		if past.Date.IsZero() {
			past.Date = past.StartTime
		}
		s.hist.Append(past)
		imported++
	}
	s.log.Info("history imported", "sessions", imported)
	writeJSON(w, http.StatusOK, map[string]int{"imported": imported})
}

func (s *Server) handleCatalogSearch(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	matches := s.cat.Search(r.URL.Query().Get("q"), limit)
	if matches == nil {
		matches = []catalog.Entry{}
	}
	writeJSON(w, http.StatusOK, matches)
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, session.Templates())
}
