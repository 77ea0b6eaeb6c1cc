package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/claude/liftlog/internal/auth"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
)

// sessionView is the render model for the active session: the draft,
// the elapsed clock, and previous-performance annotations keyed by
// exercise name.
type sessionView struct {
	Active     bool                    `json:"active"`
	Workout    *models.Workout         `json:"workout,omitempty"`
	ElapsedSec int                     `json:"elapsedTime"`
	Previous   map[string][]models.Set `json:"previous,omitempty"`
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	draft, ok := s.mgr.Snapshot()
	if !ok {
		writeJSON(w, http.StatusOK, sessionView{Active: false})
		return
	}

	previous := make(map[string][]models.Set)
	for _, ex := range draft.Exercises {
		if _, seen := previous[ex.Name]; seen {
			continue
		}
		if sets, found := s.hist.FindPreviousPerformance(ex.Name); found {
			previous[ex.Name] = sets
		}
	}

	writeJSON(w, http.StatusOK, sessionView{
		Active:     true,
		Workout:    &draft,
		ElapsedSec: draft.ElapsedSec,
		Previous:   previous,
	})
}

type startRequest struct {
	// TemplateID seeds from a built-in template, HistoryID repeats a
	// past workout; both empty starts a blank session.
	TemplateID string `json:"templateId,omitempty"`
	HistoryID  string `json:"historyId,omitempty"`
	Name       string `json:"name,omitempty"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	seed, err := s.resolveSeed(req)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	if err := s.mgr.Start(seed); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.handleGetSession(w, r)
}

func (s *Server) resolveSeed(req startRequest) (models.Workout, error) {
	switch {
	case req.TemplateID != "":
		t, ok := session.TemplateByID(req.TemplateID)
		if !ok {
			return models.Workout{}, errors.New("unknown template " + req.TemplateID)
		}
		return t, nil
	case req.HistoryID != "":
		for _, past := range s.hist.Sessions() {
			if past.ID == req.HistoryID {
				return past, nil
			}
		}
		return models.Workout{}, errors.New("unknown workout " + req.HistoryID)
	default:
		name := req.Name
		if name == "" {
			name = "New Workout"
		}
		return models.Workout{Name: name}, nil
	}
}

func (s *Server) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	finished, err := s.mgr.Finish()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, finished)
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	s.mgr.Cancel()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handlePatchSession(w http.ResponseWriter, r *http.Request) {
	var patch struct {
		Name  *string `json:"name"`
		Notes *string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	s.mgr.UpdateField(session.FieldPatch{Name: patch.Name, Notes: patch.Notes})
	s.handleGetSession(w, r)
}

func (s *Server) handleAddExercise(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := s.mgr.AddExercise(req.Name); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.handleGetSession(w, r)
}

func (s *Server) handleRemoveExercise(w http.ResponseWriter, r *http.Request) {
	if err := s.mgr.RemoveExercise(chi.URLParam(r, "exerciseID")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.handleGetSession(w, r)
}

func (s *Server) handleReorderExercises(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Exercises []models.Exercise `json:"exercises"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := s.mgr.ReorderExercises(req.Exercises); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.handleGetSession(w, r)
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	idx, err := pathIndex(r, "idx")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.mgr.AddSet(idx); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.handleGetSession(w, r)
}

func (s *Server) handleRemoveSet(w http.ResponseWriter, r *http.Request) {
	idx, setIdx, err := pathSetIndices(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.mgr.RemoveSet(idx, setIdx); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.handleGetSession(w, r)
}

func (s *Server) handleSetValue(w http.ResponseWriter, r *http.Request) {
	idx, setIdx, err := pathSetIndices(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := s.mgr.SetValue(idx, setIdx, session.SetField(req.Field), req.Value); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.handleGetSession(w, r)
}

func (s *Server) handleToggleSet(w http.ResponseWriter, r *http.Request) {
	idx, setIdx, err := pathSetIndices(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.mgr.ToggleSetCompleted(idx, setIdx); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.handleGetSession(w, r)
}

func (s *Server) handleReorderSets(w http.ResponseWriter, r *http.Request) {
	idx, err := pathIndex(r, "idx")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req struct {
		Sets []models.Set `json:"sets"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := s.mgr.ReorderSets(idx, req.Sets); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.handleGetSession(w, r)
}

// writeDomainError maps session/auth errors onto HTTP statuses.
// Index and state errors are defensive: they come from a stale UI, so
// they are logged and answered, never fatal.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNoSession):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrSessionActive),
		errors.Is(err, session.ErrEmptyWorkout),
		errors.Is(err, session.ErrLastSet),
		errors.Is(err, auth.ErrUserExists):
		status = http.StatusConflict
	case errors.Is(err, session.ErrIndexOutOfRange),
		errors.Is(err, session.ErrLengthMismatch):
		status = http.StatusBadRequest
		s.log.Warn("stale edit ignored", "error", err)
	case errors.Is(err, auth.ErrUnknownUser),
		errors.Is(err, auth.ErrWrongPassword),
		errors.Is(err, auth.ErrNotSignedIn):
		status = http.StatusUnauthorized
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func pathIndex(r *http.Request, name string) (int, error) {
	idx, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, errors.New("invalid index " + chi.URLParam(r, name))
	}
	return idx, nil
}

func pathSetIndices(r *http.Request) (int, int, error) {
	idx, err := pathIndex(r, "idx")
	if err != nil {
		return 0, 0, err
	}
	setIdx, err := pathIndex(r, "setIdx")
	if err != nil {
		return 0, 0, err
	}
	return idx, setIdx, nil
}
