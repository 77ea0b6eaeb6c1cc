// Package history holds the ordered list of completed workout sessions
// and the derived lookups built on it: previous performance, distinct
// exercise names, and max-weight progress series.
package history

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/claude/liftlog/internal/models"
)

// Persister is the on-device persistence boundary. Save is best-effort:
// the store logs and swallows its errors.
type Persister interface {
	Load(ctx context.Context) ([]models.Workout, error)
	Save(ctx context.Context, sessions []models.Workout) error
}

// ProgressPoint is one session's best weight for an exercise.
type ProgressPoint struct {
	Date      time.Time `json:"date"`
	MaxWeight float64   `json:"maxWeight"`
}

// ChartData is the shape handed to the chart-rendering boundary.
type ChartData struct {
	Labels []string  `json:"labels"`
	Series []float64 `json:"series"`
}

// Store is the in-memory history of completed sessions, ordered by
// insertion (chronological by finish order). Mutations schedule a
// debounced write-behind to the Persister.
type Store struct {
	mu        sync.Mutex
	sessions  []models.Workout
	prev      map[string][]models.Set // exercise name → most recent sets
	persister Persister
	saveDelay time.Duration
	saveTimer *time.Timer
	log       *slog.Logger
}

// New creates an empty Store. saveDelay is the debounce window for
// write-behind saves; 0 saves synchronously on every mutation.
func New(persister Persister, saveDelay time.Duration, log *slog.Logger) *Store {
	return &Store{
		prev:      make(map[string][]models.Set),
		persister: persister,
		saveDelay: saveDelay,
		log:       log,
	}
}

// Load replaces the store's contents with the persisted history.
func (s *Store) Load(ctx context.Context) error {
	sessions, err := s.persister.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = sessions
	s.rebuildIndexLocked()
	return nil
}

// Append adds a completed session to the end of the history. The
// caller guarantees monotonic insertion order.
func (s *Store) Append(w models.Workout) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = append(s.sessions, w.Clone())
	s.indexSessionLocked(w)
	s.scheduleSaveLocked()
}

// DeleteByID removes the session with the given ID. Reports whether a
// session was removed; deleting an absent ID is a no-op.
func (s *Store) DeleteByID(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, w := range s.sessions {
		if w.ID == id {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			s.rebuildIndexLocked()
			s.scheduleSaveLocked()
			return true
		}
	}
	return false
}

// FindPreviousPerformance returns the sets recorded the last time the
// named exercise appeared in history, scanning from most recent to
// oldest. Matching is exact and case-sensitive. The second return is
// false when the exercise has never been logged.
func (s *Store) FindPreviousPerformance(exerciseName string) ([]models.Set, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sets, ok := s.prev[exerciseName]
	if !ok {
		return nil, false
	}
	return append([]models.Set(nil), sets...), true
}

// AllExerciseNames returns the distinct exercise names across all
// sessions, in first-seen order.
func (s *Store) AllExerciseNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)
	var names []string
	for _, w := range s.sessions {
		for _, ex := range w.Exercises {
			if !seen[ex.Name] {
				seen[ex.Name] = true
				names = append(names, ex.Name)
			}
		}
	}
	return names
}

// MaxWeightSeries returns, for each session containing the named
// exercise, the maximum weight across its sets, ordered by session
// date ascending. Sessions whose max parses to 0 (bodyweight or blank
// entries) are excluded from the series.
func (s *Store) MaxWeightSeries(exerciseName string) []ProgressPoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	var points []ProgressPoint
	for _, w := range s.sessions {
		for _, ex := range w.Exercises {
			if ex.Name != exerciseName {
				continue
			}
			if max := ex.MaxWeight(); max > 0 {
				points = append(points, ProgressPoint{Date: w.Date, MaxWeight: max})
			}
			break
		}
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points
}

// ChartData converts the max-weight series into the labels/series pair
// consumed by the chart boundary. Labels use day/month form.
func (s *Store) ChartData(exerciseName string) ChartData {
	points := s.MaxWeightSeries(exerciseName)
	data := ChartData{
		Labels: make([]string, len(points)),
		Series: make([]float64, len(points)),
	}
	for i, p := range points {
		data.Labels[i] = p.Date.Format("02/01")
		data.Series[i] = p.MaxWeight
	}
	return data
}

// Sessions returns a deep copy of the history, oldest first.
func (s *Store) Sessions() []models.Workout {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Workout, len(s.sessions))
	for i, w := range s.sessions {
		out[i] = w.Clone()
	}
	return out
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Flush forces a pending write-behind save to run now.
func (s *Store) Flush() {
	s.mu.Lock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	sessions := s.snapshotLocked()
	s.mu.Unlock()

	s.save(sessions)
}

// Close flushes any pending save.
func (s *Store) Close() {
	s.Flush()
}

// scheduleSaveLocked arms (or re-arms) the debounce timer. Callers
// hold s.mu.
func (s *Store) scheduleSaveLocked() {
	if s.saveDelay <= 0 {
		sessions := s.snapshotLocked()
		go s.save(sessions)
		return
	}
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(s.saveDelay, func() {
		s.mu.Lock()
		s.saveTimer = nil
		sessions := s.snapshotLocked()
		s.mu.Unlock()
		s.save(sessions)
	})
}

// save writes the history to the persister. Failures are logged and
// swallowed: the store keeps operating on in-memory state.
func (s *Store) save(sessions []models.Workout) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.persister.Save(ctx, sessions); err != nil {
		s.log.Error("history save failed", "sessions", len(sessions), "error", err)
	}
}

func (s *Store) snapshotLocked() []models.Workout {
	out := make([]models.Workout, len(s.sessions))
	for i, w := range s.sessions {
		out[i] = w.Clone()
	}
	return out
}

// indexSessionLocked records the session's exercises as the most
// recent performance for their names. Within one session the first
// exercise with a given name wins, matching the backward history scan.
func (s *Store) indexSessionLocked(w models.Workout) {
	seen := make(map[string]bool)
	for _, ex := range w.Exercises {
		if seen[ex.Name] {
			continue
		}
		seen[ex.Name] = true
		s.prev[ex.Name] = append([]models.Set(nil), ex.Sets...)
	}
}

func (s *Store) rebuildIndexLocked() {
	s.prev = make(map[string][]models.Set)
	for _, w := range s.sessions {
		s.indexSessionLocked(w)
	}
}
