// Package session owns the single in-progress workout draft: its state
// transitions, live edits, and the running elapsed-time clock.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/liftlog/internal/models"
)

var (
	// ErrSessionActive is returned by Start when a draft already exists.
	ErrSessionActive = errors.New("a session is already active")
	// ErrNoSession is returned by edit operations while no draft exists.
	ErrNoSession = errors.New("no active session")
	// ErrEmptyWorkout is returned by Finish when the draft has no exercises.
	ErrEmptyWorkout = errors.New("workout has no exercises")
	// ErrLastSet is returned by RemoveSet when it would leave an exercise
	// with zero sets.
	ErrLastSet = errors.New("an exercise must keep at least one set")
	// ErrIndexOutOfRange is returned for exercise/set indices that do not
	// address the draft's current shape.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrLengthMismatch is returned by the reorder operations when the
	// replacement sequence has a different length than the current one.
	ErrLengthMismatch = errors.New("reorder length mismatch")
)

// SetField names the per-set value addressed by SetValue.
type SetField string

const (
	FieldWeight SetField = "weight"
	FieldReps   SetField = "reps"
)

// Recorder receives the finished workout. Satisfied by *history.Store.
type Recorder interface {
	Append(w models.Workout)
}

// FieldPatch is a partial update of the draft's top-level fields. Nil
// pointers leave the field untouched; a nil Exercises slice does too.
type FieldPatch struct {
	Name      *string
	Notes     *string
	Exercises []models.Exercise
}

// Manager is the active-session state machine: Idle (no draft) or
// Active (draft present, clock running). All methods are safe for
// concurrent use; the clock goroutine ticks through the same lock as
// user edits.
type Manager struct {
	mu        sync.Mutex
	draft     *models.Workout
	history   Recorder
	log       *slog.Logger
	now       func() time.Time
	interval  time.Duration
	stopClock chan struct{}
}

// New creates an idle Manager. interval is the clock period for the
// elapsed-time timer; 0 disables the background clock (tests drive
// Tick directly).
func New(history Recorder, interval time.Duration, log *slog.Logger) *Manager {
	return &Manager{
		history:  history,
		log:      log,
		now:      time.Now,
		interval: interval,
	}
}

// Start creates a new draft from seed and transitions Idle→Active.
// The seed's name, notes and exercises are deep-copied with every
// set's completed flag reset and missing exercise IDs filled in.
// Starting while a draft exists is rejected with ErrSessionActive;
// callers must Finish or Cancel first.
func (m *Manager) Start(seed models.Workout) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.draft != nil {
		return ErrSessionActive
	}

	draft := seed.CloneForStart()
	draft.StartTime = m.now()
	draft.ElapsedSec = 0
	m.draft = &draft

	m.startClockLocked()
	m.log.Info("session started", "name", draft.Name, "exercises", len(draft.Exercises))
	return nil
}

// Tick advances the elapsed-time counter by one second. No-op while
// Idle, so a straggling timer firing after Finish/Cancel is harmless.
func (m *Manager) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draft != nil {
		m.draft.ElapsedSec++
	}
}

// UpdateField shallow-merges the patch into the draft's top-level
// fields. No-op while Idle.
func (m *Manager) UpdateField(patch FieldPatch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draft == nil {
		return
	}
	if patch.Name != nil {
		m.draft.Name = *patch.Name
	}
	if patch.Notes != nil {
		m.draft.Notes = *patch.Notes
	}
	if patch.Exercises != nil {
		replacement := models.Workout{Exercises: patch.Exercises}.Clone()
		m.draft.Exercises = replacement.Exercises
	}
}

// SetValue sanitizes raw to digits and one decimal point and stores it
// as the addressed set's weight or reps.
func (m *Manager) SetValue(exerciseIdx, setIdx int, field SetField, raw string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, err := m.setAtLocked(exerciseIdx, setIdx)
	if err != nil {
		return err
	}

	clean := models.SanitizeDecimal(raw)
	switch field {
	case FieldWeight:
		set.Weight = clean
	case FieldReps:
		set.Reps = clean
	default:
		return fmt.Errorf("unknown set field %q", field)
	}
	return nil
}

// ToggleSetCompleted flips the addressed set's completed flag.
func (m *Manager) ToggleSetCompleted(exerciseIdx, setIdx int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, err := m.setAtLocked(exerciseIdx, setIdx)
	if err != nil {
		return err
	}
	set.Completed = !set.Completed
	return nil
}

// AddSet appends a blank set to the addressed exercise.
func (m *Manager) AddSet(exerciseIdx int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ex, err := m.exerciseAtLocked(exerciseIdx)
	if err != nil {
		return err
	}
	ex.Sets = append(ex.Sets, models.BlankSet())
	return nil
}

// RemoveSet deletes the addressed set. Removing an exercise's only set
// is rejected with ErrLastSet and leaves the draft unchanged.
func (m *Manager) RemoveSet(exerciseIdx, setIdx int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ex, err := m.exerciseAtLocked(exerciseIdx)
	if err != nil {
		return err
	}
	if setIdx < 0 || setIdx >= len(ex.Sets) {
		return ErrIndexOutOfRange
	}
	if len(ex.Sets) == 1 {
		return ErrLastSet
	}
	ex.Sets = append(ex.Sets[:setIdx], ex.Sets[setIdx+1:]...)
	return nil
}

// ReorderSets replaces the addressed exercise's set sequence with the
// caller-supplied permutation. Only length equality is validated; the
// caller guarantees it is a true reordering.
func (m *Manager) ReorderSets(exerciseIdx int, sets []models.Set) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ex, err := m.exerciseAtLocked(exerciseIdx)
	if err != nil {
		return err
	}
	if len(sets) != len(ex.Sets) {
		return ErrLengthMismatch
	}
	ex.Sets = append([]models.Set(nil), sets...)
	return nil
}

// ReorderExercises replaces the draft's exercise sequence with the
// caller-supplied permutation. Only length equality is validated.
func (m *Manager) ReorderExercises(exercises []models.Exercise) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.draft == nil {
		return ErrNoSession
	}
	if len(exercises) != len(m.draft.Exercises) {
		return ErrLengthMismatch
	}
	replacement := models.Workout{Exercises: exercises}.Clone()
	m.draft.Exercises = replacement.Exercises
	return nil
}

// AddExercise appends a new exercise with one blank set.
func (m *Manager) AddExercise(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.draft == nil {
		return ErrNoSession
	}
	m.draft.Exercises = append(m.draft.Exercises, models.Exercise{
		ID:   models.NewID(),
		Name: name,
		Sets: []models.Set{models.BlankSet()},
	})
	return nil
}

// RemoveExercise deletes the exercise with the given ID. There is no
// minimum-exercise invariant; an unknown ID is ErrIndexOutOfRange.
func (m *Manager) RemoveExercise(exerciseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.draft == nil {
		return ErrNoSession
	}
	for i, ex := range m.draft.Exercises {
		if ex.ID == exerciseID {
			m.draft.Exercises = append(m.draft.Exercises[:i], m.draft.Exercises[i+1:]...)
			return nil
		}
	}
	return ErrIndexOutOfRange
}

// Finish snapshots the draft, stamps its date from the start time,
// hands it to the history recorder, and returns to Idle. This is the
// sole write path from the live session into history.
func (m *Manager) Finish() (models.Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.draft == nil {
		return models.Workout{}, ErrNoSession
	}
	if len(m.draft.Exercises) == 0 {
		return models.Workout{}, ErrEmptyWorkout
	}

	finished := m.draft.Clone()
	finished.Date = finished.StartTime
	m.history.Append(finished)

	m.draft = nil
	m.stopClockLocked()
	m.log.Info("session finished", "name", finished.Name, "elapsed_sec", finished.ElapsedSec)
	return finished, nil
}

// Cancel discards the draft unconditionally and returns to Idle.
// No-op while Idle.
func (m *Manager) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.draft == nil {
		return
	}
	name := m.draft.Name
	m.draft = nil
	m.stopClockLocked()
	m.log.Info("session cancelled", "name", name)
}

// Snapshot returns a deep copy of the draft, or false while Idle.
func (m *Manager) Snapshot() (models.Workout, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draft == nil {
		return models.Workout{}, false
	}
	return m.draft.Clone(), true
}

// Active reports whether a draft exists.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft != nil
}

// ElapsedSec returns the draft's elapsed seconds, 0 while Idle.
func (m *Manager) ElapsedSec() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draft == nil {
		return 0
	}
	return m.draft.ElapsedSec
}

// Close stops the clock goroutine if one is running. The draft, if
// any, is left in place for a later Finish or Cancel.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopClockLocked()
}

// startClockLocked launches the 1-per-Active-entry clock goroutine.
// Callers hold m.mu.
func (m *Manager) startClockLocked() {
	if m.interval <= 0 || m.stopClock != nil {
		return
	}
	stop := make(chan struct{})
	m.stopClock = stop
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				m.Tick()
			}
		}
	}()
}

// stopClockLocked releases the clock goroutine. Callers hold m.mu.
// Idempotent, so every exit path (Finish, Cancel, Close) may call it.
func (m *Manager) stopClockLocked() {
	if m.stopClock != nil {
		close(m.stopClock)
		m.stopClock = nil
	}
}

func (m *Manager) exerciseAtLocked(idx int) (*models.Exercise, error) {
	if m.draft == nil {
		return nil, ErrNoSession
	}
	if idx < 0 || idx >= len(m.draft.Exercises) {
		return nil, ErrIndexOutOfRange
	}
	return &m.draft.Exercises[idx], nil
}

func (m *Manager) setAtLocked(exerciseIdx, setIdx int) (*models.Set, error) {
	ex, err := m.exerciseAtLocked(exerciseIdx)
	if err != nil {
		return nil, err
	}
	if setIdx < 0 || setIdx >= len(ex.Sets) {
		return nil, ErrIndexOutOfRange
	}
	return &ex.Sets[setIdx], nil
}
