package history

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/models"
)

// fakePersister records Save calls for write-behind assertions.
type fakePersister struct {
	mu     sync.Mutex
	loaded []models.Workout
	saved  [][]models.Workout
}

func (f *fakePersister) Load(context.Context) ([]models.Workout, error) {
	return f.loaded, nil
}

func (f *fakePersister) Save(_ context.Context, sessions []models.Workout) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, sessions)
	return nil
}

func (f *fakePersister) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestStore returns a store with a long debounce so tests control
// when saves happen via Flush.
func newTestStore() (*Store, *fakePersister) {
	p := &fakePersister{}
	return New(p, time.Hour, discardLogger()), p
}

func day(d int) time.Time {
	return time.Date(2026, 3, d, 18, 0, 0, 0, time.UTC)
}

func session(id string, d int, exercises ...models.Exercise) models.Workout {
	return models.Workout{ID: id, Name: "Workout " + id, Date: day(d), Exercises: exercises}
}

func exercise(name string, weights ...string) models.Exercise {
	ex := models.Exercise{Name: name}
	for _, w := range weights {
		ex.Sets = append(ex.Sets, models.Set{Weight: w, Reps: "5", Completed: true})
	}
	return ex
}

// TestFindPreviousPerformance verifies the most recent occurrence wins
// and unknown names report not found.
func TestFindPreviousPerformance(t *testing.T) {
	s, _ := newTestStore()
	s.Append(session("a", 1, exercise("Bench Press", "80", "80")))
	s.Append(session("b", 2, exercise("Squats", "100")))
	s.Append(session("c", 3, exercise("Bench Press", "82.5")))

	sets, found := s.FindPreviousPerformance("Bench Press")
	if !found {
		t.Fatal("FindPreviousPerformance() found = false")
	}
	if len(sets) != 1 || sets[0].Weight != "82.5" {
		t.Errorf("sets = %+v, want the session-c sets", sets)
	}

	if _, found := s.FindPreviousPerformance("Deadlift"); found {
		t.Error("unknown exercise reported found")
	}
	// Matching is exact, including case.
	if _, found := s.FindPreviousPerformance("bench press"); found {
		t.Error("case-insensitive match reported found")
	}
}

// TestFindPreviousDuplicateInSession verifies that when one session
// logs the same exercise twice, the first occurrence is returned.
func TestFindPreviousDuplicateInSession(t *testing.T) {
	s, _ := newTestStore()
	s.Append(session("a", 1,
		exercise("Bench Press", "80"),
		exercise("Bench Press", "60"),
	))

	sets, found := s.FindPreviousPerformance("Bench Press")
	if !found || sets[0].Weight != "80" {
		t.Errorf("sets = %+v, want the first occurrence (weight 80)", sets)
	}
}

// TestDeleteByID verifies removal rebuilds the previous-performance
// index so the older occurrence resurfaces.
func TestDeleteByID(t *testing.T) {
	s, _ := newTestStore()
	s.Append(session("a", 1, exercise("Bench Press", "80")))
	s.Append(session("b", 2, exercise("Bench Press", "85")))

	if !s.DeleteByID("b") {
		t.Fatal("DeleteByID(b) = false")
	}
	if s.DeleteByID("b") {
		t.Error("deleting an absent ID reported true")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}

	sets, found := s.FindPreviousPerformance("Bench Press")
	if !found || sets[0].Weight != "80" {
		t.Errorf("sets after delete = %+v, want session-a sets", sets)
	}
}

// TestAllExerciseNames verifies first-seen ordering without duplicates.
func TestAllExerciseNames(t *testing.T) {
	s, _ := newTestStore()
	s.Append(session("a", 1, exercise("Bench Press", "80"), exercise("Dips")))
	s.Append(session("b", 2, exercise("Squats", "100"), exercise("Bench Press", "82.5")))

	got := s.AllExerciseNames()
	want := []string{"Bench Press", "Dips", "Squats"}
	if len(got) != len(want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestMaxWeightSeries verifies per-session maxima, zero-max exclusion,
// and date-ascending order even when sessions were appended out of
// date order.
func TestMaxWeightSeries(t *testing.T) {
	s, _ := newTestStore()
	s.Append(session("later", 5, exercise("Bench Press", "85", "80")))
	s.Append(session("earlier", 2, exercise("Bench Press", "80", "77.5")))
	s.Append(session("bodyweight", 3, exercise("Bench Press", "", "")))
	s.Append(session("other", 4, exercise("Squats", "120")))

	points := s.MaxWeightSeries("Bench Press")
	if len(points) != 2 {
		t.Fatalf("points = %d, want 2 (bodyweight session excluded)", len(points))
	}
	if !points[0].Date.Equal(day(2)) || points[0].MaxWeight != 80 {
		t.Errorf("points[0] = %+v, want day 2 at 80", points[0])
	}
	if !points[1].Date.Equal(day(5)) || points[1].MaxWeight != 85 {
		t.Errorf("points[1] = %+v, want day 5 at 85", points[1])
	}
}

// TestChartData verifies labels use day/month form aligned with the series.
func TestChartData(t *testing.T) {
	s, _ := newTestStore()
	s.Append(session("a", 2, exercise("Bench Press", "80")))

	data := s.ChartData("Bench Press")
	if len(data.Labels) != 1 || data.Labels[0] != "02/03" {
		t.Errorf("labels = %v, want [02/03]", data.Labels)
	}
	if len(data.Series) != 1 || data.Series[0] != 80 {
		t.Errorf("series = %v, want [80]", data.Series)
	}
}

// TestLoadRebuildsIndex verifies persisted history is queryable after Load.
func TestLoadRebuildsIndex(t *testing.T) {
	p := &fakePersister{loaded: []models.Workout{
		session("a", 1, exercise("Bench Press", "80")),
		session("b", 2, exercise("Bench Press", "85")),
	}}
	s := New(p, time.Hour, discardLogger())
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	sets, found := s.FindPreviousPerformance("Bench Press")
	if !found || sets[0].Weight != "85" {
		t.Errorf("sets = %+v, want the newest session's sets", sets)
	}
}

// TestDebouncedSave verifies mutations do not write immediately and
// Flush persists the latest snapshot exactly once.
func TestDebouncedSave(t *testing.T) {
	s, p := newTestStore()
	s.Append(session("a", 1, exercise("Bench Press", "80")))
	s.Append(session("b", 2, exercise("Squats", "100")))

	if got := p.saveCount(); got != 0 {
		t.Fatalf("saves before Flush = %d, want 0 (debounced)", got)
	}

	s.Flush()
	if got := p.saveCount(); got != 1 {
		t.Fatalf("saves after Flush = %d, want 1", got)
	}
	p.mu.Lock()
	saved := p.saved[0]
	p.mu.Unlock()
	if len(saved) != 2 || saved[0].ID != "a" || saved[1].ID != "b" {
		t.Errorf("saved snapshot = %+v, want sessions a then b", saved)
	}
}

// TestSessionsIsCopy verifies callers cannot mutate the store through
// the returned slice.
func TestSessionsIsCopy(t *testing.T) {
	s, _ := newTestStore()
	s.Append(session("a", 1, exercise("Bench Press", "80")))

	out := s.Sessions()
	out[0].Exercises[0].Sets[0].Weight = "999"

	fresh := s.Sessions()
	if fresh[0].Exercises[0].Sets[0].Weight == "999" {
		t.Error("mutating the returned slice changed the store")
	}
}
