package session

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/models"
)

// fakeRecorder captures workouts handed over by Finish.
type fakeRecorder struct {
	appended []models.Workout
}

func (f *fakeRecorder) Append(w models.Workout) {
	f.appended = append(f.appended, w)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestManager returns an idle manager with the background clock
// disabled; tests drive Tick directly.
func newTestManager() (*Manager, *fakeRecorder) {
	rec := &fakeRecorder{}
	return New(rec, 0, discardLogger()), rec
}

func seedWorkout() models.Workout {
	return models.Workout{
		Name: "Push Day",
		Exercises: []models.Exercise{
			{ID: "ex-1", Name: "Bench Press", Sets: []models.Set{
				{Weight: "80", Reps: "5", Completed: true},
				{Weight: "80", Reps: "5"},
			}},
			{ID: "ex-2", Name: "Dips", Sets: []models.Set{{}}},
		},
	}
}

// TestStartFinishRoundTrip verifies the full lifecycle: the finished
// workout carries the draft's edits, its date equals the start time,
// and it lands in the recorder exactly once.
func TestStartFinishRoundTrip(t *testing.T) {
	mgr, rec := newTestManager()
	started := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	mgr.now = func() time.Time { return started }

	if err := mgr.Start(seedWorkout()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if !mgr.Active() {
		t.Fatal("Active() = false after Start")
	}

	mgr.Tick()
	mgr.Tick()
	mgr.Tick()
	if got := mgr.ElapsedSec(); got != 3 {
		t.Errorf("ElapsedSec() = %d, want 3", got)
	}

	if err := mgr.SetValue(0, 1, FieldWeight, "82.5"); err != nil {
		t.Fatalf("SetValue() error: %v", err)
	}
	if err := mgr.ToggleSetCompleted(0, 1); err != nil {
		t.Fatalf("ToggleSetCompleted() error: %v", err)
	}

	finished, err := mgr.Finish()
	if err != nil {
		t.Fatalf("Finish() error: %v", err)
	}
	if mgr.Active() {
		t.Error("Active() = true after Finish")
	}
	if !finished.Date.Equal(started) {
		t.Errorf("finished.Date = %v, want %v (the start time)", finished.Date, started)
	}
	if finished.ElapsedSec != 3 {
		t.Errorf("finished.ElapsedSec = %d, want 3", finished.ElapsedSec)
	}
	if got := finished.Exercises[0].Sets[1].Weight; got != "82.5" {
		t.Errorf("edited set weight = %q, want %q", got, "82.5")
	}
	if !finished.Exercises[0].Sets[1].Completed {
		t.Error("toggled set not completed in the finished workout")
	}
	if len(rec.appended) != 1 {
		t.Fatalf("recorder received %d workouts, want 1", len(rec.appended))
	}
	if rec.appended[0].ID != finished.ID {
		t.Errorf("recorded ID = %q, want %q", rec.appended[0].ID, finished.ID)
	}
}

// TestStartWhileActive verifies a second Start is rejected and leaves
// the current draft untouched.
func TestStartWhileActive(t *testing.T) {
	mgr, _ := newTestManager()
	if err := mgr.Start(seedWorkout()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := mgr.Start(models.Workout{Name: "Other"}); !errors.Is(err, ErrSessionActive) {
		t.Errorf("second Start() error = %v, want ErrSessionActive", err)
	}
	snap, ok := mgr.Snapshot()
	if !ok || snap.Name != "Push Day" {
		t.Errorf("draft after rejected Start = %q, want %q", snap.Name, "Push Day")
	}
}

// TestStartResetsCompleted verifies a history entry reused as a seed
// comes back with all sets unticked.
func TestStartResetsCompleted(t *testing.T) {
	mgr, _ := newTestManager()
	seed := seedWorkout()
	seed.Date = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	if err := mgr.Start(seed); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	snap, _ := mgr.Snapshot()
	if snap.Exercises[0].Sets[0].Completed {
		t.Error("seed's completed flag survived into the draft")
	}
	if !snap.Date.IsZero() {
		t.Errorf("draft.Date = %v, want zero until Finish", snap.Date)
	}
	if snap.ID == seed.ID {
		t.Error("draft reused the seed's ID")
	}
}

// TestTickWhileIdle verifies a stray clock tick after the session ends
// does nothing.
func TestTickWhileIdle(t *testing.T) {
	mgr, _ := newTestManager()
	mgr.Tick()
	if got := mgr.ElapsedSec(); got != 0 {
		t.Errorf("ElapsedSec() = %d, want 0 while idle", got)
	}
}

// TestFinishEmptyWorkout verifies a draft with no exercises cannot be
// saved to history.
func TestFinishEmptyWorkout(t *testing.T) {
	mgr, rec := newTestManager()
	if err := mgr.Start(models.Workout{Name: "Empty"}); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if _, err := mgr.Finish(); !errors.Is(err, ErrEmptyWorkout) {
		t.Errorf("Finish() error = %v, want ErrEmptyWorkout", err)
	}
	// The draft stays active so the lifter can add an exercise.
	if !mgr.Active() {
		t.Error("Active() = false after rejected Finish")
	}
	if len(rec.appended) != 0 {
		t.Errorf("recorder received %d workouts, want 0", len(rec.appended))
	}
}

// TestFinishWhileIdle verifies Finish without a draft is ErrNoSession.
func TestFinishWhileIdle(t *testing.T) {
	mgr, _ := newTestManager()
	if _, err := mgr.Finish(); !errors.Is(err, ErrNoSession) {
		t.Errorf("Finish() error = %v, want ErrNoSession", err)
	}
}

// TestCancelDiscards verifies Cancel drops the draft without recording.
func TestCancelDiscards(t *testing.T) {
	mgr, rec := newTestManager()
	if err := mgr.Start(seedWorkout()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	mgr.Cancel()
	if mgr.Active() {
		t.Error("Active() = true after Cancel")
	}
	if len(rec.appended) != 0 {
		t.Errorf("recorder received %d workouts after Cancel, want 0", len(rec.appended))
	}
	// Cancel while idle is a no-op.
	mgr.Cancel()
}

// TestRemoveLastSet verifies an exercise always keeps at least one set.
func TestRemoveLastSet(t *testing.T) {
	mgr, _ := newTestManager()
	if err := mgr.Start(seedWorkout()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	// Exercise 1 ("Dips") has a single set.
	if err := mgr.RemoveSet(1, 0); !errors.Is(err, ErrLastSet) {
		t.Errorf("RemoveSet() error = %v, want ErrLastSet", err)
	}
	// Exercise 0 has two, so one can go.
	if err := mgr.RemoveSet(0, 1); err != nil {
		t.Errorf("RemoveSet() error: %v", err)
	}
	snap, _ := mgr.Snapshot()
	if got := len(snap.Exercises[0].Sets); got != 1 {
		t.Errorf("sets remaining = %d, want 1", got)
	}
}

// TestAddSet verifies the appended set is blank.
func TestAddSet(t *testing.T) {
	mgr, _ := newTestManager()
	if err := mgr.Start(seedWorkout()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := mgr.AddSet(1); err != nil {
		t.Fatalf("AddSet() error: %v", err)
	}
	snap, _ := mgr.Snapshot()
	sets := snap.Exercises[1].Sets
	if len(sets) != 2 {
		t.Fatalf("sets = %d, want 2", len(sets))
	}
	if sets[1] != (models.Set{}) {
		t.Errorf("appended set = %+v, want blank", sets[1])
	}
}

// TestSetValueSanitizes verifies raw input is cleaned before storage.
func TestSetValueSanitizes(t *testing.T) {
	mgr, _ := newTestManager()
	if err := mgr.Start(seedWorkout()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := mgr.SetValue(0, 0, FieldWeight, "12.5abc"); err != nil {
		t.Fatalf("SetValue() error: %v", err)
	}
	if err := mgr.SetValue(0, 0, FieldReps, "8x"); err != nil {
		t.Fatalf("SetValue() error: %v", err)
	}
	snap, _ := mgr.Snapshot()
	set := snap.Exercises[0].Sets[0]
	if set.Weight != "12.5" {
		t.Errorf("weight = %q, want %q", set.Weight, "12.5")
	}
	if set.Reps != "8" {
		t.Errorf("reps = %q, want %q", set.Reps, "8")
	}
}

// TestIndexOutOfRange verifies stale indices are rejected without
// mutating the draft.
func TestIndexOutOfRange(t *testing.T) {
	mgr, _ := newTestManager()
	if err := mgr.Start(seedWorkout()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	cases := []error{
		mgr.SetValue(5, 0, FieldWeight, "1"),
		mgr.SetValue(0, 9, FieldReps, "1"),
		mgr.ToggleSetCompleted(-1, 0),
		mgr.AddSet(2),
		mgr.RemoveSet(0, -1),
	}
	for i, err := range cases {
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("case %d: error = %v, want ErrIndexOutOfRange", i, err)
		}
	}
}

// TestReorderSets verifies the permutation is applied and a wrong
// length is rejected.
func TestReorderSets(t *testing.T) {
	mgr, _ := newTestManager()
	if err := mgr.Start(seedWorkout()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	snap, _ := mgr.Snapshot()
	sets := snap.Exercises[0].Sets
	reversed := []models.Set{sets[1], sets[0]}

	if err := mgr.ReorderSets(0, reversed[:1]); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("short reorder error = %v, want ErrLengthMismatch", err)
	}
	if err := mgr.ReorderSets(0, reversed); err != nil {
		t.Fatalf("ReorderSets() error: %v", err)
	}
	snap, _ = mgr.Snapshot()
	if got := snap.Exercises[0].Sets[0]; got != sets[1] {
		t.Errorf("first set after reorder = %+v, want %+v", got, sets[1])
	}
}

// TestReorderExercises verifies exercise order changes and length
// mismatches are rejected.
func TestReorderExercises(t *testing.T) {
	mgr, _ := newTestManager()
	if err := mgr.Start(seedWorkout()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	snap, _ := mgr.Snapshot()
	swapped := []models.Exercise{snap.Exercises[1], snap.Exercises[0]}

	if err := mgr.ReorderExercises(swapped[:1]); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("short reorder error = %v, want ErrLengthMismatch", err)
	}
	if err := mgr.ReorderExercises(swapped); err != nil {
		t.Fatalf("ReorderExercises() error: %v", err)
	}
	snap, _ = mgr.Snapshot()
	if snap.Exercises[0].Name != "Dips" {
		t.Errorf("first exercise = %q, want %q", snap.Exercises[0].Name, "Dips")
	}
}

// TestAddRemoveExercise verifies adding gives one blank set and removal
// addresses by ID.
func TestAddRemoveExercise(t *testing.T) {
	mgr, _ := newTestManager()
	if err := mgr.Start(seedWorkout()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := mgr.AddExercise("Overhead Press"); err != nil {
		t.Fatalf("AddExercise() error: %v", err)
	}
	snap, _ := mgr.Snapshot()
	added := snap.Exercises[2]
	if added.Name != "Overhead Press" || added.ID == "" || len(added.Sets) != 1 {
		t.Errorf("added exercise = %+v, want named with an ID and one blank set", added)
	}

	if err := mgr.RemoveExercise("no-such-id"); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("RemoveExercise(unknown) error = %v, want ErrIndexOutOfRange", err)
	}
	if err := mgr.RemoveExercise("ex-1"); err != nil {
		t.Fatalf("RemoveExercise() error: %v", err)
	}
	snap, _ = mgr.Snapshot()
	if len(snap.Exercises) != 2 || snap.Exercises[0].Name != "Dips" {
		t.Errorf("exercises after removal = %d starting with %q, want 2 starting with Dips",
			len(snap.Exercises), snap.Exercises[0].Name)
	}
}

// TestUpdateField verifies nil patch fields leave values untouched.
func TestUpdateField(t *testing.T) {
	mgr, _ := newTestManager()
	if err := mgr.Start(seedWorkout()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	notes := "felt strong"
	mgr.UpdateField(FieldPatch{Notes: &notes})
	snap, _ := mgr.Snapshot()
	if snap.Name != "Push Day" {
		t.Errorf("name = %q, want untouched %q", snap.Name, "Push Day")
	}
	if snap.Notes != "felt strong" {
		t.Errorf("notes = %q, want %q", snap.Notes, "felt strong")
	}

	// Idle patch is a no-op.
	mgr.Cancel()
	mgr.UpdateField(FieldPatch{Notes: &notes})
}

// TestSnapshotIsCopy verifies callers cannot reach into the live draft.
func TestSnapshotIsCopy(t *testing.T) {
	mgr, _ := newTestManager()
	if err := mgr.Start(seedWorkout()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	snap, _ := mgr.Snapshot()
	snap.Exercises[0].Sets[0].Weight = "999"
	fresh, _ := mgr.Snapshot()
	if fresh.Exercises[0].Sets[0].Weight == "999" {
		t.Error("mutating a snapshot changed the draft")
	}
}

// TestBackgroundClock verifies a real interval advances the counter and
// the goroutine stops on Finish.
func TestBackgroundClock(t *testing.T) {
	rec := &fakeRecorder{}
	mgr := New(rec, 10*time.Millisecond, discardLogger())
	defer mgr.Close()

	if err := mgr.Start(seedWorkout()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for mgr.ElapsedSec() < 2 {
		select {
		case <-deadline:
			t.Fatal("clock never advanced")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if _, err := mgr.Finish(); err != nil {
		t.Fatalf("Finish() error: %v", err)
	}
	// A stray tick after Finish must not resurrect the counter.
	time.Sleep(30 * time.Millisecond)
	if got := mgr.ElapsedSec(); got != 0 {
		t.Errorf("ElapsedSec() = %d after Finish, want 0", got)
	}
}

// TestTemplates verifies the built-in templates are well-formed seeds.
func TestTemplates(t *testing.T) {
	templates := Templates()
	if len(templates) == 0 {
		t.Fatal("no templates")
	}
	for _, tpl := range templates {
		if tpl.ID == "" || tpl.Name == "" {
			t.Errorf("template %q missing ID or name", tpl.Name)
		}
		if len(tpl.Exercises) == 0 {
			t.Errorf("template %q has no exercises", tpl.ID)
		}
		for _, ex := range tpl.Exercises {
			if len(ex.Sets) == 0 {
				t.Errorf("template %q exercise %q has no sets", tpl.ID, ex.Name)
			}
		}
	}

	if _, ok := TemplateByID(templates[0].ID); !ok {
		t.Errorf("TemplateByID(%q) not found", templates[0].ID)
	}
	if _, ok := TemplateByID("nope"); ok {
		t.Error("TemplateByID(nope) unexpectedly found")
	}
}
