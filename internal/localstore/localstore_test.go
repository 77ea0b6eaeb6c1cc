package localstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/auth"
	"github.com/claude/liftlog/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testSessions() []models.Workout {
	return []models.Workout{
		{
			ID:   "w1",
			Name: "Push Day",
			Date: time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC),
			Exercises: []models.Exercise{
				{ID: "e1", Name: "Bench Press", Sets: []models.Set{
					{Weight: "80", Reps: "5", Completed: true},
				}},
			},
			ElapsedSec: 1800,
		},
		{
			ID:   "w2",
			Name: "Leg Day",
			Date: time.Date(2026, 3, 3, 18, 0, 0, 0, time.UTC),
			Exercises: []models.Exercise{
				{ID: "e2", Name: "Squats", Sets: []models.Set{{Weight: "100", Reps: "5"}}},
			},
		},
	}
}

// TestSaveLoadRoundTrip verifies sessions survive persistence with
// insertion order and set detail intact.
func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, testSessions()); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Load() = %d sessions, want 2", len(got))
	}
	if got[0].ID != "w1" || got[1].ID != "w2" {
		t.Errorf("order = [%s %s], want [w1 w2]", got[0].ID, got[1].ID)
	}
	set := got[0].Exercises[0].Sets[0]
	if set.Weight != "80" || !set.Completed {
		t.Errorf("round-tripped set = %+v", set)
	}
	if got[0].ElapsedSec != 1800 {
		t.Errorf("elapsed = %d, want 1800", got[0].ElapsedSec)
	}
	if !got[0].Date.Equal(testSessions()[0].Date) {
		t.Errorf("date = %v, want %v", got[0].Date, testSessions()[0].Date)
	}
}

// TestSaveReplaces verifies Save is a full snapshot, not an append.
func TestSaveReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, testSessions()); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := s.Save(ctx, testSessions()[:1]); err != nil {
		t.Fatalf("second Save() error: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "w1" {
		t.Errorf("Load() after shrinking save = %v, want just w1", got)
	}
}

// TestLoadEmpty verifies a fresh database loads no sessions.
func TestLoadEmpty(t *testing.T) {
	s := openTestStore(t)
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Load() = %d sessions, want 0", len(got))
	}
}

// TestUsers verifies account creation, duplicate rejection, and hash
// lookup against the sentinel errors the auth service expects.
func TestUsers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.CreateUser(ctx, "a@b.com", "hash-1"); err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}
	if err := s.CreateUser(ctx, "a@b.com", "hash-2"); !errors.Is(err, auth.ErrUserExists) {
		t.Errorf("duplicate CreateUser error = %v, want auth.ErrUserExists", err)
	}

	hash, err := s.PasswordHash(ctx, "a@b.com")
	if err != nil {
		t.Fatalf("PasswordHash() error: %v", err)
	}
	if hash != "hash-1" {
		t.Errorf("hash = %q, want %q (duplicate insert must not overwrite)", hash, "hash-1")
	}

	if _, err := s.PasswordHash(ctx, "ghost@b.com"); !errors.Is(err, auth.ErrUnknownUser) {
		t.Errorf("PasswordHash(unknown) error = %v, want auth.ErrUnknownUser", err)
	}
}
