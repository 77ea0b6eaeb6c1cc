package mcp

import (
	"context"
	"time"

	"github.com/claude/liftlog/internal/history"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
)

// DataSource abstracts the history backend for MCP tools. *storage.DB
// (Postgres) satisfies it directly; StoreSource adapts the in-memory
// store for the SQLite deployment.
type DataSource interface {
	ListWorkouts(ctx context.Context, start, end time.Time) ([]models.Workout, error)
	PreviousPerformance(ctx context.Context, exerciseName string) ([]models.Set, bool, error)
	ExerciseNames(ctx context.Context) ([]string, error)
	MaxWeightSeries(ctx context.Context, exerciseName string) ([]history.ProgressPoint, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)

// StoreSource adapts *history.Store to the DataSource interface.
type StoreSource struct {
	Store *history.Store
}

func (s StoreSource) ListWorkouts(_ context.Context, start, end time.Time) ([]models.Workout, error) {
	var out []models.Workout
	for _, w := range s.Store.Sessions() {
		if !w.Date.Before(start) && w.Date.Before(end) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s StoreSource) PreviousPerformance(_ context.Context, exerciseName string) ([]models.Set, bool, error) {
	sets, found := s.Store.FindPreviousPerformance(exerciseName)
	return sets, found, nil
}

func (s StoreSource) ExerciseNames(_ context.Context) ([]string, error) {
	return s.Store.AllExerciseNames(), nil
}

func (s StoreSource) MaxWeightSeries(_ context.Context, exerciseName string) ([]history.ProgressPoint, error) {
	return s.Store.MaxWeightSeries(exerciseName), nil
}

var _ DataSource = StoreSource{}
