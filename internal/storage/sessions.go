package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/history"
	"github.com/claude/liftlog/internal/models"
)

// decimalRe matches weights that cast cleanly to float8; anything else
// counts as 0 in the progress series.
const decimalRe = `^[0-9]*\.?[0-9]+$`

// Save replaces the persisted history with the given sessions.
// Satisfies history.Persister.
func (db *DB) Save(ctx context.Context, sessions []models.Workout) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning save tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM workout_sessions`); err != nil {
		return fmt.Errorf("clearing workout sessions: %w", err)
	}

	for _, w := range sessions {
		if _, err := tx.Exec(ctx,
			`INSERT INTO workout_sessions (id, name, notes, start_time, elapsed_sec, date)
			 VALUES ($1,$2,$3,$4,$5,$6)
			 ON CONFLICT DO NOTHING`,
			w.ID, w.Name, w.Notes, w.StartTime, w.ElapsedSec, w.Date); err != nil {
			return fmt.Errorf("inserting session %s: %w", w.ID, err)
		}

		query := `INSERT INTO workout_sets (session_id, exercise_pos, exercise_id, exercise_name,
			exercise_notes, set_pos, weight, reps, completed) VALUES `
		args := make([]any, 0, 9)
		valueStrings := make([]string, 0)

		n := 0
		for ei, ex := range w.Exercises {
			for si, set := range ex.Sets {
				base := n * 9
				valueStrings = append(valueStrings, fmt.Sprintf(
					"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
					base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9,
				))
				args = append(args, w.ID, ei, ex.ID, ex.Name, ex.Notes, si,
					set.Weight, set.Reps, set.Completed)
				n++
			}
		}
		if n == 0 {
			continue
		}

		query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting sets for session %s: %w", w.ID, err)
		}
	}

	return tx.Commit(ctx)
}

// Load returns all persisted sessions in insertion order.
// Satisfies history.Persister.
func (db *DB) Load(ctx context.Context) ([]models.Workout, error) {
	return db.loadSessions(ctx, ``, nil)
}

// ListWorkouts retrieves completed sessions whose date falls in
// [start, end), oldest first.
func (db *DB) ListWorkouts(ctx context.Context, start, end time.Time) ([]models.Workout, error) {
	return db.loadSessions(ctx, `WHERE date >= $1 AND date < $2`, []any{start, end})
}

func (db *DB) loadSessions(ctx context.Context, where string, args []any) ([]models.Workout, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, notes, start_time, elapsed_sec, date
		 FROM workout_sessions `+where+` ORDER BY position ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying workout sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Workout
	index := make(map[string]int)
	for rows.Next() {
		var w models.Workout
		if err := rows.Scan(&w.ID, &w.Name, &w.Notes, &w.StartTime, &w.ElapsedSec, &w.Date); err != nil {
			return nil, fmt.Errorf("scanning workout session: %w", err)
		}
		index[w.ID] = len(sessions)
		sessions = append(sessions, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	setRows, err := db.Pool.Query(ctx,
		`SELECT ws.session_id, ws.exercise_pos, ws.exercise_id, ws.exercise_name,
		        ws.exercise_notes, ws.weight, ws.reps, ws.completed
		 FROM workout_sets ws
		 JOIN workout_sessions s ON s.id = ws.session_id `+where+`
		 ORDER BY s.position ASC, ws.exercise_pos ASC, ws.set_pos ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying workout sets: %w", err)
	}
	defer setRows.Close()

	for setRows.Next() {
		var (
			sessionID, exID, exName, exNotes string
			exPos                            int
			set                              models.Set
		)
		if err := setRows.Scan(&sessionID, &exPos, &exID, &exName, &exNotes,
			&set.Weight, &set.Reps, &set.Completed); err != nil {
			return nil, fmt.Errorf("scanning workout set: %w", err)
		}
		i, ok := index[sessionID]
		if !ok {
			continue
		}
		w := &sessions[i]
		if len(w.Exercises) <= exPos {
			for len(w.Exercises) <= exPos {
				w.Exercises = append(w.Exercises, models.Exercise{})
			}
		}
		ex := &w.Exercises[exPos]
		ex.ID, ex.Name, ex.Notes = exID, exName, exNotes
		ex.Sets = append(ex.Sets, set)
	}
	return sessions, setRows.Err()
}

// PreviousPerformance returns the sets from the most recent session
// containing the named exercise (exact match). The bool is false when
// the exercise has never been logged.
func (db *DB) PreviousPerformance(ctx context.Context, exerciseName string) ([]models.Set, bool, error) {
	rows, err := db.Pool.Query(ctx,
		`WITH latest AS (
			SELECT s.id AS session_id, MIN(ws.exercise_pos) AS exercise_pos
			FROM workout_sessions s
			JOIN workout_sets ws ON ws.session_id = s.id
			WHERE ws.exercise_name = $1
			GROUP BY s.id, s.position
			ORDER BY s.position DESC
			LIMIT 1
		)
		SELECT ws.weight, ws.reps, ws.completed
		FROM workout_sets ws
		JOIN latest l ON ws.session_id = l.session_id AND ws.exercise_pos = l.exercise_pos
		ORDER BY ws.set_pos ASC`,
		exerciseName)
	if err != nil {
		return nil, false, fmt.Errorf("querying previous performance: %w", err)
	}
	defer rows.Close()

	var sets []models.Set
	for rows.Next() {
		var s models.Set
		if err := rows.Scan(&s.Weight, &s.Reps, &s.Completed); err != nil {
			return nil, false, fmt.Errorf("scanning previous set: %w", err)
		}
		sets = append(sets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return sets, len(sets) > 0, nil
}

// ExerciseNames returns the distinct exercise names across all
// sessions, in first-seen order.
func (db *DB) ExerciseNames(ctx context.Context) ([]string, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT ws.exercise_name
		 FROM workout_sets ws
		 JOIN workout_sessions s ON s.id = ws.session_id
		 GROUP BY ws.exercise_name
		 ORDER BY MIN(s.position) ASC, MIN(ws.exercise_pos) ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying exercise names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning exercise name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// MaxWeightSeries returns each session's best weight for the named
// exercise, date ascending. Unparsable weights count as 0 and sessions
// whose max is 0 are excluded.
func (db *DB) MaxWeightSeries(ctx context.Context, exerciseName string) ([]history.ProgressPoint, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT s.date,
		        MAX(CASE WHEN ws.weight ~ '`+decimalRe+`' THEN ws.weight::float8 ELSE 0 END) AS max_weight
		 FROM workout_sets ws
		 JOIN workout_sessions s ON s.id = ws.session_id
		 WHERE ws.exercise_name = $1
		 GROUP BY s.id, s.date
		 HAVING MAX(CASE WHEN ws.weight ~ '`+decimalRe+`' THEN ws.weight::float8 ELSE 0 END) > 0
		 ORDER BY s.date ASC`,
		exerciseName)
	if err != nil {
		return nil, fmt.Errorf("querying max weight series: %w", err)
	}
	defer rows.Close()

	var points []history.ProgressPoint
	for rows.Next() {
		var p history.ProgressPoint
		if err := rows.Scan(&p.Date, &p.MaxWeight); err != nil {
			return nil, fmt.Errorf("scanning progress point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// Compile-time check: *DB satisfies the history persistence boundary.
var _ history.Persister = (*DB)(nil)
