package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Set is a single set within an exercise. Weight and reps hold raw user
// input; the empty string means "not filled in yet".
type Set struct {
	Weight    string `json:"weight"`
	Reps      string `json:"reps"`
	Completed bool   `json:"completed"`
}

// Exercise is an ordered group of sets under one exercise name.
type Exercise struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Notes string `json:"notes"`
	Sets  []Set  `json:"sets"`
}

// Workout is a workout session, either the active draft or a completed
// history entry. Date is zero until the session is finished, at which
// point it is copied from StartTime.
type Workout struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Notes      string     `json:"notes,omitempty"`
	Exercises  []Exercise `json:"exercises"`
	StartTime  time.Time  `json:"startTime"`
	ElapsedSec int        `json:"elapsedTime"`
	Date       time.Time  `json:"date,omitzero"`
}

// NewID returns a fresh workout or exercise identifier.
func NewID() string {
	return uuid.NewString()
}

// BlankSet returns an empty, uncompleted set.
func BlankSet() Set {
	return Set{}
}

// Clone returns a deep copy of the workout.
func (w Workout) Clone() Workout {
	out := w
	out.Exercises = cloneExercises(w.Exercises)
	return out
}

// CloneForStart deep-copies a seed workout into a fresh draft: every
// set's completed flag is reset and exercises without an ID get one.
// The workout itself always gets a new ID.
func (w Workout) CloneForStart() Workout {
	out := w.Clone()
	out.ID = NewID()
	out.Date = time.Time{}
	for i := range out.Exercises {
		if out.Exercises[i].ID == "" {
			out.Exercises[i].ID = NewID()
		}
		for j := range out.Exercises[i].Sets {
			out.Exercises[i].Sets[j].Completed = false
		}
	}
	return out
}

func cloneExercises(exercises []Exercise) []Exercise {
	if exercises == nil {
		return nil
	}
	out := make([]Exercise, len(exercises))
	for i, ex := range exercises {
		out[i] = ex
		out[i].Sets = make([]Set, len(ex.Sets))
		copy(out[i].Sets, ex.Sets)
	}
	return out
}

// SanitizeDecimal reduces raw input to digits and at most one decimal
// point, so "12.5abc" becomes "12.5" and "1.2.3" becomes "1.23".
func SanitizeDecimal(raw string) string {
	var b strings.Builder
	seenDot := false
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' && !seenDot:
			seenDot = true
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WeightValue parses the set's weight, treating empty or unparsable
// input as 0.
func (s Set) WeightValue() float64 {
	return parseDecimal(s.Weight)
}

// RepsValue parses the set's reps, treating empty or unparsable input
// as 0.
func (s Set) RepsValue() float64 {
	return parseDecimal(s.Reps)
}

func parseDecimal(raw string) float64 {
	v, err := strconv.ParseFloat(SanitizeDecimal(raw), 64)
	if err != nil {
		return 0
	}
	return v
}

// MaxWeight returns the heaviest parsed weight across the exercise's
// sets, 0 when no set has a parsable weight.
func (e Exercise) MaxWeight() float64 {
	var max float64
	for _, s := range e.Sets {
		if v := s.WeightValue(); v > max {
			max = v
		}
	}
	return max
}
