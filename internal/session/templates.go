package session

import "github.com/claude/liftlog/internal/models"

// Templates returns the built-in workout routines used to seed a new
// draft. Set values are blank; Start resets completion flags and
// assigns fresh IDs, so templates can be shared safely.
func Templates() []models.Workout {
	return []models.Workout{
		{
			ID:   "template_push",
			Name: "Classic Push Day",
			Exercises: []models.Exercise{
				templateExercise("Bench Press", ""),
				templateExercise("Overhead Press", ""),
				templateExercise("Incline Press", ""),
				templateExercise("Tricep Extensions", ""),
			},
		},
		{
			ID:   "template_pull",
			Name: "Classic Pull Day",
			Exercises: []models.Exercise{
				templateExercise("Pull-ups", "Assisted or bodyweight"),
				templateExercise("Rows", ""),
				templateExercise("Lat Pulldowns", ""),
				templateExercise("Bicep Curls", ""),
			},
		},
		{
			ID:   "template_legs",
			Name: "Leg Day",
			Exercises: []models.Exercise{
				templateExercise("Squats", ""),
				templateExercise("Romanian Deadlift With Dumbbells", ""),
				templateExercise("Leg Press", ""),
				templateExercise("Calf Raises", ""),
			},
		},
	}
}

// TemplateByID returns the built-in template with the given ID.
func TemplateByID(id string) (models.Workout, bool) {
	for _, t := range Templates() {
		if t.ID == id {
			return t, true
		}
	}
	return models.Workout{}, false
}

func templateExercise(name, notes string) models.Exercise {
	return models.Exercise{
		Name:  name,
		Notes: notes,
		Sets:  []models.Set{models.BlankSet(), models.BlankSet(), models.BlankSet()},
	}
}
