package model

import (
	"fmt"
	"strings"
	"time"
)

// ResourceType names a family of owned records for role checks.
type ResourceType string

const (
	ResourceDiary     ResourceType = "diary"
	ResourceNutrition ResourceType = "nutrition"
	ResourceWorkout   ResourceType = "workout"
	ResourceTemplate  ResourceType = "template"
	ResourceProfile   ResourceType = "profile"
	ResourceAccount   ResourceType = "account"
)

// DateRange is an inclusive calendar-date window. Empty bounds are open.
type DateRange struct {
	From string
	To   string
}

// NormalizeDate validates a YYYY-MM-DD calendar date.
func NormalizeDate(raw string) (string, error) {
	parsed, err := time.Parse(time.DateOnly, strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, raw)
	}
	return parsed.Format(time.DateOnly), nil
}

type DiaryEntry struct {
	ID                string    `json:"id" bson:"_id"`
	Owner             string    `json:"owner" bson:"owner"`
	Date              string    `json:"date" bson:"date"`
	Feeling           string    `json:"feeling" bson:"feeling"`
	Notes             string    `json:"notes" bson:"notes"`
	WorkoutPerformed  bool      `json:"workout_performed" bson:"workout_performed"`
	SpotifyTrackID    string    `json:"spotify_track_id,omitempty" bson:"spotify_track_id,omitempty"`
	SpotifyTrackName  string    `json:"spotify_track_name,omitempty" bson:"spotify_track_name,omitempty"`
	SpotifyArtistName string    `json:"spotify_artist_name,omitempty" bson:"spotify_artist_name,omitempty"`
	WorkoutSessionID  string    `json:"workout_session_id,omitempty" bson:"workout_session_id,omitempty"`
	CreatedAt         time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" bson:"updated_at"`
}

func (d DiaryEntry) RecordID() string    { return d.ID }
func (d DiaryEntry) RecordOwner() string { return d.Owner }
func (d DiaryEntry) RecordDate() string  { return d.Date }

type Meal struct {
	Name      string   `json:"name" bson:"name"`
	Time      string   `json:"time" bson:"time"`
	Calories  float64  `json:"calories" bson:"calories"`
	Protein   float64  `json:"protein" bson:"protein"`
	Carbs     float64  `json:"carbs" bson:"carbs"`
	Fat       float64  `json:"fat" bson:"fat"`
	FoodItems []string `json:"food_items" bson:"food_items"`
}

type NutritionLog struct {
	ID            string    `json:"id" bson:"_id"`
	Owner         string    `json:"owner" bson:"owner"`
	Date          string    `json:"date" bson:"date"`
	TotalCalories float64   `json:"total_calories" bson:"total_calories"`
	TotalProtein  float64   `json:"total_protein" bson:"total_protein"`
	TotalCarbs    float64   `json:"total_carbs" bson:"total_carbs"`
	TotalFat      float64   `json:"total_fat" bson:"total_fat"`
	Meals         []Meal    `json:"meals" bson:"meals"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

func (n NutritionLog) RecordID() string    { return n.ID }
func (n NutritionLog) RecordOwner() string { return n.Owner }
func (n NutritionLog) RecordDate() string  { return n.Date }

type ExerciseSet struct {
	SetNumber int     `json:"set_number" bson:"set_number"`
	Weight    float64 `json:"weight" bson:"weight"`
	Reps      int     `json:"reps" bson:"reps"`
	RPE       float64 `json:"rpe" bson:"rpe"`
	Completed bool    `json:"completed" bson:"completed"`
}

type ExerciseLog struct {
	ExerciseID  string        `json:"exercise_id" bson:"exercise_id"`
	Name        string        `json:"name" bson:"name"`
	MuscleGroup string        `json:"muscle_group" bson:"muscle_group"`
	Sets        []ExerciseSet `json:"sets" bson:"sets"`
}

// WorkoutSession is not unique per date; Date mirrors the calendar day of StartTime.
type WorkoutSession struct {
	ID         string        `json:"id" bson:"_id"`
	Owner      string        `json:"owner" bson:"owner"`
	Date       string        `json:"date" bson:"date"`
	StartTime  time.Time     `json:"start_time" bson:"start_time"`
	EndTime    *time.Time    `json:"end_time,omitempty" bson:"end_time,omitempty"`
	TemplateID *int64        `json:"template_id,omitempty" bson:"template_id,omitempty"`
	Name       string        `json:"name" bson:"name"`
	Exercises  []ExerciseLog `json:"exercises" bson:"exercises"`
	Notes      string        `json:"notes" bson:"notes"`
	CreatedAt  time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at" bson:"updated_at"`
}

func (w WorkoutSession) RecordID() string    { return w.ID }
func (w WorkoutSession) RecordOwner() string { return w.Owner }
func (w WorkoutSession) RecordDate() string  { return w.Date }

type WorkoutTemplate struct {
	ID          int64     `json:"id"`
	Owner       string    `json:"owner"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type TemplateExercise struct {
	ID           int64   `json:"id"`
	TemplateID   int64   `json:"template_id"`
	Position     int     `json:"position"`
	ExerciseID   string  `json:"exercise_id"`
	ExerciseName string  `json:"exercise_name"`
	Sets         int     `json:"sets"`
	Reps         int     `json:"reps"`
	Weight       float64 `json:"weight"`
}
