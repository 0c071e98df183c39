package model

import "time"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// DiaryEntryRequest carries client-editable diary fields. Owner is never read from input.
type DiaryEntryRequest struct {
	Date              string `json:"date"`
	Feeling           string `json:"feeling"`
	Notes             string `json:"notes"`
	WorkoutPerformed  bool   `json:"workout_performed"`
	SpotifyTrackID    string `json:"spotify_track_id"`
	SpotifyTrackName  string `json:"spotify_track_name"`
	SpotifyArtistName string `json:"spotify_artist_name"`
	WorkoutSessionID  string `json:"workout_session_id"`
}

type NutritionLogRequest struct {
	Date          string  `json:"date"`
	TotalCalories float64 `json:"total_calories"`
	TotalProtein  float64 `json:"total_protein"`
	TotalCarbs    float64 `json:"total_carbs"`
	TotalFat      float64 `json:"total_fat"`
	Meals         []Meal  `json:"meals"`
}

type WorkoutSessionRequest struct {
	StartTime  *time.Time    `json:"start_time"`
	EndTime    *time.Time    `json:"end_time"`
	TemplateID *int64        `json:"template_id"`
	Name       string        `json:"name"`
	Exercises  []ExerciseLog `json:"exercises"`
	Notes      string        `json:"notes"`
}

type TemplateExerciseRequest struct {
	ExerciseID   string  `json:"exercise_id"`
	ExerciseName string  `json:"exercise_name"`
	Sets         int     `json:"sets"`
	Reps         int     `json:"reps"`
	Weight       float64 `json:"weight"`
}

type TemplateRequest struct {
	Name        string                    `json:"name"`
	Description string                    `json:"description"`
	Exercises   []TemplateExerciseRequest `json:"exercises"`
}

type ProfileRequest struct {
	Name              string  `json:"name"`
	Age               int     `json:"age"`
	Height            float64 `json:"height"`
	Weight            float64 `json:"weight"`
	FitnessGoals      string  `json:"fitness_goals"`
	ProfilePictureURL string  `json:"profile_picture_url"`
}
